package history

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketdesk/internal/storage"
)

func newTestStore(mem *storage.Memory, max int) *Store {
	return NewStore(mem, Options{MaxPoints: max, SaveDebounce: 10 * time.Millisecond}, zerolog.Nop())
}

func TestRecordDropsDuplicateTimestamp(t *testing.T) {
	s := newTestStore(storage.NewMemory(), 300)

	s.Record("NVDA", 100, 1000)
	s.Record("NVDA", 999, 1000)

	points := s.Points("NVDA")
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Price != 100 {
		t.Fatalf("duplicate timestamp must keep the first price, got %v", points[0].Price)
	}
}

func TestRecordIgnoresNonFinitePrice(t *testing.T) {
	s := newTestStore(storage.NewMemory(), 300)

	s.Record("NVDA", math.NaN(), 1000)
	s.Record("NVDA", math.Inf(1), 2000)

	if got := len(s.Series("NVDA")); got != 0 {
		t.Fatalf("expected empty series, got %d points", got)
	}
}

func TestRecordEvictsOldestBeyondCap(t *testing.T) {
	s := newTestStore(storage.NewMemory(), 300)

	for i := 0; i < 301; i++ {
		s.Record("AMD", float64(i), int64(i+1))
	}

	points := s.Points("AMD")
	if len(points) != 300 {
		t.Fatalf("expected 300 points, got %d", len(points))
	}
	if points[0].Price != 1 {
		t.Fatalf("oldest point should have been evicted, first price %v", points[0].Price)
	}
	if points[299].Price != 300 {
		t.Fatalf("latest point missing, last price %v", points[299].Price)
	}
}

func TestDebouncedPersistCoalescesBurst(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(mem, 300)

	for i := 0; i < 20; i++ {
		s.Record("UNH", float64(i), int64(i+1))
	}
	time.Sleep(100 * time.Millisecond)

	if got := mem.Writes(storage.KeyHistory); got != 1 {
		t.Fatalf("burst of records should persist once, wrote %d times", got)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(mem, 300)
	s.Record("NVDA", 100.5, 1000)
	s.Record("NVDA", 101.5, 2000)
	s.Flush()

	restored := newTestStore(mem, 300)
	restored.Load(context.Background())

	values := restored.Series("NVDA")
	if len(values) != 2 || values[0] != 100.5 || values[1] != 101.5 {
		t.Fatalf("unexpected restored series %v", values)
	}
}

func TestLoadResetsOnCorruptPayload(t *testing.T) {
	mem := storage.NewMemory()
	if err := mem.Set(context.Background(), storage.KeyHistory, "{not json"); err != nil {
		t.Fatal(err)
	}

	s := newTestStore(mem, 300)
	s.Load(context.Background())
	if got := len(s.Symbols()); got != 0 {
		t.Fatalf("corrupt payload should leave the store empty, got %d symbols", got)
	}
}

func TestLoadDiscardsMalformedSymbolsIndividually(t *testing.T) {
	mem := storage.NewMemory()
	payload := `{"NVDA":[[1000,100.5],[2000,101.5]],"BAD":"oops"}`
	if err := mem.Set(context.Background(), storage.KeyHistory, payload); err != nil {
		t.Fatal(err)
	}

	s := newTestStore(mem, 300)
	s.Load(context.Background())

	values := s.Series("NVDA")
	if len(values) != 2 || values[0] != 100.5 || values[1] != 101.5 {
		t.Fatalf("well-formed symbol should survive a malformed sibling, got %v", values)
	}
	if got := len(s.Series("BAD")); got != 0 {
		t.Fatalf("malformed symbol should be discarded, got %d points", got)
	}
}

func TestLoadFiltersNonFinitePointsAndTruncates(t *testing.T) {
	mem := storage.NewMemory()

	pairs := make([][2]float64, 0, 305)
	for i := 0; i < 305; i++ {
		pairs = append(pairs, [2]float64{float64(i + 1), float64(i)})
	}
	payload, err := json.Marshal(map[string][][2]float64{"NVDA": pairs})
	if err != nil {
		t.Fatal(err)
	}
	if err := mem.Set(context.Background(), storage.KeyHistory, string(payload)); err != nil {
		t.Fatal(err)
	}

	s := newTestStore(mem, 300)
	s.Load(context.Background())

	values := s.Series("NVDA")
	if len(values) != 300 {
		t.Fatalf("expected truncation to 300 points, got %d", len(values))
	}
	if values[0] != 5 {
		t.Fatalf("expected oldest retained point to be 5, got %v", values[0])
	}
}
