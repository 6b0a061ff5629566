package alert

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketdesk/internal/storage"
)

func newTestEngine(mem *storage.Memory) *Engine {
	e := NewEngine(mem, zerolog.Nop())
	e.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return e
}

func fixedPrice(p float64) PriceLookup {
	return func(string) (float64, bool) { return p, true }
}

func TestCrossingRequiresGenuineEdge(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(storage.NewMemory())
	if _, err := e.Add(ctx, "NVDA", 100, Above); err != nil {
		t.Fatal(err)
	}

	// First observation: already above, but no prior state; must not fire.
	e.Evaluate(ctx, fixedPrice(150))
	a := e.List()[0]
	if a.LastState == nil || *a.LastState != Above {
		t.Fatalf("expected lastState above, got %v", a.LastState)
	}
	if a.Triggered() {
		t.Fatal("first observation must not fire")
	}

	// Falls below: a crossing, but in the wrong direction.
	e.Evaluate(ctx, fixedPrice(90))
	a = e.List()[0]
	if *a.LastState != Below {
		t.Fatalf("expected lastState below, got %v", *a.LastState)
	}
	if a.Triggered() {
		t.Fatal("downward crossing must not fire an above alert")
	}

	// Back above: below-to-above matches direction, so it fires.
	e.Evaluate(ctx, fixedPrice(120))
	a = e.List()[0]
	if !a.Triggered() {
		t.Fatal("below-to-above crossing should fire")
	}
}

func TestMissingPriceLeavesAlertUntouched(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(storage.NewMemory())
	if _, err := e.Add(ctx, "NVDA", 100, Above); err != nil {
		t.Fatal(err)
	}

	changed := e.Evaluate(ctx, func(string) (float64, bool) { return 0, false })
	if changed {
		t.Fatal("no price available should change nothing")
	}
	if a := e.List()[0]; a.LastState != nil {
		t.Fatal("lastState should stay unset without a price")
	}
}

func TestResetKeepsLastState(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(storage.NewMemory())
	created, err := e.Add(ctx, "NVDA", 100, Above)
	if err != nil {
		t.Fatal(err)
	}

	e.Evaluate(ctx, fixedPrice(90))
	e.Evaluate(ctx, fixedPrice(120)) // fires

	if !e.Reset(ctx, created.ID) {
		t.Fatal("reset should find the alert")
	}
	a := e.List()[0]
	if a.Triggered() {
		t.Fatal("reset should clear triggeredAt")
	}
	if a.LastState == nil || *a.LastState != Above {
		t.Fatal("reset must not touch lastState")
	}

	// Price still above: no new crossing, must not re-fire.
	e.Evaluate(ctx, fixedPrice(130))
	if e.List()[0].Triggered() {
		t.Fatal("rearmed alert must not re-fire without a fresh crossing")
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(storage.NewMemory())
	created, _ := e.Add(ctx, "NVDA", 100, Below)
	if !e.Remove(ctx, created.ID) {
		t.Fatal("remove should find the alert")
	}
	if len(e.List()) != 0 {
		t.Fatal("alert should be gone")
	}
	if e.Remove(ctx, created.ID) {
		t.Fatal("second remove should report not found")
	}
}

func TestLoadBackfillsCreatedAtFromID(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	persisted := []map[string]any{
		{"id": "alert_1650000000000_a1b2", "symbol": "AMD", "level": 90.0, "direction": "below"},
		{"id": "garbled", "symbol": "UNH", "level": 500.0, "direction": "above"},
	}
	encoded, _ := json.Marshal(persisted)
	if err := mem.Set(ctx, storage.KeyAlerts, string(encoded)); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(mem)
	e.Load(ctx)

	alerts := e.List()
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	var amd, unh Alert
	for _, a := range alerts {
		switch a.Symbol {
		case "AMD":
			amd = a
		case "UNH":
			unh = a
		}
	}
	if amd.CreatedAt != 1650000000000 {
		t.Fatalf("createdAt should come from the id, got %d", amd.CreatedAt)
	}
	if unh.CreatedAt != 1700000000000 {
		t.Fatalf("unparseable id should default createdAt to load time, got %d", unh.CreatedAt)
	}
}

func TestLoadResetsOnCorruptPayload(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	if err := mem.Set(ctx, storage.KeyAlerts, "[{broken"); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(mem)
	e.Load(ctx)
	if len(e.List()) != 0 {
		t.Fatal("corrupt payload should leave the collection empty")
	}
}

func TestPersistOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	e := newTestEngine(mem)

	created, _ := e.Add(ctx, "NVDA", 100, Above)
	e.Evaluate(ctx, fixedPrice(150)) // lastState change persists
	e.Reset(ctx, created.ID)
	e.Remove(ctx, created.ID)

	if got := mem.Writes(storage.KeyAlerts); got != 4 {
		t.Fatalf("expected 4 persisted writes, got %d", got)
	}
}
