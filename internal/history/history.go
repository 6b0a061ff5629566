// Package history keeps a bounded per-symbol price time series, persisted
// through the string store so indicator state survives restarts.
package history

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marketdesk/internal/scheduler"
	"marketdesk/internal/storage"
)

// PricePoint is one recorded sample.
type PricePoint struct {
	TimestampMs int64
	Price       float64
}

// Options tune the store.
type Options struct {
	MaxPoints    int
	SaveDebounce time.Duration
}

// Store records (timestamp, price) samples per symbol, bounded to MaxPoints
// with the oldest samples evicted first. Writes to the backing store are
// debounced so a polling burst becomes a single persist.
type Store struct {
	store  storage.StringStore
	max    int
	logger zerolog.Logger

	mu     sync.Mutex
	series map[string][]PricePoint

	saver *scheduler.Debouncer
	now   func() time.Time
}

// NewStore builds the history store. Call Load to restore persisted series.
func NewStore(store storage.StringStore, opts Options, logger zerolog.Logger) *Store {
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = 300
	}
	if opts.SaveDebounce <= 0 {
		opts.SaveDebounce = 800 * time.Millisecond
	}

	s := &Store{
		store:  store,
		max:    opts.MaxPoints,
		logger: logger.With().Str("component", "history").Logger(),
		series: make(map[string][]PricePoint),
		now:    time.Now,
	}
	s.saver = scheduler.NewDebouncer(opts.SaveDebounce, s.persist)
	return s
}

// Record appends a sample for symbol. Non-finite prices are ignored. A
// sample sharing the last point's timestamp is dropped outright; the stored
// price is not updated. A non-positive timestamp falls back to now.
func (s *Store) Record(symbol string, price float64, timestampMs int64) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return
	}
	if timestampMs <= 0 {
		timestampMs = s.now().UnixMilli()
	}

	s.mu.Lock()
	points := s.series[symbol]
	if n := len(points); n > 0 && points[n-1].TimestampMs == timestampMs {
		s.mu.Unlock()
		return
	}
	points = append(points, PricePoint{TimestampMs: timestampMs, Price: price})
	if len(points) > s.max {
		points = points[len(points)-s.max:]
	}
	s.series[symbol] = points
	s.mu.Unlock()

	s.saver.Trigger()
}

// Series returns the ordered prices for symbol, oldest first. Unknown
// symbols yield an empty slice.
func (s *Store) Series(symbol string) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := s.series[symbol]
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Price
	}
	return values
}

// Points returns a copy of the raw samples for symbol, oldest first.
func (s *Store) Points(symbol string) []PricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := make([]PricePoint, len(s.series[symbol]))
	copy(points, s.series[symbol])
	return points
}

// Symbols lists the symbols with at least one recorded sample.
func (s *Store) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbols := make([]string, 0, len(s.series))
	for symbol := range s.series {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// Load restores persisted series. Symbols with a malformed shape are
// discarded individually; a payload that fails to parse at all resets the
// store to empty. Load never fails the caller.
func (s *Store) Load(ctx context.Context) {
	raw, ok, err := s.store.Get(ctx, storage.KeyHistory)
	if err != nil {
		s.logger.Warn().Err(err).Msg("history read failed; starting empty")
		return
	}
	if !ok || raw == "" {
		return
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		s.logger.Warn().Err(err).Msg("history payload corrupt; starting empty")
		s.mu.Lock()
		s.series = make(map[string][]PricePoint)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for symbol, rawPairs := range payload {
		var pairs [][2]float64
		if err := json.Unmarshal(rawPairs, &pairs); err != nil {
			s.logger.Warn().Str("symbol", symbol).Msg("history series malformed; discarding symbol")
			continue
		}
		points := make([]PricePoint, 0, len(pairs))
		for _, pair := range pairs {
			t, p := pair[0], pair[1]
			if math.IsNaN(t) || math.IsInf(t, 0) || math.IsNaN(p) || math.IsInf(p, 0) {
				continue
			}
			points = append(points, PricePoint{TimestampMs: int64(t), Price: p})
		}
		if len(points) > s.max {
			points = points[len(points)-s.max:]
		}
		s.series[symbol] = points
	}
}

// Flush persists immediately if a debounced save is pending. Called at
// shutdown.
func (s *Store) Flush() {
	s.saver.Flush()
}

func (s *Store) persist() {
	s.mu.Lock()
	payload := make(map[string][][2]float64, len(s.series))
	for symbol, points := range s.series {
		pairs := make([][2]float64, len(points))
		for i, p := range points {
			pairs[i] = [2]float64{float64(p.TimestampMs), p.Price}
		}
		payload[symbol] = pairs
	}
	s.mu.Unlock()

	encoded, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode history payload")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Set(ctx, storage.KeyHistory, string(encoded)); err != nil {
		s.logger.Error().Err(err).Msg("persist history")
	}
}
