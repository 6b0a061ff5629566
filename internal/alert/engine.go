// Package alert owns the user price alerts and their crossing detection.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marketdesk/internal/storage"
)

// Side is which side of the level the price sits on. It doubles as the
// alert's configured trigger direction.
type Side string

const (
	Above Side = "above"
	Below Side = "below"
)

// Alert is one user-defined price alert.
//
// TriggeredAt is only ever set by a detected crossing; Reset clears it back
// to nil. LastState survives a reset on purpose: the next evaluation must
// not re-fire unless the price genuinely crosses again.
type Alert struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	Level       float64 `json:"level"`
	Direction   Side    `json:"direction"`
	CreatedAt   int64   `json:"createdAt"`
	TriggeredAt *int64  `json:"triggeredAt"`
	LastState   *Side   `json:"lastState"`
}

// Triggered reports whether the alert has fired and not been rearmed.
func (a Alert) Triggered() bool { return a.TriggeredAt != nil }

// PriceLookup resolves the latest price for a symbol across all tracked
// instruments. ok is false when no finite price is known.
type PriceLookup func(symbol string) (price float64, ok bool)

// Engine holds the alert collection and persists it on every mutation.
type Engine struct {
	store  storage.StringStore
	logger zerolog.Logger

	mu     sync.Mutex
	alerts []Alert

	now func() time.Time
	rng *rand.Rand
}

// NewEngine builds an empty engine. Call Load to restore persisted alerts.
func NewEngine(store storage.StringStore, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger.With().Str("component", "alerts").Logger(),
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Add creates a new armed alert at the head of the collection.
func (e *Engine) Add(ctx context.Context, symbol string, level float64, direction Side) (Alert, error) {
	if symbol == "" {
		return Alert{}, fmt.Errorf("alert symbol is required")
	}
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return Alert{}, fmt.Errorf("alert level must be finite")
	}
	if direction != Above && direction != Below {
		return Alert{}, fmt.Errorf("alert direction must be %q or %q", Above, Below)
	}

	e.mu.Lock()
	nowMs := e.now().UnixMilli()
	created := Alert{
		ID:        fmt.Sprintf("alert_%d_%04x", nowMs, e.rng.Intn(0x10000)),
		Symbol:    symbol,
		Level:     level,
		Direction: direction,
		CreatedAt: nowMs,
	}
	e.alerts = append([]Alert{created}, e.alerts...)
	e.mu.Unlock()

	e.save(ctx)
	return created, nil
}

// Reset rearms a triggered alert. LastState is deliberately untouched.
func (e *Engine) Reset(ctx context.Context, id string) bool {
	e.mu.Lock()
	found := false
	for i := range e.alerts {
		if e.alerts[i].ID == id {
			e.alerts[i].TriggeredAt = nil
			found = true
		}
	}
	e.mu.Unlock()

	if found {
		e.save(ctx)
	}
	return found
}

// Remove deletes an alert by id.
func (e *Engine) Remove(ctx context.Context, id string) bool {
	e.mu.Lock()
	kept := e.alerts[:0]
	found := false
	for _, a := range e.alerts {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	e.alerts = kept
	e.mu.Unlock()

	if found {
		e.save(ctx)
	}
	return found
}

// List returns a copy of the alerts sorted for display: most recent
// trigger or creation first.
func (e *Engine) List() []Alert {
	e.mu.Lock()
	out := make([]Alert, len(e.alerts))
	copy(out, e.alerts)
	e.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return displayTime(out[i]) > displayTime(out[j])
	})
	return out
}

func displayTime(a Alert) int64 {
	if a.TriggeredAt != nil {
		return *a.TriggeredAt
	}
	return a.CreatedAt
}

// Evaluate runs crossing detection for every alert. An alert fires only
// when a previous state exists, the state changed, and the new state
// matches the configured direction; starting already beyond the level
// never fires. Alerts without a finite price are skipped untouched.
// Returns true when any alert changed (and was persisted).
func (e *Engine) Evaluate(ctx context.Context, lookup PriceLookup) bool {
	changed := false

	e.mu.Lock()
	for i := range e.alerts {
		a := &e.alerts[i]
		price, ok := lookup(a.Symbol)
		if !ok || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}

		current := Below
		if price >= a.Level {
			current = Above
		}

		fires := a.LastState != nil && current != *a.LastState && current == a.Direction
		if a.LastState == nil || *a.LastState != current {
			state := current
			a.LastState = &state
			changed = true
		}
		if fires {
			t := e.now().UnixMilli()
			a.TriggeredAt = &t
			e.logger.Info().
				Str("id", a.ID).
				Str("symbol", a.Symbol).
				Float64("level", a.Level).
				Str("direction", string(a.Direction)).
				Float64("price", price).
				Msg("alert triggered")
		}
	}
	e.mu.Unlock()

	if changed {
		e.save(ctx)
	}
	return changed
}

// Load restores persisted alerts. Records missing createdAt are coerced
// using the timestamp embedded in the id, defaulting to load time; a
// payload that fails to parse resets the collection to empty.
func (e *Engine) Load(ctx context.Context) {
	raw, ok, err := e.store.Get(ctx, storage.KeyAlerts)
	if err != nil {
		e.logger.Warn().Err(err).Msg("alerts read failed; starting empty")
		return
	}
	if !ok || raw == "" {
		return
	}

	var loaded []Alert
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		e.logger.Warn().Err(err).Msg("alerts payload corrupt; starting empty")
		return
	}

	nowMs := e.now().UnixMilli()
	for i := range loaded {
		if loaded[i].CreatedAt > 0 {
			continue
		}
		loaded[i].CreatedAt = createdAtFromID(loaded[i].ID, nowMs)
	}

	e.mu.Lock()
	e.alerts = loaded
	e.mu.Unlock()
	e.save(ctx)
}

// createdAtFromID recovers the creation timestamp embedded in ids of the
// form alert_<unixms>_<suffix>.
func createdAtFromID(id string, fallback int64) int64 {
	parts := strings.Split(id, "_")
	if len(parts) < 2 {
		return fallback
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || ms <= 0 {
		return fallback
	}
	return ms
}

func (e *Engine) save(ctx context.Context) {
	e.mu.Lock()
	encoded, err := json.Marshal(e.alerts)
	e.mu.Unlock()
	if err != nil {
		e.logger.Error().Err(err).Msg("encode alerts payload")
		return
	}
	if err := e.store.Set(ctx, storage.KeyAlerts, string(encoded)); err != nil {
		e.logger.Error().Err(err).Msg("persist alerts")
	}
}
