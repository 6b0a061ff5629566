package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"marketdesk/internal/storage"
)

// Snapshot is the combined stock events payload shared by the filings,
// news, and press feeds.
type Snapshot struct {
	Data   []StockEvent `json:"data"`
	Errors []string     `json:"errors,omitempty"`
}

// Filings returns the snapshot's regulatory filing items.
func (s Snapshot) Filings() []StockEvent { return s.filter(StockEvent.IsFiling) }

// News returns the snapshot's news items.
func (s Snapshot) News() []StockEvent {
	return s.filter(func(e StockEvent) bool { return e.Type == TypeNews })
}

// Press returns the snapshot's press-release items.
func (s Snapshot) Press() []StockEvent {
	return s.filter(func(e StockEvent) bool { return e.Type == TypePressRelease })
}

func (s Snapshot) filter(keep func(StockEvent) bool) []StockEvent {
	out := make([]StockEvent, 0, len(s.Data))
	for _, item := range s.Data {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// SnapshotFunc fetches a fresh events snapshot from the backend.
type SnapshotFunc func(ctx context.Context) (Snapshot, error)

// SnapshotSource serves the events snapshot to the three stock feeds with
// a freshness window and at most one in-flight fetch. Concurrent callers
// arriving while a fetch is outstanding share its result instead of
// issuing duplicate requests. A failed fetch clears the in-flight slot and
// leaves the last good snapshot untouched.
type SnapshotSource struct {
	fetch  SnapshotFunc
	ttl    time.Duration
	store  storage.StringStore
	logger zerolog.Logger

	group singleflight.Group

	mu        sync.Mutex
	snapshot  *Snapshot
	fetchedAt time.Time

	now func() time.Time
}

// NewSnapshotSource wraps fetch with caching and in-flight deduplication.
func NewSnapshotSource(fetch SnapshotFunc, ttl time.Duration, store storage.StringStore, logger zerolog.Logger) *SnapshotSource {
	return &SnapshotSource{
		fetch:  fetch,
		ttl:    ttl,
		store:  store,
		logger: logger.With().Str("component", "events_snapshot").Logger(),
		now:    time.Now,
	}
}

// Get returns a snapshot no older than the freshness window, fetching one
// if needed.
func (s *SnapshotSource) Get(ctx context.Context) (Snapshot, error) {
	if snap, ok := s.fresh(); ok {
		return snap, nil
	}

	result, err, _ := s.group.Do("events", func() (any, error) {
		// A caller queued behind a completed fetch reuses its result.
		if snap, ok := s.fresh(); ok {
			return snap, nil
		}

		snap, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.snapshot = &snap
		s.fetchedAt = s.now()
		s.mu.Unlock()

		s.persistRaw(ctx, snap)
		return snap, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return result.(Snapshot), nil
}

func (s *SnapshotSource) fresh() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil || s.now().Sub(s.fetchedAt) >= s.ttl {
		return Snapshot{}, false
	}
	return *s.snapshot, true
}

// persistRaw keeps the full snapshot list on disk for the show command and
// post-restart inspection; the per-feed caches are persisted separately.
func (s *SnapshotSource) persistRaw(ctx context.Context, snap Snapshot) {
	encoded, err := json.Marshal(snap.Data)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode events snapshot")
		return
	}
	if err := s.store.Set(ctx, storage.KeyEvents, string(encoded)); err != nil {
		s.logger.Error().Err(err).Msg("persist events snapshot")
	}
}
