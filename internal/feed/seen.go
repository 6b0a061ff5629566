package feed

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"marketdesk/internal/storage"
)

// SeenTracker remembers which filing identities have already been shown so
// genuinely new filings can be badged. The persisted list is bounded;
// oldest entries fall off first.
type SeenTracker struct {
	store  storage.StringStore
	key    string
	limit  int
	logger zerolog.Logger
}

// NewSeenTracker builds a tracker persisted under key.
func NewSeenTracker(store storage.StringStore, key string, limit int, logger zerolog.Logger) *SeenTracker {
	if limit <= 0 {
		limit = 200
	}
	return &SeenTracker{
		store:  store,
		key:    key,
		limit:  limit,
		logger: logger.With().Str("component", "seen_tracker").Logger(),
	}
}

// Observe records ids as seen and reports which of them were new. A
// corrupt persisted list is treated as empty.
func (t *SeenTracker) Observe(ctx context.Context, ids []string) map[string]bool {
	known := t.load(ctx)
	knownSet := make(map[string]bool, len(known))
	for _, id := range known {
		knownSet[id] = true
	}

	fresh := make(map[string]bool)
	for _, id := range ids {
		if id == "" || knownSet[id] {
			continue
		}
		fresh[id] = true
		knownSet[id] = true
		known = append(known, id)
	}

	if len(fresh) > 0 {
		if len(known) > t.limit {
			known = known[len(known)-t.limit:]
		}
		t.save(ctx, known)
	}
	return fresh
}

func (t *SeenTracker) load(ctx context.Context) []string {
	raw, ok, err := t.store.Get(ctx, t.key)
	if err != nil {
		t.logger.Warn().Err(err).Msg("seen list read failed; treating as empty")
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		t.logger.Warn().Err(err).Msg("seen list corrupt; treating as empty")
		return nil
	}
	return ids
}

func (t *SeenTracker) save(ctx context.Context, ids []string) {
	encoded, err := json.Marshal(ids)
	if err != nil {
		t.logger.Error().Err(err).Msg("encode seen list")
		return
	}
	if err := t.store.Set(ctx, t.key, string(encoded)); err != nil {
		t.logger.Error().Err(err).Msg("persist seen list")
	}
}
