package service

import (
	"context"
	"encoding/json"
	"time"

	"marketdesk/internal/config"
	"marketdesk/internal/storage"
)

// Settings are the user-adjustable poll intervals. They persist across
// restarts and override the configured defaults.
type Settings struct {
	StockInterval  time.Duration
	CryptoInterval time.Duration
}

// persistedSettings is the stored shape, in milliseconds.
type persistedSettings struct {
	StockMs  int64 `json:"stockMs"`
	CryptoMs int64 `json:"cryptoMs"`
}

// Clamp enforces the minimum intervals. Values at or below zero take the
// configured default instead.
func (st *Settings) Clamp(cfg *config.Config) {
	if st.StockInterval <= 0 {
		st.StockInterval = cfg.Polling.StockInterval
	}
	if st.CryptoInterval <= 0 {
		st.CryptoInterval = cfg.Polling.CryptoInterval
	}
	if st.StockInterval < config.MinStockInterval {
		st.StockInterval = config.MinStockInterval
	}
	if st.CryptoInterval < config.MinCryptoInterval {
		st.CryptoInterval = config.MinCryptoInterval
	}
}

// ApplySettings persists new poll intervals and restarts the affected
// pollers so the new cadence takes effect immediately.
func (s *Service) ApplySettings(ctx context.Context, settings Settings) Settings {
	settings.Clamp(s.cfg)

	encoded, err := json.Marshal(persistedSettings{
		StockMs:  settings.StockInterval.Milliseconds(),
		CryptoMs: settings.CryptoInterval.Milliseconds(),
	})
	if err == nil {
		if err := s.store.Set(ctx, storage.KeySettings, string(encoded)); err != nil {
			s.logger.Error().Err(err).Msg("persist poll settings")
		}
	}

	if len(s.cfg.Watch.Stocks) > 0 {
		s.stockPoller.Start(ctx, settings.StockInterval)
	}
	if len(s.cfg.Watch.Cryptos) > 0 {
		s.cryptoPoller.Start(ctx, settings.CryptoInterval)
	}

	s.logger.Info().
		Dur("stockInterval", settings.StockInterval).
		Dur("cryptoInterval", settings.CryptoInterval).
		Msg("poll settings applied")
	return settings
}

// loadSettings restores persisted poll intervals, falling back to the
// configured defaults on any read or parse problem.
func (s *Service) loadSettings(ctx context.Context) Settings {
	settings := Settings{
		StockInterval:  s.cfg.Polling.StockInterval,
		CryptoInterval: s.cfg.Polling.CryptoInterval,
	}

	raw, ok, err := s.store.Get(ctx, storage.KeySettings)
	if err != nil {
		s.logger.Warn().Err(err).Msg("poll settings read failed; using defaults")
		return settings
	}
	if !ok || raw == "" {
		return settings
	}

	var stored persistedSettings
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn().Err(err).Msg("poll settings corrupt; using defaults")
		return settings
	}
	if stored.StockMs > 0 {
		settings.StockInterval = time.Duration(stored.StockMs) * time.Millisecond
	}
	if stored.CryptoMs > 0 {
		settings.CryptoInterval = time.Duration(stored.CryptoMs) * time.Millisecond
	}
	settings.Clamp(s.cfg)
	return settings
}
