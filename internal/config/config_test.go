package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Watch.Stocks) == 0 || len(cfg.Watch.Cryptos) == 0 {
		t.Fatal("default watch lists must not be empty")
	}
	if cfg.Polling.StockInterval != 2*time.Minute {
		t.Fatalf("unexpected stock interval %v", cfg.Polling.StockInterval)
	}
	if cfg.History.MaxPoints != 300 {
		t.Fatalf("unexpected max points %d", cfg.History.MaxPoints)
	}
	if cfg.History.SaveDebounce != 800*time.Millisecond {
		t.Fatalf("unexpected save debounce %v", cfg.History.SaveDebounce)
	}
	if cfg.Feeds.CacheLimit != 60 {
		t.Fatalf("unexpected cache limit %d", cfg.Feeds.CacheLimit)
	}
	if cfg.Market.Timezone != "America/New_York" {
		t.Fatalf("unexpected timezone %q", cfg.Market.Timezone)
	}
}

func TestLoadClampsPollIntervals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("polling:\n  stock_interval: 1s\n  crypto_interval: 1s\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Polling.StockInterval != MinStockInterval {
		t.Fatalf("stock interval should clamp to %v, got %v", MinStockInterval, cfg.Polling.StockInterval)
	}
	if cfg.Polling.CryptoInterval != MinCryptoInterval {
		t.Fatalf("crypto interval should clamp to %v, got %v", MinCryptoInterval, cfg.Polling.CryptoInterval)
	}
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("market:\n  timezone: Nowhere/Invalid\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestValidateRejectsEmptyWatchLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("watch:\n  stocks: []\n  cryptos: []\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty watch lists")
	}
}
