package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"marketdesk/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Logging logging.Config `mapstructure:"logging"`
	Storage StorageConfig  `mapstructure:"storage"`
	Watch   WatchConfig    `mapstructure:"watch"`
	Polling PollingConfig  `mapstructure:"polling"`
	Sources SourcesConfig  `mapstructure:"sources"`
	History HistoryConfig  `mapstructure:"history"`
	Feeds   FeedsConfig    `mapstructure:"feeds"`
	Market  MarketConfig   `mapstructure:"market"`
	Export  ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// StorageConfig selects the persistent string-store backend.
type StorageConfig struct {
	// Path of the SQLite database used by default.
	SQLitePath string `mapstructure:"sqlite_path"`
	// When set, the PostgreSQL backend is used instead of SQLite.
	PostgresDSN     string        `mapstructure:"postgres_dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// WatchConfig lists the instruments being tracked.
type WatchConfig struct {
	Stocks  []string `mapstructure:"stocks"`
	Cryptos []string `mapstructure:"cryptos"`
}

// PollingConfig governs refresh cadence per data path.
type PollingConfig struct {
	StockInterval       time.Duration `mapstructure:"stock_interval"`
	CryptoInterval      time.Duration `mapstructure:"crypto_interval"`
	FilingsInterval     time.Duration `mapstructure:"filings_interval"`
	NewsInterval        time.Duration `mapstructure:"news_interval"`
	PressInterval       time.Duration `mapstructure:"press_interval"`
	CryptoNewsInterval  time.Duration `mapstructure:"crypto_news_interval"`
	CryptoPressInterval time.Duration `mapstructure:"crypto_press_interval"`
}

// SourcesConfig covers the external quote and event endpoints.
type SourcesConfig struct {
	QuoteBaseURL   string        `mapstructure:"quote_base_url"`
	BinanceBaseURL string        `mapstructure:"binance_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// HistoryConfig bounds the local price time series.
type HistoryConfig struct {
	MaxPoints    int           `mapstructure:"max_points"`
	SaveDebounce time.Duration `mapstructure:"save_debounce"`
}

// FeedsConfig bounds the event merge caches.
type FeedsConfig struct {
	CacheLimit   int           `mapstructure:"cache_limit"`
	CryptoWindow time.Duration `mapstructure:"crypto_window"`
	SeenLimit    int           `mapstructure:"seen_limit"`
}

// MarketConfig drives trading-session resolution and staleness checks.
type MarketConfig struct {
	Timezone     string        `mapstructure:"timezone"`
	SessionStale time.Duration `mapstructure:"session_stale"`
	QuoteStale   time.Duration `mapstructure:"quote_stale"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Minimum poll intervals; values below these are clamped, not rejected.
const (
	MinStockInterval  = 120 * time.Second
	MinCryptoInterval = 5 * time.Second
)

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKETDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "marketdesk")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("storage.sqlite_path", "marketdesk.db")
	v.SetDefault("storage.max_open_conns", 5)
	v.SetDefault("storage.conn_max_lifetime", "30m")

	v.SetDefault("watch.stocks", []string{"NVDA", "MRVL", "AMD", "UNH", "QBTS", "APLD", "SOUN", "CRWV", "CLSK"})
	v.SetDefault("watch.cryptos", []string{"BTC/USDT", "XRP/USDT", "ADA/USDT", "HBAR/USDT", "XLM/USDT"})

	v.SetDefault("polling.stock_interval", "120s")
	v.SetDefault("polling.crypto_interval", "15s")
	v.SetDefault("polling.filings_interval", "5m")
	v.SetDefault("polling.news_interval", "3m")
	v.SetDefault("polling.press_interval", "6m")
	v.SetDefault("polling.crypto_news_interval", "6m")
	v.SetDefault("polling.crypto_press_interval", "8m")

	v.SetDefault("sources.quote_base_url", "http://localhost:8080")
	v.SetDefault("sources.binance_base_url", "https://api.binance.com")
	v.SetDefault("sources.request_timeout", "10s")
	v.SetDefault("sources.user_agent", "marketdesk/1.0")

	v.SetDefault("history.max_points", 300)
	v.SetDefault("history.save_debounce", "800ms")

	v.SetDefault("feeds.cache_limit", 60)
	v.SetDefault("feeds.crypto_window", "24h")
	v.SetDefault("feeds.seen_limit", 200)

	v.SetDefault("market.timezone", "America/New_York")
	v.SetDefault("market.session_stale", "15m")
	v.SetDefault("market.quote_stale", "60s")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Normalize clamps poll intervals to their minimums instead of rejecting them.
func (c *Config) Normalize() {
	if c.Polling.StockInterval < MinStockInterval {
		c.Polling.StockInterval = MinStockInterval
	}
	if c.Polling.CryptoInterval < MinCryptoInterval {
		c.Polling.CryptoInterval = MinCryptoInterval
	}
	if c.History.MaxPoints <= 0 {
		c.History.MaxPoints = 300
	}
	if c.Feeds.CacheLimit <= 0 {
		c.Feeds.CacheLimit = 60
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if len(c.Watch.Stocks) == 0 && len(c.Watch.Cryptos) == 0 {
		return fmt.Errorf("watch.stocks and watch.cryptos cannot both be empty")
	}
	if c.Sources.QuoteBaseURL == "" {
		return fmt.Errorf("sources.quote_base_url is required")
	}
	if c.History.SaveDebounce <= 0 {
		return fmt.Errorf("history.save_debounce must be greater than zero")
	}
	if c.Feeds.CryptoWindow <= 0 {
		return fmt.Errorf("feeds.crypto_window must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
