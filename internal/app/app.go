package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"marketdesk/internal/config"
	"marketdesk/internal/fetcher"
	"marketdesk/internal/render"
	"marketdesk/internal/service"
	"marketdesk/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetchers() (*fetcher.Backend, *fetcher.Binance) {
	backend := fetcher.NewBackend(fetcher.BackendOptions{
		BaseURL:   a.Config.Sources.QuoteBaseURL,
		Timeout:   a.Config.Sources.RequestTimeout,
		UserAgent: a.Config.Sources.UserAgent,
	}, a.Logger)

	binance := fetcher.NewBinance(fetcher.BinanceOptions{
		BaseURL:   a.Config.Sources.BinanceBaseURL,
		Timeout:   a.Config.Sources.RequestTimeout,
		UserAgent: a.Config.Sources.UserAgent,
	}, a.Logger)

	return backend, binance
}

// openStore selects the persistence backend: PostgreSQL when a DSN is
// configured, the local SQLite file otherwise.
func (a *App) openStore(ctx context.Context) (storage.StringStore, error) {
	if a.Config.Storage.PostgresDSN != "" {
		return storage.NewPostgres(ctx, storage.PostgresOptions{
			DSN:             a.Config.Storage.PostgresDSN,
			MaxOpenConns:    a.Config.Storage.MaxOpenConns,
			ConnMaxLifetime: a.Config.Storage.ConnMaxLifetime,
		}, a.Logger)
	}
	return storage.NewSQLite(a.Config.Storage.SQLitePath, a.Logger)
}

// Run executes the long-running monitoring service until interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	backend, binance := a.newFetchers()

	svc, err := service.New(service.Options{
		Config:   a.Config,
		Store:    store,
		Quotes:   backend,
		Tickers:  binance,
		Events:   backend,
		Crypto:   backend,
		Renderer: render.NewLogRenderer(a.Logger),
	}, a.Logger)
	if err != nil {
		return err
	}

	a.Logger.Info().Msg("starting monitoring service")
	svc.Start(ctx)

	<-ctx.Done()
	svc.Stop()
	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting recorded price history.
type ExportOptions struct {
	Symbol    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Symbol string
	Limit  int
}
