// Package service runs the ingestion loops: quote polling, feed refreshes,
// alert evaluation, and the persistence that hangs off them.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"marketdesk/internal/alert"
	"marketdesk/internal/config"
	"marketdesk/internal/feed"
	"marketdesk/internal/fetcher"
	"marketdesk/internal/history"
	"marketdesk/internal/indicator"
	"marketdesk/internal/market"
	"marketdesk/internal/render"
	"marketdesk/internal/scheduler"
	"marketdesk/internal/session"
	"marketdesk/internal/storage"
)

// Options collects the collaborators the service coordinates.
type Options struct {
	Config   *config.Config
	Store    storage.StringStore
	Quotes   fetcher.QuoteFetcher
	Tickers  fetcher.TickerFetcher
	Events   fetcher.EventsFetcher
	Crypto   fetcher.CryptoFeedFetcher
	Renderer render.Renderer
}

// Service owns the market state and drives every polling loop.
type Service struct {
	cfg      *config.Config
	logger   zerolog.Logger
	store    storage.StringStore
	renderer render.Renderer

	quotes  fetcher.QuoteFetcher
	tickers fetcher.TickerFetcher
	crypto  fetcher.CryptoFeedFetcher

	market   *market.State
	history  *history.Store
	alerts   *alert.Engine
	sessions *session.Resolver

	events      *feed.SnapshotSource
	seenFilings *feed.SeenTracker

	filingsCache     *feed.Cache[feed.StockEvent]
	newsCache        *feed.Cache[feed.StockEvent]
	pressCache       *feed.Cache[feed.StockEvent]
	cryptoNewsCache  *feed.Cache[feed.CryptoNewsItem]
	cryptoPressCache *feed.Cache[feed.CryptoPressItem]

	stockPoller       *scheduler.Poller
	cryptoPoller      *scheduler.Poller
	filingsPoller     *scheduler.Poller
	newsPoller        *scheduler.Poller
	pressPoller       *scheduler.Poller
	cryptoNewsPoller  *scheduler.Poller
	cryptoPressPoller *scheduler.Poller

	now func() time.Time
}

// New wires a service from its collaborators.
func New(opts Options, logger zerolog.Logger) (*Service, error) {
	cfg := opts.Config
	resolver, err := session.NewResolver(cfg.Market.Timezone, cfg.Market.SessionStale)
	if err != nil {
		return nil, fmt.Errorf("session resolver: %w", err)
	}

	s := &Service{
		cfg:      cfg,
		logger:   logger.With().Str("component", "service").Logger(),
		store:    opts.Store,
		renderer: opts.Renderer,
		quotes:   opts.Quotes,
		tickers:  opts.Tickers,
		crypto:   opts.Crypto,
		market:   market.NewState(),
		sessions: resolver,
		now:      time.Now,
	}

	s.history = history.NewStore(opts.Store, history.Options{
		MaxPoints:    cfg.History.MaxPoints,
		SaveDebounce: cfg.History.SaveDebounce,
	}, logger)
	s.alerts = alert.NewEngine(opts.Store, logger)

	// Feed refreshes arrive on independent timers but share one upstream
	// snapshot; the source keeps them from issuing duplicate requests.
	ttl := minInterval(cfg.Polling.FilingsInterval, cfg.Polling.NewsInterval, cfg.Polling.PressInterval) / 2
	s.events = feed.NewSnapshotSource(opts.Events.FetchEvents, ttl, opts.Store, logger)
	s.seenFilings = feed.NewSeenTracker(opts.Store, storage.KeyFilingsSeen, cfg.Feeds.SeenLimit, logger)

	limit := cfg.Feeds.CacheLimit
	s.filingsCache = feed.NewCache[feed.StockEvent](opts.Store, storage.KeyFilings, limit, logger)
	s.newsCache = feed.NewCache[feed.StockEvent](opts.Store, storage.KeyNews, limit, logger)
	s.pressCache = feed.NewCache[feed.StockEvent](opts.Store, storage.KeyPress, limit, logger)
	s.cryptoNewsCache = feed.NewCache[feed.CryptoNewsItem](opts.Store, storage.KeyCryptoNews, limit, logger)
	s.cryptoPressCache = feed.NewCache[feed.CryptoPressItem](opts.Store, storage.KeyCryptoPress, limit, logger)

	s.stockPoller = scheduler.NewPoller("stocks", s.updateStocks, logger)
	s.cryptoPoller = scheduler.NewPoller("cryptos", s.updateCryptos, logger)
	s.filingsPoller = scheduler.NewPoller("filings", s.refreshFilings, logger)
	s.newsPoller = scheduler.NewPoller("news", s.refreshNews, logger)
	s.pressPoller = scheduler.NewPoller("press", s.refreshPress, logger)
	s.cryptoNewsPoller = scheduler.NewPoller("crypto_news", s.refreshCryptoNews, logger)
	s.cryptoPressPoller = scheduler.NewPoller("crypto_press", s.refreshCryptoPress, logger)

	return s, nil
}

// Alerts exposes the alert engine for CLI commands.
func (s *Service) Alerts() *alert.Engine { return s.alerts }

// History exposes the price history store for export and display.
func (s *Service) History() *history.Store { return s.history }

// Start restores persisted state and launches every polling loop.
func (s *Service) Start(ctx context.Context) {
	s.history.Load(ctx)
	s.alerts.Load(ctx)
	settings := s.loadSettings(ctx)

	if len(s.cfg.Watch.Stocks) > 0 {
		s.stockPoller.Start(ctx, settings.StockInterval)
		s.filingsPoller.Start(ctx, s.cfg.Polling.FilingsInterval)
		s.newsPoller.Start(ctx, s.cfg.Polling.NewsInterval)
		s.pressPoller.Start(ctx, s.cfg.Polling.PressInterval)
	}
	if len(s.cfg.Watch.Cryptos) > 0 {
		s.cryptoPoller.Start(ctx, settings.CryptoInterval)
		s.cryptoNewsPoller.Start(ctx, s.cfg.Polling.CryptoNewsInterval)
		s.cryptoPressPoller.Start(ctx, s.cfg.Polling.CryptoPressInterval)
	}

	s.logger.Info().
		Int("stocks", len(s.cfg.Watch.Stocks)).
		Int("cryptos", len(s.cfg.Watch.Cryptos)).
		Dur("stockInterval", settings.StockInterval).
		Dur("cryptoInterval", settings.CryptoInterval).
		Msg("ingestion started")
}

// Stop halts all pollers and flushes pending history writes.
func (s *Service) Stop() {
	for _, p := range []*scheduler.Poller{
		s.stockPoller, s.cryptoPoller,
		s.filingsPoller, s.newsPoller, s.pressPoller,
		s.cryptoNewsPoller, s.cryptoPressPoller,
	} {
		p.Stop()
	}
	s.history.Flush()
	s.logger.Info().Msg("ingestion stopped")
}

func (s *Service) updateStocks(ctx context.Context) error {
	batch, err := s.quotes.FetchQuotes(ctx, s.cfg.Watch.Stocks)
	if err != nil {
		// A transport failure still reaches the display: every watched row
		// is marked errored rather than left showing its last refresh.
		rows := make([]render.StockRow, 0, len(s.cfg.Watch.Stocks))
		for _, symbol := range s.cfg.Watch.Stocks {
			rows = append(rows, render.StockRow{
				Quote: market.StockQuote{Symbol: symbol},
				Err:   err.Error(),
			})
		}
		s.renderer.RenderStocks(rows, "")
		return fmt.Errorf("update stocks: %w", err)
	}

	now := s.now()
	rows := make([]render.StockRow, 0, len(batch.Items))
	for _, item := range batch.Items {
		if item.Error != "" {
			rows = append(rows, render.StockRow{
				Quote: market.StockQuote{Symbol: item.Symbol},
				Err:   item.Error,
			})
			continue
		}
		if item.Price == nil {
			rows = append(rows, render.StockRow{
				Quote: market.StockQuote{Symbol: item.Symbol},
				Err:   "no price in response",
			})
			continue
		}

		var updatedAt time.Time
		if item.UpdatedAt != nil && *item.UpdatedAt > 0 {
			updatedAt = time.Unix(*item.UpdatedAt, 0)
		}

		quote := market.StockQuote{
			Symbol:        item.Symbol,
			Price:         *item.Price,
			Change:        item.Change,
			ChangePercent: item.ChangePercent,
			Session:       s.sessions.Resolve(session.State(strings.ToLower(item.MarketState)), updatedAt),
			Volume:        item.Volume,
			DayLow:        item.DayLow,
			DayHigh:       item.DayHigh,
			Week52Low:     item.Week52Low,
			Week52High:    item.Week52High,
			UpdatedAt:     updatedAt,
		}
		s.market.SetStock(quote)
		s.history.Record(item.Symbol, quote.Price, updatedAt.UnixMilli())

		rows = append(rows, render.StockRow{
			Quote:      quote,
			Indicators: indicator.Compute(s.history.Series(item.Symbol)),
			Stale:      !updatedAt.IsZero() && now.Sub(updatedAt) > s.cfg.Market.QuoteStale,
		})
	}

	s.evaluateAlerts(ctx)
	s.renderer.RenderStocks(rows, batch.Advisory)
	return nil
}

func (s *Service) updateCryptos(ctx context.Context) error {
	labels := make(map[string]string, len(s.cfg.Watch.Cryptos))
	apiSymbols := make([]string, 0, len(s.cfg.Watch.Cryptos))
	for _, label := range s.cfg.Watch.Cryptos {
		api := strings.ReplaceAll(label, "/", "")
		labels[api] = label
		apiSymbols = append(apiSymbols, api)
	}

	tickers, err := s.tickers.FetchTickers(ctx, apiSymbols)
	if err != nil {
		return fmt.Errorf("update cryptos: %w", err)
	}

	now := s.now()
	rows := make([]render.CryptoRow, 0, len(tickers))
	for _, ticker := range tickers {
		label, ok := labels[ticker.Symbol]
		if !ok {
			continue
		}
		quote := market.CryptoQuote{
			Symbol:        label,
			Price:         ticker.LastPrice,
			Change:        ticker.PriceChange,
			ChangePercent: market.NormalizeChangePercent(ticker.ChangePercent, ticker.LastPrice, ticker.PriceChange),
			UpdatedAt:     now,
		}
		s.market.SetCrypto(quote)
		s.history.Record(label, quote.Price, now.UnixMilli())
		rows = append(rows, render.CryptoRow{Quote: quote})
	}

	s.evaluateAlerts(ctx)
	s.renderer.RenderCryptos(rows)
	return nil
}

// evaluateAlerts runs crossing detection and reports freshly triggered
// alerts to the renderer.
func (s *Service) evaluateAlerts(ctx context.Context) {
	before := make(map[string]bool)
	for _, a := range s.alerts.List() {
		before[a.ID] = a.Triggered()
	}

	if !s.alerts.Evaluate(ctx, s.market.Price) {
		return
	}

	for _, a := range s.alerts.List() {
		if !a.Triggered() || before[a.ID] {
			continue
		}
		price, ok := s.market.Price(a.Symbol)
		if !ok {
			price = a.Level
		}
		s.renderer.RenderAlertTriggered(a.Symbol, a.Level, price)
	}
}

func (s *Service) refreshFilings(ctx context.Context) error {
	snap, err := s.events.Get(ctx)
	if err != nil {
		cached := s.filingsCache.Load(ctx)
		s.renderer.RenderFilings(cached, render.FeedStatus{Errors: []string{err.Error()}, Cached: true})
		return nil
	}

	merged := s.filingsCache.Merge(ctx, snap.Filings())

	ids := make([]string, 0, len(merged))
	for _, item := range merged {
		ids = append(ids, item.Identity())
	}
	if fresh := s.seenFilings.Observe(ctx, ids); len(fresh) > 0 {
		s.logger.Info().Int("count", len(fresh)).Msg("new filings observed")
	}

	s.renderer.RenderFilings(merged, render.FeedStatus{Errors: snap.Errors})
	return nil
}

func (s *Service) refreshNews(ctx context.Context) error {
	snap, err := s.events.Get(ctx)
	if err != nil {
		cached := s.newsCache.Load(ctx)
		s.renderer.RenderNews(cached, render.FeedStatus{Errors: []string{err.Error()}, Cached: true})
		return nil
	}
	merged := s.newsCache.Merge(ctx, snap.News())
	s.renderer.RenderNews(merged, render.FeedStatus{Errors: snap.Errors})
	return nil
}

func (s *Service) refreshPress(ctx context.Context) error {
	snap, err := s.events.Get(ctx)
	if err != nil {
		cached := s.pressCache.Load(ctx)
		s.renderer.RenderPress(cached, render.FeedStatus{Errors: []string{err.Error()}, Cached: true})
		return nil
	}
	merged := s.pressCache.Merge(ctx, snap.Press())
	s.renderer.RenderPress(merged, render.FeedStatus{Errors: snap.Errors})
	return nil
}

// cryptoNewsSymbols derives the news-source symbols (BTC-USD style) from
// the watched pair labels; cryptoPressSymbols derives bare tickers.
func (s *Service) cryptoNewsSymbols() []string {
	out := make([]string, 0, len(s.cfg.Watch.Cryptos))
	for _, label := range s.cfg.Watch.Cryptos {
		base, _, _ := strings.Cut(label, "/")
		out = append(out, base+"-USD")
	}
	return out
}

func (s *Service) cryptoPressSymbols() []string {
	out := make([]string, 0, len(s.cfg.Watch.Cryptos))
	for _, label := range s.cfg.Watch.Cryptos {
		base, _, _ := strings.Cut(label, "/")
		out = append(out, base)
	}
	return out
}

func (s *Service) refreshCryptoNews(ctx context.Context) error {
	items, err := s.crypto.FetchCryptoNews(ctx, s.cryptoNewsSymbols())
	if err != nil {
		cached := s.windowCryptoNews(s.cryptoNewsCache.Load(ctx))
		s.renderer.RenderCryptoNews(cached, render.FeedStatus{Errors: []string{err.Error()}, Cached: true})
		return nil
	}
	merged := s.cryptoNewsCache.Merge(ctx, items)
	s.renderer.RenderCryptoNews(s.windowCryptoNews(merged), render.FeedStatus{})
	return nil
}

func (s *Service) refreshCryptoPress(ctx context.Context) error {
	items, err := s.crypto.FetchCryptoPress(ctx, s.cryptoPressSymbols())
	if err != nil {
		cached := s.windowCryptoPress(s.cryptoPressCache.Load(ctx))
		s.renderer.RenderCryptoPress(cached, render.FeedStatus{Errors: []string{err.Error()}, Cached: true})
		return nil
	}
	merged := s.cryptoPressCache.Merge(ctx, items)
	s.renderer.RenderCryptoPress(s.windowCryptoPress(merged), render.FeedStatus{})
	return nil
}

func (s *Service) windowCryptoNews(items []feed.CryptoNewsItem) []feed.CryptoNewsItem {
	return feed.WindowWithLatest(items, s.cfg.Feeds.CryptoWindow, func(i feed.CryptoNewsItem) string {
		return i.BaseSymbol()
	}, s.now())
}

func (s *Service) windowCryptoPress(items []feed.CryptoPressItem) []feed.CryptoPressItem {
	return feed.WindowWithLatest(items, s.cfg.Feeds.CryptoWindow, func(i feed.CryptoPressItem) string {
		base, _, _ := strings.Cut(i.Symbol, "-")
		return base
	}, s.now())
}

func minInterval(values ...time.Duration) time.Duration {
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
