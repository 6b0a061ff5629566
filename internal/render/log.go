package render

import (
	"github.com/rs/zerolog"

	"marketdesk/internal/feed"
)

// LogRenderer writes display updates as structured log lines. It is the
// default renderer for headless runs.
type LogRenderer struct {
	logger zerolog.Logger
}

// NewLogRenderer constructs a renderer on top of the given logger.
func NewLogRenderer(logger zerolog.Logger) *LogRenderer {
	return &LogRenderer{logger: logger.With().Str("component", "renderer").Logger()}
}

func (r *LogRenderer) RenderStocks(rows []StockRow, advisory string) {
	for _, row := range rows {
		if row.Err != "" {
			r.logger.Warn().Str("symbol", row.Quote.Symbol).Str("error", row.Err).Msg("stock quote failed")
			continue
		}
		evt := r.logger.Info().
			Str("symbol", row.Quote.Symbol).
			Float64("price", row.Quote.Price).
			Str("session", string(row.Quote.Session)).
			Bool("stale", row.Stale)
		if row.Quote.ChangePercent != nil {
			evt = evt.Float64("changePercent", *row.Quote.ChangePercent)
		}
		if row.Indicators.RSI != nil {
			evt = evt.Float64("rsi", *row.Indicators.RSI)
		}
		if row.Indicators.MACD != nil {
			evt = evt.Float64("macd", *row.Indicators.MACD)
		}
		if row.Indicators.Signal != nil {
			evt = evt.Float64("macdSignal", *row.Indicators.Signal)
		}
		evt.Msg("stock quote")
	}
	if advisory != "" {
		r.logger.Warn().Str("advisory", advisory).Msg("stock batch advisory")
	}
}

func (r *LogRenderer) RenderCryptos(rows []CryptoRow) {
	for _, row := range rows {
		if row.Err != "" {
			r.logger.Warn().Str("symbol", row.Quote.Symbol).Str("error", row.Err).Msg("crypto quote failed")
			continue
		}
		evt := r.logger.Info().
			Str("symbol", row.Quote.Symbol).
			Float64("price", row.Quote.Price).
			Float64("change", row.Quote.Change)
		if row.Quote.ChangePercent != nil {
			evt = evt.Float64("changePercent", *row.Quote.ChangePercent)
		}
		evt.Msg("crypto quote")
	}
}

func (r *LogRenderer) RenderFilings(items []feed.StockEvent, status FeedStatus) {
	r.renderFeedStatus("filings", len(items), status)
}

func (r *LogRenderer) RenderNews(items []feed.StockEvent, status FeedStatus) {
	r.renderFeedStatus("news", len(items), status)
}

func (r *LogRenderer) RenderPress(items []feed.StockEvent, status FeedStatus) {
	r.renderFeedStatus("press", len(items), status)
}

func (r *LogRenderer) RenderCryptoNews(items []feed.CryptoNewsItem, status FeedStatus) {
	r.renderFeedStatus("crypto_news", len(items), status)
}

func (r *LogRenderer) RenderCryptoPress(items []feed.CryptoPressItem, status FeedStatus) {
	r.renderFeedStatus("crypto_press", len(items), status)
}

func (r *LogRenderer) RenderAlertTriggered(symbol string, level, price float64) {
	r.logger.Info().
		Str("symbol", symbol).
		Float64("level", level).
		Float64("price", price).
		Msg("price alert triggered")
}

func (r *LogRenderer) renderFeedStatus(name string, count int, status FeedStatus) {
	evt := r.logger.Info().Str("feed", name).Int("items", count).Bool("cached", status.Cached)
	if len(status.Errors) > 0 {
		evt = evt.Strs("errors", status.Errors)
	}
	evt.Msg("feed refreshed")
}

var _ Renderer = (*LogRenderer)(nil)
