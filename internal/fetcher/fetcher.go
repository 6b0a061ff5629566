package fetcher

import (
	"context"

	"marketdesk/internal/feed"
)

// QuoteItem is one per-symbol result from the stock quote backend. Numeric
// fields are pointers because the backend omits what it could not resolve.
type QuoteItem struct {
	Symbol        string   `json:"symbol"`
	Price         *float64 `json:"price"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"`
	Volume        *float64 `json:"volume"`
	DayLow        *float64 `json:"dayLow"`
	DayHigh       *float64 `json:"dayHigh"`
	Week52Low     *float64 `json:"week52Low"`
	Week52High    *float64 `json:"week52High"`
	MarketState   string   `json:"marketState"`
	UpdatedAt     *int64   `json:"updatedAt"`
	Error         string   `json:"error,omitempty"`
}

// QuoteBatch is the full backend response for one poll. Advisory carries a
// batch-level warning that does not fail individual symbols.
type QuoteBatch struct {
	Items    []QuoteItem
	Advisory string
}

// Ticker is one 24-hour crypto ticker, already parsed to floats.
type Ticker struct {
	Symbol        string
	LastPrice     float64
	PriceChange   float64
	ChangePercent *float64
}

// QuoteFetcher retrieves the latest stock quotes for a set of symbols.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) (QuoteBatch, error)
}

// TickerFetcher retrieves 24-hour crypto ticker stats for API pair symbols.
type TickerFetcher interface {
	FetchTickers(ctx context.Context, apiSymbols []string) ([]Ticker, error)
}

// EventsFetcher retrieves the combined stock events snapshot.
type EventsFetcher interface {
	FetchEvents(ctx context.Context) (feed.Snapshot, error)
}

// CryptoFeedFetcher retrieves the crypto news and press feeds.
type CryptoFeedFetcher interface {
	FetchCryptoNews(ctx context.Context, symbols []string) ([]feed.CryptoNewsItem, error)
	FetchCryptoPress(ctx context.Context, symbols []string) ([]feed.CryptoPressItem, error)
}
