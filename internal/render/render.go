// Package render defines the presentation boundary. The ingestion service
// assembles display-ready rows and hands them to a Renderer; what happens
// after that (log lines, a TUI, a web socket) is the renderer's business.
package render

import (
	"marketdesk/internal/feed"
	"marketdesk/internal/indicator"
	"marketdesk/internal/market"
)

// StockRow is one display-ready equity row.
type StockRow struct {
	Quote      market.StockQuote
	Indicators indicator.Snapshot
	Stale      bool
	Err        string
}

// CryptoRow is one display-ready crypto row.
type CryptoRow struct {
	Quote market.CryptoQuote
	Err   string
}

// FeedStatus describes the health of one feed refresh.
type FeedStatus struct {
	Errors []string
	// Cached is set when the feed shows previously merged items because
	// the refresh failed.
	Cached bool
}

// Renderer receives display updates from the ingestion service.
type Renderer interface {
	RenderStocks(rows []StockRow, advisory string)
	RenderCryptos(rows []CryptoRow)
	RenderFilings(items []feed.StockEvent, status FeedStatus)
	RenderNews(items []feed.StockEvent, status FeedStatus)
	RenderPress(items []feed.StockEvent, status FeedStatus)
	RenderCryptoNews(items []feed.CryptoNewsItem, status FeedStatus)
	RenderCryptoPress(items []feed.CryptoPressItem, status FeedStatus)
	RenderAlertTriggered(symbol string, level, price float64)
}
