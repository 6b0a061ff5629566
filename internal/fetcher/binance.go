package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const tickerPath = "/api/v3/ticker/24hr"

// BinanceOptions parameterise the public ticker client.
type BinanceOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Binance fetches 24-hour ticker stats from the public Binance API.
type Binance struct {
	opts    BinanceOptions
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewBinance constructs the ticker client.
func NewBinance(opts BinanceOptions, logger zerolog.Logger) *Binance {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &Binance{
		opts:    opts,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "binance_fetcher").Logger(),
	}
}

// tickerResponse mirrors the wire shape: every numeric field is a string.
type tickerResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// FetchTickers retrieves stats for the given API pair symbols (BTCUSDT
// style). Pairs with an unparseable price are skipped individually.
func (b *Binance) FetchTickers(ctx context.Context, apiSymbols []string) ([]Ticker, error) {
	if len(apiSymbols) == 0 {
		return nil, nil
	}

	// The endpoint takes the symbol list as a JSON array query parameter.
	encoded, err := json.Marshal(apiSymbols)
	if err != nil {
		return nil, err
	}
	endpoint := b.baseURL + tickerPath + "?symbols=" + url.QueryEscape(string(encoded))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(b.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	var raw []tickerResponse
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode tickers: %w", err)
	}

	tickers := make([]Ticker, 0, len(raw))
	for _, item := range raw {
		price, err := decimal.NewFromString(item.LastPrice)
		if err != nil {
			b.logger.Warn().Str("symbol", item.Symbol).Str("lastPrice", item.LastPrice).
				Msg("skipping ticker with unparseable price")
			continue
		}

		ticker := Ticker{Symbol: item.Symbol, LastPrice: price.InexactFloat64()}
		if change, err := decimal.NewFromString(item.PriceChange); err == nil {
			ticker.PriceChange = change.InexactFloat64()
		}
		if pct, err := decimal.NewFromString(item.PriceChangePercent); err == nil {
			v := pct.InexactFloat64()
			ticker.ChangePercent = &v
		}
		tickers = append(tickers, ticker)
	}
	return tickers, nil
}

var _ TickerFetcher = (*Binance)(nil)
