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

	"marketdesk/internal/feed"
)

// BackendOptions parameterise the quote/events backend client.
type BackendOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Backend talks to the quote and events endpoints of the desk backend.
type Backend struct {
	opts    BackendOptions
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewBackend constructs a backend client.
func NewBackend(opts BackendOptions, logger zerolog.Logger) *Backend {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Backend{
		opts:    opts,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "backend_fetcher").Logger(),
	}
}

// FetchQuotes retrieves the latest quotes for symbols in one batch call.
func (b *Backend) FetchQuotes(ctx context.Context, symbols []string) (QuoteBatch, error) {
	endpoint := b.baseURL + "/api/stocks?symbols=" + url.QueryEscape(strings.Join(symbols, ","))

	var payload struct {
		Data []QuoteItem `json:"data"`
		Meta struct {
			Error string `json:"error"`
		} `json:"meta"`
	}
	if err := b.getJSON(ctx, endpoint, &payload); err != nil {
		return QuoteBatch{}, fmt.Errorf("fetch quotes: %w", err)
	}
	return QuoteBatch{Items: payload.Data, Advisory: payload.Meta.Error}, nil
}

// FetchEvents retrieves the combined stock events snapshot.
func (b *Backend) FetchEvents(ctx context.Context) (feed.Snapshot, error) {
	var payload struct {
		Data   []feed.StockEvent `json:"data"`
		Errors []string          `json:"errors"`
	}
	if err := b.getJSON(ctx, b.baseURL+"/events", &payload); err != nil {
		return feed.Snapshot{}, fmt.Errorf("fetch events: %w", err)
	}
	return feed.Snapshot{Data: payload.Data, Errors: payload.Errors}, nil
}

// FetchCryptoNews retrieves classified news for the given market symbols.
func (b *Backend) FetchCryptoNews(ctx context.Context, symbols []string) ([]feed.CryptoNewsItem, error) {
	endpoint := b.baseURL + "/api/news?symbols=" + url.QueryEscape(strings.Join(symbols, ","))

	var payload struct {
		Data []feed.CryptoNewsItem `json:"data"`
	}
	if err := b.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch crypto news: %w", err)
	}
	return payload.Data, nil
}

// FetchCryptoPress retrieves official press releases for the given tickers.
func (b *Backend) FetchCryptoPress(ctx context.Context, symbols []string) ([]feed.CryptoPressItem, error) {
	endpoint := b.baseURL + "/api/press?symbols=" + url.QueryEscape(strings.Join(symbols, ","))

	var payload struct {
		Data []feed.CryptoPressItem `json:"data"`
	}
	if err := b.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch crypto press: %w", err)
	}
	return payload.Data, nil
}

func (b *Backend) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(b.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return parseHTTPError(resp.StatusCode, payload)
	}
	return json.Unmarshal(payload, out)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("backend error (%d): %s", status, apiErr.Error)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("backend error (%d): %s", status, apiErr.Message)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("backend error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("backend error (%d)", status)
}

var (
	_ QuoteFetcher      = (*Backend)(nil)
	_ EventsFetcher     = (*Backend)(nil)
	_ CryptoFeedFetcher = (*Backend)(nil)
)
