package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestFetchTickersParsesDecimalStrings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tickerPath {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbols"); got != `["BTCUSDT","XRPUSDT"]` {
			t.Errorf("unexpected symbols param %q", got)
		}
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","lastPrice":"64250.10000000","priceChange":"-312.50000000","priceChangePercent":"-0.484"},
			{"symbol":"XRPUSDT","lastPrice":"0.52310000","priceChange":"0.00120000","priceChangePercent":"0.230"}
		]`))
	}))
	defer srv.Close()

	b := NewBinance(BinanceOptions{BaseURL: srv.URL}, zerolog.Nop())
	tickers, err := b.FetchTickers(context.Background(), []string{"BTCUSDT", "XRPUSDT"})
	if err != nil {
		t.Fatalf("FetchTickers: %v", err)
	}
	if len(tickers) != 2 {
		t.Fatalf("expected 2 tickers, got %d", len(tickers))
	}
	btc := tickers[0]
	if btc.LastPrice != 64250.1 {
		t.Fatalf("unexpected last price %v", btc.LastPrice)
	}
	if btc.PriceChange != -312.5 {
		t.Fatalf("unexpected change %v", btc.PriceChange)
	}
	if btc.ChangePercent == nil || *btc.ChangePercent != -0.484 {
		t.Fatalf("unexpected percent %v", btc.ChangePercent)
	}
}

func TestFetchTickersSkipsUnparseablePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","lastPrice":"not-a-number","priceChange":"0","priceChangePercent":"0"},
			{"symbol":"ADAUSDT","lastPrice":"0.35000000","priceChange":"0.00100000","priceChangePercent":"0.287"}
		]`))
	}))
	defer srv.Close()

	b := NewBinance(BinanceOptions{BaseURL: srv.URL}, zerolog.Nop())
	tickers, err := b.FetchTickers(context.Background(), []string{"BTCUSDT", "ADAUSDT"})
	if err != nil {
		t.Fatalf("FetchTickers: %v", err)
	}
	if len(tickers) != 1 || tickers[0].Symbol != "ADAUSDT" {
		t.Fatalf("expected only ADAUSDT to survive, got %+v", tickers)
	}
}

func TestFetchTickersEmptyInput(t *testing.T) {
	b := NewBinance(BinanceOptions{}, zerolog.Nop())
	tickers, err := b.FetchTickers(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchTickers: %v", err)
	}
	if tickers != nil {
		t.Fatalf("expected no tickers, got %+v", tickers)
	}
}

func TestFetchTickersHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"msg":"invalid symbol"}`))
	}))
	defer srv.Close()

	b := NewBinance(BinanceOptions{BaseURL: srv.URL}, zerolog.Nop())
	if _, err := b.FetchTickers(context.Background(), []string{"NOPE"}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
