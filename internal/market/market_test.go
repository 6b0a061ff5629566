package market

import (
	"math"
	"testing"
)

func TestPriceChecksStocksBeforeCryptos(t *testing.T) {
	s := NewState()
	s.SetStock(StockQuote{Symbol: "NVDA", Price: 100})
	s.SetCrypto(CryptoQuote{Symbol: "BTC/USDT", Price: 50000})

	if price, ok := s.Price("NVDA"); !ok || price != 100 {
		t.Fatalf("expected stock price 100, got %v ok=%v", price, ok)
	}
	if price, ok := s.Price("BTC/USDT"); !ok || price != 50000 {
		t.Fatalf("expected crypto price 50000, got %v ok=%v", price, ok)
	}
	if _, ok := s.Price("UNKNOWN"); ok {
		t.Fatal("unknown symbol should not resolve")
	}
}

func TestPriceRejectsNonFinite(t *testing.T) {
	s := NewState()
	s.SetStock(StockQuote{Symbol: "NVDA", Price: math.NaN()})
	if _, ok := s.Price("NVDA"); ok {
		t.Fatal("NaN price must not resolve")
	}
}

func TestNormalizeChangePercent(t *testing.T) {
	reported := 3.0

	// Recomputed: change 5 over base 95 is about 5.263%.
	got := NormalizeChangePercent(&reported, 100, 5)
	if got == nil || math.Abs(*got-5.263157894736842) > 1e-9 {
		t.Fatalf("expected recomputed percent, got %v", got)
	}

	// Zero base: fall back to the reported value.
	got = NormalizeChangePercent(&reported, 5, 5)
	if got == nil || *got != 3 {
		t.Fatalf("expected reported fallback, got %v", got)
	}

	// Nothing usable at all.
	if got := NormalizeChangePercent(nil, math.NaN(), math.NaN()); got != nil {
		t.Fatalf("expected nil, got %v", *got)
	}
}
