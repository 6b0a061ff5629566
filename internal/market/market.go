// Package market holds the shared quote types and the aggregate of latest
// observed prices that the alert engine and renderer read from.
package market

import (
	"math"
	"sync"
	"time"

	"marketdesk/internal/session"
)

// StockQuote is the latest observed state for one equity symbol.
type StockQuote struct {
	Symbol        string
	Price         float64
	Change        *float64
	ChangePercent *float64
	Session       session.State
	Volume        *float64
	DayLow        *float64
	DayHigh       *float64
	Week52Low     *float64
	Week52High    *float64
	UpdatedAt     time.Time
}

// CryptoQuote is the latest observed state for one crypto pair. Crypto rows
// intentionally carry a reduced field set: the upstream ticker has no
// session, volume, or range metadata comparable to the stock path.
type CryptoQuote struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent *float64
	UpdatedAt     time.Time
}

// State aggregates the latest quotes across both instrument kinds. It is
// owned by the ingestion service and passed to collaborators explicitly.
type State struct {
	mu      sync.RWMutex
	stocks  map[string]StockQuote
	cryptos map[string]CryptoQuote
}

// NewState returns an empty aggregate.
func NewState() *State {
	return &State{
		stocks:  make(map[string]StockQuote),
		cryptos: make(map[string]CryptoQuote),
	}
}

// SetStock records the latest stock quote.
func (s *State) SetStock(q StockQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks[q.Symbol] = q
}

// SetCrypto records the latest crypto quote.
func (s *State) SetCrypto(q CryptoQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cryptos[q.Symbol] = q
}

// Stock returns the latest quote for an equity symbol.
func (s *State) Stock(symbol string) (StockQuote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.stocks[symbol]
	return q, ok
}

// Crypto returns the latest quote for a crypto pair label.
func (s *State) Crypto(symbol string) (CryptoQuote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.cryptos[symbol]
	return q, ok
}

// Price resolves the latest finite price for a symbol of either kind,
// checking stocks first. This is the lookup the alert engine evaluates
// against.
func (s *State) Price(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.stocks[symbol]; ok {
		return q.Price, isFinite(q.Price)
	}
	if q, ok := s.cryptos[symbol]; ok {
		return q.Price, isFinite(q.Price)
	}
	return 0, false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NormalizeChangePercent recomputes the percent change from the absolute
// change when possible: the reported percent from some tickers disagrees
// with change/(price-change). Falls back to the reported value when the
// base is unusable.
func NormalizeChangePercent(reported *float64, price, change float64) *float64 {
	if !isFinite(price) || !isFinite(change) {
		return finiteOrNil(reported)
	}
	base := price - change
	if !isFinite(base) || base == 0 {
		return finiteOrNil(reported)
	}
	pct := change / base * 100
	return &pct
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || !isFinite(*v) {
		return nil
	}
	return v
}
