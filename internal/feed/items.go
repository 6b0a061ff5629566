// Package feed implements the deduplicating merge-caches behind the event
// lists: filings, news, press releases, and their crypto counterparts.
package feed

import (
	"math"
	"strings"
	"time"
)

// Record is the capability every cached event item provides: a stable
// identity for deduplication and a timestamp for ordering.
type Record interface {
	Identity() string
	EventTime() time.Time
}

// Cacheable adds the field-level overlay used when the same logical item is
// seen again. Incoming fields win; fields the incoming record omits keep
// their cached value, so slowly-enriched fields survive a sparse refetch.
type Cacheable[T any] interface {
	Record
	Overlay(incoming T) T
}

// Event type tags used by the stock events snapshot.
const (
	TypeNews         = "NEWS"
	TypePressRelease = "PRESS_RELEASE"
	filingTypePrefix = "SEC_"
)

// FilingDetail carries the parsed fields of a regulatory filing.
type FilingDetail struct {
	Event    string   `json:"event,omitempty"`
	Insider  string   `json:"insider,omitempty"`
	Action   string   `json:"action,omitempty"`
	Shares   *float64 `json:"shares,omitempty"`
	ValueUSD *float64 `json:"valueUsd,omitempty"`
	Items    []string `json:"items,omitempty"`
	Material *bool    `json:"material,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// EventSummary is the analyzed summary attached to a stock event.
type EventSummary struct {
	Title           string        `json:"title,omitempty"`
	TitleTranslated string        `json:"titleTranslated,omitempty"`
	Link            string        `json:"link,omitempty"`
	Source          string        `json:"source,omitempty"`
	Detail          *FilingDetail `json:"detail,omitempty"`
}

// StockEvent is one item from the combined events snapshot. Filings, news,
// and press releases share this shape and are told apart by Type.
type StockEvent struct {
	Ticker    string        `json:"ticker,omitempty"`
	Type      string        `json:"type,omitempty"`
	Date      string        `json:"date,omitempty"`
	Timestamp float64       `json:"timestamp,omitempty"`
	Impact    *string       `json:"impact,omitempty"`
	Dilutive  *string       `json:"dilutive,omitempty"`
	Link      string        `json:"link,omitempty"`
	Summary   *EventSummary `json:"summary,omitempty"`
}

// IsFiling reports whether the event is a regulatory filing.
func (e StockEvent) IsFiling() bool { return strings.HasPrefix(e.Type, filingTypePrefix) }

// Title returns the best available display title.
func (e StockEvent) Title() string {
	if e.Summary != nil {
		if e.Summary.TitleTranslated != "" {
			return e.Summary.TitleTranslated
		}
		if e.Summary.Title != "" {
			return e.Summary.Title
		}
	}
	return e.Type
}

// Identity prefers the explicit link, then the summary link, then a
// composite of the descriptive fields. Empty means untrackable.
func (e StockEvent) Identity() string {
	if e.Link != "" {
		return e.Link
	}
	if e.Summary != nil && e.Summary.Link != "" {
		return e.Summary.Link
	}
	title := ""
	if e.Summary != nil {
		title = e.Summary.Title
	}
	return compositeID(e.Ticker, e.Type, title, e.Date)
}

// EventTime derives the item's timestamp; the zero time sorts last.
func (e StockEvent) EventTime() time.Time {
	return eventTime(e.Timestamp, e.Date)
}

// Overlay merges a refetched copy of the same item over this one.
func (e StockEvent) Overlay(in StockEvent) StockEvent {
	out := e
	if in.Ticker != "" {
		out.Ticker = in.Ticker
	}
	if in.Type != "" {
		out.Type = in.Type
	}
	if in.Date != "" {
		out.Date = in.Date
	}
	if in.Timestamp != 0 {
		out.Timestamp = in.Timestamp
	}
	if in.Impact != nil {
		out.Impact = in.Impact
	}
	if in.Dilutive != nil {
		out.Dilutive = in.Dilutive
	}
	if in.Link != "" {
		out.Link = in.Link
	}
	if in.Summary != nil {
		if out.Summary == nil {
			out.Summary = in.Summary
		} else {
			merged := out.Summary.overlay(*in.Summary)
			out.Summary = &merged
		}
	}
	return out
}

func (s EventSummary) overlay(in EventSummary) EventSummary {
	out := s
	if in.Title != "" {
		out.Title = in.Title
	}
	if in.TitleTranslated != "" {
		out.TitleTranslated = in.TitleTranslated
	}
	if in.Link != "" {
		out.Link = in.Link
	}
	if in.Source != "" {
		out.Source = in.Source
	}
	if in.Detail != nil {
		out.Detail = in.Detail
	}
	return out
}

// CryptoNewsItem is one classified crypto news article.
type CryptoNewsItem struct {
	Symbol          string  `json:"symbol,omitempty"`
	Title           string  `json:"title,omitempty"`
	TitleTranslated string  `json:"titleTranslated,omitempty"`
	Link            string  `json:"link,omitempty"`
	Date            string  `json:"date,omitempty"`
	Source          string  `json:"source,omitempty"`
	Timestamp       float64 `json:"timestamp,omitempty"`
	Classification  *string `json:"classification,omitempty"`
	Impact          *string `json:"impact,omitempty"`
	Ignore          *bool   `json:"ignore,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

// BaseSymbol strips the quote suffix from symbols like BTC-USD.
func (e CryptoNewsItem) BaseSymbol() string {
	base, _, _ := strings.Cut(e.Symbol, "-")
	return base
}

func (e CryptoNewsItem) Identity() string {
	if e.Link != "" {
		return e.Link
	}
	return compositeID(e.Symbol, "", e.Title, e.Date)
}

func (e CryptoNewsItem) EventTime() time.Time {
	return eventTime(e.Timestamp, e.Date)
}

func (e CryptoNewsItem) Overlay(in CryptoNewsItem) CryptoNewsItem {
	out := e
	if in.Symbol != "" {
		out.Symbol = in.Symbol
	}
	if in.Title != "" {
		out.Title = in.Title
	}
	if in.TitleTranslated != "" {
		out.TitleTranslated = in.TitleTranslated
	}
	if in.Link != "" {
		out.Link = in.Link
	}
	if in.Date != "" {
		out.Date = in.Date
	}
	if in.Source != "" {
		out.Source = in.Source
	}
	if in.Timestamp != 0 {
		out.Timestamp = in.Timestamp
	}
	if in.Classification != nil {
		out.Classification = in.Classification
	}
	if in.Impact != nil {
		out.Impact = in.Impact
	}
	if in.Ignore != nil {
		out.Ignore = in.Ignore
	}
	if in.Reason != "" {
		out.Reason = in.Reason
	}
	return out
}

// CryptoPressItem is one official crypto project press release.
type CryptoPressItem struct {
	Symbol          string  `json:"symbol,omitempty"`
	Title           string  `json:"title,omitempty"`
	TitleTranslated string  `json:"titleTranslated,omitempty"`
	Link            string  `json:"link,omitempty"`
	Date            string  `json:"date,omitempty"`
	Source          string  `json:"source,omitempty"`
	Timestamp       float64 `json:"timestamp,omitempty"`
}

func (e CryptoPressItem) Identity() string {
	if e.Link != "" {
		return e.Link
	}
	return compositeID(e.Symbol, "", e.Title, e.Date)
}

func (e CryptoPressItem) EventTime() time.Time {
	return eventTime(e.Timestamp, e.Date)
}

func (e CryptoPressItem) Overlay(in CryptoPressItem) CryptoPressItem {
	out := e
	if in.Symbol != "" {
		out.Symbol = in.Symbol
	}
	if in.Title != "" {
		out.Title = in.Title
	}
	if in.TitleTranslated != "" {
		out.TitleTranslated = in.TitleTranslated
	}
	if in.Link != "" {
		out.Link = in.Link
	}
	if in.Date != "" {
		out.Date = in.Date
	}
	if in.Source != "" {
		out.Source = in.Source
	}
	if in.Timestamp != 0 {
		out.Timestamp = in.Timestamp
	}
	return out
}

func compositeID(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "|")
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// eventTime interprets a numeric timestamp (seconds below 1e12, otherwise
// milliseconds), falling back to parsing the date string. The zero time
// means unknown and sorts last.
func eventTime(ts float64, date string) time.Time {
	if ts != 0 && !math.IsNaN(ts) && !math.IsInf(ts, 0) {
		if ts > 1e12 {
			return time.UnixMilli(int64(ts))
		}
		return time.UnixMilli(int64(ts * 1000))
	}
	if date != "" {
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, date); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

var (
	_ Cacheable[StockEvent]      = StockEvent{}
	_ Cacheable[CryptoNewsItem]  = CryptoNewsItem{}
	_ Cacheable[CryptoPressItem] = CryptoPressItem{}
)
