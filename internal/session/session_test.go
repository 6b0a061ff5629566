package session

import (
	"testing"
	"time"
)

func newTestResolver(t *testing.T, now time.Time) *Resolver {
	t.Helper()
	r, err := NewResolver("America/New_York", 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	r.now = func() time.Time { return now }
	return r
}

// Tuesday 2025-03-11, 10:00 New York, regular hours.
var tradingMorning = time.Date(2025, 3, 11, 10, 0, 0, 0, mustLoad("America/New_York"))

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func TestNonClosedServerStateIsAuthoritative(t *testing.T) {
	r := newTestResolver(t, tradingMorning)
	if got := r.Resolve(After, time.Time{}); got != After {
		t.Fatalf("server state should win, got %v", got)
	}
}

func TestLocalFallbackOverridesClosedWhenFresh(t *testing.T) {
	r := newTestResolver(t, tradingMorning)
	updatedAt := tradingMorning.Add(-5 * time.Minute)
	if got := r.Resolve(Closed, updatedAt); got != Open {
		t.Fatalf("fresh quote during trading hours should resolve open, got %v", got)
	}
}

func TestStaleQuoteKeepsServerState(t *testing.T) {
	r := newTestResolver(t, tradingMorning)
	updatedAt := tradingMorning.Add(-30 * time.Minute)
	if got := r.Resolve(Closed, updatedAt); got != Closed {
		t.Fatalf("stale quote should keep closed, got %v", got)
	}
}

func TestAbsentServerStateDefaultsClosed(t *testing.T) {
	// Saturday: local state is closed regardless of hour.
	weekend := time.Date(2025, 3, 15, 10, 0, 0, 0, mustLoad("America/New_York"))
	r := newTestResolver(t, weekend)
	if got := r.Resolve("", time.Time{}); got != Closed {
		t.Fatalf("absent server state on a weekend should be closed, got %v", got)
	}
}

func TestLocalMinuteBuckets(t *testing.T) {
	loc := mustLoad("America/New_York")
	cases := []struct {
		hour, minute int
		want         State
	}{
		{3, 59, Closed},
		{4, 0, Premarket},
		{9, 29, Premarket},
		{9, 30, Open},
		{15, 59, Open},
		{16, 0, After},
		{19, 59, After},
		{20, 0, Closed},
	}
	for _, tc := range cases {
		now := time.Date(2025, 3, 11, tc.hour, tc.minute, 0, 0, loc)
		r := newTestResolver(t, now)
		updatedAt := now.Add(-time.Minute)
		if got := r.Resolve(Closed, updatedAt); got != tc.want {
			t.Fatalf("%02d:%02d: expected %v, got %v", tc.hour, tc.minute, tc.want, got)
		}
	}
}
