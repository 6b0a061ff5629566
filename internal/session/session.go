// Package session decides which trading session to display for an equity
// row, reconciling the server-reported state with a local clock fallback.
package session

import "time"

// State is an exchange trading phase.
type State string

const (
	Premarket State = "premarket"
	Open      State = "open"
	After     State = "after"
	Closed    State = "closed"
)

// Exchange hours in minutes from midnight, exchange-local time.
const (
	premarketStart = 4 * 60
	marketOpen     = 9*60 + 30
	marketClose    = 16 * 60
	afterHoursEnd  = 20 * 60
)

// Resolver combines the quote backend's session label with a session
// computed from the wall clock in the exchange timezone.
type Resolver struct {
	loc        *time.Location
	staleAfter time.Duration
	now        func() time.Time
}

// NewResolver builds a resolver for the given exchange timezone.
func NewResolver(timezone string, staleAfter time.Duration) (*Resolver, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Resolver{loc: loc, staleAfter: staleAfter, now: time.Now}, nil
}

// Resolve picks the displayed session. A non-closed server state is
// authoritative. The local clock only overrides a closed/absent server
// state when it disagrees AND the quote is fresh enough to trust; a stale
// quote keeps whatever the server said.
func (r *Resolver) Resolve(serverState State, updatedAt time.Time) State {
	if serverState != "" && serverState != Closed {
		return serverState
	}

	fallback := serverState
	if fallback == "" {
		fallback = Closed
	}

	local := r.localState()
	if local == Closed {
		return fallback
	}
	if updatedAt.IsZero() || r.now().Sub(updatedAt) > r.staleAfter {
		return fallback
	}
	return local
}

func (r *Resolver) localState() State {
	t := r.now().In(r.loc)
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Closed
	}

	minute := t.Hour()*60 + t.Minute()
	switch {
	case minute >= premarketStart && minute < marketOpen:
		return Premarket
	case minute >= marketOpen && minute < marketClose:
		return Open
	case minute >= marketClose && minute < afterHoursEnd:
		return After
	default:
		return Closed
	}
}
