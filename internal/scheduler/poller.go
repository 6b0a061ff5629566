package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked on every poll interval.
type TickFunc func(ctx context.Context) error

// Poller drives one periodic job. Restart cancels the running loop before a
// new one begins, so changing an interval can never leave two loops polling
// the same resource.
type Poller struct {
	name   string
	fn     TickFunc
	logger zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller constructs a poller for the named job.
func NewPoller(name string, fn TickFunc, logger zerolog.Logger) *Poller {
	return &Poller{
		name:   name,
		fn:     fn,
		logger: logger.With().Str("component", "poller").Str("job", name).Logger(),
	}
}

// Start begins polling at the given interval, running the job once
// immediately. A previous loop, if any, is stopped first.
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		panic("poll interval must be positive")
	}
	p.Stop()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.loop(loopCtx, interval, done)
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	p.run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

func (p *Poller) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := p.fn(ctx); err != nil {
		p.logger.Error().Err(err).Msg("tick execution failed")
	}
}

// Stop cancels the running loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
