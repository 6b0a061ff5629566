package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPollerRunsImmediatelyThenOnInterval(t *testing.T) {
	var runs atomic.Int64
	p := NewPoller("test", func(context.Context) error {
		runs.Add(1)
		return nil
	}, zerolog.Nop())

	p.Start(context.Background(), 20*time.Millisecond)
	defer p.Stop()

	deadline := time.Now().Add(time.Second)
	for runs.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 2 runs, got %d", runs.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPollerRestartReplacesLoop(t *testing.T) {
	var runs atomic.Int64
	ran := make(chan struct{}, 2)
	p := NewPoller("test", func(context.Context) error {
		runs.Add(1)
		ran <- struct{}{}
		return nil
	}, zerolog.Nop())

	ctx := context.Background()
	p.Start(ctx, time.Hour)
	<-ran
	p.Start(ctx, time.Hour)
	<-ran
	p.Stop()

	// One immediate run per Start; the first loop must be gone before the
	// second begins.
	if got := runs.Load(); got != 2 {
		t.Fatalf("expected exactly 2 immediate runs, got %d", got)
	}
}

func TestPollerStopWaitsForExit(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	p := NewPoller("test", func(context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil
	}, zerolog.Nop())

	p.Start(context.Background(), time.Hour)
	<-started
	close(block)

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after loop exit")
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	p := NewPoller("test", func(context.Context) error { return nil }, zerolog.Nop())
	p.Stop()
	p.Start(context.Background(), time.Hour)
	p.Stop()
	p.Stop()
}
