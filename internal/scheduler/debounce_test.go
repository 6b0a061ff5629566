package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { runs.Add(1) })

	for i := 0; i < 10; i++ {
		d.Trigger()
	}
	time.Sleep(100 * time.Millisecond)

	if got := runs.Load(); got != 1 {
		t.Fatalf("burst of 10 triggers should run once, ran %d times", got)
	}

	d.Trigger()
	time.Sleep(100 * time.Millisecond)
	if got := runs.Load(); got != 2 {
		t.Fatalf("trigger after quiet period should run again, total %d", got)
	}
}

func TestDebouncerFlushRunsPendingWork(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(time.Hour, func() { runs.Add(1) })

	d.Flush()
	if runs.Load() != 0 {
		t.Fatal("flush with nothing pending should not run")
	}

	d.Trigger()
	d.Flush()
	if runs.Load() != 1 {
		t.Fatal("flush should run the pending work immediately")
	}
}

func TestDebouncerStopCancels(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { runs.Add(1) })

	d.Trigger()
	d.Stop()
	time.Sleep(50 * time.Millisecond)
	if runs.Load() != 0 {
		t.Fatal("stop should cancel the pending run")
	}
}
