package janitor

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	calls   atomic.Int32
	evicted int
	last    atomic.Int64
}

func (c *countingSweeper) Sweep(now time.Time) int {
	c.calls.Add(1)
	c.last.Store(now.Unix())
	return c.evicted
}

func TestNewRejectsBadSchedule(t *testing.T) {
	if _, err := New("not a schedule", nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunOnceSumsEvictions(t *testing.T) {
	j, err := New("@every 5m", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	j.now = func() time.Time { return fixed }

	a := &countingSweeper{evicted: 2}
	b := &countingSweeper{evicted: 3}
	j.Add("convo", a)
	j.Add("hangman", b)
	j.Add("nil", nil)

	if got := j.RunOnce(); got != 5 {
		t.Fatalf("evicted = %d, want 5", got)
	}
	if a.last.Load() != fixed.Unix() || b.calls.Load() != 1 {
		t.Fatalf("sweepers not called with injected clock")
	}
}

func TestScheduleFires(t *testing.T) {
	j, err := New("@every 1s", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s := &countingSweeper{}
	j.Add("convo", s)
	j.Start()
	defer j.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for s.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
