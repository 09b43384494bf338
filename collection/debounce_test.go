package collection

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) after(_ time.Duration, fn func()) stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every timer that has not been stopped.
func (c *fakeClock) fire() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.fn()
		}
	}
}

func TestRapidKeystrokesFetchOnce(t *testing.T) {
	t.Parallel()

	src := &fakeSource{rows: append(makeRows("acme", 3), makeRows("globex", 2)...)}
	p := NewPaginator[row](src, WithNotifier(&Slot{}))
	clock := &fakeClock{}
	d := NewDebouncer(400*time.Millisecond, func(term string) {
		_ = p.Reset(context.Background(), term)
	})
	d.after = clock.after

	for _, term := range []string{"a", "ac", "acm"} {
		d.Trigger(term)
	}
	if src.callCount() != 0 {
		t.Fatalf("nothing may be fetched before the quiet period")
	}
	clock.fire()

	if got := src.callCount(); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
	if q := src.lastCall(); q.Search != "acm" {
		t.Fatalf("expected final term, got %q", q.Search)
	}
	if len(p.Items()) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(p.Items()))
	}
}

func TestStaleTimerIsIgnored(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	var fired []string
	d := NewDebouncer(time.Second, func(term string) { fired = append(fired, term) })
	d.after = clock.after

	d.Trigger("first")
	d.Trigger("second")

	// a timer that fired before Stop took effect still runs its callback
	clock.timers[0].fn()
	if len(fired) != 0 {
		t.Fatalf("superseded timer must not fire, got %v", fired)
	}
	clock.fire()
	if len(fired) != 1 || fired[0] != "second" {
		t.Fatalf("expected only the latest term, got %v", fired)
	}
	if d.Pending() {
		t.Fatalf("nothing should be pending after firing")
	}
}

func TestStopCancelsPending(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	calls := 0
	d := NewDebouncer(time.Second, func(string) { calls++ })
	d.after = clock.after

	d.Trigger("x")
	if !d.Pending() {
		t.Fatalf("expected a pending call")
	}
	d.Stop()
	for _, tm := range clock.timers {
		tm.fn()
	}
	d.Trigger("y")
	clock.fire()
	if calls != 0 {
		t.Fatalf("stopped debouncer must not fire, got %d calls", calls)
	}
}

func TestDebouncerWithRealTimer(t *testing.T) {
	t.Parallel()

	got := make(chan string, 4)
	d := NewDebouncer(20*time.Millisecond, func(term string) { got <- term })
	defer d.Stop()

	d.Trigger("in")
	d.Trigger("inv")
	d.Trigger("invo")

	select {
	case term := <-got:
		if term != "invo" {
			t.Fatalf("expected final term, got %q", term)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("debounced call never fired")
	}
	select {
	case term := <-got:
		t.Fatalf("unexpected extra call with %q", term)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCancelKeepsDebouncerUsable(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	var fired []string
	d := NewDebouncer(time.Second, func(term string) { fired = append(fired, term) })
	d.after = clock.after

	d.Trigger("draft")
	d.Cancel()
	clock.timers[0].fn()
	d.Trigger("final")
	clock.fire()
	if len(fired) != 1 || fired[0] != "final" {
		t.Fatalf("expected only the term after cancel, got %v", fired)
	}
}
