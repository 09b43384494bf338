package collection

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period after the last keystroke.
const DefaultDebounce = 400 * time.Millisecond

type stopper interface {
	Stop() bool
}

// Debouncer delays fire until Trigger has not been called for the delay. Each
// Trigger cancels the pending call and bumps a generation so a timer that
// already fired but lost the race is ignored.
type Debouncer struct {
	delay time.Duration
	fire  func(term string)
	after func(time.Duration, func()) stopper

	mu      sync.Mutex
	timer   stopper
	gen     uint64
	stopped bool
}

func NewDebouncer(delay time.Duration, fire func(term string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{
		delay: delay,
		fire:  fire,
		after: func(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) },
	}
}

// Trigger restarts the quiet period for term.
func (d *Debouncer) Trigger(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.after(d.delay, func() {
		d.mu.Lock()
		if d.stopped || gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fire(term)
	})
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops a pending call. Later Triggers schedule as usual.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop cancels any pending call. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.cancelLocked()
}

func (d *Debouncer) cancelLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
