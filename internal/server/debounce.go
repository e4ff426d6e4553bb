package server

import (
	"sync"
	"time"
)

// debouncer coalesces a burst of filesystem events into a single trigger: the
// timer restarts on every event and fires once the sources have been quiet
// for the configured window. The trigger channel has capacity 1, so a burst
// arriving mid-build queues exactly one follow-up build.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	quiet time.Duration
	out   chan<- struct{}
}

func newDebouncer(quiet time.Duration, out chan<- struct{}) *debouncer {
	return &debouncer{quiet: quiet, out: out}
}

// Trigger (re)arms the quiet-window timer.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		select {
		case d.out <- struct{}{}:
		default:
		}
	})
}

// Stop cancels any pending trigger.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
