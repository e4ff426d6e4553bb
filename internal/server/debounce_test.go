package server

import (
	"testing"
	"time"
)

func TestDebounceCoalescesBurst(t *testing.T) {
	out := make(chan struct{}, 1)
	d := newDebouncer(30*time.Millisecond, out)
	defer d.Stop()

	for range 10 {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-out:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("debounced trigger never fired")
	}

	// The burst must collapse into exactly one trigger.
	select {
	case <-out:
		t.Fatal("burst produced a second trigger")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebounceSeparateBurstsFireSeparately(t *testing.T) {
	out := make(chan struct{}, 1)
	d := newDebouncer(20*time.Millisecond, out)
	defer d.Stop()

	d.Trigger()
	select {
	case <-out:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("first trigger never fired")
	}

	d.Trigger()
	select {
	case <-out:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("second trigger never fired")
	}
}

func TestDebounceStopCancelsPending(t *testing.T) {
	out := make(chan struct{}, 1)
	d := newDebouncer(50*time.Millisecond, out)

	d.Trigger()
	d.Stop()

	select {
	case <-out:
		t.Fatal("stopped debouncer still fired")
	case <-time.After(150 * time.Millisecond):
	}
}
