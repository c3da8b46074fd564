package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func captureAfterFunc(t *testing.T) *[]func() {
	t.Helper()
	orig := afterFunc
	t.Cleanup(func() { afterFunc = orig })
	var callbacks []func()
	afterFunc = func(_ time.Duration, f func()) *time.Timer {
		callbacks = append(callbacks, f)
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		return timer
	}
	return &callbacks
}

func TestDebouncerIgnoresStaleTimerCallback(t *testing.T) {
	callbacks := captureAfterFunc(t)

	var called atomic.Int32
	d := New(time.Second, func() {
		called.Add(1)
	})

	d.Trigger()
	d.Trigger()

	if len(*callbacks) != 2 {
		t.Fatalf("expected 2 scheduled callbacks, got %d", len(*callbacks))
	}
	(*callbacks)[0]()
	if !d.Pending() {
		t.Fatal("stale callback must not clear the pending call")
	}
	(*callbacks)[1]()

	if got := called.Load(); got != 1 {
		t.Fatalf("expected only latest callback to run, got %d calls", got)
	}
	if d.Pending() {
		t.Fatal("nothing should be pending after the call ran")
	}
}

func TestDebouncerStopIgnoresPendingTimerCallback(t *testing.T) {
	callbacks := captureAfterFunc(t)

	var called atomic.Int32
	d := New(time.Second, func() {
		called.Add(1)
	})

	d.Trigger()
	d.Stop()

	if len(*callbacks) != 1 {
		t.Fatalf("expected a scheduled callback")
	}
	(*callbacks)[0]()

	if got := called.Load(); got != 0 {
		t.Fatalf("expected callback to be ignored after stop, got %d calls", got)
	}
}

func TestDebouncerTriggerOnce(t *testing.T) {
	var count atomic.Int32
	done := make(chan struct{})
	d := New(10*time.Millisecond, func() {
		count.Add(1)
		close(done)
	})
	d.Trigger()
	d.Trigger()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}
	if got := count.Load(); got != 1 {
		t.Fatalf("expected one invocation, got %d", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	var count atomic.Int32
	d := New(20*time.Millisecond, func() {
		count.Add(1)
	})
	d.Trigger()
	d.Stop()
	time.Sleep(40 * time.Millisecond)
	if got := count.Load(); got != 0 {
		t.Fatalf("expected no invocations after stop, got %d", got)
	}
}

func TestEnsureReusesDebouncer(t *testing.T) {
	var called atomic.Int32
	var d *Debouncer
	first := Ensure(&d, 5*time.Millisecond, func() { called.Add(1) })
	if first == nil || d != first {
		t.Fatal("Ensure should initialize and store the debouncer")
	}
	second := Ensure(&d, 5*time.Millisecond, func() { called.Add(10) })
	if first != second {
		t.Fatal("Ensure should not allocate a new debouncer when already set")
	}
	first.Trigger()
	time.Sleep(30 * time.Millisecond)
	if got := called.Load(); got != 1 {
		t.Fatalf("new handler should not replace existing debouncer, got %d", got)
	}
}
