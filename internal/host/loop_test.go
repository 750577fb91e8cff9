// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func startLoop(t *testing.T, l *Loop, onSignal func(context.Context)) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, onSignal) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})

	deadline := time.Now().Add(5 * time.Second)
	for !l.Running() {
		if time.Now().After(deadline) {
			t.Fatal("loop did not start")
		}
		time.Sleep(time.Millisecond)
	}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for loop callback")
	}
}

func TestSignalRunsOnLoopThread(t *testing.T) {
	t.Parallel()

	l := New()
	onLoop := make(chan bool, 1)
	called := make(chan struct{}, 1)
	startLoop(t, l, func(context.Context) {
		onLoop <- l.IsLoopThread()
		called <- struct{}{}
	})

	if l.IsLoopThread() && currentThreadID() != 0 {
		t.Error("IsLoopThread() = true on the test goroutine")
	}

	l.Signal()
	waitFor(t, called)
	if !<-onLoop {
		t.Error("IsLoopThread() = false inside the loop callback")
	}
}

func TestPostRunsInOrder(t *testing.T) {
	t.Parallel()

	l := New()
	startLoop(t, l, nil)

	var got []int
	done := make(chan struct{})
	for i := range 3 {
		if !l.Post(func() { got = append(got, i) }) {
			t.Fatalf("Post(%d) rejected", i)
		}
	}
	l.Post(func() { close(done) })
	waitFor(t, done)

	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("posted callbacks ran as %v, want [0 1 2]", got)
	}
}

func TestCallbackPanicDoesNotStopLoop(t *testing.T) {
	t.Parallel()

	l := New()
	startLoop(t, l, func(context.Context) { panic("bad command") })

	l.Signal()
	done := make(chan struct{})
	l.Post(func() { close(done) })
	waitFor(t, done)

	if !l.Running() {
		t.Error("loop stopped after a panicking callback")
	}
}

func TestSignalNeverBlocks(t *testing.T) {
	t.Parallel()

	l := New()
	for range 100 {
		l.Signal()
	}
	if len(l.signal) != 1 {
		t.Errorf("pending signals = %d, want 1", len(l.signal))
	}
}

func TestPostQueueFull(t *testing.T) {
	t.Parallel()

	l := New(WithPostQueue(1))
	if !l.Post(func() {}) {
		t.Fatal("first Post rejected")
	}
	if l.Post(func() {}) {
		t.Error("Post on a full queue accepted")
	}
	if l.Post(nil) {
		t.Error("Post(nil) accepted")
	}
}

func TestRunTwice(t *testing.T) {
	t.Parallel()

	l := New()
	var signals atomic.Int32
	startLoop(t, l, func(context.Context) { signals.Add(1) })

	if err := l.Run(context.Background(), nil); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestIsLoopThreadWhenStopped(t *testing.T) {
	t.Parallel()

	if New().IsLoopThread() {
		t.Error("IsLoopThread() = true for a loop that is not running")
	}
}

func TestIsLoopThreadBeforeThreadRecorded(t *testing.T) {
	t.Parallel()

	if currentThreadID() == 0 {
		t.Skip("thread identity unavailable on this platform")
	}

	// Run marks the loop running before it has locked and recorded its
	// thread; nobody may pass the check in that window.
	l := New()
	l.running.Store(true)
	if l.IsLoopThread() {
		t.Error("IsLoopThread() = true before the loop thread was recorded")
	}
}

func TestIsLoopThreadAfterRunReturns(t *testing.T) {
	t.Parallel()

	if currentThreadID() == 0 {
		t.Skip("thread identity unavailable on this platform")
	}

	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan [2]bool, 1)
	go func() {
		// Pin the goroutine so it is still on the former loop thread
		// after Run unlocks.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		var during bool
		l.Post(func() {
			during = l.IsLoopThread()
			cancel()
		})
		_ = l.Run(ctx, nil)
		results <- [2]bool{during, l.IsLoopThread()}
	}()

	got := <-results
	if !got[0] {
		t.Error("IsLoopThread() = false inside the loop")
	}
	if got[1] {
		t.Error("IsLoopThread() = true on the former loop thread after Run returned")
	}
}
