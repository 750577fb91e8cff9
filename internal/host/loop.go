// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync/atomic"
)

// DefaultPostQueue is the number of posted callbacks the loop buffers.
const DefaultPostQueue = 64

// ErrAlreadyRunning is returned by Run when the loop is already running.
var ErrAlreadyRunning = errors.New("host loop already running")

type (
	// Loop is a single-threaded execution loop. The zero value is not
	// usable; create loops with New.
	Loop struct {
		signal  chan struct{}
		posts   chan func()
		running atomic.Bool
		thread  atomic.Int64
		logger  *slog.Logger
	}

	// Option configures a Loop.
	Option func(*Loop)
)

// WithLogger sets the logger used for callback failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithPostQueue sets the posted callback buffer size.
func WithPostQueue(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.posts = make(chan func(), n)
		}
	}
}

// New creates a loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		signal: make(chan struct{}, 1),
		posts:  make(chan func(), DefaultPostQueue),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes the loop on the calling goroutine until ctx is done. Each
// Signal results in one call to onSignal; coalesced signals result in a
// single call. Panics raised by callbacks are logged and swallowed.
func (l *Loop) Run(ctx context.Context, onSignal func(context.Context)) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.thread.Store(currentThreadID())
	defer l.thread.Store(0)

	l.logger.Debug("host loop started", "thread", l.thread.Load())
	defer l.logger.Debug("host loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.signal:
			if onSignal != nil {
				l.invoke("signal", func() { onSignal(ctx) })
			}
		case fn := <-l.posts:
			l.invoke("post", fn)
		}
	}
}

// Signal wakes the loop. It never blocks; a signal raised while another
// is pending is merged into it.
func (l *Loop) Signal() {
	select {
	case l.signal <- struct{}{}:
	default:
	}
}

// Post queues fn to run on the loop. It never blocks and reports false
// when the queue is full.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case l.posts <- fn:
		return true
	default:
		l.logger.Warn("host loop queue full, dropping callback")
		return false
	}
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// IsLoopThread reports whether the caller runs on the loop's OS thread.
// The thread is only recorded once Run has locked it, and is cleared before
// Run unlocks it, so callers in Run's start and stop windows see false.
// On platforms without thread identity it reports whether the loop is
// running.
func (l *Loop) IsLoopThread() bool {
	current := currentThreadID()
	if current == 0 {
		return l.running.Load()
	}
	loop := l.thread.Load()
	return loop != 0 && current == loop
}

func (l *Loop) invoke(kind string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("host loop callback panicked",
				"kind", kind,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
