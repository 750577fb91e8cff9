// SPDX-License-Identifier: MPL-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/invowk/livecmd/internal/registry"
	"github.com/invowk/livecmd/internal/testutil"
)

var (
	// ErrNotHostThread is reported when Drain runs off the host loop.
	ErrNotHostThread = errors.New("drain called outside the host loop")
	// ErrCannotExecute is reported when a command rejects its argument.
	ErrCannotExecute = errors.New("command cannot execute with this argument")
	// ErrCommandPanicked wraps panics raised by Execute.
	ErrCommandPanicked = errors.New("command panicked")
)

type (
	// Signaler wakes the host loop.
	Signaler interface {
		Signal()
	}

	// ThreadOwner identifies the host loop thread.
	ThreadOwner interface {
		IsLoopThread() bool
	}

	// Request is one pending execution.
	Request struct {
		// Token identifies the request in logs and outcomes.
		Token uuid.UUID
		// Command is the command to execute.
		Command registry.Command
		// Argument is passed to CanExecute and Execute.
		Argument string
		// Generation is the pipeline version the command was resolved from.
		Generation uint64
		// SubmittedAt is the Submit time.
		SubmittedAt time.Time
	}

	// Outcome reports one drained request.
	Outcome struct {
		Request  Request
		Err      error
		Duration time.Duration
	}

	// SubmitOption configures a Request.
	SubmitOption func(*Request)

	// Option configures a Bridge.
	Option func(*Bridge)

	// Bridge is the single-slot mailbox.
	Bridge struct {
		signal    Signaler
		owner     ThreadOwner
		logger    *slog.Logger
		clock     testutil.Clock
		onOutcome func(Outcome)

		mu   sync.Mutex
		slot *Request
	}
)

// FromGeneration tags the request with the generation its command came from.
func FromGeneration(version uint64) SubmitOption {
	return func(r *Request) { r.Generation = version }
}

// WithOwner enables the host thread check in Drain.
func WithOwner(owner ThreadOwner) Option {
	return func(b *Bridge) { b.owner = owner }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// WithOutcomeHandler registers fn to receive every drained outcome on the
// host loop.
func WithOutcomeHandler(fn func(Outcome)) Option {
	return func(b *Bridge) { b.onOutcome = fn }
}

// WithClock sets the clock used for timestamps and durations.
func WithClock(clock testutil.Clock) Option {
	return func(b *Bridge) { b.clock = clock }
}

// New creates a bridge that wakes the host through signal.
func New(signal Signaler, opts ...Option) *Bridge {
	b := &Bridge{
		signal: signal,
		logger: slog.Default(),
		clock:  testutil.RealClock{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Submit replaces the pending request and signals the host. It returns
// the stored request. A nil command is refused: the slot is left as it was
// and the returned request has a zero Token.
func (b *Bridge) Submit(cmd registry.Command, arg string, opts ...SubmitOption) Request {
	if cmd == nil {
		b.logger.Error("refusing to submit a nil command", "argument", arg)
		return Request{}
	}

	req := Request{
		Token:       uuid.New(),
		Command:     cmd,
		Argument:    arg,
		SubmittedAt: b.clock.Now(),
	}
	for _, opt := range opts {
		opt(&req)
	}

	b.mu.Lock()
	replaced := b.slot
	b.slot = &req
	b.mu.Unlock()

	if replaced != nil {
		b.logger.Debug("pending request superseded",
			"command", commandName(replaced.Command), "token", replaced.Token, "by", req.Token)
	}
	if b.signal != nil {
		b.signal.Signal()
	}
	return req
}

// Drain takes the pending request and executes it. It must run on the host
// loop. It reports false when the slot was empty. Errors and panics raised
// by the command are logged and returned in the Outcome, never propagated.
func (b *Bridge) Drain(ctx context.Context) (Outcome, bool) {
	if b.owner != nil && !b.owner.IsLoopThread() {
		b.logger.Error("refusing to drain outside the host loop")
		return Outcome{Err: ErrNotHostThread}, false
	}

	b.mu.Lock()
	req := b.slot
	b.slot = nil
	b.mu.Unlock()

	if req == nil {
		return Outcome{}, false
	}

	start := b.clock.Now()
	err := b.execute(ctx, req)
	out := Outcome{Request: *req, Err: err, Duration: b.clock.Since(start)}

	if err != nil {
		b.logger.Error("command failed",
			"command", commandName(req.Command),
			"argument", req.Argument,
			"token", req.Token,
			"generation", req.Generation,
			"error", err)
	} else {
		b.logger.Info("command executed",
			"command", commandName(req.Command),
			"token", req.Token,
			"duration", out.Duration)
	}

	if b.onOutcome != nil {
		b.notify(out)
	}
	return out, true
}

// Cancel clears the pending request without executing it.
func (b *Bridge) Cancel() bool {
	b.mu.Lock()
	req := b.slot
	b.slot = nil
	b.mu.Unlock()

	if req != nil {
		b.logger.Debug("pending request cancelled", "command", commandName(req.Command), "token", req.Token)
	}
	return req != nil
}

// CancelStale clears the pending request when it was resolved from a
// generation older than version.
func (b *Bridge) CancelStale(version uint64) bool {
	b.mu.Lock()
	req := b.slot
	stale := req != nil && req.Generation < version
	if stale {
		b.slot = nil
	}
	b.mu.Unlock()

	if stale {
		b.logger.Info("pending request invalidated by new generation",
			"command", commandName(req.Command), "token", req.Token,
			"generation", req.Generation, "current", version)
	}
	return stale
}

// Pending returns a copy of the pending request.
func (b *Bridge) Pending() (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.slot == nil {
		return Request{}, false
	}
	return *b.slot, true
}

func (b *Bridge) execute(ctx context.Context, req *Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: %v", ErrCommandPanicked, commandName(req.Command), rec)
		}
	}()

	if !req.Command.CanExecute(req.Argument) {
		return fmt.Errorf("%w: %s %q", ErrCannotExecute, commandName(req.Command), req.Argument)
	}
	return req.Command.Execute(ctx, req.Argument)
}

// commandName is Name for logging and error paths, where a broken command
// must not raise a second panic.
func commandName(cmd registry.Command) (name string) {
	if cmd == nil {
		return "<nil>"
	}
	defer func() {
		if recover() != nil {
			name = "<unnamed>"
		}
	}()
	return cmd.Name()
}

func (b *Bridge) notify(out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("outcome handler panicked", "panic", rec)
		}
	}()
	b.onOutcome(out)
}
