// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/invowk/livecmd/internal/bridge"
	"github.com/invowk/livecmd/internal/compiler"
	"github.com/invowk/livecmd/internal/config"
	"github.com/invowk/livecmd/internal/discovery"
	"github.com/invowk/livecmd/internal/host"
	"github.com/invowk/livecmd/internal/issue"
	"github.com/invowk/livecmd/internal/module"
	"github.com/invowk/livecmd/internal/pipeline"
	"github.com/invowk/livecmd/internal/runtime"
	"github.com/invowk/livecmd/internal/testutil"
	"github.com/invowk/livecmd/internal/watch"
)

// eventBuffer is the pipeline subscription buffer used by Run. Dropped
// events are harmless: the next one carries a newer version.
const eventBuffer = 8

var (
	// ErrCommandNotFound is returned when a command is not part of the
	// current generation.
	ErrCommandNotFound = errors.New("command not found")
	// ErrLoopBusy is returned by Execute while Run owns the host loop.
	ErrLoopBusy = errors.New("host loop is already running")
)

type (
	// Option configures an Engine.
	Option func(*Engine)

	// Engine wires the live reload components together.
	Engine struct {
		cfg         *config.Config
		logger      *slog.Logger
		stdout      io.Writer
		stderr      io.Writer
		clock       testutil.Clock
		watch       bool
		backend     compiler.Backend
		onOutcome   func(bridge.Outcome)
		onRecompile func(pipeline.Snapshot)

		pipeline *pipeline.Pipeline
		loop     *host.Loop
		bridge   *bridge.Bridge
		watcher  *watch.Watcher

		closeOnce sync.Once
	}
)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithOutput sets where command output goes.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithWatch enables the directory watcher in Run.
func WithWatch(enabled bool) Option {
	return func(e *Engine) { e.watch = enabled }
}

// WithBackend replaces the default CUE backend.
func WithBackend(b compiler.Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// WithClock sets the clock used by the pipeline and the bridge.
func WithClock(clock testutil.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithOutcomeHandler receives every drained execution outcome on the host loop.
func WithOutcomeHandler(fn func(bridge.Outcome)) Option {
	return func(e *Engine) { e.onOutcome = fn }
}

// WithRecompileHandler receives a snapshot on the host loop after every
// publish observed while Run is active.
func WithRecompileHandler(fn func(pipeline.Snapshot)) Option {
	return func(e *Engine) { e.onRecompile = fn }
}

// New builds an engine for cfg. cfg must be resolved (absolute paths).
// A folder that cannot be created is reported as a setup error wrapping
// pipeline.ErrSetup.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", pipeline.ErrInvalidOptions)
	}

	e := &Engine{
		cfg:    cfg,
		logger: slog.Default(),
		stdout: io.Discard,
		stderr: io.Discard,
		clock:  testutil.RealClock{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.backend == nil {
		e.backend = compiler.NewCUEBackend(
			compiler.WithCacheSize(cfg.Pipeline.CacheSize),
			compiler.WithLogger(e.logger),
		)
	}

	loader := module.NewLoader(
		module.WithRuntimes(runtime.NewDefaultRegistry(cfg.Runtime.Shell)),
		module.WithDefaultRuntime(runtime.RuntimeType(cfg.Runtime.Default)),
		module.WithOutput(e.stdout, e.stderr),
		module.WithLogger(e.logger),
	)

	policy := pipeline.RetainArtifact
	if !cfg.Artifact.RetainOnFailure {
		policy = pipeline.DiscardArtifact
	}

	p, err := pipeline.New(pipeline.Options{
		ScriptsDir:         cfg.ScriptsDir,
		LibrariesDir:       cfg.LibrariesDir,
		OutputPath:         cfg.OutputPath,
		HostReferences:     cfg.HostReferences,
		Backend:            e.backend,
		Loader:             loader,
		ArtifactPolicy:     policy,
		MaxCyclesPerSecond: cfg.Pipeline.MaxCyclesPerSecond,
		Clock:              e.clock,
		Logger:             e.logger,
	})
	if err != nil {
		return nil, err
	}
	e.pipeline = p

	e.loop = host.New(host.WithLogger(e.logger))
	e.bridge = bridge.New(e.loop,
		bridge.WithOwner(e.loop),
		bridge.WithLogger(e.logger),
		bridge.WithClock(e.clock),
		bridge.WithOutcomeHandler(e.onOutcome),
	)

	if e.watch {
		w, err := watch.New(watch.Config{
			Roots: []watch.Root{
				{Dir: cfg.ScriptsDir, Patterns: []string{discovery.SourcePattern}},
				{Dir: cfg.LibrariesDir, Patterns: []string{discovery.LibraryPattern}},
			},
			Ignore:   cfg.Watch.Ignore,
			Debounce: cfg.Watch.Debounce,
			OnChange: e.onChange,
			Logger:   e.logger,
		})
		if err != nil {
			_ = p.Close()
			return nil, watchError(err)
		}
		e.watcher = w
	}

	return e, nil
}

// Run compiles the workspace, then runs the host loop on the calling
// goroutine until ctx is done. With watching enabled, file changes trigger
// recompiles. Every publish cancels a pending request resolved from an
// older generation.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, unsubscribe := e.pipeline.Subscribe(eventBuffer)
	defer unsubscribe()

	var (
		wg       sync.WaitGroup
		watchErr error
	)

	wg.Go(func() {
		e.forward(ctx, events)
	})

	if e.watcher != nil {
		wg.Go(func() {
			if err := e.watcher.Run(ctx); err != nil {
				watchErr = err
				cancel()
			}
		})
	}

	e.pipeline.Trigger()

	err := e.loop.Run(ctx, e.drainCurrent)
	cancel()
	wg.Wait()

	if watchErr != nil {
		return watchError(fmt.Errorf("watcher stopped: %w", watchErr))
	}
	return err
}

// drainCurrent runs the pending request unless a newer generation has
// been published since it was resolved. The loop may pick up the submit
// signal before the posted publish notification, so the check is repeated
// here.
func (e *Engine) drainCurrent(ctx context.Context) {
	e.bridge.CancelStale(e.pipeline.Current().Version)
	e.bridge.Drain(ctx)
}

// watchError attaches the watch-limit catalog entry to exhausted watchers.
func watchError(err error) error {
	if !errors.Is(err, watch.ErrWatchExhausted) {
		return err
	}
	return issue.NewErrorContext().
		WithOperation("watch workspace").
		WithSuggestion("Raise fs.inotify.max_user_watches or add ignore patterns under watch.ignore").
		WithIssue(issue.WatchLimitReachedId).
		Wrap(err).
		BuildError()
}

// forward posts publish notifications to the host loop.
func (e *Engine) forward(ctx context.Context, events <-chan pipeline.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			e.loop.Post(func() {
				e.bridge.CancelStale(ev.Version)
				if e.onRecompile != nil {
					e.onRecompile(e.pipeline.Snapshot())
				}
			})
		}
	}
}

func (e *Engine) onChange(_ context.Context, changed []string) error {
	e.logger.Debug("sources changed", "paths", changed)
	e.pipeline.Trigger()
	return nil
}

// Recompile runs a cycle and returns its snapshot.
func (e *Engine) Recompile(ctx context.Context) (pipeline.Snapshot, error) {
	gen, err := e.pipeline.Recompile(ctx)
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	return gen.Snapshot(), nil
}

// Snapshot returns the projection of the current generation.
func (e *Engine) Snapshot() pipeline.Snapshot {
	return e.pipeline.Snapshot()
}

// Current returns the current generation.
func (e *Engine) Current() *pipeline.Generation {
	return e.pipeline.Current()
}

// Submit resolves name in the current generation and hands it to the host
// loop, replacing any pending request. It never blocks on execution.
func (e *Engine) Submit(name, arg string) (bridge.Request, error) {
	gen := e.pipeline.Current()
	d, ok := gen.Registry.Lookup(name)
	if !ok {
		return bridge.Request{}, issue.NewErrorContext().
			WithOperation("submit command").
			WithResource(name).
			WithSuggestion("Run 'livecmd list' to see available commands").
			WithIssue(issue.CommandNotFoundId).
			Wrap(fmt.Errorf("%w: %q in generation %d", ErrCommandNotFound, name, gen.Version)).
			BuildError()
	}
	return e.bridge.Submit(d.Command, arg, bridge.FromGeneration(gen.Version)), nil
}

// Cancel drops the pending request, if any.
func (e *Engine) Cancel() bool {
	return e.bridge.Cancel()
}

// Execute submits name and runs the host loop on the calling goroutine until
// that request has been drained. It is meant for one-shot callers that do not
// use Run.
func (e *Engine) Execute(ctx context.Context, name, arg string) (bridge.Outcome, error) {
	if e.loop.Running() {
		return bridge.Outcome{}, ErrLoopBusy
	}

	req, err := e.Submit(name, arg)
	if err != nil {
		return bridge.Outcome{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		out  bridge.Outcome
		done bool
	)
	err = e.loop.Run(ctx, func(ctx context.Context) {
		o, ok := e.bridge.Drain(ctx)
		if ok && o.Request.Token == req.Token {
			out, done = o, true
			cancel()
		}
	})
	if err != nil {
		return bridge.Outcome{}, err
	}
	if !done {
		return bridge.Outcome{}, ctx.Err()
	}
	return out, nil
}

// Close stops the pipeline worker. It is safe to call more than once.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = e.pipeline.Close()
	})
	return err
}
