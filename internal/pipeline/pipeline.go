// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/invowk/livecmd/internal/compiler"
	"github.com/invowk/livecmd/internal/discovery"
	"github.com/invowk/livecmd/internal/module"
	"github.com/invowk/livecmd/internal/registry"
	"github.com/invowk/livecmd/internal/testutil"
)

const (
	// RetainArtifact leaves the previous artifact on disk when a cycle fails.
	RetainArtifact ArtifactPolicy = iota
	// DiscardArtifact removes the artifact when a cycle fails.
	DiscardArtifact
)

type (
	// ArtifactPolicy decides what happens to the output artifact when a
	// cycle fails.
	ArtifactPolicy int

	// Loader loads an artifact into declared symbols.
	Loader interface {
		Load(ctx context.Context, h module.Handle) ([]registry.Symbol, error)
	}

	// Options configures a Pipeline.
	Options struct {
		// ScriptsDir is scanned for command files. Required.
		ScriptsDir string
		// LibrariesDir is scanned for shell libraries. Required.
		LibrariesDir string
		// OutputPath is the artifact location. Required.
		OutputPath string
		// HostReferences are baseline libraries provided by the host.
		HostReferences []string
		// Backend compiles sources. Required.
		Backend compiler.Backend
		// Loader loads artifacts. Required.
		Loader Loader
		// ArtifactPolicy applies to failed cycles. Defaults to RetainArtifact.
		ArtifactPolicy ArtifactPolicy
		// MaxCyclesPerSecond paces cycles; zero means unlimited.
		MaxCyclesPerSecond float64
		// Clock stamps published generations. Defaults to the real clock.
		Clock testutil.Clock
		// Logger defaults to slog.Default().
		Logger *slog.Logger
	}

	// Pipeline is the recompilation state machine. Create it with New.
	Pipeline struct {
		opts    Options
		logger  *slog.Logger
		limiter *rate.Limiter

		state   atomic.Int32
		current atomic.Pointer[Generation]

		ctx    context.Context
		cancel context.CancelFunc
		wg     sync.WaitGroup

		// mu guards the fields below.
		mu        sync.Mutex
		running   bool
		rerun     bool
		closed    bool
		requested uint64
		covered   uint64
		published chan struct{}

		subsMu  sync.Mutex
		subs    map[int]chan Event
		nextSub int
	}
)

// New validates opts, creates the scripts and libraries folders and the
// artifact directory, and publishes the empty generation 0. A folder that
// cannot be created is a setup error wrapping ErrSetup.
func New(opts Options) (*Pipeline, error) {
	if opts.ScriptsDir == "" || opts.LibrariesDir == "" || opts.OutputPath == "" {
		return nil, fmt.Errorf("%w: scripts, libraries and output paths are required", ErrInvalidOptions)
	}
	if opts.Backend == nil || opts.Loader == nil {
		return nil, fmt.Errorf("%w: backend and loader are required", ErrInvalidOptions)
	}
	if opts.Clock == nil {
		opts.Clock = testutil.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	dirs := []string{opts.ScriptsDir, opts.LibrariesDir, filepath.Dir(opts.OutputPath)}
	if err := discovery.EnsureLayout(dirs...); err != nil {
		return nil, setupError(err, dirs...)
	}

	p := &Pipeline{
		opts:      opts,
		logger:    opts.Logger,
		published: make(chan struct{}),
		subs:      make(map[int]chan Event),
	}
	if opts.MaxCyclesPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.MaxCyclesPerSecond), 1)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.current.Store(&Generation{
		Registry:    registry.Empty(),
		PublishedAt: opts.Clock.Now(),
	})
	return p, nil
}

// Current returns the current generation. It never returns nil.
func (p *Pipeline) Current() *Generation {
	return p.current.Load()
}

// Snapshot returns the projection of the current generation.
func (p *Pipeline) Snapshot() Snapshot {
	return p.Current().Snapshot()
}

// State returns the cycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Trigger requests a cycle. If one is running, the request is folded into
// a single follow-up cycle.
func (p *Pipeline) Trigger() {
	p.request()
}

// Recompile triggers a cycle and waits until a generation that covers this
// request is published. Waiting stops early when ctx ends or the pipeline
// closes.
func (p *Pipeline) Recompile(ctx context.Context) (*Generation, error) {
	id, ok := p.request()
	if !ok {
		return nil, ErrClosed
	}

	for {
		p.mu.Lock()
		if p.covered >= id {
			p.mu.Unlock()
			return p.Current(), nil
		}
		published := p.published
		p.mu.Unlock()

		select {
		case <-published:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.ctx.Done():
			return nil, ErrClosed
		}
	}
}

// Close cancels the running cycle, waits for the worker, and closes
// subscriber channels. It is safe to call more than once.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	p.closeSubscribers()
	return nil
}

// request records a trigger and returns its sequence number.
func (p *Pipeline) request() (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, false
	}
	p.requested++
	if p.running {
		p.rerun = true
		return p.requested, true
	}
	p.running = true
	p.wg.Add(1)
	go p.work()
	return p.requested, true
}

// work runs cycles until no rerun is pending.
func (p *Pipeline) work() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		covers := p.requested
		p.rerun = false
		p.mu.Unlock()

		p.runCycle(covers)

		p.mu.Lock()
		if !p.rerun || p.closed {
			p.running = false
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
	}
}

// runCycle executes one cycle and publishes its generation. Cancellation
// abandons the cycle without publishing.
func (p *Pipeline) runCycle(covers uint64) {
	ctx := p.ctx
	gen := &Generation{Registry: registry.Empty()}

	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("recompile cycle panicked", "panic", rec)
			gen.Diagnostics = append(gen.Diagnostics, discovery.Diagnostic{
				Severity: discovery.SeverityError,
				Code:     CodeInternalError,
				Message:  fmt.Sprintf("internal error: %v", rec),
			})
			p.fail(gen, covers)
		}
	}()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.setState(StateIdle)
			return
		}
	}

	p.setState(StateCollecting)
	sources, diags := discovery.Collect(p.opts.ScriptsDir)
	gen.Sources = sources
	gen.Diagnostics = append(gen.Diagnostics, diags...)

	p.setState(StateResolving)
	refs, diags := discovery.Resolve(p.opts.LibrariesDir, p.opts.HostReferences)
	gen.References = refs
	gen.Diagnostics = append(gen.Diagnostics, diags...)

	p.setState(StateCompiling)
	result, err := p.opts.Backend.Compile(ctx, sources, refs, p.opts.OutputPath)
	if err != nil {
		if ctx.Err() != nil {
			p.setState(StateIdle)
			return
		}
		gen.Diagnostics = append(gen.Diagnostics, discovery.Diagnostic{
			Severity: discovery.SeverityError,
			Code:     CodeCompileFailed,
			Message:  err.Error(),
			Cause:    err,
		})
		p.fail(gen, covers)
		return
	}
	gen.Result = result.Clone()
	gen.Diagnostics = append(gen.Diagnostics, gen.Result.Diagnostics...)
	if !gen.Result.Success() {
		p.fail(gen, covers)
		return
	}

	p.setState(StateLoading)
	symbols, err := p.opts.Loader.Load(ctx, *gen.Result.Artifact)
	if err != nil {
		if ctx.Err() != nil {
			p.setState(StateIdle)
			return
		}
		gen.LoadError = err
		gen.Diagnostics = append(gen.Diagnostics, discovery.Diagnostic{
			Severity: discovery.SeverityError,
			Code:     CodeLoadFailed,
			Message:  err.Error(),
			Path:     gen.Result.Artifact.Path,
			Cause:    err,
		})
		p.fail(gen, covers)
		return
	}

	reg := registry.Build(symbols, p.logger)
	for _, c := range reg.Collisions() {
		gen.Diagnostics = append(gen.Diagnostics, discovery.Diagnostic{
			Severity: discovery.SeverityWarning,
			Code:     CodeCommandCollision,
			Message:  fmt.Sprintf("command %s is already declared in %s", c.Name, c.Kept),
			Path:     c.Dropped,
		})
	}
	for _, f := range reg.Failures() {
		gen.Diagnostics = append(gen.Diagnostics, discovery.Diagnostic{
			Severity: discovery.SeverityWarning,
			Code:     CodeInstantiationFailed,
			Message:  f.Error(),
			Path:     f.Origin,
			Cause:    f.Err,
		})
	}
	gen.Registry = reg
	gen.LoadSuccess = true

	p.setState(StatePublishing)
	p.publish(gen, covers)
	p.setState(StateIdle)
}

// fail publishes gen with an empty command set and applies the artifact
// policy.
func (p *Pipeline) fail(gen *Generation, covers uint64) {
	p.setState(StateFailed)

	gen.Registry = registry.Empty()
	gen.LoadSuccess = false

	if p.opts.ArtifactPolicy == DiscardArtifact {
		if err := os.Remove(p.opts.OutputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("failed to discard artifact", "path", p.opts.OutputPath, "error", err)
		}
	}

	p.publish(gen, covers)
	p.setState(StateIdle)
}

// publish is the only writer of the current generation.
func (p *Pipeline) publish(gen *Generation, covers uint64) {
	gen.Version = p.current.Load().Version + 1
	gen.PublishedAt = p.opts.Clock.Now()
	p.current.Store(gen)

	p.mu.Lock()
	p.covered = covers
	close(p.published)
	p.published = make(chan struct{})
	p.mu.Unlock()

	level := slog.LevelInfo
	if !gen.LoadSuccess {
		level = slog.LevelWarn
	}
	p.logger.Log(context.Background(), level, "generation published",
		"version", gen.Version,
		"success", gen.LoadSuccess,
		"commands", gen.Registry.Len(),
		"diagnostics", len(gen.Diagnostics))

	p.notify(Event{Version: gen.Version, Success: gen.LoadSuccess})
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}
