// SPDX-License-Identifier: MPL-2.0

package module

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/invowk/livecmd/internal/registry"
	"github.com/invowk/livecmd/internal/runtime"
)

type (
	// Loader turns artifacts into declared symbols.
	Loader struct {
		runtimes       *runtime.Registry
		defaultRuntime runtime.RuntimeType
		stdout         io.Writer
		stderr         io.Writer
		logger         *slog.Logger
	}

	// LoaderOption configures a Loader.
	LoaderOption func(*Loader)
)

// WithRuntimes sets the runtime registry commands execute with.
func WithRuntimes(r *runtime.Registry) LoaderOption {
	return func(l *Loader) { l.runtimes = r }
}

// WithDefaultRuntime sets the runtime used by commands that do not name one.
func WithDefaultRuntime(t runtime.RuntimeType) LoaderOption {
	return func(l *Loader) { l.defaultRuntime = t }
}

// WithOutput sets the writers command scripts print to.
func WithOutput(stdout, stderr io.Writer) LoaderOption {
	return func(l *Loader) {
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a Loader. Without options commands run in the virtual
// runtime and discard their output.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		defaultRuntime: runtime.RuntimeTypeVirtual,
		stdout:         io.Discard,
		stderr:         io.Discard,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.runtimes == nil {
		l.runtimes = runtime.NewDefaultRegistry("")
	}
	return l
}

// Load reads the artifact behind h and enumerates its symbols: command
// symbols in declaration order first, then one function symbol per library
// function. A digest recorded in h must match the artifact.
func (l *Loader) Load(ctx context.Context, h Handle) ([]registry.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a, err := Read(h.Path)
	if err != nil {
		return nil, err
	}
	if h.Digest != "" && h.Digest != a.Digest {
		return nil, fmt.Errorf("%w: %s was replaced after emit", ErrCorruptArtifact, h.Path)
	}

	preamble := buildPreamble(a.Libraries)
	symbols := make([]registry.Symbol, 0, len(a.Commands))
	for _, decl := range a.Commands {
		symbols = append(symbols, &commandSymbol{decl: decl, preamble: preamble, loader: l})
	}
	for _, lib := range a.Libraries {
		for _, fn := range lib.Functions {
			symbols = append(symbols, functionSymbol{name: fn, origin: lib.Path})
		}
	}

	l.logger.Debug("module loaded", "artifact", h.Path, "commands", len(a.Commands), "libraries", len(a.Libraries))
	return symbols, nil
}

func buildPreamble(libs []Library) string {
	var b strings.Builder
	for _, lib := range libs {
		if lib.Source == "" {
			continue
		}
		b.WriteString(lib.Source)
		if !strings.HasSuffix(lib.Source, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
