// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Runtime type constants for the supported execution environments.
const (
	RuntimeTypeVirtual RuntimeType = "virtual"
	RuntimeTypeNative  RuntimeType = "native"
)

var (
	// ErrRuntimeNotAvailable is returned when a runtime is requested that is
	// not registered or cannot run on this host.
	ErrRuntimeNotAvailable = errors.New("runtime not available")
	// ErrInvalidRuntimeType is returned for unrecognized runtime names.
	ErrInvalidRuntimeType = errors.New("invalid runtime type")
)

type (
	// RuntimeType identifies the type of runtime.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// Program is a parsed script ready for execution. The preamble holds the
	// library sources and runs before the script in the same shell.
	Program struct {
		name     string
		preamble string
		script   string
		file     *syntax.File
	}

	// IO groups the standard streams handed to a script.
	IO struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ExecutionContext contains all information needed to execute a program.
	ExecutionContext struct {
		// Context is the Go context for cancellation.
		Context context.Context
		// Program is the script to run.
		Program *Program
		// Args are exposed to the script as positional parameters ($1, $2, ...).
		Args []string
		// Env is the complete environment of the script.
		Env map[string]string
		// WorkDir is the working directory; empty means the current directory.
		WorkDir string
		// IO holds the standard streams; nil writers discard output.
		IO IO
	}

	// Result contains the result of a program execution.
	Result struct {
		// ExitCode is the script's exit status.
		ExitCode ExitCode
		// Error reports an infrastructure failure (the script could not run).
		Error error
	}

	// Runtime defines the interface for program execution.
	Runtime interface {
		// Name returns the runtime name.
		Name() RuntimeType
		// Available returns whether this runtime can run on the current system.
		Available() bool
		// Execute runs a program in this runtime.
		Execute(ctx *ExecutionContext) *Result
	}

	// Registry holds all available runtimes.
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// Validate returns an error wrapping ErrInvalidRuntimeType when t is not a
// known runtime type.
func (t RuntimeType) Validate() error {
	switch t {
	case RuntimeTypeVirtual, RuntimeTypeNative:
		return nil
	default:
		return fmt.Errorf("%w: %q (valid: %s, %s)", ErrInvalidRuntimeType, t, RuntimeTypeVirtual, RuntimeTypeNative)
	}
}

// NewProgram parses preamble and script together. A syntax error in either
// part is returned with the offending part named.
func NewProgram(name, preamble, script string) (*Program, error) {
	parser := syntax.NewParser()

	pre, err := parser.Parse(strings.NewReader(preamble), name+" (libraries)")
	if err != nil {
		return nil, fmt.Errorf("library preamble syntax error: %w", err)
	}
	body, err := parser.Parse(strings.NewReader(script), name)
	if err != nil {
		return nil, fmt.Errorf("script syntax error: %w", err)
	}

	return &Program{
		name:     name,
		preamble: preamble,
		script:   script,
		file: &syntax.File{
			Name:  name,
			Stmts: slices.Concat(pre.Stmts, body.Stmts),
		},
	}, nil
}

// Name returns the program name used in diagnostics.
func (p *Program) Name() string {
	return p.name
}

// Source returns the preamble followed by the script as one shell source.
func (p *Program) Source() string {
	if p.preamble == "" {
		return p.script
	}
	return p.preamble + "\n" + p.script
}

// Err converts the result to an error: nil on success, the infrastructure
// error when present, or an *ExitError for a non-zero exit status.
func (r *Result) Err() error {
	if r.Error != nil {
		return r.Error
	}
	if !r.ExitCode.IsSuccess() {
		return &ExitError{Code: r.ExitCode}
	}
	return nil
}

// NewRegistry creates an empty runtime registry.
func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[RuntimeType]Runtime)}
}

// NewDefaultRegistry returns a registry with the virtual runtime and the
// native runtime using shell (empty means auto-detect).
func NewDefaultRegistry(shell string) *Registry {
	r := NewRegistry()
	r.Register(NewVirtualRuntime())
	r.Register(NewNativeRuntime(shell))
	return r
}

// Register adds a runtime, replacing any runtime with the same name.
func (r *Registry) Register(rt Runtime) {
	r.runtimes[rt.Name()] = rt
}

// Get returns the runtime registered under t if it is available.
func (r *Registry) Get(t RuntimeType) (Runtime, error) {
	rt, ok := r.runtimes[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not registered", ErrRuntimeNotAvailable, t)
	}
	if !rt.Available() {
		return nil, fmt.Errorf("%w: %s cannot run on this system", ErrRuntimeNotAvailable, t)
	}
	return rt, nil
}
