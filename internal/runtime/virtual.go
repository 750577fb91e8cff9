// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"

	"github.com/invowk/livecmd/internal/uroot"
)

type (
	// VirtualRuntime executes programs using the embedded mvdan/sh interpreter.
	VirtualRuntime struct {
		// builtins serves common utilities in-process. Nil sends every
		// external command to the host.
		builtins *uroot.Registry
	}

	// VirtualOption configures a VirtualRuntime.
	VirtualOption func(*VirtualRuntime)
)

// WithBuiltins replaces the in-process utility registry. Passing nil
// disables builtins.
func WithBuiltins(reg *uroot.Registry) VirtualOption {
	return func(r *VirtualRuntime) { r.builtins = reg }
}

// NewVirtualRuntime creates a new virtual runtime serving the default
// uroot utilities.
func NewVirtualRuntime(opts ...VirtualOption) *VirtualRuntime {
	r := &VirtualRuntime{builtins: uroot.NewDefaultRegistry()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the runtime name.
func (r *VirtualRuntime) Name() RuntimeType {
	return RuntimeTypeVirtual
}

// Available returns whether this runtime is available.
// The virtual runtime is built in and always available.
func (r *VirtualRuntime) Available() bool {
	return true
}

// Execute runs the program in a fresh interpreter.
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	if ctx.Program == nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("no program to execute")}
	}

	stdout, stderr := writerOrDiscard(ctx.IO.Stdout), writerOrDiscard(ctx.IO.Stderr)
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(EnvToSlice(ctx.Env)...)),
		interp.StdIO(ctx.IO.Stdin, stdout, stderr),
		interp.ExecHandlers(r.execHandler),
	}
	if ctx.WorkDir != "" {
		opts = append(opts, interp.Dir(ctx.WorkDir))
	}

	// Prepend "--" so arguments like "-v" are not taken as shell options.
	if len(ctx.Args) > 0 {
		params := append([]string{"--"}, ctx.Args...)
		opts = append(opts, interp.Params(params...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	if err := runner.Run(execCtx, ctx.Program.file); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &Result{ExitCode: ExitCode(exitStatus)}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("script execution failed: %w", err)}
	}
	return &Result{}
}

// execHandler serves registered utilities in-process and hands everything
// else to the next handler. A builtin that fails does not fall back.
func (r *VirtualRuntime) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if r.builtins != nil {
			if handled, err := r.builtins.Dispatch(ctx, args); handled {
				if err != nil {
					hc := interp.HandlerCtx(ctx)
					fmt.Fprintln(writerOrDiscard(hc.Stderr), err)
					return interp.ExitStatus(1)
				}
				return nil
			}
		}
		return next(ctx, args)
	}
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
