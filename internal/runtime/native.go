// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// NativeRuntime executes programs using the host's POSIX shell.
type NativeRuntime struct {
	// Shell overrides the default shell.
	Shell string
}

// NewNativeRuntime creates a native runtime. An empty shell is resolved
// from $SHELL, then bash, then sh.
func NewNativeRuntime(shell string) *NativeRuntime {
	return &NativeRuntime{Shell: shell}
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() RuntimeType {
	return RuntimeTypeNative
}

// Available returns whether a shell can be found.
func (r *NativeRuntime) Available() bool {
	_, err := r.getShell()
	return err == nil
}

// Execute runs the program as "shell -c source name args...".
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	if ctx.Program == nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("no program to execute")}
	}

	shell, err := r.getShell()
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	// $0 is the program name; positional arguments follow it.
	args := append([]string{"-c", ctx.Program.Source(), ctx.Program.Name()}, ctx.Args...)
	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}
	cmd := exec.CommandContext(execCtx, shell, args...)
	cmd.Dir = ctx.WorkDir
	cmd.Env = EnvToSlice(ctx.Env)
	cmd.Stdin = ctx.IO.Stdin
	cmd.Stdout = writerOrDiscard(ctx.IO.Stdout)
	cmd.Stderr = writerOrDiscard(ctx.IO.Stderr)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Result{ExitCode: ExitCode(exitErr.ExitCode())}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to execute command: %w", err)}
	}
	return &Result{}
}

// getShell determines which shell to use.
func (r *NativeRuntime) getShell() (string, error) {
	if r.Shell != "" {
		return exec.LookPath(r.Shell)
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		if path, err := exec.LookPath(shell); err == nil {
			return path, nil
		}
	}
	for _, candidate := range []string{"bash", "sh"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no POSIX shell found: %w", ErrRuntimeNotAvailable, exec.ErrNotFound)
}
