// SPDX-License-Identifier: MPL-2.0

package uroot

import (
	"context"
	"fmt"
	"io"

	"mvdan.cc/sh/v3/interp"
)

type (
	// Command is a utility served in-process.
	Command interface {
		// Name is the word scripts invoke the command by.
		Name() string
		// Run executes the command. args[0] is the command name.
		Run(ctx context.Context, args []string) error
	}

	// Env is the slice of interpreter state a command sees.
	Env struct {
		Stdin     io.Reader
		Stdout    io.Writer
		Stderr    io.Writer
		Dir       string
		LookupEnv func(string) (string, bool)
	}

	envKey struct{}
)

// WithEnv attaches env to ctx. Commands prefer it over the interpreter's
// handler context, which lets tests call Run directly.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// EnvFrom returns the Env for ctx, reading the interpreter's handler
// context when none was attached with WithEnv.
func EnvFrom(ctx context.Context) *Env {
	if env, ok := ctx.Value(envKey{}).(*Env); ok {
		return env
	}
	hc := interp.HandlerCtx(ctx)
	return &Env{
		Stdin:  hc.Stdin,
		Stdout: hc.Stdout,
		Stderr: hc.Stderr,
		Dir:    hc.Dir,
		LookupEnv: func(name string) (string, bool) {
			v := hc.Env.Get(name)
			return v.Str, v.Set
		},
	}
}

func commandError(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
