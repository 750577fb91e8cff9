// SPDX-License-Identifier: MPL-2.0

package module

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/invowk/livecmd/internal/registry"
	"github.com/invowk/livecmd/internal/runtime"
)

type (
	commandSymbol struct {
		decl     CommandDecl
		preamble string
		loader   *Loader
	}

	functionSymbol struct {
		name   string
		origin string
	}

	// scriptCommand is the live command built from a declaration.
	scriptCommand struct {
		decl    CommandDecl
		program *runtime.Program
		rt      runtime.Runtime
		accepts *regexp.Regexp
		timeout time.Duration
		loader  *Loader
	}
)

func (s *commandSymbol) Name() string              { return s.decl.Name }
func (s *commandSymbol) Kind() registry.SymbolKind { return registry.KindCommand }
func (s *commandSymbol) Origin() string            { return s.decl.Origin }
func (s *commandSymbol) Description() string       { return s.decl.Description }
func (f functionSymbol) Name() string              { return f.name }
func (f functionSymbol) Kind() registry.SymbolKind { return registry.KindFunction }
func (f functionSymbol) Origin() string            { return f.origin }

// NewCommand resolves the runtime, parses the script with the library
// preamble, and compiles the argument pattern.
func (s *commandSymbol) NewCommand() (registry.Command, error) {
	rtType := runtime.RuntimeType(s.decl.Runtime)
	if rtType == "" {
		rtType = s.loader.defaultRuntime
	}
	if err := rtType.Validate(); err != nil {
		return nil, err
	}
	rt, err := s.loader.runtimes.Get(rtType)
	if err != nil {
		return nil, err
	}

	program, err := runtime.NewProgram(s.decl.Name, s.preamble, s.decl.Script)
	if err != nil {
		return nil, err
	}

	cmd := &scriptCommand{decl: s.decl, program: program, rt: rt, loader: s.loader}

	if s.decl.Accepts != "" {
		cmd.accepts, err = regexp.Compile(s.decl.Accepts)
		if err != nil {
			return nil, fmt.Errorf("invalid accepts pattern: %w", err)
		}
	}
	if s.decl.Timeout != "" {
		cmd.timeout, err = time.ParseDuration(s.decl.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
		if cmd.timeout <= 0 {
			return nil, fmt.Errorf("invalid timeout: %s must be positive", s.decl.Timeout)
		}
	}
	return cmd, nil
}

func (c *scriptCommand) Name() string { return c.decl.Name }

// CanExecute checks the argument against requires_argument and accepts.
func (c *scriptCommand) CanExecute(arg string) bool {
	if arg == "" {
		return !c.decl.RequiresArgument
	}
	return c.accepts == nil || c.accepts.MatchString(arg)
}

// Execute runs the script with arg as $1. A non-zero exit status is
// returned as *runtime.ExitError.
func (c *scriptCommand) Execute(ctx context.Context, arg string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	baseDir := filepath.Dir(c.decl.Origin)
	env, err := runtime.BuildEnv(runtime.EnvSpec{
		EnvFile: c.decl.EnvFile,
		BaseDir: baseDir,
		Vars:    c.decl.Env,
		Extra:   map[string]string{"LIVECMD_COMMAND": c.decl.Name},
	})
	if err != nil {
		return err
	}

	var args []string
	if arg != "" {
		args = []string{arg}
	}

	result := c.rt.Execute(&runtime.ExecutionContext{
		Context: ctx,
		Program: c.program,
		Args:    args,
		Env:     env,
		WorkDir: baseDir,
		IO:      runtime.IO{Stdout: c.loader.stdout, Stderr: c.loader.stderr},
	})
	if err := result.Err(); err != nil {
		return fmt.Errorf("command %s: %w", c.decl.Name, err)
	}
	return nil
}
