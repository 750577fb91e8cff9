// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func runVirtual(t *testing.T, preamble, script string, args ...string) (string, *Result) {
	t.Helper()

	prog, err := NewProgram("test", preamble, script)
	if err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}

	var stdout bytes.Buffer
	result := NewVirtualRuntime().Execute(&ExecutionContext{
		Context: context.Background(),
		Program: prog,
		Args:    args,
		Env:     map[string]string{"GREETING": "hello"},
		WorkDir: t.TempDir(),
		IO:      IO{Stdout: &stdout},
	})
	return strings.TrimSpace(stdout.String()), result
}

func TestVirtualRuntime_InlineScript(t *testing.T) {
	t.Parallel()

	out, result := runVirtual(t, "", "echo 'Hello from virtual'")
	if result.Err() != nil {
		t.Fatalf("Execute() error = %v", result.Err())
	}
	if out != "Hello from virtual" {
		t.Errorf("output = %q, want %q", out, "Hello from virtual")
	}
}

func TestVirtualRuntime_PreambleFunctions(t *testing.T) {
	t.Parallel()

	out, result := runVirtual(t, "greet() { echo \"$GREETING, $1\"; }", `greet "$1"`, "world")
	if result.Err() != nil {
		t.Fatalf("Execute() error = %v", result.Err())
	}
	if out != "hello, world" {
		t.Errorf("output = %q, want %q", out, "hello, world")
	}
}

func TestVirtualRuntime_DashArgument(t *testing.T) {
	t.Parallel()

	out, result := runVirtual(t, "", `echo "$1"`, "-v")
	if result.Err() != nil {
		t.Fatalf("Execute() error = %v", result.Err())
	}
	if out != "-v" {
		t.Errorf("output = %q, want %q", out, "-v")
	}
}

func TestVirtualRuntime_ExitCode(t *testing.T) {
	t.Parallel()

	_, result := runVirtual(t, "", "exit 3")
	if result.ExitCode != 3 {
		t.Fatalf("ExitCode = %d, want 3", result.ExitCode)
	}
	var exitErr *ExitError
	if !errors.As(result.Err(), &exitErr) {
		t.Fatalf("Err() = %v, want *ExitError", result.Err())
	}
	if exitErr.Code != 3 {
		t.Errorf("ExitError.Code = %d, want 3", exitErr.Code)
	}
}

func TestVirtualRuntime_Cancelled(t *testing.T) {
	t.Parallel()

	prog, err := NewProgram("test", "", "while true; do :; done")
	if err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewVirtualRuntime().Execute(&ExecutionContext{Context: ctx, Program: prog})
	if result.Err() == nil {
		t.Fatal("Execute() with cancelled context succeeded")
	}
}

func TestNewProgram_SyntaxErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		preamble string
		script   string
		want     string
	}{
		{name: "script", script: "echo (", want: "script syntax error"},
		{name: "preamble", preamble: "f() {", script: "echo ok", want: "library preamble syntax error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewProgram("test", tt.preamble, tt.script)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("NewProgram() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestProgramSource(t *testing.T) {
	t.Parallel()

	prog, err := NewProgram("p", "f() { :; }", "f")
	if err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}
	if got, want := prog.Source(), "f() { :; }\nf"; got != want {
		t.Errorf("Source() = %q, want %q", got, want)
	}
	if prog.Name() != "p" {
		t.Errorf("Name() = %q, want %q", prog.Name(), "p")
	}
}

func TestVirtualRuntime_Builtins(t *testing.T) {
	t.Parallel()

	// The environment carries no PATH, so cat can only come from the
	// in-process registry.
	out, result := runVirtual(t, "", "printf 'alpha\\nbeta\\n' > a.txt\ncat a.txt | tail -n 1")
	if result.Err() != nil {
		t.Fatalf("Execute() error = %v", result.Err())
	}
	if out != "beta" {
		t.Errorf("output = %q, want %q", out, "beta")
	}
}

func TestVirtualRuntime_BuiltinFailureSetsStatus(t *testing.T) {
	t.Parallel()

	out, result := runVirtual(t, "", "cat missing.txt || echo \"status $?\"")
	if result.Err() != nil {
		t.Fatalf("Execute() error = %v", result.Err())
	}
	if out != "status 1" {
		t.Errorf("output = %q, want %q", out, "status 1")
	}
}

func TestVirtualRuntime_BuiltinsDisabled(t *testing.T) {
	t.Parallel()

	prog, err := NewProgram("test", "", "cat a.txt")
	if err != nil {
		t.Fatal(err)
	}
	result := NewVirtualRuntime(WithBuiltins(nil)).Execute(&ExecutionContext{
		Context: context.Background(),
		Program: prog,
		Env:     map[string]string{},
		WorkDir: t.TempDir(),
	})
	if result.ExitCode != 127 {
		t.Errorf("ExitCode = %d, want 127 for an unresolvable command", result.ExitCode)
	}
}
