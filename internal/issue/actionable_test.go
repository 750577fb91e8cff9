// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load configuration"},
			expected: "failed to load configuration",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load configuration", Resource: "./livecmd.cue"},
			expected: "failed to load configuration: ./livecmd.cue",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "run command", Cause: errors.New("exit status 2")},
			expected: "failed to run command: exit status 2",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "./livecmd.cue",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load configuration: ./livecmd.cue: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().
		WithOperation("prepare workspace").
		Wrap(fmt.Errorf("mkdir: %w", sentinel)).
		BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the sentinel through the cause chain")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := &ActionableError{
		Operation:   "load configuration",
		Resource:    "./livecmd.cue",
		Suggestions: []string{"Run 'livecmd init'", "Check file permissions"},
		Cause:       fmt.Errorf("read: %w", errors.New("permission denied")),
	}

	short := err.Format(false)
	for _, want := range []string{"failed to load configuration", "./livecmd.cue", "• Run 'livecmd init'", "• Check file permissions"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. read: permission denied", "2. permission denied"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

func TestActionableError_HasSuggestions(t *testing.T) {
	t.Parallel()

	if !(&ActionableError{Operation: "test", Suggestions: []string{"Try this"}}).HasSuggestions() {
		t.Error("HasSuggestions() should return true when suggestions present")
	}
	if (&ActionableError{Operation: "test"}).HasSuggestions() {
		t.Error("HasSuggestions() should return false when no suggestions")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setup      func() *ErrorContext
		wantNil    bool
		checkError func(t *testing.T, err *ActionableError)
	}{
		{
			name:    "missing operation returns nil",
			setup:   func() *ErrorContext { return NewErrorContext().WithResource("some/path") },
			wantNil: true,
		},
		{
			name: "full context",
			setup: func() *ErrorContext {
				return NewErrorContext().
					WithOperation("load configuration").
					WithResource("/etc/livecmd/config.cue").
					WithSuggestion("Check syntax").
					WithSuggestion("Verify permissions").
					WithIssue(ConfigLoadFailedId).
					Wrap(errors.New("parse error"))
			},
			checkError: func(t *testing.T, err *ActionableError) {
				t.Helper()
				if err.Operation != "load configuration" {
					t.Errorf("Operation = %q", err.Operation)
				}
				if err.Resource != "/etc/livecmd/config.cue" {
					t.Errorf("Resource = %q", err.Resource)
				}
				if len(err.Suggestions) != 2 {
					t.Errorf("Suggestions count = %d, want 2", len(err.Suggestions))
				}
				if err.Issue != ConfigLoadFailedId {
					t.Errorf("Issue = %d, want %d", err.Issue, ConfigLoadFailedId)
				}
				if err.Cause == nil || err.Cause.Error() != "parse error" {
					t.Errorf("Cause = %v", err.Cause)
				}
			},
		},
		{
			name: "with multiple suggestions",
			setup: func() *ErrorContext {
				return NewErrorContext().
					WithOperation("run command").
					WithSuggestions("Suggestion 1", "Suggestion 2", "Suggestion 3")
			},
			checkError: func(t *testing.T, err *ActionableError) {
				t.Helper()
				if len(err.Suggestions) != 3 {
					t.Errorf("Suggestions count = %d, want 3", len(err.Suggestions))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.setup().Build()

			if tt.wantNil {
				if err != nil {
					t.Errorf("Build() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Build() returned nil, want error")
			}
			if tt.checkError != nil {
				tt.checkError(t, err)
			}
		})
	}
}

func TestErrorContext_BuildError(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().WithOperation("test").BuildError()
	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Errorf("BuildError() should return *ActionableError, got %T", err)
	}

	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() should return nil when operation missing")
	}
}

func TestErrorContext_BuildCopiesSuggestions(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithOperation("run command").WithSuggestion("first")
	before := ctx.Build()
	ctx.WithSuggestion("second")
	after := ctx.Build()

	if len(before.Suggestions) != 1 {
		t.Errorf("earlier Build() saw later suggestions: %v", before.Suggestions)
	}
	if len(after.Suggestions) != 2 {
		t.Errorf("Suggestions = %v, want two", after.Suggestions)
	}

	after.Suggestions[0] = "changed"
	if again := ctx.Build(); again.Suggestions[0] != "first" {
		t.Error("mutating a built error changed the context")
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	linked := NewErrorContext().WithOperation("prepare workspace").WithIssue(SetupFailedId).BuildError()
	if got := Lookup(fmt.Errorf("engine: %w", linked)); got == nil || got.Id() != SetupFailedId {
		t.Errorf("Lookup() = %v, want the setup issue", got)
	}

	unlinked := NewErrorContext().WithOperation("prepare workspace").BuildError()
	if Lookup(unlinked) != nil {
		t.Error("Lookup() should return nil when no issue is linked")
	}
	if Lookup(errors.New("plain")) != nil {
		t.Error("Lookup() should return nil for plain errors")
	}
}

// A context can be reused with different causes.
func TestErrorContext_Reuse(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().
		WithOperation("compile commands").
		WithResource("/work/scripts").
		WithSuggestion("Check file format")

	err1 := ctx.Wrap(errors.New("error 1")).Build()
	err2 := ctx.Wrap(errors.New("error 2")).Build()

	if err1.Cause.Error() == err2.Cause.Error() {
		t.Error("Reused context should allow different causes")
	}
	if err1.Operation != err2.Operation {
		t.Error("Reused context should preserve operation")
	}
}
