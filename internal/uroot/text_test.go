// SPDX-License-Identifier: MPL-2.0

package uroot

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd, ok := NewDefaultRegistry().Lookup(args[0])
	if !ok {
		t.Fatalf("%s is not registered", args[0])
	}
	var stdout, stderr bytes.Buffer
	ctx := WithEnv(t.Context(), &Env{
		Stdin:     strings.NewReader(stdin),
		Stdout:    &stdout,
		Stderr:    &stderr,
		Dir:       dir,
		LookupEnv: os.LookupEnv,
	})
	err := cmd.Run(ctx, args)
	return stdout.String(), err
}

func TestTextCommands(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lines.txt"), []byte("one\ntwo\nthree\nfour\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"basename", "", []string{"basename", "/a/b/c.cue"}, "c.cue\n"},
		{"basename suffix", "", []string{"basename", "/a/b/c.cue", ".cue"}, "c\n"},
		{"dirname", "", []string{"dirname", "/a/b/c.cue", "x"}, "/a/b\n.\n"},
		{"head file", "", []string{"head", "-n", "2", "lines.txt"}, "one\ntwo\n"},
		{"head stdin", "a\nb\n", []string{"head", "-n", "1"}, "a\n"},
		{"tail file", "", []string{"tail", "-n", "2", "lines.txt"}, "three\nfour\n"},
		{"tail more than available", "a\n", []string{"tail", "-n", "5"}, "a\n"},
		{"wc lines", "", []string{"wc", "-l", "lines.txt"}, "4 lines.txt\n"},
		{"wc stdin", "hello world\n", []string{"wc"}, "1 2 12\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := runCommand(t, dir, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextCommands_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := runCommand(t, dir, "", "head", "missing.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("head missing file: err = %v, want fs.ErrNotExist", err)
	}
	if _, err := runCommand(t, dir, "", "basename"); !errors.Is(err, errMissingOperand) {
		t.Errorf("basename without operand: err = %v", err)
	}
	_, err := runCommand(t, dir, "", "tail", "-n", "-1")
	if err == nil || !strings.HasPrefix(err.Error(), "tail: ") {
		t.Errorf("tail -n -1: err = %v, want prefixed error", err)
	}
}

func TestCoreCommand_Cat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := runCommand(t, dir, "", "cat", "a.txt")
	if err != nil {
		t.Fatalf("cat error = %v", err)
	}
	if got != "alpha\n" {
		t.Errorf("cat output = %q", got)
	}

	if _, err := runCommand(t, dir, "", "cat", "nope.txt"); err == nil || !strings.HasPrefix(err.Error(), "cat: ") {
		t.Errorf("cat missing file: err = %v, want cat-prefixed error", err)
	}
}
