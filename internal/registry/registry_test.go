// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

type (
	fakeCommand struct {
		name string
	}

	fakeSymbol struct {
		name        string
		origin      string
		description string
		newErr      error
		panicValue  any
		nilCommand  bool
		wrongName   bool
	}

	plainSymbol struct {
		name string
	}
)

func (c *fakeCommand) Name() string                          { return c.name }
func (c *fakeCommand) CanExecute(string) bool                { return true }
func (c *fakeCommand) Execute(context.Context, string) error { return nil }
func (s *fakeSymbol) Name() string                           { return s.name }
func (s *fakeSymbol) Kind() SymbolKind                       { return KindCommand }
func (s *fakeSymbol) Origin() string                         { return s.origin }
func (s *fakeSymbol) Description() string                    { return s.description }
func (s plainSymbol) Name() string                           { return s.name }
func (s plainSymbol) Kind() SymbolKind                       { return KindFunction }
func (s plainSymbol) Origin() string                         { return "lib.sh" }

func (s *fakeSymbol) NewCommand() (Command, error) {
	switch {
	case s.panicValue != nil:
		panic(s.panicValue)
	case s.newErr != nil:
		return nil, s.newErr
	case s.nilCommand:
		return nil, nil
	case s.wrongName:
		return &fakeCommand{name: s.name + "-other"}, nil
	}
	return &fakeCommand{name: s.name}, nil
}

func quietLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestBuildSortsAndFiltersCapability(t *testing.T) {
	t.Parallel()

	logger, _ := quietLogger()
	symbols := []Symbol{
		&fakeSymbol{name: "Gamma", origin: "c.cue"},
		plainSymbol{name: "helper"},
		&fakeSymbol{name: "Alpha", origin: "a.cue", description: "first"},
		&fakeSymbol{name: "Beta", origin: "b.cue"},
	}

	r := Build(symbols, logger)

	if got, want := r.Names(), []string{"Alpha", "Beta", "Gamma"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	d, ok := r.Lookup("Alpha")
	if !ok {
		t.Fatal("Lookup(Alpha) not found")
	}
	if d.Description != "first" || d.Origin != "a.cue" {
		t.Errorf("descriptor = %+v", d)
	}
	if _, ok := r.Lookup("helper"); ok {
		t.Error("non-command symbol must not be registered")
	}
}

func TestBuildDeterministicForDistinctNames(t *testing.T) {
	t.Parallel()

	logger, _ := quietLogger()
	const n = 25
	symbols := make([]Symbol, 0, n)
	for i := n - 1; i >= 0; i-- {
		symbols = append(symbols, &fakeSymbol{name: fmt.Sprintf("cmd%02d", i), origin: "x.cue"})
	}

	r := Build(symbols, logger)
	if r.Len() != n {
		t.Fatalf("Len() = %d, want %d", r.Len(), n)
	}
	if !slices.IsSorted(r.Names()) {
		t.Errorf("names not sorted: %v", r.Names())
	}
}

func TestBuildIsolatesInstantiationFailures(t *testing.T) {
	t.Parallel()

	logger, logs := quietLogger()
	boom := errors.New("boom")
	symbols := []Symbol{
		&fakeSymbol{name: "Good1", origin: "a.cue"},
		&fakeSymbol{name: "Errors", origin: "a.cue", newErr: boom},
		&fakeSymbol{name: "Panics", origin: "a.cue", panicValue: "kaboom"},
		&fakeSymbol{name: "Nil", origin: "a.cue", nilCommand: true},
		&fakeSymbol{name: "Renamed", origin: "a.cue", wrongName: true},
		&fakeSymbol{name: "Good2", origin: "b.cue"},
	}

	r := Build(symbols, logger)

	if got, want := r.Names(), []string{"Good1", "Good2"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	failures := r.Failures()
	if len(failures) != 4 {
		t.Fatalf("expected 4 failures, got %d: %v", len(failures), failures)
	}
	checks := map[string]error{
		"Errors":  boom,
		"Panics":  ErrConstructorPanic,
		"Nil":     ErrNilCommand,
		"Renamed": ErrNameMismatch,
	}
	for _, f := range failures {
		want := checks[f.Name]
		if !errors.Is(f, want) {
			t.Errorf("failure %q = %v, want errors.Is %v", f.Name, f.Err, want)
		}
	}
	if !strings.Contains(logs.String(), "failed to instantiate") {
		t.Error("instantiation failures should be logged")
	}
}

func TestBuildSingleFailureRemovesOneEntry(t *testing.T) {
	t.Parallel()

	logger, _ := quietLogger()
	base := []Symbol{
		&fakeSymbol{name: "A", origin: "a.cue"},
		&fakeSymbol{name: "B", origin: "a.cue"},
		&fakeSymbol{name: "C", origin: "a.cue"},
	}
	broken := slices.Clone(base)
	broken[1] = &fakeSymbol{name: "B", origin: "a.cue", panicValue: errors.New("ctor")}

	if full, partial := Build(base, logger).Len(), Build(broken, logger).Len(); full-partial != 1 {
		t.Errorf("failure removed %d entries, want 1", full-partial)
	}
}

func TestBuildKeepsFirstOnCollision(t *testing.T) {
	t.Parallel()

	logger, logs := quietLogger()
	r := Build([]Symbol{
		&fakeSymbol{name: "Dup", origin: "a.cue", description: "first"},
		&fakeSymbol{name: "Dup", origin: "b.cue", description: "second"},
	}, logger)

	d, ok := r.Lookup("Dup")
	if !ok || d.Origin != "a.cue" {
		t.Fatalf("expected first declaration to win, got %+v", d)
	}
	collisions := r.Collisions()
	if len(collisions) != 1 || collisions[0] != (Collision{Name: "Dup", Kept: "a.cue", Dropped: "b.cue"}) {
		t.Errorf("Collisions() = %+v", collisions)
	}
	if !strings.Contains(logs.String(), "duplicate command name") {
		t.Error("collision should be logged")
	}
}

func TestBuildFailedFirstDeclarationClaimsName(t *testing.T) {
	t.Parallel()

	logger, logs := quietLogger()
	r := Build([]Symbol{
		&fakeSymbol{name: "Dup", origin: "a.cue", newErr: errors.New("bad timeout")},
		&fakeSymbol{name: "Dup", origin: "b.cue"},
	}, logger)

	if d, ok := r.Lookup("Dup"); ok {
		t.Errorf("later duplicate %s replaced the failed first declaration", d.Origin)
	}
	if failures := r.Failures(); len(failures) != 1 || failures[0].Origin != "a.cue" {
		t.Errorf("Failures() = %+v", failures)
	}
	collisions := r.Collisions()
	if len(collisions) != 1 || collisions[0] != (Collision{Name: "Dup", Kept: "a.cue", Dropped: "b.cue"}) {
		t.Errorf("Collisions() = %+v", collisions)
	}
	if !strings.Contains(logs.String(), "duplicate command name") {
		t.Error("collision should be logged")
	}
}

func TestRegistryCopiesAreDefensive(t *testing.T) {
	t.Parallel()

	logger, _ := quietLogger()
	r := Build([]Symbol{&fakeSymbol{name: "A", origin: "a.cue"}}, logger)

	ds := r.Descriptors()
	ds[0].Name = "mutated"
	names := r.Names()
	names[0] = "mutated"

	if r.Names()[0] != "A" {
		t.Error("registry was mutated through a returned slice")
	}
	if Empty().Len() != 0 {
		t.Error("Empty() should have no commands")
	}
}
