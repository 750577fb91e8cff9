// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

var (
	// ErrNilCommand is recorded when a factory returns neither a command nor an error.
	ErrNilCommand = errors.New("factory returned nil command")
	// ErrNameMismatch is recorded when a command reports a name different from its symbol.
	ErrNameMismatch = errors.New("command name does not match symbol name")
	// ErrConstructorPanic is wrapped by failures caused by a panicking factory.
	ErrConstructorPanic = errors.New("command constructor panicked")
)

type (
	// Descriptor is one entry of a Registry.
	Descriptor struct {
		// Name is the unique command name.
		Name string
		// Description is the optional human-readable description.
		Description string
		// Origin is the file that declared the command.
		Origin string
		// Command is the live instance. It owns its internal state.
		Command Command
	}

	// Collision records a duplicate command name. The first discovered
	// declaration is kept.
	Collision struct {
		Name    string
		Kept    string
		Dropped string
	}

	// Failure records a candidate that could not be instantiated.
	Failure struct {
		Name   string
		Origin string
		Err    error
	}

	// Registry is an immutable, name-sorted command set.
	Registry struct {
		descriptors []Descriptor
		byName      map[string]int
		collisions  []Collision
		failures    []Failure
	}
)

// Error implements the error interface.
func (f Failure) Error() string {
	return fmt.Sprintf("instantiate command %q from %s: %v", f.Name, f.Origin, f.Err)
}

// Unwrap returns the underlying cause.
func (f Failure) Unwrap() error {
	return f.Err
}

// Empty returns a registry with no commands.
func Empty() *Registry {
	return &Registry{byName: map[string]int{}}
}

// Build filters symbols for the command capability and instantiates every
// candidate independently. Instantiation failures and panics are logged and
// recorded; they never abort construction of the remaining candidates.
// The first declaration of a name claims it even when it fails to
// instantiate; later declarations of that name are recorded as collisions.
// The result is sorted by name.
func Build(symbols []Symbol, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := Empty()
	kept := make(map[string]Descriptor)
	claimed := make(map[string]string)

	for _, sym := range symbols {
		factory, ok := sym.(Factory)
		if !ok {
			continue
		}

		name := factory.Name()
		if origin, dup := claimed[name]; dup {
			r.collisions = append(r.collisions, Collision{Name: name, Kept: origin, Dropped: factory.Origin()})
			logger.Warn("duplicate command name, keeping first declaration",
				"command", name, "kept", origin, "dropped", factory.Origin())
			continue
		}
		claimed[name] = factory.Origin()

		cmd, err := instantiate(factory)
		if err != nil {
			f := Failure{Name: name, Origin: factory.Origin(), Err: err}
			r.failures = append(r.failures, f)
			logger.Error("skipping command that failed to instantiate",
				"command", name, "origin", factory.Origin(), "error", err)
			continue
		}

		d := Descriptor{Name: name, Origin: factory.Origin(), Command: cmd}
		if desc, ok := sym.(Describer); ok {
			d.Description = desc.Description()
		}
		kept[name] = d
	}

	r.descriptors = make([]Descriptor, 0, len(kept))
	for _, d := range kept {
		r.descriptors = append(r.descriptors, d)
	}
	slices.SortFunc(r.descriptors, func(a, b Descriptor) int {
		return strings.Compare(a.Name, b.Name)
	})
	for i, d := range r.descriptors {
		r.byName[d.Name] = i
	}
	return r
}

// instantiate calls the factory, converting panics and invalid results into
// errors.
func instantiate(f Factory) (cmd Command, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			cmd = nil
			err = fmt.Errorf("%w: %v", ErrConstructorPanic, rec)
		}
	}()

	cmd, err = f.NewCommand()
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, ErrNilCommand
	}
	if cmd.Name() != f.Name() {
		return nil, fmt.Errorf("%w: symbol %q, command %q", ErrNameMismatch, f.Name(), cmd.Name())
	}
	return cmd, nil
}

// Len returns the number of commands.
func (r *Registry) Len() int {
	return len(r.descriptors)
}

// Names returns the sorted command names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		names[i] = d.Name
	}
	return names
}

// Descriptors returns a copy of the sorted descriptors.
func (r *Registry) Descriptors() []Descriptor {
	return slices.Clone(r.descriptors)
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[i], true
}

// Collisions returns the duplicate names dropped during Build.
func (r *Registry) Collisions() []Collision {
	return slices.Clone(r.collisions)
}

// Failures returns the candidates that failed to instantiate.
func (r *Registry) Failures() []Failure {
	return slices.Clone(r.failures)
}
