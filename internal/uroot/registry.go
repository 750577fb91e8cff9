// SPDX-License-Identifier: MPL-2.0

package uroot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrDuplicateCommand is returned when a name is registered twice.
var ErrDuplicateCommand = errors.New("uroot: command already registered")

// Registry maps command names to in-process implementations.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// NewDefaultRegistry returns a registry holding every built-in command.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, cmd := range coreCommands() {
		r.mustRegister(cmd)
	}
	for _, cmd := range textCommands() {
		r.mustRegister(cmd)
	}
	return r
}

// Register adds cmd. Names are unique; an empty name is rejected.
func (r *Registry) Register(cmd Command) error {
	name := cmd.Name()
	if name == "" {
		return errors.New("uroot: command name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	r.commands[name] = cmd
	return nil
}

func (r *Registry) mustRegister(cmd Command) {
	if err := r.Register(cmd); err != nil {
		panic(err)
	}
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch runs args[0] if it is registered. handled is false when the
// name is unknown, in which case the caller should fall back to the host.
// A registered command's failure is returned as is; there is no fallback.
func (r *Registry) Dispatch(ctx context.Context, args []string) (handled bool, err error) {
	if len(args) == 0 {
		return false, nil
	}
	cmd, ok := r.Lookup(args[0])
	if !ok {
		return false, nil
	}
	return true, cmd.Run(ctx, args)
}
