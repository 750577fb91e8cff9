// SPDX-License-Identifier: MPL-2.0

package registry

import "context"

const (
	// KindCommand marks a symbol that declares an executable command.
	KindCommand SymbolKind = "command"
	// KindFunction marks a shell function exported by a library.
	KindFunction SymbolKind = "function"
)

type (
	// SymbolKind classifies a declared symbol.
	SymbolKind string

	// Command is the capability every executable command satisfies.
	Command interface {
		// Name returns the stable command name.
		Name() string
		// CanExecute reports whether Execute accepts arg. It must not have
		// side effects.
		CanExecute(arg string) bool
		// Execute runs the command with arg.
		Execute(ctx context.Context, arg string) error
	}

	// Symbol is one declaration enumerated from a loaded module.
	Symbol interface {
		// Name returns the declared name.
		Name() string
		// Kind returns the symbol classification.
		Kind() SymbolKind
		// Origin returns the file that declared the symbol.
		Origin() string
	}

	// Factory is implemented by symbols that can produce a live Command.
	// Only symbols implementing Factory are command candidates.
	Factory interface {
		Symbol
		NewCommand() (Command, error)
	}

	// Describer is optionally implemented by symbols that carry a
	// human-readable description.
	Describer interface {
		Description() string
	}
)
