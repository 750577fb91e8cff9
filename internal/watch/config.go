// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

// ErrInvalidWatchConfig is the sentinel wrapped by InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch configuration")

type (
	// Root is one watched directory tree.
	Root struct {
		// Dir is the directory to watch recursively.
		Dir string
		// Patterns are doublestar globs relative to Dir (e.g., "**/*.cue").
		// An empty slice matches every non-ignored file.
		Patterns []string
	}

	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the watched trees. At least one is required.
		Roots []Root

		// Ignore are additional doublestar globs, relative to each root, for
		// paths that never trigger callbacks. They are merged with the
		// built-in default ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before the
		// callback fires. Zero or negative values fall back to DefaultDebounce.
		Debounce time.Duration

		// OnChange receives the deduplicated, sorted absolute paths that
		// changed. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Logger defaults to slog.Default().
		Logger *slog.Logger
	}

	// InvalidWatchConfigError collects every invalid field of a Config.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%s: %d field error(s): %s", ErrInvalidWatchConfig, len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error {
	return ErrInvalidWatchConfig
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if len(c.Roots) == 0 {
		errs = append(errs, errors.New("at least one root is required"))
	}
	for i, root := range c.Roots {
		if strings.TrimSpace(root.Dir) == "" {
			errs = append(errs, fmt.Errorf("roots[%d]: directory is empty", i))
		}
		errs = append(errs, checkPatterns(fmt.Sprintf("roots[%d].patterns", i), root.Patterns)...)
	}
	errs = append(errs, checkPatterns("ignore", c.Ignore)...)

	if len(errs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: errs}
	}
	return nil
}

func checkPatterns(field string, patterns []string) []error {
	var errs []error
	for i, pat := range patterns {
		if strings.TrimSpace(pat) == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: pattern is empty", field, i))
			continue
		}
		if !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Errorf("%s[%d]: invalid pattern %q", field, i, pat))
		}
	}
	return errs
}
