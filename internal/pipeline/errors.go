// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"

	"github.com/invowk/livecmd/internal/issue"
)

// Diagnostic codes added by the pipeline.
const (
	CodeCompileFailed       = "compile_failed"
	CodeLoadFailed          = "load_failed"
	CodeCommandCollision    = "command_collision"
	CodeInstantiationFailed = "instantiation_failed"
	CodeInternalError       = "internal_error"
)

var (
	// ErrSetup is wrapped by errors for required folders that cannot be created.
	ErrSetup = errors.New("pipeline setup failed")
	// ErrClosed is returned by operations on a closed pipeline.
	ErrClosed = errors.New("pipeline closed")
	// ErrInvalidOptions is returned by New for incomplete options.
	ErrInvalidOptions = errors.New("invalid pipeline options")
)

func setupError(err error, dirs ...string) error {
	return issue.NewErrorContext().
		WithOperation("prepare livecmd folders").
		WithResource(fmt.Sprint(dirs)).
		WithSuggestions(
			"Check that the parent directories exist and are writable",
			"Point scripts_dir, libraries_dir and output_path at writable locations in livecmd.cue",
		).
		WithIssue(issue.SetupFailedId).
		Wrap(fmt.Errorf("%w: %w", ErrSetup, err)).
		BuildError()
}
