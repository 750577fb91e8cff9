// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"
)

const (
	// StateIdle indicates no cycle is running.
	StateIdle State = iota
	// StateCollecting indicates source files are being enumerated.
	StateCollecting
	// StateResolving indicates library references are being resolved.
	StateResolving
	// StateCompiling indicates the backend is compiling.
	StateCompiling
	// StateLoading indicates the artifact is being loaded and commands instantiated.
	StateLoading
	// StatePublishing indicates a new generation is being published.
	StatePublishing
	// StateFailed indicates the cycle failed; an empty command set is published next.
	StateFailed
)

// ErrInvalidState is returned when a State value is not one of the defined states.
var ErrInvalidState = errors.New("invalid state")

type (
	// State is the pipeline cycle state.
	State int32

	// InvalidStateError is returned when a State value is not recognized.
	// It wraps ErrInvalidState for errors.Is() compatibility.
	InvalidStateError struct {
		Value State
	}
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateResolving:
		return "resolving"
	case StateCompiling:
		return "compiling"
	case StateLoading:
		return "loading"
	case StatePublishing:
		return "publishing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state %d (valid: 0=idle ... 6=failed)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// Validate returns nil if the State is defined, or an error wrapping
// ErrInvalidState if it is not.
func (s State) Validate() error {
	if s < StateIdle || s > StateFailed {
		return &InvalidStateError{Value: s}
	}
	return nil
}

// IsBusy reports whether a cycle is in progress.
func (s State) IsBusy() bool {
	return s != StateIdle
}
