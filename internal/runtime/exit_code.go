// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"strconv"
)

type (
	// ExitCode represents a process exit status code.
	// The zero value (0) means success.
	ExitCode int

	// ExitError reports a script that ran to completion with a non-zero
	// exit status.
	ExitError struct {
		Code ExitCode
	}
)

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("script exited with status %d", e.Code)
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
