// SPDX-License-Identifier: MPL-2.0

package discovery

import "fmt"

const (
	// SeverityWarning indicates a recoverable diagnostic that does not fail a cycle.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a diagnostic that fails the phase that produced it.
	SeverityError Severity = "error"
)

type (
	// Severity represents diagnostic severity.
	Severity string

	// Diagnostic represents a structured diagnostic that is returned to callers
	// (rather than written to stderr) so every consumer renders it consistently.
	// Diagnostics are produced by collection, reference resolution, compilation
	// and loading, and travel unchanged into published snapshots.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "parse_error").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Line and Column locate the diagnostic inside Path (1-based, optional).
		Line   int
		Column int
		// Cause is the underlying error (optional, for programmatic inspection).
		// It is not part of diagnostic equality.
		Cause error
	}
)

// String renders the diagnostic as "path:line:col: severity: message".
func (d Diagnostic) String() string {
	loc := d.Path
	if loc != "" && d.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, d.Line, d.Column)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Severity, d.Message)
}

// IsError reports whether the diagnostic has error severity.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Equal compares two diagnostics by content, ignoring Cause.
func (d Diagnostic) Equal(other Diagnostic) bool {
	return d.Severity == other.Severity &&
		d.Code == other.Code &&
		d.Message == other.Message &&
		d.Path == other.Path &&
		d.Line == other.Line &&
		d.Column == other.Column
}

// HasErrors reports whether any diagnostic in diags has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	return false
}
