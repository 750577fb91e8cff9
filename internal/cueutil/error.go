// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

// Issue is one flattened CUE error.
type Issue struct {
	// Filename is the file the error points at, when known.
	Filename string
	// Line and Column are 1-based; zero when the error has no position.
	Line   int
	Column int
	// Path is the CUE path of the offending value in JSON-path notation.
	Path string
	// Message is the error text without position or path prefix.
	Message string
}

// String renders the issue as "path: message".
func (i Issue) String() string {
	if i.Path != "" {
		return i.Path + ": " + i.Message
	}
	return i.Message
}

// Issues flattens err into positioned issues. A non-CUE error yields a
// single issue carrying only its message.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}

	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return []Issue{{Message: err.Error()}}
	}

	issues := make([]Issue, 0, len(cueErrors))
	for _, e := range cueErrors {
		format, args := e.Msg()
		issue := Issue{
			Path:    formatPath(errors.Path(e)),
			Message: fmt.Sprintf(format, args...),
		}
		if pos := e.Position(); pos.IsValid() {
			issue.Filename = pos.Filename()
			issue.Line = pos.Line()
			issue.Column = pos.Column()
		}
		issues = append(issues, issue)
	}
	return issues
}

// FormatError formats a CUE error with JSON path prefixes.
//
// Error format: <file-path>: <json-path>: <message>
//
// Examples:
//   - deploy.cue: commands.build.script: incomplete value string
//   - config.cue: watch.debounce: conflicting values "fast" and =~"^[0-9]"
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	if len(errors.Errors(err)) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	issues := Issues(err)
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = issue.String()
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// formatPath converts a CUE error path (["commands", "0", "script"]) to
// JSON-path notation ("commands[0].script").
func formatPath(path []string) string {
	var result strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			result.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			result.WriteByte('.')
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize verifies that data does not exceed maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
