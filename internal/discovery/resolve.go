// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// ReferenceSet is an ordered set of library paths, unique by cleaned
// absolute path. It is rebuilt on every cycle.
type ReferenceSet struct {
	paths []string
}

// NewReferenceSet builds a set from paths, keeping the first occurrence of
// each cleaned absolute path.
func NewReferenceSet(paths ...string) ReferenceSet {
	var rs ReferenceSet
	for _, p := range paths {
		rs = rs.with(p)
	}
	return rs
}

// Paths returns a copy of the ordered reference paths.
func (rs ReferenceSet) Paths() []string {
	return slices.Clone(rs.paths)
}

// Len returns the number of references in the set.
func (rs ReferenceSet) Len() int {
	return len(rs.paths)
}

// Contains reports whether path (after normalization) is in the set.
func (rs ReferenceSet) Contains(path string) bool {
	return slices.Contains(rs.paths, normalizePath(path))
}

func (rs ReferenceSet) with(path string) ReferenceSet {
	norm := normalizePath(path)
	if slices.Contains(rs.paths, norm) {
		return rs
	}
	return ReferenceSet{paths: append(slices.Clone(rs.paths), norm)}
}

// Resolve assembles the references required for compilation: every shell
// library under librariesDir (lexicographic) followed by the host baseline
// references in the order given. Duplicate physical paths collapse to one
// entry. A missing folder yields the host references plus a diagnostic; a
// missing host reference is dropped with a warning.
func Resolve(librariesDir string, hostReferences []string) (ReferenceSet, []Diagnostic) {
	paths, diags := scan(librariesDir, LibraryPattern, "reference_scan_failed")

	rs := NewReferenceSet(paths...)
	for _, ref := range hostReferences {
		if _, err := os.Stat(ref); err != nil {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     "host_reference_missing",
				Message:  fmt.Sprintf("host reference %s is not available: %v", ref, err),
				Path:     ref,
				Cause:    err,
			})
			continue
		}
		rs = rs.with(ref)
	}
	return rs, diags
}

// EnsureLayout creates every directory in dirs if it does not exist. It is
// used once at startup; a failure here means the runtime cannot proceed.
func EnsureLayout(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// normalizePath cleans path and makes it absolute. EvalSymlinks is applied
// when possible so two spellings of the same file collapse to one entry.
func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
