// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// SourcePattern selects command files inside the scripts folder.
	SourcePattern = "**/*.cue"
	// LibraryPattern selects shell libraries inside the libraries folder.
	LibraryPattern = "**/*.sh"
)

// skippedDirs are directory names never descended into while scanning.
var skippedDirs = []string{".git", ".hg", ".svn", "node_modules"}

// SourceFile is one command file found during collection. Values are
// collected fresh on every cycle and never mutated afterwards.
type SourceFile struct {
	// Path is the absolute path to the file.
	Path string
	// Fingerprint is the hex-encoded SHA-256 of the file content.
	Fingerprint string
	// ModTime is the modification time reported by the filesystem.
	ModTime time.Time
}

// Fingerprint returns the hex-encoded SHA-256 digest of data.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Collect recursively enumerates command files under scriptsDir, sorted
// lexicographically by path. A missing or unreadable folder yields an empty
// result plus a diagnostic; it never returns an error.
func Collect(scriptsDir string) ([]SourceFile, []Diagnostic) {
	paths, diags := scan(scriptsDir, SourcePattern, "collection_failed")
	files := make([]SourceFile, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			diags = append(diags, unreadable(path, err))
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			diags = append(diags, unreadable(path, err))
			continue
		}
		files = append(files, SourceFile{
			Path:        path,
			Fingerprint: Fingerprint(data),
			ModTime:     info.ModTime(),
		})
	}
	return files, diags
}

// scan walks root and returns the absolute paths of regular files whose
// slash-separated relative path matches pattern, sorted lexicographically.
func scan(root, pattern, failCode string) ([]string, []Diagnostic) {
	var diags []Diagnostic

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, append(diags, Diagnostic{
			Severity: SeverityError,
			Code:     failCode,
			Message:  fmt.Sprintf("failed to resolve folder %q: %v", root, err),
			Path:     root,
			Cause:    err,
		})
	}

	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", absRoot)
		}
		return nil, append(diags, Diagnostic{
			Severity: SeverityError,
			Code:     failCode,
			Message:  fmt.Sprintf("folder %s is not readable: %v", absRoot, err),
			Path:     absRoot,
			Cause:    err,
		})
	}

	var paths []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Skip the unreadable subtree but keep scanning siblings.
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     "path_skipped",
				Message:  fmt.Sprintf("skipping inaccessible path %s: %v", path, walkDirErr),
				Path:     path,
				Cause:    walkDirErr,
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != absRoot && slices.Contains(skippedDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil //nolint:nilerr // paths outside root cannot match
		}
		if matched, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); matched {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Code:     failCode,
			Message:  fmt.Sprintf("failed to scan %s: %v", absRoot, walkErr),
			Path:     absRoot,
			Cause:    walkErr,
		})
	}

	slices.Sort(paths)
	return paths, diags
}

func unreadable(path string, err error) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     "file_unreadable",
		Message:  fmt.Sprintf("skipping unreadable file %s: %v", path, err),
		Path:     path,
		Cause:    err,
	}
}
