// SPDX-License-Identifier: MPL-2.0

// Package discovery locates the inputs of a recompilation cycle.
//
// It combines two closely related concerns:
//   - Source collection: enumerating command files under the scripts folder
//   - Reference resolution: assembling the ordered set of shell libraries
//     (libraries folder plus host baseline references)
//
// Both fail softly. Unreadable folders and files are reported as Diagnostic
// values instead of errors so a cycle can always publish what it found.
//
// File organization:
//   - collect.go: SourceFile, Collect, and the shared folder scanner
//   - resolve.go: ReferenceSet, Resolve, EnsureLayout
//   - diagnostic.go: Diagnostic and Severity
package discovery
