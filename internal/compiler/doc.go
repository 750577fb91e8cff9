// SPDX-License-Identifier: MPL-2.0

// Package compiler turns collected command files and shell libraries into a
// module artifact.
//
// A Backend reports expected failures (syntax errors, schema violations,
// unreadable files) as diagnostics in its CompilationResult; the error
// return is reserved for cancellation and internal defects.
package compiler
