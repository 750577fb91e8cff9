// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"context"
	"slices"

	"github.com/invowk/livecmd/internal/discovery"
	"github.com/invowk/livecmd/internal/module"
)

// Diagnostic codes reported by compilation.
const (
	CodeParseError        = "parse_error"
	CodeSchemaError       = "schema_error"
	CodeScriptSyntaxError = "script_syntax_error"
	CodeInvalidAccepts    = "invalid_accepts"
	CodeInvalidTimeout    = "invalid_timeout"
	CodeReferenceError    = "reference_error"
	CodeSourceUnreadable  = "source_unreadable"
	CodeEmitFailed        = "emit_failed"
)

type (
	// CompilationResult is the outcome of one Compile call. It is not
	// modified after Compile returns.
	CompilationResult struct {
		// ParseSuccess is false when any source had a syntax error.
		ParseSuccess bool
		// EmitSuccess is true when an artifact was written.
		EmitSuccess bool
		// Diagnostics are ordered by source, then by position.
		Diagnostics []discovery.Diagnostic
		// Artifact is set only when EmitSuccess is true.
		Artifact *module.Handle
	}

	// Backend compiles sources and references into an artifact at outputPath.
	Backend interface {
		Compile(ctx context.Context, sources []discovery.SourceFile, refs discovery.ReferenceSet, outputPath string) (*CompilationResult, error)
	}
)

// Success reports whether both parse and emit succeeded.
func (r *CompilationResult) Success() bool {
	return r != nil && r.ParseSuccess && r.EmitSuccess
}

// Clone returns a copy that shares no slices with r.
func (r *CompilationResult) Clone() *CompilationResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Diagnostics = slices.Clone(r.Diagnostics)
	if r.Artifact != nil {
		h := *r.Artifact
		out.Artifact = &h
	}
	return &out
}
