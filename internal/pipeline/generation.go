// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"slices"
	"time"

	"github.com/invowk/livecmd/internal/compiler"
	"github.com/invowk/livecmd/internal/discovery"
	"github.com/invowk/livecmd/internal/registry"
)

type (
	// Generation is the immutable outcome of one cycle. A newer generation
	// supersedes it but never modifies it, so holders of an old generation
	// keep a consistent view.
	Generation struct {
		// Version increases strictly with every publish. Version 0 is the
		// empty generation published at construction.
		Version uint64
		// Result is the backend result; nil when the cycle failed before
		// compiling.
		Result *compiler.CompilationResult
		// Registry is never nil. It is empty unless LoadSuccess is true.
		Registry *registry.Registry
		// Sources and References are the cycle inputs.
		Sources    []discovery.SourceFile
		References discovery.ReferenceSet
		// Diagnostics holds every diagnostic of the cycle in phase order.
		Diagnostics []discovery.Diagnostic
		// LoadSuccess is true when the artifact loaded.
		LoadSuccess bool
		// LoadError is the loader error of a failed load.
		LoadError error
		// PublishedAt is the publish time.
		PublishedAt time.Time
	}

	// Snapshot is the externally published projection of a Generation.
	// It shares no memory with the generation.
	Snapshot struct {
		Version      uint64
		ArtifactPath string
		SourceFiles  []string
		References   []string
		Diagnostics  []discovery.Diagnostic
		ParseSuccess bool
		EmitSuccess  bool
		LoadSuccess  bool
		CommandNames []string
		PublishedAt  time.Time
	}
)

// Success reports whether the generation carries a usable command set.
func (g *Generation) Success() bool {
	return g.LoadSuccess
}

// Snapshot projects the generation.
func (g *Generation) Snapshot() Snapshot {
	s := Snapshot{
		Version:      g.Version,
		References:   g.References.Paths(),
		Diagnostics:  slices.Clone(g.Diagnostics),
		LoadSuccess:  g.LoadSuccess,
		CommandNames: g.Registry.Names(),
		PublishedAt:  g.PublishedAt,
	}
	if s.CommandNames == nil {
		s.CommandNames = []string{}
	}
	for _, src := range g.Sources {
		s.SourceFiles = append(s.SourceFiles, src.Path)
	}
	if g.Result != nil {
		s.ParseSuccess = g.Result.ParseSuccess
		s.EmitSuccess = g.Result.EmitSuccess
		if g.Result.Artifact != nil {
			s.ArtifactPath = g.Result.Artifact.Path
		}
	}
	return s
}

// HasErrors reports whether the snapshot carries error diagnostics.
func (s Snapshot) HasErrors() bool {
	return discovery.HasErrors(s.Diagnostics)
}
