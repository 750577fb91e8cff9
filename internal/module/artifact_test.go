// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleArtifact() *Artifact {
	return New(
		[]string{"/scripts/a.cue"},
		[]Library{{Path: "/libs/greet.sh", Source: "greet() { echo \"hi $1\"; }\n", Functions: []string{"greet"}}},
		[]CommandDecl{
			{Name: "Alpha", Origin: "/scripts/a.cue", Script: "greet \"$1\"", Env: map[string]string{"B": "2", "A": "1"}},
		},
	)
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "module.json")
	h, err := Write(path, sampleArtifact())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if h.Path != path || h.Digest == "" {
		t.Fatalf("Write() handle = %+v", h)
	}

	a, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if a.Digest != h.Digest {
		t.Errorf("Digest = %q, want %q", a.Digest, h.Digest)
	}
	if len(a.Commands) != 1 || a.Commands[0].Name != "Alpha" {
		t.Errorf("Commands = %+v", a.Commands)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("output directory has %d entries, want only the artifact", len(entries))
	}
}

func TestComputeDigestStable(t *testing.T) {
	t.Parallel()

	d1, err := sampleArtifact().ComputeDigest()
	if err != nil {
		t.Fatal(err)
	}
	d2, err := sampleArtifact().ComputeDigest()
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 {
		t.Errorf("digests differ for identical payloads: %s vs %s", d1, d2)
	}
}

func TestReadRejectsBadArtifacts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr error
	}{
		{
			name:    "malformed",
			mutate:  func(string) string { return "{not json" },
			wantErr: ErrMalformedArtifact,
		},
		{
			name:    "incompatible version",
			mutate:  func(s string) string { return strings.Replace(s, `"format_version": 1`, `"format_version": 99`, 1) },
			wantErr: ErrIncompatibleArtifact,
		},
		{
			name:    "foreign format",
			mutate:  func(s string) string { return strings.Replace(s, FormatName, "other.module", 1) },
			wantErr: ErrIncompatibleArtifact,
		},
		{
			name:    "edited payload",
			mutate:  func(s string) string { return strings.Replace(s, `"Alpha"`, `"Omega"`, 1) },
			wantErr: ErrCorruptArtifact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "module.json")
			if _, err := Write(path, sampleArtifact()); err != nil {
				t.Fatal(err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(tt.mutate(string(data))), 0o644); err != nil {
				t.Fatal(err)
			}

			if _, err := Read(path); !errors.Is(err, tt.wantErr) {
				t.Errorf("Read() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
