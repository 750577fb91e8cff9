// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"path/filepath"
	"testing"
)

func TestResolveUnionAndDedup(t *testing.T) {
	t.Parallel()

	libs := t.TempDir()
	host := t.TempDir()
	writeFile(t, filepath.Join(libs, "b.sh"), "b() { :; }")
	writeFile(t, filepath.Join(libs, "a.sh"), "a() { :; }")
	writeFile(t, filepath.Join(libs, "readme.md"), "not a library")
	hostLib := filepath.Join(host, "base.sh")
	writeFile(t, hostLib, "base() { :; }")

	refs, diags := Resolve(libs, []string{
		hostLib,
		filepath.Join(libs, "a.sh"),         // duplicate of a folder entry
		filepath.Join(host, ".", "base.sh"), // duplicate spelling
	})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if refs.Len() != 3 {
		t.Fatalf("expected 3 references, got %d: %v", refs.Len(), refs.Paths())
	}

	paths := refs.Paths()
	wantBases := []string{"a.sh", "b.sh", "base.sh"}
	for i, want := range wantBases {
		if filepath.Base(paths[i]) != want {
			t.Errorf("reference %d = %s, want base %s", i, paths[i], want)
		}
	}
	if !refs.Contains(hostLib) {
		t.Error("Contains(hostLib) = false")
	}
}

func TestResolveMissingInputs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	refs, diags := Resolve(filepath.Join(root, "nope"), []string{filepath.Join(root, "gone.sh")})
	if refs.Len() != 0 {
		t.Errorf("expected empty reference set, got %v", refs.Paths())
	}

	codes := map[string]bool{}
	for _, d := range diags {
		codes[d.Code] = true
	}
	for _, want := range []string{"reference_scan_failed", "host_reference_missing"} {
		if !codes[want] {
			t.Errorf("missing diagnostic %q in %v", want, diags)
		}
	}
}

func TestEnsureLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	scripts := filepath.Join(root, "scripts")
	libs := filepath.Join(root, "deep", "libraries")
	if err := EnsureLayout(scripts, libs, ""); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	for _, dir := range []string{scripts, libs} {
		if _, diags := Collect(dir); len(diags) != 0 {
			t.Errorf("folder %s not usable: %v", dir, diags)
		}
	}

	blocker := filepath.Join(root, "file")
	writeFile(t, blocker, "x")
	if err := EnsureLayout(filepath.Join(blocker, "child")); err == nil {
		t.Error("expected error creating a folder beneath a regular file")
	}
}
