// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestBuildEnvPrecedence(t *testing.T) {
	t.Setenv("LIVECMD_INTERNAL_FLAG", "hidden")
	t.Setenv("RUNTIME_TEST_HOST", "host")

	dir := t.TempDir()
	dotenv := "RUNTIME_TEST_FILE=file\nRUNTIME_TEST_OVERRIDE=file\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o644); err != nil {
		t.Fatal(err)
	}

	env, err := BuildEnv(EnvSpec{
		EnvFile: ".env",
		BaseDir: dir,
		Vars:    map[string]string{"RUNTIME_TEST_OVERRIDE": "inline", "RUNTIME_TEST_EXTRA": "inline"},
		Extra:   map[string]string{"RUNTIME_TEST_EXTRA": "extra"},
	})
	if err != nil {
		t.Fatalf("BuildEnv() error = %v", err)
	}

	want := map[string]string{
		"RUNTIME_TEST_HOST":     "host",
		"RUNTIME_TEST_FILE":     "file",
		"RUNTIME_TEST_OVERRIDE": "inline",
		"RUNTIME_TEST_EXTRA":    "extra",
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("env[%s] = %q, want %q", k, env[k], v)
		}
	}
	if _, ok := env["LIVECMD_INTERNAL_FLAG"]; ok {
		t.Error("LIVECMD_ variables must not leak into script environments")
	}
}

func TestBuildEnvMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := BuildEnv(EnvSpec{EnvFile: "missing.env", BaseDir: dir}); err == nil {
		t.Error("BuildEnv() with missing env file succeeded")
	}
	if _, err := BuildEnv(EnvSpec{EnvFile: "missing.env?", BaseDir: dir}); err != nil {
		t.Errorf("BuildEnv() with optional missing env file error = %v", err)
	}
}

func TestEnvToSliceSorted(t *testing.T) {
	t.Parallel()

	got := EnvToSlice(map[string]string{"B": "2", "A": "1"})
	if want := []string{"A=1", "B=2"}; !slices.Equal(got, want) {
		t.Errorf("EnvToSlice() = %v, want %v", got, want)
	}
}
