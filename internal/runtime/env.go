// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix marks variables that belong to livecmd itself. They are not
// inherited by scripts from the host environment.
const EnvPrefix = "LIVECMD_"

// EnvSpec describes how to build a script environment, from lowest to
// highest precedence: host environment, dotenv file, inline variables,
// extra variables set by the caller.
type EnvSpec struct {
	// EnvFile is a dotenv file. Relative paths are resolved against BaseDir.
	// A trailing '?' marks the file optional.
	EnvFile string
	// BaseDir resolves a relative EnvFile.
	BaseDir string
	// Vars are inline variables.
	Vars map[string]string
	// Extra are set last.
	Extra map[string]string
}

// BuildEnv assembles the environment described by spec.
func BuildEnv(spec EnvSpec) (map[string]string, error) {
	env := hostEnv()

	if spec.EnvFile != "" {
		if err := loadEnvFile(env, spec.EnvFile, spec.BaseDir); err != nil {
			return nil, err
		}
	}

	maps.Copy(env, spec.Vars)
	maps.Copy(env, spec.Extra)
	return env, nil
}

// EnvToSlice converts an environment map to KEY=VALUE pairs sorted by key.
func EnvToSlice(env map[string]string) []string {
	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func hostEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" || strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		env[key] = value
	}
	return env
}

func loadEnvFile(env map[string]string, path, baseDir string) error {
	optional := strings.HasSuffix(path, "?")
	path = strings.TrimSuffix(path, "?")

	fullPath := filepath.FromSlash(path)
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(baseDir, fullPath)
	}

	if _, err := os.Stat(fullPath); err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read env file '%s': %w", path, err)
	}

	values, err := godotenv.Read(fullPath)
	if err != nil {
		return fmt.Errorf("failed to parse env file '%s': %w", path, err)
	}
	maps.Copy(env, values)
	return nil
}
