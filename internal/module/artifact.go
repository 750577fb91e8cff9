// SPDX-License-Identifier: MPL-2.0

package module

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FormatName identifies livecmd module artifacts.
	FormatName = "livecmd.module"
	// FormatVersion is the artifact layout version written by this build.
	FormatVersion = 1
)

var (
	// ErrMalformedArtifact is returned when an artifact cannot be decoded.
	ErrMalformedArtifact = errors.New("malformed module artifact")
	// ErrIncompatibleArtifact is returned for artifacts of another format or version.
	ErrIncompatibleArtifact = errors.New("incompatible module artifact")
	// ErrCorruptArtifact is returned when the payload does not match its digest.
	ErrCorruptArtifact = errors.New("corrupt module artifact")
)

type (
	// Handle is an opaque reference to an emitted artifact.
	Handle struct {
		// Path is the artifact location on disk.
		Path string
		// Digest is the payload digest recorded at emit time.
		Digest string
	}

	// Artifact is the decoded module.
	Artifact struct {
		Format        string        `json:"format"`
		FormatVersion int           `json:"format_version"`
		Digest        string        `json:"digest,omitempty"`
		Sources       []string      `json:"sources"`
		Libraries     []Library     `json:"libraries"`
		Commands      []CommandDecl `json:"commands"`
	}

	// Library is one shell library compiled into the module.
	Library struct {
		Path      string   `json:"path"`
		Source    string   `json:"source"`
		Functions []string `json:"functions,omitempty"`
	}

	// CommandDecl is one command declared by a source file.
	CommandDecl struct {
		Name             string            `json:"name"`
		Origin           string            `json:"origin"`
		Description      string            `json:"description,omitempty"`
		Script           string            `json:"script"`
		Runtime          string            `json:"runtime,omitempty"`
		Accepts          string            `json:"accepts,omitempty"`
		RequiresArgument bool              `json:"requires_argument,omitempty"`
		Timeout          string            `json:"timeout,omitempty"`
		Env              map[string]string `json:"env,omitempty"`
		EnvFile          string            `json:"env_file,omitempty"`
	}
)

// New returns an artifact stamped with the current format.
func New(sources []string, libraries []Library, commands []CommandDecl) *Artifact {
	return &Artifact{
		Format:        FormatName,
		FormatVersion: FormatVersion,
		Sources:       sources,
		Libraries:     libraries,
		Commands:      commands,
	}
}

// ComputeDigest returns the sha256 of the artifact payload, excluding the
// digest field itself.
func (a *Artifact) ComputeDigest() (string, error) {
	payload := *a
	payload.Digest = ""
	data, err := json.Marshal(&payload)
	if err != nil {
		return "", fmt.Errorf("encode artifact payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Write stores the artifact at path. The file is written to a temporary
// sibling and renamed into place so readers never see a partial artifact.
func Write(path string, a *Artifact) (Handle, error) {
	digest, err := a.ComputeDigest()
	if err != nil {
		return Handle{}, err
	}
	a.Digest = digest

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return Handle{}, fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Handle{}, fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return Handle{}, fmt.Errorf("create temporary artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Handle{}, fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Handle{}, fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return Handle{}, fmt.Errorf("publish artifact: %w", err)
	}

	return Handle{Path: path, Digest: digest}, nil
}

// Read decodes and verifies the artifact at path.
func Read(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedArtifact, path, err)
	}
	if a.Format != FormatName || a.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %s has format %q version %d, want %q version %d",
			ErrIncompatibleArtifact, path, a.Format, a.FormatVersion, FormatName, FormatVersion)
	}

	digest, err := a.ComputeDigest()
	if err != nil {
		return nil, err
	}
	if digest != a.Digest {
		return nil, fmt.Errorf("%w: %s digest mismatch", ErrCorruptArtifact, path)
	}
	return &a, nil
}
