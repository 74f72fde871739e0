// Package resolve locates the native rendering artifact for the detected
// platform, either by searching well-known paths or through a manifest
// shipped next to the binaries.
package resolve

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mocksoul/opentui/internal/platform"
)

// Manifest describes a distribution directory: one shared-library artifact
// per platform/arch pair plus an optional wasm artifact shared by all.
type Manifest struct {
	Name      string     `yaml:"name"`
	Version   string     `yaml:"version"`
	Artifacts []Artifact `yaml:"artifacts"`
	Wasm      WasmFile   `yaml:"wasm"`

	dir string
}

// Artifact is one platform-specific shared library.
type Artifact struct {
	Platform string `yaml:"platform"`
	Arch     string `yaml:"arch"`
	File     string `yaml:"file"`
}

// WasmFile is the platform-independent wasm artifact.
type WasmFile struct {
	File string `yaml:"file"`
}

// ParseManifest reads and parses manifest.yaml from a directory.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, "manifest.yaml")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{Path: manifestPath, Err: err}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{Path: manifestPath, Err: err}
	}
	m.dir = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks manifest fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "name",
			Message: "name is required",
		}
	}
	if len(m.Artifacts) == 0 && m.Wasm.File == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "artifacts",
			Message: "at least one artifact or a wasm file is required",
		}
	}
	for _, a := range m.Artifacts {
		if a.Platform == "" || a.Arch == "" || a.File == "" {
			return &ManifestValidationError{
				Path:    m.Path(),
				Field:   "artifacts",
				Message: "artifact entries need platform, arch and file",
			}
		}
	}
	return nil
}

// Resolve returns the absolute artifact path serving the given backend and
// platform. The file must exist on disk.
func (m *Manifest) Resolve(backend platform.Backend, p platform.Platform) (string, error) {
	if backend == platform.BackendWASM {
		if m.Wasm.File == "" {
			return "", &ArtifactNotFoundError{File: "opentui.wasm", Searched: []string{m.dir}}
		}
		return m.artifactPath(m.Wasm.File)
	}

	for _, a := range m.Artifacts {
		if a.Platform == p.OS && a.Arch == p.Arch {
			return m.artifactPath(a.File)
		}
	}
	return "", &ArtifactNotFoundError{
		File:     LibraryFile(backend, p),
		Searched: []string{m.dir},
	}
}

func (m *Manifest) artifactPath(file string) (string, error) {
	path := filepath.Join(m.dir, file)
	if _, err := os.Stat(path); err != nil {
		return "", &ArtifactNotFoundError{File: file, Searched: []string{m.dir}}
	}
	return path, nil
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return filepath.Join(m.dir, "manifest.yaml")
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}
