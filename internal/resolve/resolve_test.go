package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/mocksoul/opentui/internal/platform"
)

func writeManifest(t *testing.T, dir, doc string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
name: opentui
version: 0.1.0
artifacts:
  - platform: linux
    arch: x64
    file: libopentui.so
  - platform: darwin
    arch: arm64
    file: libopentui.dylib
wasm:
  file: opentui.wasm
`)
	if err := os.WriteFile(filepath.Join(dir, "libopentui.so"), []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "opentui.wasm"), []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := ParseManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "opentui" || len(m.Artifacts) != 2 {
		t.Errorf("parsed %+v", m)
	}

	t.Run("resolves native artifact", func(t *testing.T) {
		path, err := m.Resolve(platform.BackendNative, platform.Platform{OS: "linux", Arch: "x64"})
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(path) != "libopentui.so" {
			t.Errorf("resolved %s", path)
		}
	})

	t.Run("resolves wasm artifact", func(t *testing.T) {
		path, err := m.Resolve(platform.BackendWASM, platform.Platform{OS: "linux", Arch: "x64"})
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(path) != "opentui.wasm" {
			t.Errorf("resolved %s", path)
		}
	})

	t.Run("unknown platform", func(t *testing.T) {
		_, err := m.Resolve(platform.BackendNative, platform.Platform{OS: "win32", Arch: "x64"})
		var notFound *ArtifactNotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("expected ArtifactNotFoundError, got %v", err)
		}
	})

	t.Run("listed artifact missing on disk", func(t *testing.T) {
		_, err := m.Resolve(platform.BackendNative, platform.Platform{OS: "darwin", Arch: "arm64"})
		var notFound *ArtifactNotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("expected ArtifactNotFoundError, got %v", err)
		}
	})
}

func TestParseManifestErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ParseManifest(t.TempDir())
		var notFound *ManifestNotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("expected ManifestNotFoundError, got %v", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "name: [unclosed")
		_, err := ParseManifest(dir)
		var parse *ManifestParseError
		if !errors.As(err, &parse) {
			t.Errorf("expected ManifestParseError, got %v", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "wasm:\n  file: opentui.wasm\n")
		_, err := ParseManifest(dir)
		var invalid *ManifestValidationError
		if !errors.As(err, &invalid) {
			t.Errorf("expected ManifestValidationError, got %v", err)
		}
	})
}

func TestLibraryFile(t *testing.T) {
	tests := []struct {
		backend platform.Backend
		os      string
		want    string
	}{
		{platform.BackendNative, "linux", "libopentui.so"},
		{platform.BackendNative, "darwin", "libopentui.dylib"},
		{platform.BackendNative, "win32", "opentui.dll"},
		{platform.BackendWASM, "linux", "opentui.wasm"},
	}
	for _, tt := range tests {
		got := LibraryFile(tt.backend, platform.Platform{OS: tt.os, Arch: "x64"})
		if got != tt.want {
			t.Errorf("LibraryFile(%s, %s) = %s, want %s", tt.backend, tt.os, got, tt.want)
		}
	}
}

func TestLocate(t *testing.T) {
	logger := zaptest.NewLogger(t)
	plat := platform.Platform{OS: "linux", Arch: "x64"}

	t.Run("explicit path wins", func(t *testing.T) {
		dir := t.TempDir()
		explicit := filepath.Join(dir, "custom.so")
		if err := os.WriteFile(explicit, []byte{0}, 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvLibraryPath, explicit)

		path, err := Locate(platform.BackendNative, plat, nil, logger)
		if err != nil {
			t.Fatal(err)
		}
		if path != explicit {
			t.Errorf("Locate = %s, want %s", path, explicit)
		}
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		t.Setenv(EnvLibraryPath, filepath.Join(t.TempDir(), "missing.so"))
		_, err := Locate(platform.BackendNative, plat, nil, logger)
		var notFound *ArtifactNotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("expected ArtifactNotFoundError, got %v", err)
		}
	})

	t.Run("search paths probed in order", func(t *testing.T) {
		t.Setenv(EnvLibraryPath, "placeholder")
		os.Unsetenv(EnvLibraryPath)

		empty := t.TempDir()
		populated := t.TempDir()
		want := filepath.Join(populated, "libopentui.so")
		if err := os.WriteFile(want, []byte{0}, 0o644); err != nil {
			t.Fatal(err)
		}

		path, err := Locate(platform.BackendNative, plat, []string{empty, populated}, logger)
		if err != nil {
			t.Fatal(err)
		}
		if path != want {
			t.Errorf("Locate = %s, want %s", path, want)
		}
	})

	t.Run("not found lists searched paths", func(t *testing.T) {
		t.Setenv(EnvLibraryPath, "placeholder")
		os.Unsetenv(EnvLibraryPath)

		_, err := Locate(platform.BackendWASM, plat, []string{t.TempDir()}, logger)
		var notFound *ArtifactNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected ArtifactNotFoundError, got %v", err)
		}
		if notFound.File != "opentui.wasm" || len(notFound.Searched) == 0 {
			t.Errorf("error = %+v", notFound)
		}
	})
}
