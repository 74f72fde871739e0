package resolve

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mocksoul/opentui/internal/platform"
)

// EnvLibraryPath overrides artifact discovery with an explicit path.
const EnvLibraryPath = "OPENTUI_LIB_PATH"

// LibraryFile returns the artifact filename for a backend and platform.
func LibraryFile(backend platform.Backend, p platform.Platform) string {
	if backend == platform.BackendWASM {
		return "opentui.wasm"
	}
	switch p.OS {
	case "win32":
		return "opentui.dll"
	case "darwin":
		return "libopentui.dylib"
	default:
		return "libopentui.so"
	}
}

// Locate finds the library artifact for the given backend and platform. An
// explicit OPENTUI_LIB_PATH wins and must exist; otherwise the configured
// search paths are probed in order, then the running executable's own
// directory and its lib/ subdirectory.
func Locate(backend platform.Backend, p platform.Platform, searchPaths []string, logger *zap.Logger) (string, error) {
	log := logger.With(zap.String("component", "resolve"))

	if explicit := os.Getenv(EnvLibraryPath); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", &ArtifactNotFoundError{File: explicit, Searched: []string{explicit}}
		}
		log.Debug("Using explicit library path", zap.String("path", explicit))
		return explicit, nil
	}

	file := LibraryFile(backend, p)
	searched := make([]string, 0, len(searchPaths)+2)

	for _, dir := range searchPaths {
		candidate := filepath.Join(dir, file)
		searched = append(searched, candidate)
		if _, err := os.Stat(candidate); err == nil {
			log.Debug("Found library artifact", zap.String("path", candidate))
			return candidate, nil
		}
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		for _, dir := range []string{exeDir, filepath.Join(exeDir, "lib")} {
			candidate := filepath.Join(dir, file)
			searched = append(searched, candidate)
			if _, err := os.Stat(candidate); err == nil {
				log.Debug("Found library artifact", zap.String("path", candidate))
				return candidate, nil
			}
		}
	}

	return "", &ArtifactNotFoundError{File: file, Searched: searched}
}
