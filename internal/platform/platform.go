// Package platform probes the host environment: which FFI backend is
// available, the normalized platform/architecture pair, process environment
// access, and monospace display width for terminal column accounting.
package platform

import (
	"os"
	"runtime"
	"strings"
)

// Backend identifies which foreign-function backend carries native calls.
type Backend int

const (
	// BackendNative loads a platform shared library and calls it in-process.
	BackendNative Backend = iota
	// BackendWASM loads a WebAssembly build of the library into a sandboxed
	// linear memory.
	BackendWASM
)

func (b Backend) String() string {
	switch b {
	case BackendNative:
		return "native"
	case BackendWASM:
		return "wasm"
	default:
		return "unknown"
	}
}

// Environment variables honored by the probe.
const (
	// EnvBackend forces a backend ("native" or "wasm").
	EnvBackend = "OPENTUI_FFI"
	// EnvPlatform and EnvArch override the detected target, e.g. when
	// resolving artifacts for a different machine.
	EnvPlatform = "OPENTUI_PLATFORM"
	EnvArch     = "OPENTUI_ARCH"
)

// Detect resolves which backend this process can use. The decision is made
// once at startup and passed down; call sites never branch on host identity.
//
// OPENTUI_FFI overrides detection. Requesting a backend the build cannot
// serve, or an unknown tag, fails with UnsupportedRuntimeError.
func Detect() (Backend, error) {
	if v, ok := os.LookupEnv(EnvBackend); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "native":
			if !nativeSupported(runtime.GOOS) {
				return 0, &UnsupportedRuntimeError{Requested: "native", OS: runtime.GOOS}
			}
			return BackendNative, nil
		case "wasm":
			return BackendWASM, nil
		default:
			return 0, &UnsupportedRuntimeError{Requested: v, OS: runtime.GOOS}
		}
	}
	if nativeSupported(runtime.GOOS) {
		return BackendNative, nil
	}
	return BackendWASM, nil
}

// nativeSupported reports whether the native loader can dlopen on this OS.
func nativeSupported(goos string) bool {
	switch goos {
	case "linux", "darwin", "freebsd", "windows":
		return true
	}
	return false
}

// Platform is a normalized platform/architecture pair. OS uses "win32" for
// Windows; Arch uses "x64" for x86-64 and "arm64" for AArch64.
type Platform struct {
	OS   string
	Arch string
}

// PlatformArch returns the normalized target. The primary source is the
// process build (runtime.GOOS/GOARCH); OPENTUI_PLATFORM/OPENTUI_ARCH act as
// the alternate descriptor. Values that cannot be normalized fail with
// PlatformUndetectableError.
func PlatformArch() (Platform, error) {
	osName := runtime.GOOS
	arch := runtime.GOARCH
	if v := os.Getenv(EnvPlatform); v != "" {
		osName = v
	}
	if v := os.Getenv(EnvArch); v != "" {
		arch = v
	}

	normOS, ok := normalizeOS(osName)
	if !ok {
		return Platform{}, &PlatformUndetectableError{OS: osName, Arch: arch}
	}
	normArch, ok := normalizeArch(arch)
	if !ok {
		return Platform{}, &PlatformUndetectableError{OS: osName, Arch: arch}
	}
	return Platform{OS: normOS, Arch: normArch}, nil
}

func normalizeOS(s string) (string, bool) {
	switch strings.ToLower(s) {
	case "windows", "win32":
		return "win32", true
	case "linux", "darwin", "freebsd", "android":
		return strings.ToLower(s), true
	}
	return "", false
}

func normalizeArch(s string) (string, bool) {
	switch strings.ToLower(s) {
	case "amd64", "x86_64", "x64":
		return "x64", true
	case "arm64", "aarch64":
		return "arm64", true
	case "386", "ia32":
		return "ia32", true
	case "arm":
		return "arm", true
	case "riscv64":
		return "riscv64", true
	}
	return "", false
}

// PointerWidth returns the byte width of a native pointer for the platform:
// 8 on 64-bit architectures, 4 otherwise. Struct layout and pointer-sized
// fields follow this width.
func (p Platform) PointerWidth() int {
	switch p.Arch {
	case "x64", "arm64", "riscv64":
		return 8
	}
	return 4
}

// PointerWidth is the package-level convenience for the detected target.
// When the target is undetectable it falls back to the build's own width.
func PointerWidth() int {
	p, err := PlatformArch()
	if err != nil {
		if strings.HasSuffix(runtime.GOARCH, "64") {
			return 8
		}
		return 4
	}
	return p.PointerWidth()
}

// Environ returns the process environment as a map, or nil when the
// environment is inaccessible (restricted sandboxes). Denial of access is
// recovered locally rather than surfaced.
//
// os.Environ has no error return; its only failure mode is a runtime panic
// when a sandbox blocks the environ read. Recovering here therefore maps
// exactly the access-denied case to nil, there is no other failure to
// propagate.
func Environ() (env map[string]string) {
	defer func() {
		if recover() != nil {
			env = nil
		}
	}()
	raw := os.Environ()
	env = make(map[string]string, len(raw))
	for _, kv := range raw {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}
