package platform

import "fmt"

// UnsupportedRuntimeError occurs when no usable FFI backend is available,
// or an explicitly requested backend cannot be served by this build.
type UnsupportedRuntimeError struct {
	Requested string
	OS        string
}

func (e *UnsupportedRuntimeError) Error() string {
	return fmt.Sprintf("unsupported FFI runtime %q on %s (want \"native\" or \"wasm\")",
		e.Requested, e.OS)
}

// PlatformUndetectableError occurs when the platform/architecture pair
// cannot be normalized from any available source.
type PlatformUndetectableError struct {
	OS   string
	Arch string
}

func (e *PlatformUndetectableError) Error() string {
	return fmt.Sprintf("cannot normalize platform %q/%q", e.OS, e.Arch)
}
