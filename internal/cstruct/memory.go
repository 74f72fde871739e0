package cstruct

import (
	"unsafe"

	"github.com/mocksoul/opentui/internal/ffi"
)

// Memory resolves buffers to pointers and reads memory back through them.
// *ffi.Library satisfies it, so packed payloads live wherever the active
// loader needs them; HostMemory satisfies it for code and tests that never
// cross a library boundary.
type Memory interface {
	Ptr(buf []byte) (ffi.Ptr, error)
	ReadBytes(p ffi.Ptr, byteOffset, byteLength uint64) ([]byte, error)
}

// HostMemory is the process's own address space. Pointers are raw addresses
// of the buffers handed to Ptr; the caller keeps those buffers reachable for
// as long as the pointers are read through.
type HostMemory struct{}

func (HostMemory) Ptr(buf []byte) (ffi.Ptr, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	return ffi.Ptr(uintptr(unsafe.Pointer(unsafe.SliceData(buf)))), nil
}

func (HostMemory) ReadBytes(p ffi.Ptr, byteOffset, byteLength uint64) ([]byte, error) {
	if byteLength == 0 {
		return []byte{}, nil
	}
	if p.IsNull() {
		return nil, &ffi.NullPointerError{Length: byteLength}
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(p)+uintptr(byteOffset))), byteLength)
	out := make([]byte, byteLength)
	copy(out, src)
	return out, nil
}
