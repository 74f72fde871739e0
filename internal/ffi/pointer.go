package ffi

import "unsafe"

// Ptr is the neutral pointer value both backends normalize to. For the
// native backend it holds a raw process address; for the wasm backend it
// holds an offset into the guest's linear memory. Core code never
// dereferences a Ptr directly; it only hands it back across the boundary or
// reads through Library.ReadBytes.
type Ptr uint64

// IsNull reports whether the pointer is null.
func (p Ptr) IsNull() bool { return p == 0 }

// PointerValue normalizes any recognized pointer representation to a 64-bit
// integer, for diagnostics and equality comparison. Unrecognized
// representations fail with UnsupportedPointerError.
func PointerValue(v any) (uint64, error) {
	switch p := v.(type) {
	case nil:
		return 0, nil
	case Ptr:
		return uint64(p), nil
	case uintptr:
		return uint64(p), nil
	case unsafe.Pointer:
		return uint64(uintptr(p)), nil
	case uint64:
		return p, nil
	case uint32:
		return uint64(p), nil
	case int64:
		return uint64(p), nil
	case int:
		return uint64(p), nil
	}
	return 0, &UnsupportedPointerError{Value: v}
}
