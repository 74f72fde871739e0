package ffi

import "fmt"

// SymbolLoadError occurs when a library fails to load or a declared symbol
// cannot be resolved. The whole table fails; nothing partial is returned.
type SymbolLoadError struct {
	Path   string
	Symbol string // empty when the library itself failed to load
	Err    error
}

func (e *SymbolLoadError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("failed to resolve symbol %q in %s: %v", e.Symbol, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to load library %s: %v", e.Path, e.Err)
}

func (e *SymbolLoadError) Unwrap() error {
	return e.Err
}

// UnsupportedPointerError occurs when a value cannot be normalized to a
// pointer representation.
type UnsupportedPointerError struct {
	Value any
}

func (e *UnsupportedPointerError) Error() string {
	return fmt.Sprintf("cannot interpret %T as a pointer", e.Value)
}

// OffsetUnsupportedError occurs when pointer offset arithmetic is requested
// but the active backend cannot apply it to the given pointer.
type OffsetUnsupportedError struct {
	Pointer Ptr
	Offset  uint64
}

func (e *OffsetUnsupportedError) Error() string {
	return fmt.Sprintf("pointer offset %d not supported for %#x", e.Offset, uint64(e.Pointer))
}

// NullPointerError occurs when a read resolves through a null pointer with
// a nonzero requested length.
type NullPointerError struct {
	Length uint64
}

func (e *NullPointerError) Error() string {
	return fmt.Sprintf("null pointer dereference (length %d)", e.Length)
}

// MemoryAccessError occurs when a backend memory operation fails, typically
// an out-of-bounds read in wasm linear memory.
type MemoryAccessError struct {
	Operation string
	Address   uint64
	Length    uint64
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("memory access failed (op=%s, addr=%#x, len=%d)",
		e.Operation, e.Address, e.Length)
}

// CallError occurs when invoking a resolved symbol fails, either in argument
// coercion or inside the backend.
type CallError struct {
	Symbol string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call to %q failed: %v", e.Symbol, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
