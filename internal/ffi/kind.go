// Package ffi is the compatibility shim between one neutral symbol/callback
// description and the two foreign-function backends that can serve it: the
// native loader (purego, raw process addresses) and the wasm loader (wazero,
// guest-memory offsets). A symbol table is declared once; the active backend
// is resolved once; no call site branches on which backend is underneath.
package ffi

import "fmt"

// Kind is a scalar wire type shared by both backends.
type Kind uint8

const (
	Void Kind = iota
	Bool
	U8
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	F32
	F64
	Pointer
	Buffer
	USize
)

var kindNames = map[Kind]string{
	Void:    "void",
	Bool:    "bool",
	U8:      "u8",
	I8:      "i8",
	U16:     "u16",
	I16:     "i16",
	U32:     "u32",
	I32:     "i32",
	U64:     "u64",
	I64:     "i64",
	F32:     "f32",
	F64:     "f64",
	Pointer: "pointer",
	Buffer:  "buffer",
	USize:   "usize",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a wire-type tag. The legacy "ptr" alias normalizes to
// Pointer.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "void":
		return Void, nil
	case "bool":
		return Bool, nil
	case "u8":
		return U8, nil
	case "i8":
		return I8, nil
	case "u16":
		return U16, nil
	case "i16":
		return I16, nil
	case "u32":
		return U32, nil
	case "i32":
		return I32, nil
	case "u64":
		return U64, nil
	case "i64":
		return I64, nil
	case "f32":
		return F32, nil
	case "f64":
		return F64, nil
	case "pointer", "ptr":
		return Pointer, nil
	case "buffer":
		return Buffer, nil
	case "usize":
		return USize, nil
	}
	return Void, fmt.Errorf("unknown native type %q", s)
}

// Size returns the byte width of the kind given the target pointer width.
func (k Kind) Size(ptrWidth int) int {
	switch k {
	case Void:
		return 0
	case Bool, U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	case Pointer, Buffer, USize:
		return ptrWidth
	}
	return 0
}

// Align returns the alignment class: natural alignment capped at the
// pointer width.
func (k Kind) Align(ptrWidth int) int {
	sz := k.Size(ptrWidth)
	if sz == 0 {
		return 1
	}
	if sz > ptrWidth {
		return ptrWidth
	}
	return sz
}

// Signed reports whether the kind is a signed integer.
func (k Kind) Signed() bool {
	switch k {
	case I8, I16, I32, I64:
		return true
	}
	return false
}

// Integer reports whether the kind is a fixed-width integer (bool excluded).
func (k Kind) Integer() bool {
	switch k {
	case U8, I8, U16, I16, U32, I32, U64, I64, USize:
		return true
	}
	return false
}

// Float reports whether the kind is a floating-point type.
func (k Kind) Float() bool {
	return k == F32 || k == F64
}
