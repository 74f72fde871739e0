// Package cstruct computes C-compatible memory layouts from declarative
// field lists and packs/unpacks structured values against them. Layout is a
// pure function of the declaration; the packed wire format is the contract
// with the native library and is bit-exact: little-endian scalars,
// size-capped natural alignment, pointer-width slots for out-of-line string
// and array payloads.
package cstruct

import "github.com/mocksoul/opentui/internal/ffi"

type fieldClass uint8

const (
	classScalar fieldClass = iota
	classEnum
	classString
	classArray
)

// FieldType classifies what a field holds: a scalar, an enum member, a
// pointer to a NUL-terminated string, or a pointer to a packed array of
// scalars.
type FieldType struct {
	class fieldClass
	kind  ffi.Kind // scalar kind, enum base, or array element
	enum  *Enum
}

// Scalar declares a fixed-width scalar field.
func Scalar(k ffi.Kind) FieldType {
	return FieldType{class: classScalar, kind: k}
}

// CString declares a pointer field referencing a NUL-terminated UTF-8
// string allocated out of line at pack time.
func CString() FieldType {
	return FieldType{class: classString, kind: ffi.Pointer}
}

// ArrayOf declares a pointer field referencing a packed out-of-line array
// of the given element kind.
func ArrayOf(elem ffi.Kind) FieldType {
	return FieldType{class: classArray, kind: elem}
}

// EnumOf declares a field holding a member of the given enum, packed at the
// enum's base width.
func EnumOf(e *Enum) FieldType {
	return FieldType{class: classEnum, kind: e.Base(), enum: e}
}

// Field is one declared struct member.
type Field struct {
	Name string
	Type FieldType

	// Optional fields may be absent from a packed value; they fall back to
	// Default, or to the type's zero value.
	Optional bool
	Default  any

	// LengthOf names another field whose encoded length this field's
	// packed value is always derived from. A caller-supplied value for
	// this field is never trusted.
	LengthOf string

	// Transform hooks applied to the field value on the way in and out.
	PackTransform   func(any) any
	UnpackTransform func(any) any
}
