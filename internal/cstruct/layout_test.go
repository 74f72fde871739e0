package cstruct

import (
	"reflect"
	"testing"

	"github.com/mocksoul/opentui/internal/ffi"
)

func testFields() []Field {
	return []Field{
		{Name: "flag", Type: Scalar(ffi.U8)},
		{Name: "cols", Type: Scalar(ffi.U32)},
		{Name: "frame", Type: Scalar(ffi.U64)},
		{Name: "title", Type: CString()},
	}
}

func TestLayoutPlacement(t *testing.T) {
	t.Run("64-bit target", func(t *testing.T) {
		s, err := DefineStruct(testFields(), WithPointerWidth(8))
		if err != nil {
			t.Fatal(err)
		}
		wantOffsets := []int{0, 4, 8, 16}
		for i, e := range s.Entries() {
			if e.Offset != wantOffsets[i] {
				t.Errorf("field %q at offset %d, want %d", e.Field.Name, e.Offset, wantOffsets[i])
			}
		}
		if s.Size() != 24 {
			t.Errorf("size = %d, want 24", s.Size())
		}
	})

	t.Run("32-bit target caps alignment", func(t *testing.T) {
		s, err := DefineStruct(testFields(), WithPointerWidth(4))
		if err != nil {
			t.Fatal(err)
		}
		wantOffsets := []int{0, 4, 8, 16}
		for i, e := range s.Entries() {
			if e.Offset != wantOffsets[i] {
				t.Errorf("field %q at offset %d, want %d", e.Field.Name, e.Offset, wantOffsets[i])
			}
		}
		if s.Size() != 20 {
			t.Errorf("size = %d, want 20", s.Size())
		}
	})
}

func TestLayoutDeterminism(t *testing.T) {
	a, err := DefineStruct(testFields(), WithPointerWidth(8))
	if err != nil {
		t.Fatal(err)
	}
	b, err := DefineStruct(testFields(), WithPointerWidth(8))
	if err != nil {
		t.Fatal(err)
	}
	if a.Size() != b.Size() || !reflect.DeepEqual(a.Entries(), b.Entries()) {
		t.Error("identical field lists resolved to different layouts")
	}
}

func TestLayoutAlignmentInvariant(t *testing.T) {
	for _, width := range []int{4, 8} {
		fields := append(testFields(),
			Field{Name: "ratio", Type: Scalar(ffi.F64)},
			Field{Name: "cells", Type: ArrayOf(ffi.U32)},
			Field{Name: "cellCount", Type: Scalar(ffi.U32), LengthOf: "cells"},
		)
		s, err := DefineStruct(fields, WithPointerWidth(width))
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range s.Entries() {
			if e.Offset%e.Align != 0 {
				t.Errorf("width %d: field %q offset %d not aligned to %d",
					width, e.Field.Name, e.Offset, e.Align)
			}
		}
		if s.Size()%width != 0 {
			t.Errorf("width %d: size %d not a multiple of pointer width", width, s.Size())
		}
	}
}

func TestDefineStructValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
	}{
		{"duplicate name", []Field{
			{Name: "x", Type: Scalar(ffi.U8)},
			{Name: "x", Type: Scalar(ffi.U8)},
		}},
		{"unnamed field", []Field{{Type: Scalar(ffi.U8)}}},
		{"void field", []Field{{Name: "x", Type: Scalar(ffi.Void)}}},
		{"array without length field", []Field{
			{Name: "cells", Type: ArrayOf(ffi.U32)},
		}},
		{"lengthOf unknown field", []Field{
			{Name: "n", Type: Scalar(ffi.U32), LengthOf: "missing"},
		}},
		{"lengthOf scalar target", []Field{
			{Name: "x", Type: Scalar(ffi.U8)},
			{Name: "n", Type: Scalar(ffi.U32), LengthOf: "x"},
		}},
		{"string-typed length field", []Field{
			{Name: "s", Type: CString()},
			{Name: "n", Type: CString(), LengthOf: "s"},
		}},
		{"two length fields for one payload", []Field{
			{Name: "cells", Type: ArrayOf(ffi.U32)},
			{Name: "a", Type: Scalar(ffi.U32), LengthOf: "cells"},
			{Name: "b", Type: Scalar(ffi.U32), LengthOf: "cells"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DefineStruct(tt.fields, WithPointerWidth(8)); err == nil {
				t.Error("expected definition error")
			}
		})
	}
}
