package ffi

import "testing"

func TestParseKind(t *testing.T) {
	tests := []struct {
		tag  string
		want Kind
	}{
		{"void", Void},
		{"bool", Bool},
		{"u8", U8},
		{"i32", I32},
		{"u64", U64},
		{"f32", F32},
		{"f64", F64},
		{"pointer", Pointer},
		{"ptr", Pointer}, // legacy alias
		{"buffer", Buffer},
		{"usize", USize},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseKind(tt.tag)
			if err != nil {
				t.Fatalf("ParseKind(%q): %v", tt.tag, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %s, want %s", tt.tag, got, tt.want)
			}
		})
	}

	if _, err := ParseKind("quadword"); err == nil {
		t.Error("expected error for unknown tag")
	}
}

func TestKindSizeAlign(t *testing.T) {
	tests := []struct {
		kind     Kind
		ptrWidth int
		size     int
		align    int
	}{
		{U8, 8, 1, 1},
		{I16, 8, 2, 2},
		{U32, 8, 4, 4},
		{F32, 8, 4, 4},
		{U64, 8, 8, 8},
		{F64, 8, 8, 8},
		{Pointer, 8, 8, 8},
		{USize, 8, 8, 8},
		// 32-bit target: wide scalars exceed the pointer width, so their
		// alignment is capped at it.
		{U64, 4, 8, 4},
		{F64, 4, 8, 4},
		{Pointer, 4, 4, 4},
		{USize, 4, 4, 4},
		{Void, 8, 0, 1},
	}
	for _, tt := range tests {
		if got := tt.kind.Size(tt.ptrWidth); got != tt.size {
			t.Errorf("%s.Size(%d) = %d, want %d", tt.kind, tt.ptrWidth, got, tt.size)
		}
		if got := tt.kind.Align(tt.ptrWidth); got != tt.align {
			t.Errorf("%s.Align(%d) = %d, want %d", tt.kind, tt.ptrWidth, got, tt.align)
		}
	}
}

func TestKindClasses(t *testing.T) {
	if !I32.Signed() || U32.Signed() {
		t.Error("signedness misclassified")
	}
	if !U8.Integer() || F32.Integer() || Bool.Integer() {
		t.Error("integer class misclassified")
	}
	if !F64.Float() || I64.Float() {
		t.Error("float class misclassified")
	}
}
