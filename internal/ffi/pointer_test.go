package ffi

import (
	"errors"
	"testing"
)

func TestPointerValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want uint64
	}{
		{"nil", nil, 0},
		{"Ptr", Ptr(0x1000), 0x1000},
		{"uintptr", uintptr(42), 42},
		{"uint64", uint64(7), 7},
		{"uint32", uint32(9), 9},
		{"int", 11, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PointerValue(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("PointerValue(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}

	_, err := PointerValue("0x1000")
	var unsupported *UnsupportedPointerError
	if !errors.As(err, &unsupported) {
		t.Errorf("expected UnsupportedPointerError, got %v", err)
	}
}

func TestPtrIsNull(t *testing.T) {
	if !Ptr(0).IsNull() {
		t.Error("zero pointer should be null")
	}
	if Ptr(1).IsNull() {
		t.Error("nonzero pointer should not be null")
	}
}

func TestCallbackLifecycle(t *testing.T) {
	released := false
	cb := &Callback{ptr: Ptr(5), release: func() { released = true }}

	if cb.Ptr() != Ptr(5) {
		t.Errorf("Ptr() = %v, want 5", cb.Ptr())
	}

	cb.Close()
	if !released {
		t.Error("Close did not release the trampoline")
	}

	t.Run("use after close panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		cb.Ptr()
	})

	t.Run("double close panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		cb.Close()
	})
}
