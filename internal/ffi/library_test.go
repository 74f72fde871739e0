package ffi

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/mocksoul/opentui/internal/platform"
)

func TestDlopenMissingArtifact(t *testing.T) {
	table := map[string]SymbolSpec{
		"renderer_create": {Args: []string{"u32", "u32"}, Returns: "pointer"},
	}
	missing := filepath.Join(t.TempDir(), "no-such-artifact")

	t.Run("native", func(t *testing.T) {
		switch runtime.GOOS {
		case "linux", "darwin", "freebsd", "windows":
		default:
			t.Skipf("native loader unsupported on %s", runtime.GOOS)
		}
		_, err := Dlopen(missing, table,
			WithBackend(platform.BackendNative),
			WithLogger(zaptest.NewLogger(t)),
		)
		var loadErr *SymbolLoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("expected SymbolLoadError, got %v", err)
		}
		if loadErr.Path != missing {
			t.Errorf("error path = %q, want %q", loadErr.Path, missing)
		}
	})

	t.Run("wasm", func(t *testing.T) {
		_, err := Dlopen(missing, table,
			WithBackend(platform.BackendWASM),
			WithLogger(zaptest.NewLogger(t)),
		)
		var loadErr *SymbolLoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("expected SymbolLoadError, got %v", err)
		}
	})
}

func TestDlopenCorruptWASMArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.wasm")
	if err := os.WriteFile(path, []byte("not a wasm module"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Dlopen(path, nil,
		WithBackend(platform.BackendWASM),
		WithLogger(zaptest.NewLogger(t)),
	)
	var loadErr *SymbolLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected SymbolLoadError, got %v", err)
	}
}

func TestDlopenRejectsBadTable(t *testing.T) {
	_, err := Dlopen("irrelevant", map[string]SymbolSpec{
		"bad": {Args: []string{"u32"}, Parameters: []string{"u32"}},
	})
	if err == nil {
		t.Fatal("expected error for ambiguous declaration")
	}
	var loadErr *SymbolLoadError
	if errors.As(err, &loadErr) {
		t.Error("table validation should fail before any load attempt")
	}
}

func TestArgumentCoercion(t *testing.T) {
	lib := &Library{}

	t.Run("integers", func(t *testing.T) {
		v, err := lib.coerceArg(U32, 300)
		if err != nil {
			t.Fatal(err)
		}
		if v.(uint32) != 300 {
			t.Errorf("got %v", v)
		}

		if _, err := lib.coerceArg(U32, -1); err == nil {
			t.Error("expected error for negative unsigned")
		}
		if _, err := lib.coerceArg(I32, 1.5); err == nil {
			t.Error("expected error for non-integral float")
		}
	})

	t.Run("floats accept integers", func(t *testing.T) {
		v, err := lib.coerceArg(F64, 2)
		if err != nil {
			t.Fatal(err)
		}
		if v.(float64) != 2.0 {
			t.Errorf("got %v", v)
		}
	})

	t.Run("bool is strict", func(t *testing.T) {
		if _, err := lib.coerceArg(Bool, 1); err == nil {
			t.Error("expected error for non-bool")
		}
	})

	t.Run("nil pointer is null", func(t *testing.T) {
		v, err := lib.coerceArg(Pointer, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !v.(Ptr).IsNull() {
			t.Errorf("got %v", v)
		}
	})
}

func TestWordCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		in   any
		want any
	}{
		{"bool", Bool, true, true},
		{"u8 narrowing", U8, uint8(0xFF), uint64(0xFF)},
		{"u64", U64, uint64(1) << 40, uint64(1) << 40},
		{"i32 sign extension", I32, int32(-5), int64(-5)},
		{"i64", I64, int64(-1), int64(-1)},
		{"f32", F32, float32(1.5), float32(1.5)},
		{"f64", F64, 2.25, 2.25},
		{"pointer", Pointer, Ptr(0x1000), Ptr(0x1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := encodeWord(tt.kind, tt.in)
			if err != nil {
				t.Fatal(err)
			}
			got := decodeWord(tt.kind, w)
			if got != tt.want {
				t.Errorf("round trip %v = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}

	t.Run("guest pointers must fit 32 bits", func(t *testing.T) {
		_, err := encodeWord(Pointer, Ptr(1)<<40)
		var unsupported *UnsupportedPointerError
		if !errors.As(err, &unsupported) {
			t.Errorf("expected UnsupportedPointerError, got %v", err)
		}
	})
}
