package ffi

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"
)

// nativeBackend serves calls through a dlopen'd shared object. Pointers are
// raw process addresses; arguments flow through dynamically built typed
// functions so floats and integers both take their proper ABI registers.
type nativeBackend struct {
	logger *zap.Logger
	handle uintptr

	// One stable address per logical buffer while the library is open.
	views map[*byte]Ptr
}

func newNativeBackend(logger *zap.Logger) *nativeBackend {
	return &nativeBackend{
		logger: logger.With(zap.String("loader", "native")),
		views:  make(map[*byte]Ptr),
	}
}

func (b *nativeBackend) open(path string) error {
	h, err := purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_LOCAL)
	if err != nil {
		return err
	}
	b.handle = h
	return nil
}

func (b *nativeBackend) resolve(name string, sym Symbol) (caller, error) {
	addr, err := purego.Dlsym(b.handle, name)
	if err != nil {
		return nil, err
	}
	if addr == 0 {
		return nil, fmt.Errorf("symbol %q resolved to null", name)
	}

	ft, err := goFuncType(sym)
	if err != nil {
		return nil, err
	}
	fnPtr := reflect.New(ft)
	purego.RegisterFunc(fnPtr.Interface(), addr)
	fn := fnPtr.Elem()

	return func(args []any) (any, error) {
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			in[i] = reflect.ValueOf(a).Convert(ft.In(i))
		}
		out := fn.Call(in)
		if sym.Returns == Void {
			return nil, nil
		}
		return decodeReflect(sym.Returns, out[0]), nil
	}, nil
}

func (b *nativeBackend) ptr(buf []byte) (Ptr, error) {
	key := unsafe.SliceData(buf)
	if p, ok := b.views[key]; ok {
		return p, nil
	}
	p := Ptr(uintptr(unsafe.Pointer(key)))
	b.views[key] = p
	return p, nil
}

func (b *nativeBackend) read(p Ptr, n uint64) ([]byte, error) {
	if p.IsNull() {
		return nil, &NullPointerError{Length: n}
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(p))), n)
	out := make([]byte, n)
	copy(out, src)
	return out, nil
}

func (b *nativeBackend) offset(p Ptr, off uint64) (Ptr, error) {
	return p + Ptr(off), nil
}

func (b *nativeBackend) newCallback(sig CallbackSignature, fn CallbackFunc) (*Callback, error) {
	ft, err := goFuncType(Symbol{Args: sig.Args, Returns: sig.Returns})
	if err != nil {
		return nil, err
	}
	trampoline := reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		args := make([]any, len(in))
		for i, v := range in {
			args[i] = decodeReflect(sig.Args[i], v)
		}
		res := fn(args)
		if sig.Returns == Void {
			return nil
		}
		return []reflect.Value{encodeReflect(sig.Returns, ft.Out(0), res)}
	})
	addr := purego.NewCallback(trampoline.Interface())

	// purego trampoline slots are a fixed process-wide pool and cannot be
	// returned to it; Close only invalidates the handle on our side.
	return &Callback{ptr: Ptr(addr), release: func() {}}, nil
}

func (b *nativeBackend) close() error {
	b.views = nil
	if b.handle == 0 {
		return nil
	}
	err := purego.Dlclose(b.handle)
	b.handle = 0
	return err
}

// goFuncType builds the reflect signature matching a symbol declaration.
func goFuncType(sym Symbol) (reflect.Type, error) {
	in := make([]reflect.Type, len(sym.Args))
	for i, k := range sym.Args {
		t, err := goType(k)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		in[i] = t
	}
	var out []reflect.Type
	if sym.Returns != Void {
		t, err := goType(sym.Returns)
		if err != nil {
			return nil, fmt.Errorf("return: %w", err)
		}
		out = []reflect.Type{t}
	}
	return reflect.FuncOf(in, out, false), nil
}

func goType(k Kind) (reflect.Type, error) {
	switch k {
	case Bool:
		return reflect.TypeOf(false), nil
	case U8:
		return reflect.TypeOf(uint8(0)), nil
	case I8:
		return reflect.TypeOf(int8(0)), nil
	case U16:
		return reflect.TypeOf(uint16(0)), nil
	case I16:
		return reflect.TypeOf(int16(0)), nil
	case U32:
		return reflect.TypeOf(uint32(0)), nil
	case I32:
		return reflect.TypeOf(int32(0)), nil
	case U64:
		return reflect.TypeOf(uint64(0)), nil
	case I64:
		return reflect.TypeOf(int64(0)), nil
	case F32:
		return reflect.TypeOf(float32(0)), nil
	case F64:
		return reflect.TypeOf(float64(0)), nil
	case Pointer, Buffer, USize:
		return reflect.TypeOf(uintptr(0)), nil
	}
	return nil, fmt.Errorf("type %s cannot cross the call boundary", k)
}

// decodeReflect turns a reflect value from the native side into the
// canonical Go value for its kind.
func decodeReflect(k Kind, v reflect.Value) any {
	switch k {
	case Bool:
		return v.Bool()
	case U8, U16, U32, U64:
		return v.Uint()
	case USize:
		return uintptr(v.Uint())
	case I8, I16, I32, I64:
		return v.Int()
	case F32:
		return float32(v.Float())
	case F64:
		return v.Float()
	case Pointer, Buffer:
		return Ptr(v.Uint())
	}
	return nil
}

// encodeReflect turns a canonical callback return into the reflect value
// the trampoline signature requires.
func encodeReflect(k Kind, t reflect.Type, v any) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v).Convert(t)
}
