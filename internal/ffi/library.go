package ffi

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/mocksoul/opentui/internal/platform"
)

// Library is an open shared-library artifact with its resolved symbol table.
// Opening maps the artifact process-wide (native) or instantiates a guest
// (wasm); Close releases it. The caller owns the lifecycle: no symbol may be
// invoked after Close.
type Library struct {
	path    string
	logger  *zap.Logger
	backend backend
	syms    map[string]*Fn

	closeOnce sync.Once
	closeErr  error
}

// Fn is one callable resolved symbol.
type Fn struct {
	name string
	sym  Symbol
	call caller
	lib  *Library
}

// Option configures Dlopen.
type Option func(*openConfig)

type openConfig struct {
	backend    platform.Backend
	backendSet bool
	logger     *zap.Logger
}

// WithBackend pins the backend instead of detecting it.
func WithBackend(b platform.Backend) Option {
	return func(c *openConfig) {
		c.backend = b
		c.backendSet = true
	}
}

// WithLogger attaches a logger; defaults to zap.NewNop.
func WithLogger(logger *zap.Logger) Option {
	return func(c *openConfig) {
		c.logger = logger
	}
}

// Dlopen loads the library at path and resolves every symbol the table
// declares. The table may use either declaration shape and may be empty.
// A load failure or a single unresolved symbol fails the whole call with
// SymbolLoadError; there is no partial table.
func Dlopen(path string, table map[string]SymbolSpec, opts ...Option) (*Library, error) {
	cfg := openConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	normalized, err := NormalizeTable(table)
	if err != nil {
		return nil, err
	}

	if !cfg.backendSet {
		b, err := platform.Detect()
		if err != nil {
			return nil, err
		}
		cfg.backend = b
	}

	logger := cfg.logger.With(
		zap.String("component", "ffi"),
		zap.String("backend", cfg.backend.String()),
	)

	var be backend
	switch cfg.backend {
	case platform.BackendNative:
		be = newNativeBackend(logger)
	case platform.BackendWASM:
		be = newWASMBackend(logger)
	default:
		return nil, &platform.UnsupportedRuntimeError{Requested: cfg.backend.String()}
	}

	if err := be.open(path); err != nil {
		return nil, &SymbolLoadError{Path: path, Err: err}
	}

	lib := &Library{
		path:    path,
		logger:  logger,
		backend: be,
		syms:    make(map[string]*Fn, len(normalized)),
	}

	for name, sym := range normalized {
		call, err := be.resolve(name, sym)
		if err != nil {
			be.close()
			return nil, &SymbolLoadError{Path: path, Symbol: name, Err: err}
		}
		lib.syms[name] = &Fn{name: name, sym: sym, call: call, lib: lib}
	}

	logger.Info("Library loaded",
		zap.String("path", path),
		zap.Int("symbols", len(lib.syms)),
	)
	return lib, nil
}

// Symbol returns the callable for a declared name, or nil if the table
// never declared it.
func (l *Library) Symbol(name string) *Fn {
	return l.syms[name]
}

// Symbols returns every resolved callable keyed by name.
func (l *Library) Symbols() map[string]*Fn {
	return l.syms
}

// Ptr returns a stable pointer for buf, cached per buffer identity for the
// lifetime of the library. A nil or empty buffer resolves to null.
func (l *Library) Ptr(buf []byte) (Ptr, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	return l.backend.ptr(buf)
}

// ReadBytes copies byteLength bytes starting at p + byteOffset into a fresh
// buffer. Offset arithmetic is applied only when byteOffset > 0; a backend
// that cannot offset the pointer fails with OffsetUnsupportedError. A null
// pointer with nonzero length fails with NullPointerError.
func (l *Library) ReadBytes(p Ptr, byteOffset, byteLength uint64) ([]byte, error) {
	if byteLength == 0 {
		return []byte{}, nil
	}
	if p.IsNull() {
		return nil, &NullPointerError{Length: byteLength}
	}
	if byteOffset > 0 {
		op, err := l.backend.offset(p, byteOffset)
		if err != nil {
			return nil, err
		}
		p = op
	}
	return l.backend.read(p, byteLength)
}

// NewCallback builds a trampoline native code can call. The callback is
// owned by the caller and must be closed exactly once.
func (l *Library) NewCallback(sig CallbackSignature, fn CallbackFunc) (*Callback, error) {
	return l.backend.newCallback(sig, fn)
}

// Close unmaps the library. Idempotent; symbols are unusable afterwards.
func (l *Library) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.backend.close()
		l.logger.Info("Library closed", zap.String("path", l.path))
	})
	return l.closeErr
}

// Name returns the symbol's declared name.
func (f *Fn) Name() string { return f.name }

// Nonblocking reports the declaration's nonblocking hint.
func (f *Fn) Nonblocking() bool { return f.sym.Nonblocking }

// Call invokes the symbol. Arguments are coerced per the declared parameter
// kinds; for pointer-typed parameters a raw []byte is accepted and resolved
// to a pointer transparently, so callers never branch on the backend's
// pointer representation. The result is the canonical Go value for the
// declared return kind, or nil for void.
func (f *Fn) Call(args ...any) (any, error) {
	if len(args) != len(f.sym.Args) {
		return nil, &CallError{Symbol: f.name,
			Err: fmt.Errorf("got %d arguments, want %d", len(args), len(f.sym.Args))}
	}
	coerced := make([]any, len(args))
	for i, a := range args {
		v, err := f.lib.coerceArg(f.sym.Args[i], a)
		if err != nil {
			return nil, &CallError{Symbol: f.name, Err: fmt.Errorf("argument %d: %w", i, err)}
		}
		coerced[i] = v
	}
	out, err := f.call(coerced)
	if err != nil {
		return nil, &CallError{Symbol: f.name, Err: err}
	}
	return out, nil
}

// coerceArg normalizes one argument to the canonical value for its declared
// kind: bool, uint8..uint64, int8..int64, float32/float64, or Ptr.
func (l *Library) coerceArg(k Kind, v any) (any, error) {
	switch k {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil

	case Pointer, Buffer:
		switch p := v.(type) {
		case nil:
			return Ptr(0), nil
		case []byte:
			return l.Ptr(p)
		}
		u, err := PointerValue(v)
		if err != nil {
			return nil, err
		}
		return Ptr(u), nil

	case F32:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case F64:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	// Integer kinds.
	if k.Signed() {
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		switch k {
		case I8:
			return int8(n), nil
		case I16:
			return int16(n), nil
		case I32:
			return int32(n), nil
		}
		return n, nil
	}
	n, err := toUint64(v)
	if err != nil {
		return nil, err
	}
	switch k {
	case U8:
		return uint8(n), nil
	case U16:
		return uint16(n), nil
	case U32:
		return uint32(n), nil
	case USize:
		return uintptr(n), nil
	}
	return n, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case uint:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("non-integral value %v for integer parameter", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case uintptr:
		return uint64(n), nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d for unsigned parameter", n)
	}
	return uint64(n), nil
}

func toFloat(v any) (float64, error) {
	switch f := v.(type) {
	case float32:
		return float64(f), nil
	case float64:
		return f, nil
	case int:
		return float64(f), nil
	case int64:
		return float64(f), nil
	case uint64:
		return float64(f), nil
	}
	return 0, fmt.Errorf("expected float, got %T", v)
}
