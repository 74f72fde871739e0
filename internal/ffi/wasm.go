package ffi

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"
	"unsafe"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/mocksoul/opentui/api/guest"
)

// wasmBackend serves calls through a guest module instantiated with wazero.
// The guest owns an isolated 32-bit linear memory, so every pointer crossing
// this backend is a guest offset, never a host address. Buffers handed to
// ptr are copied into guest memory through the guest's exported allocator.
type wasmBackend struct {
	logger  *zap.Logger
	ctx     context.Context
	runtime wazero.Runtime
	module  api.Module
	malloc  api.Function
	free    api.Function

	// One guest allocation per logical buffer while the library is open.
	views map[*byte]Ptr

	cbMu    sync.Mutex
	cbNext  uint32
	cbTable map[uint32]*wasmCallback
}

type wasmCallback struct {
	sig CallbackSignature
	fn  CallbackFunc
}

func newWASMBackend(logger *zap.Logger) *wasmBackend {
	return &wasmBackend{
		logger:  logger.With(zap.String("loader", "wasm")),
		ctx:     context.Background(),
		views:   make(map[*byte]Ptr),
		cbNext:  1,
		cbTable: make(map[uint32]*wasmCallback),
	}
}

func (b *wasmBackend) open(path string) error {
	bin, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	r := wazero.NewRuntime(b.ctx)
	b.runtime = r

	if _, err := wasi_snapshot_preview1.Instantiate(b.ctx, r); err != nil {
		r.Close(b.ctx)
		return fmt.Errorf("instantiate wasi: %w", err)
	}

	// The host dispatch module must exist before the guest so its import
	// resolves at load time.
	_, err = r.NewHostModuleBuilder(guest.HostModule).
		NewFunctionBuilder().WithFunc(b.dispatch).Export(guest.Dispatch).
		Instantiate(b.ctx)
	if err != nil {
		r.Close(b.ctx)
		return fmt.Errorf("instantiate host module: %w", err)
	}

	mod, err := r.Instantiate(b.ctx, bin)
	if err != nil {
		r.Close(b.ctx)
		return err
	}
	b.module = mod

	b.malloc = mod.ExportedFunction(guest.Malloc)
	b.free = mod.ExportedFunction(guest.Free)
	if b.malloc == nil || b.free == nil {
		r.Close(b.ctx)
		return fmt.Errorf("guest does not export %s/%s", guest.Malloc, guest.Free)
	}
	return nil
}

func (b *wasmBackend) resolve(name string, sym Symbol) (caller, error) {
	fn := b.module.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("guest does not export %q", name)
	}
	return func(args []any) (any, error) {
		words := make([]uint64, len(args))
		for i, a := range args {
			w, err := encodeWord(sym.Args[i], a)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			words[i] = w
		}
		results, err := fn.Call(b.ctx, words...)
		if err != nil {
			return nil, err
		}
		if sym.Returns == Void {
			return nil, nil
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("guest returned no value for %s result", sym.Returns)
		}
		return decodeWord(sym.Returns, results[0]), nil
	}, nil
}

func (b *wasmBackend) ptr(buf []byte) (Ptr, error) {
	key := unsafe.SliceData(buf)
	if p, ok := b.views[key]; ok {
		return p, nil
	}
	results, err := b.malloc.Call(b.ctx, uint64(len(buf)))
	if err != nil {
		return 0, fmt.Errorf("guest malloc: %w", err)
	}
	off := uint32(results[0])
	if off == 0 {
		return 0, fmt.Errorf("guest malloc failed for %d bytes", len(buf))
	}
	if !b.module.Memory().Write(off, buf) {
		return 0, &MemoryAccessError{Operation: "write", Address: uint64(off), Length: uint64(len(buf))}
	}
	p := Ptr(off)
	b.views[key] = p
	return p, nil
}

func (b *wasmBackend) read(p Ptr, n uint64) ([]byte, error) {
	if p > math.MaxUint32 || n > math.MaxUint32 {
		return nil, &MemoryAccessError{Operation: "read", Address: uint64(p), Length: n}
	}
	data, ok := b.module.Memory().Read(uint32(p), uint32(n))
	if !ok {
		return nil, &MemoryAccessError{Operation: "read", Address: uint64(p), Length: n}
	}
	// Read returns a view into guest memory; detach before the guest can
	// move or reuse it.
	out := make([]byte, n)
	copy(out, data)
	return out, nil
}

func (b *wasmBackend) offset(p Ptr, off uint64) (Ptr, error) {
	sum := uint64(p) + off
	if sum > math.MaxUint32 || sum < uint64(p) {
		return 0, &OffsetUnsupportedError{Pointer: p, Offset: off}
	}
	return Ptr(sum), nil
}

func (b *wasmBackend) newCallback(sig CallbackSignature, fn CallbackFunc) (*Callback, error) {
	b.cbMu.Lock()
	handle := b.cbNext
	b.cbNext++
	b.cbTable[handle] = &wasmCallback{sig: sig, fn: fn}
	b.cbMu.Unlock()

	return &Callback{
		ptr: Ptr(handle),
		release: func() {
			b.cbMu.Lock()
			delete(b.cbTable, handle)
			b.cbMu.Unlock()
		},
	}, nil
}

// dispatch is the host side of the guest's callback import. The guest hands
// over a callback handle and the offset of a packed argument block, one
// little-endian u64 slot per declared argument.
func (b *wasmBackend) dispatch(_ context.Context, mod api.Module, handle uint32, argsPtr uint32) uint64 {
	b.cbMu.Lock()
	cb := b.cbTable[handle]
	b.cbMu.Unlock()
	if cb == nil {
		b.logger.Error("Guest dispatched unknown callback", zap.Uint32("handle", handle))
		return 0
	}

	var args []any
	if len(cb.sig.Args) > 0 {
		block, ok := mod.Memory().Read(argsPtr, uint32(len(cb.sig.Args)*guest.DispatchSlotSize))
		if !ok {
			b.logger.Error("Guest callback argument block out of bounds",
				zap.Uint32("handle", handle),
				zap.Uint32("args_ptr", argsPtr),
			)
			return 0
		}
		args = decodeArgBlock(cb.sig.Args, block)
	}

	res := cb.fn(args)
	if cb.sig.Returns == Void {
		return 0
	}
	w, err := encodeWord(cb.sig.Returns, res)
	if err != nil {
		b.logger.Error("Guest callback returned unusable value",
			zap.Uint32("handle", handle),
			zap.Error(err),
		)
		return 0
	}
	return w
}

func (b *wasmBackend) close() error {
	for _, p := range b.views {
		if _, err := b.free.Call(b.ctx, uint64(p)); err != nil {
			b.logger.Warn("Guest free failed", zap.Uint64("ptr", uint64(p)), zap.Error(err))
		}
	}
	b.views = nil
	return b.runtime.Close(b.ctx)
}

// decodeArgBlock decodes a packed little-endian argument block, one u64
// slot per declared argument.
func decodeArgBlock(kinds []Kind, block []byte) []any {
	args := make([]any, len(kinds))
	for i, k := range kinds {
		word := binary.LittleEndian.Uint64(block[i*guest.DispatchSlotSize:])
		args[i] = decodeWord(k, word)
	}
	return args
}

// encodeWord packs a canonical value into the u64 stack slot wazero uses
// for every parameter type.
func encodeWord(k Kind, v any) (uint64, error) {
	switch k {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return 0, fmt.Errorf("expected bool, got %T", v)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case F32:
		f, err := toFloat(v)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(float32(f)), nil
	case F64:
		f, err := toFloat(v)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(f), nil
	case Pointer, Buffer:
		p, ok := v.(Ptr)
		if !ok {
			u, err := PointerValue(v)
			if err != nil {
				return 0, err
			}
			p = Ptr(u)
		}
		if p > math.MaxUint32 {
			return 0, &UnsupportedPointerError{Value: v}
		}
		return uint64(p), nil
	case I8, I16, I32:
		n, err := toInt64(v)
		if err != nil {
			return 0, err
		}
		return api.EncodeI32(int32(n)), nil
	case I64:
		n, err := toInt64(v)
		if err != nil {
			return 0, err
		}
		return api.EncodeI64(n), nil
	}
	return toUint64(v)
}

// decodeWord unpacks a u64 stack slot into the canonical value for its
// kind. Narrow integers arrive zero-padded; signed ones sign-extend from
// their declared width.
func decodeWord(k Kind, w uint64) any {
	switch k {
	case Bool:
		return w != 0
	case U8:
		return uint64(uint8(w))
	case U16:
		return uint64(uint16(w))
	case U32:
		return uint64(uint32(w))
	case U64:
		return w
	case USize:
		return uintptr(uint32(w))
	case I8:
		return int64(int8(w))
	case I16:
		return int64(int16(w))
	case I32:
		return int64(int32(w))
	case I64:
		return int64(w)
	case F32:
		return api.DecodeF32(w)
	case F64:
		return api.DecodeF64(w)
	case Pointer, Buffer:
		return Ptr(uint32(w))
	}
	return nil
}
