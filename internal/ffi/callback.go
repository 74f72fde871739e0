package ffi

// CallbackSignature describes a Go function exposed to native code as a
// callable pointer.
type CallbackSignature struct {
	Args    []Kind
	Returns Kind
}

// CallbackFunc receives arguments already decoded to canonical Go values
// (int64/uint64 for integers, float32/float64, bool, Ptr for pointers) and
// returns a value matching the signature's return kind, or nil for void.
type CallbackFunc func(args []any) any

// Callback owns a native-callable trampoline for a Go function.
//
// The trampoline stays valid until Close. The shim performs no automatic
// cleanup: a leaked callback leaks the underlying native resource, and
// using the pointer after Close, or closing twice, is a programming error
// and panics rather than being reported as a recoverable condition.
type Callback struct {
	ptr     Ptr
	release func()
	closed  bool
}

// Ptr returns the pointer native code may call through.
func (c *Callback) Ptr() Ptr {
	if c.closed {
		panic("ffi: callback used after Close")
	}
	return c.ptr
}

// Close releases the trampoline. Exactly one Close per callback.
func (c *Callback) Close() {
	if c.closed {
		panic("ffi: callback closed twice")
	}
	c.closed = true
	if c.release != nil {
		c.release()
	}
}
