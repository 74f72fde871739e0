package ffi

// caller invokes one resolved symbol with canonical argument values and
// returns the canonical result (nil for void).
type caller func(args []any) (any, error)

// backend is the strategy interface both loaders implement. The shape is
// identical; only the pointer representation and the call mechanics differ.
type backend interface {
	// open maps the library artifact at path.
	open(path string) error

	// resolve binds one declared symbol. Called eagerly for every table
	// entry during Dlopen; any failure aborts the whole table.
	resolve(name string, sym Symbol) (caller, error)

	// ptr returns a stable pointer for the buffer. Repeated calls for the
	// same buffer return the same pointer for as long as the library is
	// open.
	ptr(buf []byte) (Ptr, error)

	// read copies n bytes starting at p.
	read(p Ptr, n uint64) ([]byte, error)

	// offset applies pointer arithmetic, failing with
	// OffsetUnsupportedError when the backend cannot.
	offset(p Ptr, off uint64) (Ptr, error)

	// newCallback builds a native-callable trampoline.
	newCallback(sig CallbackSignature, fn CallbackFunc) (*Callback, error)

	// close unmaps the library and frees backend resources.
	close() error
}
