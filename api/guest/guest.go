package guest

// ABI contract between the host and a renderer artifact compiled to Wasm.
//
// NOTE: uint32 is used for pointers and lengths because WebAssembly uses a
// 32-bit linear memory model. Pointers handed across this boundary are
// offsets into the guest's linear memory, never host addresses.

// Names the host expects the guest to export. A guest built with the Go
// toolchain declares them with //go:wasmexport; a C guest exports them
// directly.
//
// Every declared library symbol must be exported under its declared name
// with the wasm signature derived from its declaration: i32 for pointers
// and sizes, i32/i64/f32/f64 for scalars.
const (
	// Malloc allocates length bytes in guest memory and returns the
	// offset, or 0 when the guest is out of memory. The host uses it to
	// place argument buffers before a call.
	//
	// //go:wasmexport opentui_malloc
	// func opentuiMalloc(length uint32) uint32
	Malloc = "opentui_malloc"

	// Free releases an allocation previously returned by Malloc.
	//
	// //go:wasmexport opentui_free
	// func opentuiFree(ptr uint32)
	Free = "opentui_free"
)

// Host module the guest may import. The host instantiates it before the
// guest so imports resolve at load time.
const (
	// HostModule is the import namespace for host-provided functions.
	HostModule = "opentui_host"

	// Dispatch invokes a host-registered callback. The guest passes the
	// callback handle it was given and the offset of a packed
	// little-endian argument block, one u64 slot per declared argument.
	// The result comes back widened to u64.
	//
	// func dispatch(handle uint32, argsPtr uint32) uint64
	Dispatch = "opentui_dispatch"

	// DispatchSlotSize is the width of one argument slot in the block
	// handed to Dispatch.
	DispatchSlotSize = 8
)
