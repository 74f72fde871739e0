// Package render is the typed surface over the native rendering library.
// The library itself is opaque: this package only declares its symbol table
// and the packed argument structs crossing the boundary, then wraps the
// resolved symbols in a Renderer.
package render

import "github.com/mocksoul/opentui/internal/ffi"

// Symbols declares every renderer entry point. Both accepted declaration
// shapes appear here; they normalize identically.
func Symbols() map[string]ffi.SymbolSpec {
	return map[string]ffi.SymbolSpec{
		"renderer_create": {
			Args:    []string{"pointer"},
			Returns: "pointer",
		},
		"renderer_resize": {
			Args:    []string{"pointer", "u32", "u32"},
			Returns: "bool",
		},
		"renderer_draw_text": {
			Parameters: []string{"pointer", "pointer"},
			Result:     "bool",
		},
		"renderer_flush": {
			Parameters:  []string{"pointer"},
			Nonblocking: true,
		},
		"renderer_set_cursor": {
			Args:    []string{"pointer", "u32", "u32", "u8", "bool"},
			Returns: "void",
		},
		"renderer_update_cells": {
			Parameters: []string{"pointer", "pointer", "u32"},
			Result:     "bool",
		},
		"renderer_destroy": {
			Args: []string{"pointer"},
		},
	}
}
