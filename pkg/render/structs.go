package render

import (
	"github.com/mocksoul/opentui/internal/cstruct"
	"github.com/mocksoul/opentui/internal/ffi"
)

// CursorStyle members accepted by SetCursor.
const (
	CursorBlock     = "block"
	CursorUnderline = "underline"
	CursorBar       = "bar"
)

// Structs holds the packed argument layouts for one target pointer width.
// A native library uses the host width; a wasm guest is always 32-bit, so
// the same declarations resolve to different layouts per backend.
type Structs struct {
	CursorStyle *cstruct.Enum

	// InitOptions configures renderer_create.
	InitOptions *cstruct.Struct

	// DrawTextRequest carries one renderer_draw_text call. The text length
	// is derived, never caller-supplied.
	DrawTextRequest *cstruct.Struct

	// CellUpdate is one cell in a renderer_update_cells batch, packed
	// contiguously with PackList.
	CellUpdate *cstruct.Struct
}

// NewStructs resolves the argument layouts for the given pointer width.
func NewStructs(ptrWidth int, opts ...cstruct.Option) (*Structs, error) {
	cursor, err := cstruct.DefineEnum("cursor_style", ffi.U8, map[string]int64{
		CursorBlock:     0,
		CursorUnderline: 1,
		CursorBar:       2,
	})
	if err != nil {
		return nil, err
	}

	opts = append([]cstruct.Option{cstruct.WithPointerWidth(ptrWidth)}, opts...)

	initOptions, err := cstruct.DefineStruct([]cstruct.Field{
		{Name: "width", Type: cstruct.Scalar(ffi.U32)},
		{Name: "height", Type: cstruct.Scalar(ffi.U32)},
		{Name: "title", Type: cstruct.CString(), Optional: true},
		{Name: "cursorStyle", Type: cstruct.EnumOf(cursor), Default: CursorBlock},
		{Name: "altScreen", Type: cstruct.Scalar(ffi.Bool), Default: true},
	}, opts...)
	if err != nil {
		return nil, err
	}

	drawText, err := cstruct.DefineStruct([]cstruct.Field{
		{Name: "x", Type: cstruct.Scalar(ffi.U32)},
		{Name: "y", Type: cstruct.Scalar(ffi.U32)},
		{Name: "fg", Type: cstruct.Scalar(ffi.U32)},
		{Name: "bg", Type: cstruct.Scalar(ffi.U32)},
		{Name: "text", Type: cstruct.CString()},
		{Name: "textLen", Type: cstruct.Scalar(ffi.U32), LengthOf: "text"},
	}, opts...)
	if err != nil {
		return nil, err
	}

	cellUpdate, err := cstruct.DefineStruct([]cstruct.Field{
		{Name: "x", Type: cstruct.Scalar(ffi.U32)},
		{Name: "y", Type: cstruct.Scalar(ffi.U32)},
		{Name: "ch", Type: cstruct.Scalar(ffi.U32)},
		{Name: "fg", Type: cstruct.Scalar(ffi.U32)},
		{Name: "bg", Type: cstruct.Scalar(ffi.U32)},
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &Structs{
		CursorStyle:     cursor,
		InitOptions:     initOptions,
		DrawTextRequest: drawText,
		CellUpdate:      cellUpdate,
	}, nil
}

// Cell is one terminal cell in an update batch.
type Cell struct {
	X, Y   uint32
	Ch     rune
	Fg, Bg uint32
}

func (c Cell) fields() map[string]any {
	return map[string]any{
		"x":  c.X,
		"y":  c.Y,
		"ch": uint32(c.Ch),
		"fg": c.Fg,
		"bg": c.Bg,
	}
}
