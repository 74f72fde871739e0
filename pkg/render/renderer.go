package render

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/mocksoul/opentui/internal/ffi"
	"github.com/mocksoul/opentui/internal/platform"
)

// Renderer wraps the loaded rendering library behind typed methods. One
// Dlopen at Open, pack/unpack at every boundary crossing, one Close.
//
// Single-threaded by contract: callers serialize access the same way they
// would serialize writes to a terminal.
type Renderer struct {
	lib     *ffi.Library
	structs *Structs
	handle  ffi.Ptr
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	backend    platform.Backend
	backendSet bool
	logger     *zap.Logger
	width      uint32
	height     uint32
	title      string
}

// WithBackend pins the loader backend instead of detecting it.
func WithBackend(b platform.Backend) Option {
	return func(c *openConfig) {
		c.backend = b
		c.backendSet = true
	}
}

// WithLogger attaches a logger; defaults to zap.NewNop.
func WithLogger(logger *zap.Logger) Option {
	return func(c *openConfig) { c.logger = logger }
}

// WithSize sets the initial terminal size.
func WithSize(width, height uint32) Option {
	return func(c *openConfig) {
		c.width = width
		c.height = height
	}
}

// WithTitle sets the terminal title.
func WithTitle(title string) Option {
	return func(c *openConfig) { c.title = title }
}

// Open loads the rendering library at path and creates a renderer in it.
func Open(path string, opts ...Option) (*Renderer, error) {
	cfg := openConfig{logger: zap.NewNop(), width: 80, height: 24}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.backendSet {
		b, err := platform.Detect()
		if err != nil {
			return nil, err
		}
		cfg.backend = b
	}

	libOpts := []ffi.Option{ffi.WithBackend(cfg.backend), ffi.WithLogger(cfg.logger)}
	lib, err := ffi.Dlopen(path, Symbols(), libOpts...)
	if err != nil {
		return nil, err
	}

	// The wasm guest is a 32-bit target regardless of the host.
	ptrWidth := platform.PointerWidth()
	if cfg.backend == platform.BackendWASM {
		ptrWidth = 4
	}
	structs, err := NewStructs(ptrWidth)
	if err != nil {
		lib.Close()
		return nil, err
	}

	r := &Renderer{
		lib:     lib,
		structs: structs,
		logger:  cfg.logger.With(zap.String("component", "render")),
	}

	packed, err := structs.InitOptions.Pack(lib, map[string]any{
		"width":  cfg.width,
		"height": cfg.height,
		"title":  cfg.title,
	})
	if err != nil {
		lib.Close()
		return nil, err
	}
	out, err := lib.Symbol("renderer_create").Call(packed.Data)
	runtime.KeepAlive(packed)
	if err != nil {
		lib.Close()
		return nil, err
	}
	handle := out.(ffi.Ptr)
	if handle.IsNull() {
		lib.Close()
		return nil, fmt.Errorf("renderer_create returned null")
	}
	r.handle = handle

	r.logger.Info("Renderer created",
		zap.Uint32("width", cfg.width),
		zap.Uint32("height", cfg.height),
	)
	return r, nil
}

// Resize changes the renderer's terminal dimensions.
func (r *Renderer) Resize(width, height uint32) error {
	out, err := r.lib.Symbol("renderer_resize").Call(r.handle, width, height)
	if err != nil {
		return err
	}
	if !out.(bool) {
		return fmt.Errorf("renderer rejected resize to %dx%d", width, height)
	}
	return nil
}

// DrawText draws a UTF-8 string at a cell position.
func (r *Renderer) DrawText(x, y uint32, fg, bg uint32, text string) error {
	packed, err := r.structs.DrawTextRequest.Pack(r.lib, map[string]any{
		"x":    x,
		"y":    y,
		"fg":   fg,
		"bg":   bg,
		"text": text,
	})
	if err != nil {
		return err
	}
	out, err := r.lib.Symbol("renderer_draw_text").Call(r.handle, packed.Data)
	runtime.KeepAlive(packed)
	if err != nil {
		return err
	}
	if !out.(bool) {
		return fmt.Errorf("renderer rejected draw_text at (%d,%d)", x, y)
	}
	return nil
}

// UpdateCells applies a batch of cell updates in one call.
func (r *Renderer) UpdateCells(cells []Cell) error {
	if len(cells) == 0 {
		return nil
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c.fields()
	}
	packed, err := r.structs.CellUpdate.PackList(r.lib, values)
	if err != nil {
		return err
	}
	out, err := r.lib.Symbol("renderer_update_cells").Call(r.handle, packed.Data, uint32(len(cells)))
	runtime.KeepAlive(packed)
	if err != nil {
		return err
	}
	if !out.(bool) {
		return fmt.Errorf("renderer rejected cell batch of %d", len(cells))
	}
	return nil
}

// SetCursor moves the cursor and sets its style and visibility.
func (r *Renderer) SetCursor(x, y uint32, style string, visible bool) error {
	v, err := r.structs.CursorStyle.To(style)
	if err != nil {
		return err
	}
	_, err = r.lib.Symbol("renderer_set_cursor").Call(r.handle, x, y, uint8(v), visible)
	return err
}

// Flush presents everything drawn since the last flush.
func (r *Renderer) Flush() error {
	_, err := r.lib.Symbol("renderer_flush").Call(r.handle)
	return err
}

// Close destroys the renderer and unmaps the library. Idempotent.
func (r *Renderer) Close() error {
	r.closeOnce.Do(func() {
		if _, err := r.lib.Symbol("renderer_destroy").Call(r.handle); err != nil {
			r.logger.Warn("renderer_destroy failed", zap.Error(err))
		}
		r.closeErr = r.lib.Close()
	})
	return r.closeErr
}
