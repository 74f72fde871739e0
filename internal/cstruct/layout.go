package cstruct

import (
	"go.uber.org/zap"

	"github.com/mocksoul/opentui/internal/ffi"
	"github.com/mocksoul/opentui/internal/platform"
)

// Entry is the resolved placement of one field.
type Entry struct {
	Field  Field
	Offset int
	Size   int
	Align  int
}

// Struct is the immutable, reusable artifact of layout resolution: a fixed
// byte size plus pack/unpack operations. Build once per logical shape and
// share across all uses.
type Struct struct {
	entries   []Entry
	byName    map[string]int
	lengthFor map[string]string // payload field -> length field
	size      int
	ptrWidth  int
	reduce    func(any) (map[string]any, error)
	logger    *zap.Logger
}

// Option configures DefineStruct.
type Option func(*structConfig)

type structConfig struct {
	ptrWidth int
	reduce   func(any) (map[string]any, error)
	logger   *zap.Logger
}

// WithPointerWidth overrides the detected pointer width, fixing the layout
// for a foreign target such as a 32-bit wasm guest.
func WithPointerWidth(w int) Option {
	return func(c *structConfig) { c.ptrWidth = w }
}

// WithReduce installs a transform applied to the whole input value before
// packing, normalizing an arbitrary shape into a field-keyed mapping.
func WithReduce(fn func(any) (map[string]any, error)) Option {
	return func(c *structConfig) { c.reduce = fn }
}

// WithLogger attaches a logger; defaults to zap.NewNop.
func WithLogger(logger *zap.Logger) Option {
	return func(c *structConfig) { c.logger = logger }
}

// DefineStruct resolves layout deterministically in declaration order:
// advance to each field's alignment class, place it, advance by its size,
// then round the total up to a multiple of the pointer width. Identical
// input always yields identical layout.
func DefineStruct(fields []Field, opts ...Option) (*Struct, error) {
	cfg := structConfig{
		ptrWidth: platform.PointerWidth(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Struct{
		entries:   make([]Entry, 0, len(fields)),
		byName:    make(map[string]int, len(fields)),
		lengthFor: make(map[string]string),
		ptrWidth:  cfg.ptrWidth,
		reduce:    cfg.reduce,
		logger:    cfg.logger.With(zap.String("component", "cstruct")),
	}

	offset := 0
	for _, f := range fields {
		if f.Name == "" {
			return nil, &DefinitionError{Msg: "unnamed field"}
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, &DefinitionError{Field: f.Name, Msg: "duplicate name"}
		}

		size, err := s.fieldSize(f)
		if err != nil {
			return nil, err
		}
		align := size
		if align > s.ptrWidth {
			align = s.ptrWidth
		}
		offset = alignUp(offset, align)

		s.byName[f.Name] = len(s.entries)
		s.entries = append(s.entries, Entry{Field: f, Offset: offset, Size: size, Align: align})
		offset += size
	}
	s.size = alignUp(offset, s.ptrWidth)

	if err := s.resolveLengthRelations(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Struct) fieldSize(f Field) (int, error) {
	switch f.Type.class {
	case classString:
		// The slot holds a pointer; the payload lives out of line.
		return s.ptrWidth, nil
	case classArray:
		if !f.Type.kind.Integer() && !f.Type.kind.Float() {
			return 0, &DefinitionError{Field: f.Name, Msg: "array element must be an integer or float"}
		}
		return s.ptrWidth, nil
	case classEnum:
		return f.Type.kind.Size(s.ptrWidth), nil
	}
	if f.Type.kind == ffi.Void {
		return 0, &DefinitionError{Field: f.Name, Msg: "void is not a field type"}
	}
	sz := f.Type.kind.Size(s.ptrWidth)
	if sz == 0 {
		return 0, &DefinitionError{Field: f.Name, Msg: "unsized field type"}
	}
	return sz, nil
}

func (s *Struct) resolveLengthRelations() error {
	for _, e := range s.entries {
		f := e.Field
		if f.LengthOf == "" {
			continue
		}
		if f.Type.class != classScalar && f.Type.class != classEnum {
			return &DefinitionError{Field: f.Name, Msg: "length field must be a primitive or enum"}
		}
		if !f.Type.kind.Integer() {
			return &DefinitionError{Field: f.Name, Msg: "length field must be an integer"}
		}
		idx, ok := s.byName[f.LengthOf]
		if !ok {
			return &DefinitionError{Field: f.Name, Msg: "lengthOf references unknown field " + f.LengthOf}
		}
		target := s.entries[idx].Field
		if target.Type.class != classString && target.Type.class != classArray {
			return &DefinitionError{Field: f.Name, Msg: "lengthOf target " + f.LengthOf + " is not a string or array"}
		}
		if prev, dup := s.lengthFor[f.LengthOf]; dup {
			return &DefinitionError{Field: f.Name, Msg: "field " + f.LengthOf + " already measured by " + prev}
		}
		s.lengthFor[f.LengthOf] = f.Name
	}

	// Arrays carry no terminator, so an element count is unrecoverable
	// without a declared relation. Strings fall back to their NUL.
	for _, e := range s.entries {
		if e.Field.Type.class == classArray {
			if _, ok := s.lengthFor[e.Field.Name]; !ok {
				return &DefinitionError{Field: e.Field.Name, Msg: "array field has no length field"}
			}
		}
	}
	return nil
}

// Size returns the struct's total byte size, a multiple of the pointer
// width.
func (s *Struct) Size() int { return s.size }

// PointerWidth returns the pointer width the layout was resolved for.
func (s *Struct) PointerWidth() int { return s.ptrWidth }

// Entries returns the resolved layout in declaration order.
func (s *Struct) Entries() []Entry { return s.entries }

// Entry returns the placement of a named field.
func (s *Struct) Entry(name string) (Entry, bool) {
	idx, ok := s.byName[name]
	if !ok {
		return Entry{}, false
	}
	return s.entries[idx], true
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
