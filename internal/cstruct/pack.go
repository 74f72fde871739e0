package cstruct

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"

	"go.uber.org/zap"

	"github.com/mocksoul/opentui/internal/ffi"
)

// Packed is the result of packing one value or a contiguous list of values.
// Out-of-line string and array payloads allocated during packing are
// retained on the result: a caller holding the Packed keeps every payload a
// native call may read alive until the call returns.
type Packed struct {
	Data     []byte
	retained [][]byte
}

// Retained returns the out-of-line payload buffers the packed data points
// into.
func (p *Packed) Retained() [][]byte { return p.retained }

// Pack serializes value into a freshly allocated buffer laid out per the
// struct definition. The value is a field-keyed mapping unless a reduce
// transform was configured; absent fields fall back to their declared
// default, then to the type's zero value. Length fields are always
// recomputed from the field they measure.
func (s *Struct) Pack(mem Memory, value any) (*Packed, error) {
	p := &Packed{Data: make([]byte, s.size)}
	if err := s.packInto(mem, value, p.Data, &p.retained); err != nil {
		return nil, err
	}
	return p, nil
}

// PackList packs values contiguously at a fixed stride of Size bytes,
// aggregating every element's retained payloads on the one result.
func (s *Struct) PackList(mem Memory, values []any) (*Packed, error) {
	p := &Packed{Data: make([]byte, s.size*len(values))}
	for i, v := range values {
		if err := s.packInto(mem, v, p.Data[i*s.size:(i+1)*s.size], &p.retained); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return p, nil
}

func (s *Struct) packInto(mem Memory, value any, buf []byte, retained *[][]byte) error {
	fields, err := s.reduceValue(value)
	if err != nil {
		return err
	}

	// Resolve every field's effective value first so length fields can be
	// derived from the value actually being encoded.
	vals := make([]any, len(s.entries))
	for i, e := range s.entries {
		v, ok := fields[e.Field.Name]
		if !ok {
			v = e.Field.Default
		}
		if e.Field.PackTransform != nil {
			v = e.Field.PackTransform(v)
		}
		vals[i] = v
	}
	for i, e := range s.entries {
		if e.Field.LengthOf == "" {
			continue
		}
		n, err := encodedLength(vals[s.byName[e.Field.LengthOf]])
		if err != nil {
			return &FieldError{Field: e.Field.Name, Err: err}
		}
		vals[i] = n
	}

	for i, e := range s.entries {
		if err := s.packField(mem, e, vals[i], buf, retained); err != nil {
			return &FieldError{Field: e.Field.Name, Err: err}
		}
	}
	return nil
}

func (s *Struct) reduceValue(value any) (map[string]any, error) {
	if s.reduce != nil {
		return s.reduce(value)
	}
	if value == nil {
		return nil, nil
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected map[string]any, got %T", value)
	}
	return m, nil
}

func (s *Struct) packField(mem Memory, e Entry, v any, buf []byte, retained *[][]byte) error {
	switch e.Field.Type.class {
	case classScalar:
		return s.writeScalar(buf, e.Offset, e.Field.Type.kind, v)

	case classEnum:
		n, err := resolveEnum(e.Field.Type.enum, v)
		if err != nil {
			return err
		}
		return s.writeScalar(buf, e.Offset, e.Field.Type.kind, n)

	case classString:
		str, err := stringValue(v)
		if err != nil {
			return err
		}
		if str == "" {
			return s.writePointer(buf, e.Offset, 0)
		}
		payload := append([]byte(str), 0)
		p, err := mem.Ptr(payload)
		if err != nil {
			return err
		}
		*retained = append(*retained, payload)
		return s.writePointer(buf, e.Offset, p)

	case classArray:
		elems, err := sliceValue(v)
		if err != nil {
			return err
		}
		if elems.Len() == 0 {
			return s.writePointer(buf, e.Offset, 0)
		}
		elemSize := e.Field.Type.kind.Size(s.ptrWidth)
		payload := make([]byte, elems.Len()*elemSize)
		for i := 0; i < elems.Len(); i++ {
			if err := s.writeScalar(payload, i*elemSize, e.Field.Type.kind, elems.Index(i).Interface()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		p, err := mem.Ptr(payload)
		if err != nil {
			return err
		}
		*retained = append(*retained, payload)
		return s.writePointer(buf, e.Offset, p)
	}
	return errors.New("unreachable field class")
}

// Unpack deserializes one struct's worth of data, field by field in layout
// order. String and array fields resolve their stored pointer through mem;
// a null pointer or zero resolved length yields the empty value. Length
// fields are recomputed from the payload they measure; a stored value that
// disagrees is reported and overridden.
func (s *Struct) Unpack(mem Memory, data []byte) (map[string]any, error) {
	if len(data) < s.size {
		return nil, fmt.Errorf("buffer is %d bytes, struct needs %d", len(data), s.size)
	}

	out := make(map[string]any, len(s.entries))

	// Scalars and enums first so length fields are available to the
	// pointer-backed fields that need them.
	for _, e := range s.entries {
		switch e.Field.Type.class {
		case classScalar:
			out[e.Field.Name] = s.readScalar(data, e.Offset, e.Field.Type.kind)
		case classEnum:
			raw := s.readScalar(data, e.Offset, e.Field.Type.kind)
			name, err := e.Field.Type.enum.From(asInt64(raw))
			if err != nil {
				return nil, &FieldError{Field: e.Field.Name, Err: err}
			}
			out[e.Field.Name] = name
		}
	}

	for _, e := range s.entries {
		switch e.Field.Type.class {
		case classString:
			v, err := s.unpackString(mem, e, data, out)
			if err != nil {
				return nil, &FieldError{Field: e.Field.Name, Err: err}
			}
			out[e.Field.Name] = v
		case classArray:
			v, err := s.unpackArray(mem, e, data, out)
			if err != nil {
				return nil, &FieldError{Field: e.Field.Name, Err: err}
			}
			out[e.Field.Name] = v
		}
	}

	// The payload's actual decoded length is authoritative.
	for _, e := range s.entries {
		if e.Field.LengthOf == "" {
			continue
		}
		derived, err := encodedLength(out[e.Field.LengthOf])
		if err != nil {
			return nil, &FieldError{Field: e.Field.Name, Err: err}
		}
		if stored := out[e.Field.Name]; asInt64(stored) != int64(derived) {
			s.logger.Warn("Length field disagrees with its payload",
				zap.String("field", e.Field.Name),
				zap.String("measures", e.Field.LengthOf),
				zap.Int64("stored", asInt64(stored)),
				zap.Uint64("derived", derived),
			)
		}
		out[e.Field.Name] = derived
	}

	for _, e := range s.entries {
		if e.Field.UnpackTransform != nil {
			out[e.Field.Name] = e.Field.UnpackTransform(out[e.Field.Name])
		}
	}
	return out, nil
}

// UnpackList deserializes count contiguous structs at a fixed stride of
// Size bytes.
func (s *Struct) UnpackList(mem Memory, data []byte, count int) ([]map[string]any, error) {
	if len(data) < s.size*count {
		return nil, fmt.Errorf("buffer is %d bytes, %d structs need %d", len(data), count, s.size*count)
	}
	out := make([]map[string]any, count)
	for i := range out {
		v, err := s.Unpack(mem, data[i*s.size:(i+1)*s.size])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (s *Struct) unpackString(mem Memory, e Entry, data []byte, decoded map[string]any) (string, error) {
	p := s.readPointer(data, e.Offset)
	lf, ok := s.lengthFor[e.Field.Name]
	if !ok {
		if p.IsNull() {
			return "", nil
		}
		return readCString(mem, p)
	}
	n := asInt64(decoded[lf])
	if p.IsNull() {
		// A nonzero recorded length through a null pointer is corrupt
		// data, not an empty string.
		if n > 0 {
			return "", &ffi.NullPointerError{Length: uint64(n)}
		}
		return "", nil
	}
	if n <= 0 {
		return "", nil
	}
	raw, err := mem.ReadBytes(p, 0, uint64(n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Struct) unpackArray(mem Memory, e Entry, data []byte, decoded map[string]any) (any, error) {
	elem := e.Field.Type.kind
	elemSize := elem.Size(s.ptrWidth)
	p := s.readPointer(data, e.Offset)
	n := asInt64(decoded[s.lengthFor[e.Field.Name]])
	if p.IsNull() {
		if n > 0 {
			return nil, &ffi.NullPointerError{Length: uint64(n) * uint64(elemSize)}
		}
		return emptyElems(elem), nil
	}
	if n <= 0 {
		return emptyElems(elem), nil
	}
	raw, err := mem.ReadBytes(p, 0, uint64(n)*uint64(elemSize))
	if err != nil {
		return nil, err
	}

	switch {
	case elem.Float():
		out := make([]float64, n)
		for i := range out {
			out[i] = asFloat64(s.readScalar(raw, i*elemSize, elem))
		}
		return out, nil
	case elem.Signed():
		out := make([]int64, n)
		for i := range out {
			out[i] = asInt64(s.readScalar(raw, i*elemSize, elem))
		}
		return out, nil
	default:
		out := make([]uint64, n)
		for i := range out {
			out[i] = s.readScalar(raw, i*elemSize, elem).(uint64)
		}
		return out, nil
	}
}

// maxCString caps NUL scanning through memory that may be corrupt.
const maxCString = 1 << 20

func readCString(mem Memory, p ffi.Ptr) (string, error) {
	var out []byte
	for off := uint64(0); off < maxCString; off++ {
		b, err := mem.ReadBytes(p, off, 1)
		if err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(out), nil
		}
		out = append(out, b[0])
	}
	return "", errors.New("string is not NUL-terminated")
}

func (s *Struct) writeScalar(buf []byte, off int, k ffi.Kind, v any) error {
	switch k {
	case ffi.Bool:
		b, ok := v.(bool)
		if !ok && v != nil {
			return fmt.Errorf("expected bool, got %T", v)
		}
		if b {
			buf[off] = 1
		} else {
			buf[off] = 0
		}
		return nil
	case ffi.F32:
		f, err := floatValue(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(f)))
		return nil
	case ffi.F64:
		f, err := floatValue(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(f))
		return nil
	}

	// Integers and pointer-width fields all pack as their little-endian
	// bit pattern at the field's width.
	var bits uint64
	if k.Signed() {
		n, err := intValue(v)
		if err != nil {
			return err
		}
		bits = uint64(n)
	} else {
		u, err := uintValue(v)
		if err != nil {
			return err
		}
		bits = u
	}

	switch k.Size(s.ptrWidth) {
	case 1:
		buf[off] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(buf[off:], uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(buf[off:], uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(buf[off:], bits)
	}
	return nil
}

func (s *Struct) readScalar(buf []byte, off int, k ffi.Kind) any {
	if k == ffi.Bool {
		return buf[off] != 0
	}
	if k == ffi.F32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	if k == ffi.F64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	}

	var bits uint64
	switch k.Size(s.ptrWidth) {
	case 1:
		bits = uint64(buf[off])
	case 2:
		bits = uint64(binary.LittleEndian.Uint16(buf[off:]))
	case 4:
		bits = uint64(binary.LittleEndian.Uint32(buf[off:]))
	case 8:
		bits = binary.LittleEndian.Uint64(buf[off:])
	}

	if k.Signed() {
		switch k.Size(s.ptrWidth) {
		case 1:
			return int64(int8(bits))
		case 2:
			return int64(int16(bits))
		case 4:
			return int64(int32(bits))
		}
		return int64(bits)
	}
	return bits
}

func (s *Struct) writePointer(buf []byte, off int, p ffi.Ptr) error {
	if s.ptrWidth == 4 {
		if uint64(p) > math.MaxUint32 {
			return &ffi.UnsupportedPointerError{Value: p}
		}
		binary.LittleEndian.PutUint32(buf[off:], uint32(p))
		return nil
	}
	binary.LittleEndian.PutUint64(buf[off:], uint64(p))
	return nil
}

func (s *Struct) readPointer(buf []byte, off int) ffi.Ptr {
	if s.ptrWidth == 4 {
		return ffi.Ptr(binary.LittleEndian.Uint32(buf[off:]))
	}
	return ffi.Ptr(binary.LittleEndian.Uint64(buf[off:]))
}

func resolveEnum(e *Enum, v any) (int64, error) {
	if name, ok := v.(string); ok {
		return e.To(name)
	}
	n, err := intValue(v)
	if err != nil {
		return 0, err
	}
	if _, err := e.From(n); err != nil {
		return 0, err
	}
	return n, nil
}

// encodedLength measures the value a length field derives from: byte length
// for strings and buffers, element count for sequences.
func encodedLength(v any) (uint64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case string:
		return uint64(len(x)), nil
	case []byte:
		return uint64(len(x)), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return uint64(rv.Len()), nil
	}
	return 0, fmt.Errorf("cannot derive a length from %T", v)
}

func stringValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	return "", fmt.Errorf("expected string, got %T", v)
}

func sliceValue(v any) (reflect.Value, error) {
	if v == nil {
		return reflect.ValueOf([]uint64(nil)), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return reflect.Value{}, fmt.Errorf("expected slice, got %T", v)
	}
	return rv, nil
}

func emptyElems(k ffi.Kind) any {
	switch {
	case k.Float():
		return []float64{}
	case k.Signed():
		return []int64{}
	}
	return []uint64{}
}

func intValue(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
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
	case uint:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case uintptr:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("non-integral value %v for integer field", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func uintValue(v any) (uint64, error) {
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
	case ffi.Ptr:
		return uint64(n), nil
	}
	i, err := intValue(v)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, fmt.Errorf("negative value %d for unsigned field", i)
	}
	return uint64(i), nil
}

func floatValue(v any) (float64, error) {
	switch f := v.(type) {
	case nil:
		return 0, nil
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

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}

func asFloat64(v any) float64 {
	switch f := v.(type) {
	case float32:
		return float64(f)
	case float64:
		return f
	}
	return 0
}
