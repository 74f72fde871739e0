package cstruct

import (
	"fmt"

	"github.com/mocksoul/opentui/internal/ffi"
)

// Enum is a bidirectional mapping between symbolic names and small integers
// stored at a fixed integer width. Immutable after construction.
type Enum struct {
	name    string
	base    ffi.Kind
	toValue map[string]int64
	toName  map[int64]string
}

// DefineEnum validates that every member value is distinct and builds the
// reverse lookup. The base kind fixes the packed width.
func DefineEnum(name string, base ffi.Kind, members map[string]int64) (*Enum, error) {
	if !base.Integer() {
		return nil, fmt.Errorf("enum %s: base type %s is not an integer", name, base)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("enum %s: no members", name)
	}

	e := &Enum{
		name:    name,
		base:    base,
		toValue: make(map[string]int64, len(members)),
		toName:  make(map[int64]string, len(members)),
	}
	for n, v := range members {
		if prev, dup := e.toName[v]; dup {
			return nil, fmt.Errorf("enum %s: members %q and %q share value %d", name, prev, n, v)
		}
		e.toValue[n] = v
		e.toName[v] = n
	}
	return e, nil
}

// Name returns the enum's declared name.
func (e *Enum) Name() string { return e.name }

// Base returns the integer kind members pack as.
func (e *Enum) Base() ffi.Kind { return e.base }

// To resolves a member name to its value.
func (e *Enum) To(name string) (int64, error) {
	v, ok := e.toValue[name]
	if !ok {
		return 0, &InvalidEnumValueError{Enum: e.name, Name: name}
	}
	return v, nil
}

// From resolves a value back to its member name.
func (e *Enum) From(value int64) (string, error) {
	n, ok := e.toName[value]
	if !ok {
		return "", &InvalidEnumValueError{Enum: e.name, Value: value}
	}
	return n, nil
}
