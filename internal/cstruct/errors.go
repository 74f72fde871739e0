package cstruct

import "fmt"

// InvalidEnumValueError occurs when an enum lookup misses in either
// direction. There is no silent default.
type InvalidEnumValueError struct {
	Enum  string
	Name  string // set for a failed name->value lookup
	Value int64  // set for a failed value->name lookup
}

func (e *InvalidEnumValueError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("enum %s has no member named %q", e.Enum, e.Name)
	}
	return fmt.Sprintf("enum %s has no member with value %d", e.Enum, e.Value)
}

// DefinitionError occurs when a struct declaration is internally
// inconsistent and no layout can be produced.
type DefinitionError struct {
	Field string
	Msg   string
}

func (e *DefinitionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid struct definition: field %q: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("invalid struct definition: %s", e.Msg)
}

// FieldError wraps a pack or unpack failure with the offending field so a
// malformed value or buffer fails loudly and identifiably.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
