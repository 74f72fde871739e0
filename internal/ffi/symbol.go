package ffi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SymbolSpec declares one native function in either of the two accepted
// shapes: the legacy {args, returns} field names or the canonical
// {parameters, result} names. Both produce identical normalized behavior.
type SymbolSpec struct {
	Args    []string `yaml:"args,omitempty"`
	Returns string   `yaml:"returns,omitempty"`

	Parameters []string `yaml:"parameters,omitempty"`
	Result     string   `yaml:"result,omitempty"`

	// Nonblocking hints that the symbol may be dispatched without blocking
	// the host loader. Calls through the shim stay synchronous either way.
	Nonblocking bool `yaml:"nonblocking,omitempty"`
}

// Symbol is the canonical internal shape every declaration normalizes to.
type Symbol struct {
	Args        []Kind
	Returns     Kind
	Nonblocking bool
}

// Normalize resolves the declared shape into the canonical one. Declaring
// both shapes at once is rejected rather than silently preferring either.
func (s SymbolSpec) Normalize() (Symbol, error) {
	if len(s.Args) > 0 && len(s.Parameters) > 0 {
		return Symbol{}, fmt.Errorf("declare args or parameters, not both")
	}
	if s.Returns != "" && s.Result != "" {
		return Symbol{}, fmt.Errorf("declare returns or result, not both")
	}

	raw := s.Args
	if len(s.Parameters) > 0 {
		raw = s.Parameters
	}
	ret := s.Returns
	if ret == "" {
		ret = s.Result
	}

	sym := Symbol{Nonblocking: s.Nonblocking}
	for i, tag := range raw {
		k, err := ParseKind(tag)
		if err != nil {
			return Symbol{}, fmt.Errorf("parameter %d: %w", i, err)
		}
		if k == Void {
			return Symbol{}, fmt.Errorf("parameter %d: void is not a parameter type", i)
		}
		sym.Args = append(sym.Args, k)
	}

	if ret == "" {
		sym.Returns = Void
		return sym, nil
	}
	k, err := ParseKind(ret)
	if err != nil {
		return Symbol{}, fmt.Errorf("return: %w", err)
	}
	sym.Returns = k
	return sym, nil
}

// NormalizeTable normalizes a whole symbol table. A table with zero entries
// is valid and yields an empty map.
func NormalizeTable(table map[string]SymbolSpec) (map[string]Symbol, error) {
	out := make(map[string]Symbol, len(table))
	for name, spec := range table {
		sym, err := spec.Normalize()
		if err != nil {
			return nil, fmt.Errorf("symbol %q: %w", name, err)
		}
		out[name] = sym
	}
	return out, nil
}

// LoadTable reads a symbol table declaration from a YAML file.
func LoadTable(path string) (map[string]SymbolSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol table %s: %w", path, err)
	}
	var table map[string]SymbolSpec
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse symbol table %s: %w", path, err)
	}
	return table, nil
}
