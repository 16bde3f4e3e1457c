package schema

import (
	"math/big"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

// Package is a namespace of declared types and named constants. Types keep
// their declaration order.
type Package struct {
	types     map[string]types.Type
	constants map[string]*big.Int
	Name      string
	Doc       string
	order     []string
}

// NewPackage returns an empty package.
func NewPackage(name string) *Package {
	return &Package{
		types:     make(map[string]types.Type),
		constants: make(map[string]*big.Int),
		Name:      name,
	}
}

// Add registers a named type.
func (p *Package) Add(t types.Type) error {
	name := t.Name()
	if name == "" {
		return errors.InvalidInput(errors.PhaseDeclare, "cannot add an anonymous "+t.Kind().String())
	}
	if p.taken(name) {
		return errors.Duplicate(p.Name, "name", name)
	}
	p.types[name] = t
	p.order = append(p.order, name)
	return nil
}

// Define registers a named constant.
func (p *Package) Define(name string, v *big.Int) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseDeclare, "constant has no name")
	}
	if p.taken(name) {
		return errors.Duplicate(p.Name, "name", name)
	}
	p.constants[name] = new(big.Int).Set(v)
	return nil
}

func (p *Package) taken(name string) bool {
	_, isType := p.types[name]
	_, isConst := p.constants[name]
	return isType || isConst
}

// Lookup returns a declared type by name.
func (p *Package) Lookup(name string) (types.Type, bool) {
	t, ok := p.types[name]
	return t, ok
}

// Constant returns a constant by name.
func (p *Package) Constant(name string) (*big.Int, bool) {
	v, ok := p.constants[name]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(v), true
}

// Types returns the declared types in declaration order.
func (p *Package) Types() []types.Type {
	out := make([]types.Type, len(p.order))
	for i, n := range p.order {
		out[i] = p.types[n]
	}
	return out
}

// Constants returns the constant names in sorted order.
func (p *Package) Constants() []string {
	names := maps.Keys(p.constants)
	slices.Sort(names)
	return names
}

// Files returns the register files of the package in declaration order.
func (p *Package) Files() []*types.File {
	var out []*types.File
	for _, t := range p.Types() {
		if f, ok := t.(*types.File); ok {
			out = append(out, f)
		}
	}
	return out
}
