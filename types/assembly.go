package types

import (
	"math/big"

	"go.uber.org/zap"

	"github.com/wippyai/bitschema/errors"
)

// Assembly is implemented by descriptors that place named fields in one
// bit vector: *Struct, *Union and *Register.
type Assembly interface {
	Type
	Layout() []FieldLayout
	FieldAt(i int) FieldLayout
	NumFields() int
	Lookup(name string) (int, bool)
	Packing() Packing
}

// Element is the sub-range of one element of an array field. Elements of
// a multi-dimensional array hold the ranges of their inner dimension.
type Element struct {
	Elements []Element
	Index    int
	LSB, MSB int
}

// FieldLayout is a field together with its placed bit range. Padding
// entries are anonymous and have an empty Name.
type FieldLayout struct {
	Field
	Elements []Element
	LSB, MSB int
	Padding  bool
}

func (f FieldLayout) Width() int { return f.MSB - f.LSB + 1 }

// assembly holds the placement shared by structs, unions and registers.
type assembly struct {
	index    map[string]int
	reset    *big.Int
	name     string
	info     Info
	fields   []FieldLayout
	declared int
	width    int
	natural  int
	packing  Packing
}

func (a *assembly) Name() string { return a.name }
func (a *assembly) Width() int { return a.width }
func (a *assembly) Info() Info { return a.info }
func (a *assembly) Packing() Packing { return a.packing }
func (a *assembly) NumFields() int { return len(a.fields) }
func (a *assembly) NaturalWidth() int { return a.natural }

// Layout returns every placed field, padding last.
func (a *assembly) Layout() []FieldLayout {
	return append([]FieldLayout(nil), a.fields...)
}

// FieldAt returns the i-th placed field; the padding entry, if any, is
// the last index.
func (a *assembly) FieldAt(i int) FieldLayout {
	return a.fields[i]
}

// Lookup returns the index of a named field.
func (a *assembly) Lookup(name string) (int, bool) {
	i, ok := a.index[name]
	return i, ok
}

// Padding returns the synthesized padding field, if the assembly has one.
func (a *assembly) Padding() (FieldLayout, bool) {
	if len(a.fields) > a.declared {
		return a.fields[a.declared], true
	}
	return FieldLayout{}, false
}

func (a *assembly) declaredFields() []Field {
	out := make([]Field, 0, a.declared)
	for _, f := range a.fields[:a.declared] {
		out = append(out, f.Field)
	}
	return out
}

func (a *assembly) foldReset() {
	a.reset = new(big.Int)
	for _, f := range a.fields {
		if f.Padding {
			continue
		}
		v := ResetValue(f.Type)
		if f.Default != nil {
			v, _ = rawDefault(f.Type, f.Default)
		}
		a.reset.Or(a.reset, new(big.Int).Lsh(v, uint(f.LSB)))
	}
}

// checkFields validates names, types and defaults of bit-level fields.
func checkFields(typeName string, fields []Field) error {
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return errors.New(errors.PhaseDeclare, errors.KindInvalidInput).
				Type(typeName).
				Detail("field %d has no name", i).
				Build()
		}
		if seen[f.Name] {
			return errors.Duplicate(typeName, "field", f.Name)
		}
		seen[f.Name] = true

		if f.Type == nil {
			return errors.New(errors.PhaseDeclare, errors.KindInvalidInput).
				Type(typeName).
				Path(f.Name).
				Detail("field has no type").
				Build()
		}
		if !bitLevel(f.Type) {
			return errors.New(errors.PhaseDeclare, errors.KindUnsupported).
				Type(typeName).
				Path(f.Name).
				Detail("%s %s cannot be packed into a bit field", f.Type.Kind(), TypeName(f.Type)).
				Build()
		}
		if f.Default != nil {
			if _, ok := rawDefault(f.Type, f.Default); !ok {
				return errors.Prefix(f.Name, errors.Range(errors.PhaseDeclare, nil, f.Default, f.Type.Width()))
			}
		}
	}
	return nil
}

// bitLevel reports whether t can live inside a single bit vector.
func bitLevel(t Type) bool {
	switch tt := t.(type) {
	case *Array:
		return bitLevel(tt.Elem())
	case *Register, *Group, *File:
		return false
	default:
		return true
	}
}

// placeStruct assigns disjoint contiguous ranges to fields and pads the
// unclaimed remainder.
func placeStruct(name string, fields []Field, explicit int, packing Packing) (*assembly, error) {
	if err := checkFields(name, fields); err != nil {
		return nil, err
	}
	if explicit < 0 {
		return nil, errors.New(errors.PhaseDeclare, errors.KindWidth).
			Type(name).
			Detail("negative width %d", explicit).
			Build()
	}

	natural := 0
	for _, f := range fields {
		natural += f.Type.Width()
	}
	if explicit > 0 && explicit < natural {
		return nil, errors.Width(name, explicit, natural)
	}

	width := natural
	if explicit > 0 {
		width = explicit
	}
	if width == 0 {
		return nil, errors.New(errors.PhaseLayout, errors.KindWidth).
			Type(name).
			Detail("assembly has no fields and no width").
			Build()
	}

	a := &assembly{
		index:    make(map[string]int, len(fields)),
		name:     name,
		fields:   make([]FieldLayout, 0, len(fields)+1),
		declared: len(fields),
		width:    width,
		natural:  natural,
		packing:  packing,
	}

	pos := 0
	if packing == FromMSB {
		pos = width - 1
	}
	for i, f := range fields {
		w := f.Type.Width()
		fl := FieldLayout{Field: f}
		if packing == FromMSB {
			fl.MSB, fl.LSB = pos, pos-w+1
			pos -= w
		} else {
			fl.LSB, fl.MSB = pos, pos+w-1
			pos += w
		}
		if arr, ok := f.Type.(*Array); ok {
			fl.Elements = arrayElements(arr, fl.LSB, fl.MSB, packing)
		}
		a.fields = append(a.fields, fl)
		a.index[f.Name] = i
	}

	if rem := width - natural; rem > 0 {
		pad := FieldLayout{Field: Field{Type: Uint(rem)}, Padding: true}
		if packing == FromMSB {
			pad.LSB, pad.MSB = 0, rem-1
		} else {
			pad.LSB, pad.MSB = natural, width-1
		}
		a.fields = append(a.fields, pad)
	}

	a.foldReset()
	return a, nil
}

// arrayElements splits an array field's range into its elements,
// element 0 first in the packing direction, recursing into inner
// dimensions.
func arrayElements(arr *Array, lsb, msb int, packing Packing) []Element {
	ew := arr.Inner().Width()
	out := make([]Element, arr.Count())
	for i := range out {
		if packing == FromMSB {
			hi := msb - i*ew
			out[i] = Element{Index: i, MSB: hi, LSB: hi - ew + 1}
		} else {
			lo := lsb + i*ew
			out[i] = Element{Index: i, LSB: lo, MSB: lo + ew - 1}
		}
		if sub, ok := arr.Inner().(*Array); ok {
			out[i].Elements = arrayElements(sub, out[i].LSB, out[i].MSB, packing)
		}
	}
	return out
}

// StructOptions configures NewStruct. A zero Width uses the sum of the
// field widths.
type StructOptions struct {
	Info    Info
	Width   int
	Packing Packing
}

// Struct places fields in disjoint contiguous ranges.
type Struct struct {
	assembly
}

// NewStruct lays out fields in declaration order.
func NewStruct(name string, fields []Field, opts StructOptions) (*Struct, error) {
	a, err := placeStruct(name, fields, opts.Width, opts.Packing)
	if err != nil {
		return nil, err
	}
	a.info = opts.Info

	Logger().Debug("struct layout",
		zap.String("name", name),
		zap.Int("width", a.width),
		zap.Int("natural", a.natural),
		zap.Stringer("packing", opts.Packing))

	return &Struct{assembly: *a}, nil
}

func (s *Struct) Kind() Kind { return KindStruct }

// UnionOptions configures NewUnion.
type UnionOptions struct {
	Info Info
}

// Union aliases every member onto the same range.
type Union struct {
	assembly
}

// NewUnion checks every member has the width of the first one.
func NewUnion(name string, fields []Field, opts UnionOptions) (*Union, error) {
	if err := checkFields(name, fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.New(errors.PhaseLayout, errors.KindWidth).
			Type(name).
			Detail("union has no members").
			Build()
	}

	width := fields[0].Type.Width()
	a := assembly{
		index:    make(map[string]int, len(fields)),
		name:     name,
		info:     opts.Info,
		fields:   make([]FieldLayout, len(fields)),
		declared: len(fields),
		width:    width,
		natural:  width,
	}
	for i, f := range fields {
		if w := f.Type.Width(); w != width {
			return nil, errors.UnionMismatch(name, f.Name, width, w)
		}
		fl := FieldLayout{Field: f, LSB: 0, MSB: width - 1}
		if arr, ok := f.Type.(*Array); ok {
			fl.Elements = arrayElements(arr, 0, width-1, FromLSB)
		}
		a.fields[i] = fl
		a.index[f.Name] = i
	}

	a.reset = ResetValue(fields[0].Type)
	for _, f := range fields {
		if f.Default != nil {
			a.reset, _ = rawDefault(f.Type, f.Default)
			a.reset = new(big.Int).Set(a.reset)
			break
		}
	}

	Logger().Debug("union layout",
		zap.String("name", name),
		zap.Int("width", width),
		zap.Int("members", len(fields)))

	return &Union{assembly: a}, nil
}

func (u *Union) Kind() Kind { return KindUnion }
