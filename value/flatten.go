package value

import (
	"math/big"

	"golang.org/x/exp/slices"

	"github.com/wippyai/bitschema/types"
)

// Order selects the sort order of Flatten.
type Order uint8

const (
	Ascending Order = iota
	Descending
)

// Span is one leaf range of a flattened instance. Bit indices are relative
// to the flattened root. Padding spans have an empty name.
type Span struct {
	Value   *big.Int
	Name    string
	LSB     int
	MSB     int
	Padding bool
}

func (s Span) Width() int { return s.MSB - s.LSB + 1 }

// Flatten lists the leaf ranges of v. Nested structs and registers are
// walked with dotted names and packed array elements are indexed; union
// members alias each other, so a union is reported as a single leaf.
// Ascending sorts by LSB, Descending by MSB from the top.
func Flatten(v Bits, order Order) []Span {
	var out []Span
	flatten(v, "", 0, &out)
	if order == Descending {
		slices.SortFunc(out, func(a, b Span) bool { return a.MSB > b.MSB })
	} else {
		slices.SortFunc(out, func(a, b Span) bool { return a.LSB < b.LSB })
	}
	return out
}

func flatten(v Bits, name string, offset int, out *[]Span) {
	leaf := func() {
		*out = append(*out, Span{
			Name:  name,
			LSB:   offset,
			MSB:   offset + v.Type().Width() - 1,
			Value: v.Get(),
		})
	}

	switch vv := v.(type) {
	case *Register:
		flattenAssembly(vv.Assembly, name, offset, out)
	case *Assembly:
		if vv.typ.Kind() == types.KindUnion {
			leaf()
			return
		}
		flattenAssembly(vv, name, offset, out)
	case *PackedArray:
		for i := 0; i < vv.Len(); i++ {
			elem, err := vv.At(i)
			if err != nil {
				continue
			}
			_, lsb := vv.span(i)
			flatten(elem, name+indexName(i), offset+lsb, out)
		}
	default:
		leaf()
	}
}

func flattenAssembly(a *Assembly, prefix string, offset int, out *[]Span) {
	for i := 0; i < a.NumFields(); i++ {
		fl := a.typ.FieldAt(i)
		if fl.Padding {
			*out = append(*out, Span{
				LSB:     offset + fl.LSB,
				MSB:     offset + fl.MSB,
				Value:   a.st.Extract(fl.MSB, fl.LSB),
				Padding: true,
			})
			continue
		}
		name := fl.Name
		if prefix != "" {
			name = prefix + "." + fl.Name
		}
		flatten(a.FieldAt(i), name, offset+fl.LSB, out)
	}
}
