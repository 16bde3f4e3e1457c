package witgen

import (
	"go.bytecodealliance.org/wit"
)

// Info is the canonical ABI memory layout of a WIT type.
type Info struct {
	FieldOffs map[string]uint32
	Size      uint32
	Align     uint32
}

// Calculator computes canonical ABI layouts. Results for type definitions
// are cached by pointer.
type Calculator struct {
	cache map[*wit.TypeDef]Info
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*wit.TypeDef]Info),
	}
}

func (c *Calculator) Calculate(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64:
		return Info{Size: 8, Align: 8}
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func (c *Calculator) calculateTypeDef(t *wit.TypeDef) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Info

	switch kind := t.Kind.(type) {
	case *wit.Record:
		info = c.calculateRecord(kind)
	case *wit.Enum:
		size := discriminantSize(len(kind.Cases))
		info = Info{Size: size, Align: size}
	case *wit.Tuple:
		info = c.calculateTuple(kind)
	case *wit.Flags:
		info = calculateFlags(len(kind.Flags))
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

func (c *Calculator) calculateRecord(r *wit.Record) Info {
	if len(r.Fields) == 0 {
		return Info{Size: 0, Align: 1}
	}

	fieldOffs := make(map[string]uint32, len(r.Fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	for _, field := range r.Fields {
		fl := c.Calculate(field.Type)

		offset = alignTo(offset, fl.Align)
		fieldOffs[field.Name] = offset
		maxAlign = max(maxAlign, fl.Align)
		offset += fl.Size
	}

	return Info{
		Size:      alignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: fieldOffs,
	}
}

func (c *Calculator) calculateTuple(t *wit.Tuple) Info {
	if len(t.Types) == 0 {
		return Info{Size: 0, Align: 1}
	}

	maxAlign := uint32(1)
	offset := uint32(0)

	for _, typ := range t.Types {
		el := c.Calculate(typ)
		offset = alignTo(offset, el.Align)
		maxAlign = max(maxAlign, el.Align)
		offset += el.Size
	}

	return Info{
		Size:  alignTo(offset, maxAlign),
		Align: maxAlign,
	}
}

func calculateFlags(n int) Info {
	switch {
	case n == 0:
		return Info{Size: 0, Align: 1}
	case n <= 8:
		return Info{Size: 1, Align: 1}
	case n <= 16:
		return Info{Size: 2, Align: 2}
	case n <= 32:
		return Info{Size: 4, Align: 4}
	}
	// wider sets are stored as consecutive u32 words
	return Info{Size: uint32((n + 31) / 32 * 4), Align: 4}
}

// FlatCount returns the number of core values t flattens to.
func FlatCount(t wit.Type) int {
	td, ok := t.(*wit.TypeDef)
	if !ok {
		return 1
	}
	switch kind := td.Kind.(type) {
	case *wit.Record:
		n := 0
		for _, f := range kind.Fields {
			n += FlatCount(f.Type)
		}
		return n
	case *wit.Tuple:
		n := 0
		for _, el := range kind.Types {
			n += FlatCount(el)
		}
		return n
	case *wit.Flags:
		return max(1, (len(kind.Flags)+31)/32)
	case wit.Type:
		return FlatCount(kind)
	default:
		return 1
	}
}

// discriminantSize is 1 byte for up to 256 cases, 2 for up to 65536, else 4.
func discriminantSize(n int) uint32 {
	if n <= 256 {
		return 1
	} else if n <= 65536 {
		return 2
	}
	return 4
}

func alignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
