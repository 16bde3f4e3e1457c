package value

import (
	"math/big"
	"strconv"

	"github.com/wippyai/bitschema/bits"
	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

// PackedArray is an array laid out inside one bit vector. Element 0 sits at
// the least significant end for LSB-first packing and at the most
// significant end for MSB-first packing. Multi-dimensional arrays nest.
type PackedArray struct {
	typ     *types.Array
	st      bits.Storage
	cache   map[int]Bits
	packing types.Packing
}

func (p *PackedArray) Type() types.Type { return p.typ }
func (p *PackedArray) Storage() bits.Storage { return p.st }
func (p *PackedArray) Get() *big.Int { return p.st.Value() }
func (p *PackedArray) Set(v *big.Int) error { return p.st.Set(v) }

// Len is the outer dimension.
func (p *PackedArray) Len() int { return p.typ.Count() }

// Packing is the element order of the array.
func (p *PackedArray) Packing() types.Packing { return p.packing }

// At returns the instance of outer element i.
func (p *PackedArray) At(i int) (Bits, error) {
	if i < 0 || i >= p.typ.Count() {
		return nil, errors.OutOfBounds(errors.PhaseAssign, nil, i, p.typ.Count())
	}
	if b, ok := p.cache[i]; ok {
		return b, nil
	}
	inner := p.typ.Inner()
	msb, lsb := p.span(i)
	b, err := over(inner, p.st.Window(msb, lsb), p.packing)
	if err != nil {
		return nil, err
	}
	if p.cache == nil {
		p.cache = make(map[int]Bits)
	}
	p.cache[i] = b
	return b, nil
}

// span returns the bit range of element i relative to the array.
func (p *PackedArray) span(i int) (msb, lsb int) {
	ew := p.typ.Inner().Width()
	if p.packing == types.FromMSB {
		msb = p.st.Width() - 1 - i*ew
		return msb, msb - ew + 1
	}
	lsb = i * ew
	return lsb + ew - 1, lsb
}

// Values returns the packed value of every outer element.
func (p *PackedArray) Values() []*big.Int {
	out := make([]*big.Int, p.Len())
	for i := range out {
		msb, lsb := p.span(i)
		out[i] = p.st.Extract(msb, lsb)
	}
	return out
}

// Assign stores one value per outer element. The number of values must
// match the outer dimension.
func (p *PackedArray) Assign(vals []*big.Int) error {
	if len(vals) != p.Len() {
		return errors.Arity(errors.PhaseAssign, nil, len(vals), p.Len())
	}
	for i, v := range vals {
		msb, lsb := p.span(i)
		if !bits.Fits(v, msb-lsb+1) {
			return errors.Range(errors.PhaseAssign, []string{indexName(i)}, v, msb-lsb+1)
		}
	}
	for i, v := range vals {
		msb, lsb := p.span(i)
		if err := p.st.SetRange(v, msb, lsb); err != nil {
			return err
		}
	}
	return nil
}

// Args are the per-element constructor arguments of an unpacked array.
type Args struct {
	Initial *big.Int
	Address int
}

// UnpackedArray holds independent element instances with separate
// storage, in row-major order.
type UnpackedArray struct {
	typ   *types.Array
	items []Value
}

// NewUnpackedArray instantiates every element of t. args supplies the
// constructor arguments of each element index and may be nil.
func NewUnpackedArray(t *types.Array, args func(index []int) Args) (*UnpackedArray, error) {
	indices := types.Indices(t.Dims())
	u := &UnpackedArray{typ: t, items: make([]Value, len(indices))}
	for k, idx := range indices {
		var a Args
		if args != nil {
			a = args(idx)
		}
		v, err := instantiate(t.Elem(), a)
		if err != nil {
			return nil, errors.Prefix(indexName(idx...), err)
		}
		u.items[k] = v
	}
	return u, nil
}

func instantiate(t types.Type, a Args) (Value, error) {
	switch tt := t.(type) {
	case *types.Register:
		r := NewRegister(tt, a.Address)
		if a.Initial != nil {
			if err := r.Set(a.Initial); err != nil {
				return nil, err
			}
		}
		return r, nil
	case *types.Group:
		return NewBlock(tt, a.Address), nil
	}
	if a.Initial != nil {
		return Unpack(t, a.Initial)
	}
	return New(t)
}

func (u *UnpackedArray) Type() types.Type { return u.typ }

// Len is the number of innermost elements.
func (u *UnpackedArray) Len() int { return len(u.items) }

// At returns the element at a full index tuple.
func (u *UnpackedArray) At(index ...int) (Value, error) {
	dims := u.typ.Dims()
	if len(index) != len(dims) {
		return nil, errors.Arity(errors.PhaseAssign, nil, len(index), len(dims))
	}
	k := 0
	for d, i := range index {
		if i < 0 || i >= dims[d] {
			return nil, errors.OutOfBounds(errors.PhaseAssign, nil, i, dims[d])
		}
		k = k*dims[d] + i
	}
	return u.items[k], nil
}

// Items returns the element instances in row-major order.
func (u *UnpackedArray) Items() []Value {
	return append([]Value(nil), u.items...)
}

func indexName(index ...int) string {
	s := ""
	for _, i := range index {
		s += "[" + strconv.Itoa(i) + "]"
	}
	return s
}
