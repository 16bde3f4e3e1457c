package value

import (
	"math/big"

	"github.com/wippyai/bitschema/bits"
	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

// Value is any instance of a type descriptor.
type Value interface {
	Type() types.Type
}

// Bits is an instance that lives in a single bit vector: scalars, enums,
// structs, unions, packed arrays and registers.
type Bits interface {
	Value
	Storage() bits.Storage
	Get() *big.Int
	Set(v *big.Int) error
}

// New creates a fresh instance of t holding its reset value. Groups and
// files become a Block based at address 0.
func New(t types.Type) (Value, error) {
	switch tt := t.(type) {
	case *types.Group:
		return NewBlock(tt, 0), nil
	case *types.File:
		return NewFile(tt, 0), nil
	case nil:
		return nil, errors.InvalidInput(errors.PhaseAssign, "nil type")
	}
	return alloc(t, types.ResetValue(t))
}

// Unpack decodes n into a fresh instance of t.
func Unpack(t types.Type, n *big.Int) (Bits, error) {
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseUnpack, "nil type")
	}
	if t.Kind().IsAddressed() {
		return nil, errors.Unsupported(errors.PhaseUnpack, "unpacking a "+t.Kind().String())
	}
	if !bits.Fits(n, t.Width()) {
		return nil, errors.New(errors.PhaseUnpack, errors.KindRange).
			Type(types.TypeName(t)).
			Detail("value %s does not fit in %d bits", n, t.Width()).
			Value(n).
			Build()
	}
	return alloc(t, n)
}

// Pack returns the integer encoding of v.
func Pack(v Bits) *big.Int {
	return v.Get()
}

func alloc(t types.Type, initial *big.Int) (Bits, error) {
	vec, err := bits.NewVectorValue(t.Width(), initial)
	if err != nil {
		return nil, err
	}
	return Over(t, vec)
}

// Over creates an instance of t that reads and writes st. The storage width
// must equal the type width.
func Over(t types.Type, st bits.Storage) (Bits, error) {
	return over(t, st, types.FromLSB)
}

func over(t types.Type, st bits.Storage, packing types.Packing) (Bits, error) {
	if t.Kind().IsAddressed() {
		return nil, errors.Unsupported(errors.PhaseAssign, t.Kind().String()+" has no bit storage")
	}
	if st.Width() != t.Width() {
		return nil, errors.New(errors.PhaseAssign, errors.KindWidth).
			Type(types.TypeName(t)).
			Detail("storage is %d bits wide, type needs %d", st.Width(), t.Width()).
			Build()
	}

	switch tt := t.(type) {
	case *types.Scalar:
		return &Primitive{typ: tt, st: st}, nil
	case *types.Enum:
		return &Enum{typ: tt, st: st}, nil
	case *types.Struct:
		return newAssembly(tt, st), nil
	case *types.Union:
		return newAssembly(tt, st), nil
	case *types.Register:
		return newRegister(tt, st, 0), nil
	case *types.Array:
		return &PackedArray{typ: tt, st: st, packing: packing}, nil
	default:
		return nil, errors.Unsupported(errors.PhaseAssign, "instances of "+types.TypeName(t))
	}
}
