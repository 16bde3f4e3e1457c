package value

import (
	"math/big"

	"github.com/wippyai/bitschema/bits"
	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

// Primitive is an instance of a Scalar.
type Primitive struct {
	typ *types.Scalar
	st  bits.Storage
}

func (p *Primitive) Type() types.Type { return p.typ }
func (p *Primitive) Storage() bits.Storage { return p.st }

// Get returns the raw unsigned encoding.
func (p *Primitive) Get() *big.Int { return p.st.Value() }

// Set stores the raw unsigned encoding; negative values are rejected, use
// SetInt for signed values.
func (p *Primitive) Set(v *big.Int) error { return p.st.Set(v) }

func (p *Primitive) Uint64() uint64 { return p.st.Uint64() }
func (p *Primitive) SetUint64(v uint64) error { return p.st.SetUint64(v) }

// Int returns the value, sign-extended for signed scalars.
func (p *Primitive) Int() *big.Int {
	v := p.st.Value()
	w := p.typ.Width()
	if p.typ.Signed() && v.Bit(w-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(w)))
	}
	return v
}

// SetInt stores v in two's complement for signed scalars. The value must
// lie in the signed interval of the width, or fit unsigned otherwise.
func (p *Primitive) SetInt(v *big.Int) error {
	w := p.typ.Width()
	if !p.typ.Signed() {
		return p.st.Set(v)
	}
	half := new(big.Int).Lsh(big.NewInt(1), uint(w-1))
	lo := new(big.Int).Neg(half)
	if v.Cmp(lo) < 0 || v.Cmp(half) >= 0 {
		return errors.New(errors.PhaseAssign, errors.KindRange).
			Type(types.TypeName(p.typ)).
			Detail("value %s outside signed range [%s, %s)", v, lo, half).
			Value(v).
			Build()
	}
	enc := new(big.Int).Set(v)
	if enc.Sign() < 0 {
		enc.Add(enc, new(big.Int).Lsh(big.NewInt(1), uint(w)))
	}
	return p.st.Set(enc)
}

// Enum is an instance of an Enum descriptor. It may hold any value that
// fits the width, named or not.
type Enum struct {
	typ *types.Enum
	st  bits.Storage
}

// Cast decodes v as an instance of e. Values without an entry produce an
// unnamed instance.
func Cast(e *types.Enum, v *big.Int) (*Enum, error) {
	vec, err := bits.NewVectorValue(e.Width(), v)
	if err != nil {
		return nil, err
	}
	return &Enum{typ: e, st: vec}, nil
}

func (e *Enum) Type() types.Type { return e.typ }
func (e *Enum) Storage() bits.Storage { return e.st }
func (e *Enum) Get() *big.Int { return e.st.Value() }
func (e *Enum) Set(v *big.Int) error { return e.st.Set(v) }

// Name returns the entry name of the current value.
func (e *Enum) Name() (string, bool) {
	return e.typ.NameOf(e.st.Value())
}

// SetName stores the value of the named entry.
func (e *Enum) SetName(name string) error {
	v, ok := e.typ.Lookup(name)
	if !ok {
		return errors.Enum(e.typ.Name(), name, "no such entry")
	}
	return e.st.Set(v)
}

func (e *Enum) String() string {
	if n, ok := e.Name(); ok {
		return n
	}
	return e.typ.Name() + "(" + e.st.Value().String() + ")"
}
