package types

import (
	"math/big"

	"github.com/wippyai/bitschema/bits"
	"github.com/wippyai/bitschema/errors"
)

// ScalarOptions configures NewScalar.
type ScalarOptions struct {
	Info   Info
	Signed bool
}

// Scalar is a fixed-width integer leaf.
type Scalar struct {
	info   Info
	name   string
	width  int
	signed bool
}

// NewScalar declares a scalar. Anonymous scalars use an empty name.
func NewScalar(name string, width int, opts ScalarOptions) (*Scalar, error) {
	if width < 1 {
		return nil, errors.New(errors.PhaseDeclare, errors.KindWidth).
			Type(name).
			Detail("scalar width must be at least 1, got %d", width).
			Value(width).
			Build()
	}
	return &Scalar{name: name, width: width, signed: opts.Signed, info: opts.Info}, nil
}

// Uint returns an anonymous unsigned scalar. It panics if width < 1.
func Uint(width int) *Scalar {
	s, err := NewScalar("", width, ScalarOptions{})
	if err != nil {
		panic(err)
	}
	return s
}

// Sint returns an anonymous signed scalar. It panics if width < 1.
func Sint(width int) *Scalar {
	s, err := NewScalar("", width, ScalarOptions{Signed: true})
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Scalar) Kind() Kind { return KindScalar }
func (s *Scalar) Name() string { return s.name }
func (s *Scalar) Width() int { return s.width }
func (s *Scalar) Info() Info { return s.info }
func (s *Scalar) Signed() bool { return s.signed }

// rawDefault returns the stored bit pattern of a field default. Signed
// scalars accept negative defaults in two's complement range.
func rawDefault(t Type, v *big.Int) (*big.Int, bool) {
	w := t.Width()
	if s, ok := t.(*Scalar); ok && s.signed && v.Sign() < 0 {
		lo := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(w-1)))
		if v.Cmp(lo) < 0 {
			return nil, false
		}
		return new(big.Int).Add(v, new(big.Int).Lsh(big.NewInt(1), uint(w))), true
	}
	return v, bits.Fits(v, w)
}
