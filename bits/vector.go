package bits

import (
	"math/big"

	"golang.org/x/exp/constraints"

	"github.com/wippyai/bitschema/errors"
)

// Unsized marks a vector without a fixed width.
const Unsized = -1

// Storage is implemented by vectors and windows. Indices are relative to
// the receiver; bit 0 is the least significant bit.
type Storage interface {
	Width() int
	Value() *big.Int
	Uint64() uint64
	Extract(msb, lsb int) *big.Int
	Set(v *big.Int) error
	SetUint64(v uint64) error
	SetRange(v *big.Int, msb, lsb int) error
	Window(msb, lsb int) *Window
}

type span struct {
	msb, lsb int
}

// Vector is the raw bit container backing every instance tree.
type Vector struct {
	value   *big.Int
	windows map[span]*Window
	width   int
}

// NewVector returns a zeroed vector. Pass Unsized for an unbounded one.
func NewVector(width int) *Vector {
	if width < Unsized {
		panic(errors.BitIndex(width, 0, width))
	}
	return &Vector{value: new(big.Int), width: width}
}

// NewVectorValue returns a vector holding initial.
func NewVectorValue(width int, initial *big.Int) (*Vector, error) {
	v := NewVector(width)
	if initial == nil {
		return v, nil
	}
	if err := v.Set(initial); err != nil {
		return nil, err
	}
	return v, nil
}

// Int converts any Go integer to a big.Int.
func Int[T constraints.Integer](v T) *big.Int {
	if v < 0 {
		return big.NewInt(int64(v))
	}
	return new(big.Int).SetUint64(uint64(v))
}

// Mask returns 2^width - 1.
func Mask(width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return m.Sub(m, big.NewInt(1))
}

// Fits reports whether v is representable as an unsigned value of width bits.
func Fits(v *big.Int, width int) bool {
	return v.Sign() >= 0 && v.BitLen() <= width
}

func (v *Vector) Width() int { return v.width }

// Sized reports whether the vector has a fixed width.
func (v *Vector) Sized() bool { return v.width != Unsized }

// Value returns a copy of the stored integer.
func (v *Vector) Value() *big.Int {
	return new(big.Int).Set(v.value)
}

func (v *Vector) Uint64() uint64 {
	return v.value.Uint64()
}

func (v *Vector) checkSpan(msb, lsb int) {
	if lsb < 0 || msb < lsb || (v.Sized() && msb >= v.width) {
		panic(errors.BitIndex(msb, lsb, v.width))
	}
}

// Extract returns (value >> lsb) & mask(msb-lsb+1).
func (v *Vector) Extract(msb, lsb int) *big.Int {
	v.checkSpan(msb, lsb)
	out := new(big.Int).Rsh(v.value, uint(lsb))
	return out.And(out, Mask(msb-lsb+1))
}

// Set replaces the whole value.
func (v *Vector) Set(x *big.Int) error {
	if x.Sign() < 0 || (v.Sized() && x.BitLen() > v.width) {
		return errors.Range(errors.PhaseAssign, nil, x, v.width)
	}
	v.value.Set(x)
	return nil
}

func (v *Vector) SetUint64(x uint64) error {
	return v.Set(Int(x))
}

// SetRange writes x into bits [msb:lsb], preserving every other bit.
func (v *Vector) SetRange(x *big.Int, msb, lsb int) error {
	v.checkSpan(msb, lsb)
	width := msb - lsb + 1
	if !Fits(x, width) {
		return errors.Range(errors.PhaseAssign, nil, x, width)
	}
	clear := new(big.Int).Lsh(Mask(width), uint(lsb))
	v.value.AndNot(v.value, clear)
	v.value.Or(v.value, new(big.Int).Lsh(x, uint(lsb)))
	return nil
}

// Window returns the view over bits [msb:lsb]. Repeated calls for the same
// range return the same *Window.
func (v *Vector) Window(msb, lsb int) *Window {
	v.checkSpan(msb, lsb)
	key := span{msb: msb, lsb: lsb}
	if w, ok := v.windows[key]; ok {
		return w
	}
	if v.windows == nil {
		v.windows = make(map[span]*Window)
	}
	w := &Window{base: v, msb: msb, lsb: lsb}
	v.windows[key] = w
	return w
}
