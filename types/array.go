package types

import (
	"math/big"

	"github.com/wippyai/bitschema/errors"
)

// Array repeats an element type over one or more dimensions. The first
// dimension is the outermost.
type Array struct {
	elem  Type
	inner Type
	info  Info
	name  string
	dims  []int
	total int
}

// NewArray declares an anonymous array of elem.
func NewArray(elem Type, dims ...int) (*Array, error) {
	if elem == nil {
		return nil, errors.InvalidInput(errors.PhaseDeclare, "array element type is nil")
	}
	if len(dims) == 0 {
		return nil, errors.New(errors.PhaseDeclare, errors.KindInvalidInput).
			Type(TypeName(elem)).
			Detail("array needs at least one dimension").
			Build()
	}

	total := 1
	for i, d := range dims {
		if d < 1 {
			return nil, errors.New(errors.PhaseDeclare, errors.KindInvalidInput).
				Type(TypeName(elem)).
				Detail("dimension %d must be at least 1, got %d", i, d).
				Value(d).
				Build()
		}
		total *= d
	}

	a := &Array{
		elem:  elem,
		dims:  append([]int(nil), dims...),
		total: total,
	}
	a.inner = innerOf(a)
	return a, nil
}

func innerOf(a *Array) Type {
	if len(a.dims) == 1 {
		return a.elem
	}
	in := &Array{elem: a.elem, dims: a.dims[1:], total: a.total / a.dims[0]}
	in.inner = innerOf(in)
	return in
}

// ArrayOf is NewArray that panics on invalid dimensions.
func ArrayOf(elem Type, dims ...int) *Array {
	a, err := NewArray(elem, dims...)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Array) Kind() Kind { return KindArray }
func (a *Array) Name() string { return a.name }
func (a *Array) Info() Info { return a.info }

// Width is the product of all dimensions times the element width.
func (a *Array) Width() int { return a.total * a.elem.Width() }

// Elem returns the innermost element type.
func (a *Array) Elem() Type { return a.elem }

// Dims returns the dimensions, outermost first.
func (a *Array) Dims() []int { return append([]int(nil), a.dims...) }

// Count is the outermost dimension.
func (a *Array) Count() int { return a.dims[0] }

// Total is the number of innermost elements.
func (a *Array) Total() int { return a.total }

// Inner is the type of one outer element: the element type for a
// one-dimensional array, otherwise the array of the remaining dimensions.
func (a *Array) Inner() Type { return a.inner }

func (a *Array) resetValue() *big.Int {
	ew := a.elem.Width()
	er := ResetValue(a.elem)
	out := new(big.Int)
	if er.Sign() == 0 {
		return out
	}
	for i := 0; i < a.total; i++ {
		out.Or(out, new(big.Int).Lsh(er, uint(i*ew)))
	}
	return out
}

// Indices enumerates every index tuple of dims in row-major order.
func Indices(dims []int) [][]int {
	total := 1
	for _, d := range dims {
		total *= d
	}
	out := make([][]int, 0, total)
	idx := make([]int, len(dims))
	for n := 0; n < total; n++ {
		out = append(out, append([]int(nil), idx...))
		for k := len(idx) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < dims[k] {
				break
			}
			idx[k] = 0
		}
	}
	return out
}
