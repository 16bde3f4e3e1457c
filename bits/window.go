package bits

import (
	"math/big"

	"github.com/wippyai/bitschema/errors"
)

// Window is a zero-copy view over a bit range of a Vector. Windows always
// reference the ultimate backing vector with absolute indices, so a window
// of a window is a single hop.
type Window struct {
	base     *Vector
	msb, lsb int
}

func (w *Window) Width() int { return w.msb - w.lsb + 1 }

// MSB returns the absolute most significant bit in the backing vector.
func (w *Window) MSB() int { return w.msb }

// LSB returns the absolute least significant bit in the backing vector.
func (w *Window) LSB() int { return w.lsb }

// Backing returns the vector the window projects onto.
func (w *Window) Backing() *Vector { return w.base }

func (w *Window) Value() *big.Int {
	return w.base.Extract(w.msb, w.lsb)
}

func (w *Window) Uint64() uint64 {
	return w.Value().Uint64()
}

func (w *Window) check(msb, lsb int) {
	if lsb < 0 || msb < lsb || msb >= w.Width() {
		panic(errors.BitIndex(msb, lsb, w.Width()))
	}
}

func (w *Window) Extract(msb, lsb int) *big.Int {
	w.check(msb, lsb)
	return w.base.Extract(w.lsb+msb, w.lsb+lsb)
}

func (w *Window) Set(x *big.Int) error {
	return w.base.SetRange(x, w.msb, w.lsb)
}

func (w *Window) SetUint64(x uint64) error {
	return w.Set(Int(x))
}

func (w *Window) SetRange(x *big.Int, msb, lsb int) error {
	w.check(msb, lsb)
	return w.base.SetRange(x, w.lsb+msb, w.lsb+lsb)
}

// Window composes against the backing vector in O(1).
func (w *Window) Window(msb, lsb int) *Window {
	w.check(msb, lsb)
	return w.base.Window(w.lsb+msb, w.lsb+lsb)
}
