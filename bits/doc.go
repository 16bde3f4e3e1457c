// Package bits provides the raw bit storage that every instance tree sits on.
//
// A Vector holds an arbitrary precision unsigned integer, optionally bounded
// to a fixed width. A Window is a view over a contiguous bit range of a
// Vector; reads and writes go straight through to the backing value.
//
//	v := bits.NewVector(24)
//	lo := v.Window(11, 0)
//	lo.SetUint64(123)        // v.Uint64() == 123
//	hi := v.Window(23, 12)
//	hi.Window(3, 0) == v.Window(15, 12) // same *Window
//
// Out of range values are reported as errors of kind range. Out of range
// bit indices are programming errors and panic with an out_of_bounds error.
//
// Vectors and windows are not safe for concurrent mutation.
package bits
