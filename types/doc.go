// Package types holds the immutable type descriptors of a bit schema.
//
// Leaf descriptors are Scalar and Enum. Struct and Union place named fields
// in one bit vector; Array repeats an element over one or more dimensions.
// Register is a struct with a bus behavior and byte alignment, and Group
// and File place registers in a byte address space with a power of two
// cadence. FIFO registers carry a synthesized level register that is
// always placed directly after its primary.
//
// Every constructor validates its input and returns an *errors.Error; no
// partially built descriptor is ever returned. Descriptors are safe to
// share once built.
package types
