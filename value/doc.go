// Package value creates runtime instances of type descriptors.
//
// Instances of bit-level types (scalars, enums, structs, unions, packed
// arrays and registers) implement Bits and read and write a bits.Storage.
// Field instances of an assembly are windows onto the parent storage, so a
// write through any field is visible through the parent and every alias:
//
//	s, _ := value.New(myStruct)
//	a := s.(*value.Assembly)
//	a.SetField("ab", big.NewInt(123))
//	value.Pack(a) // packed integer with ab in its bits
//
// Groups and files are instantiated as a Block, which hands out register
// instances with absolute byte addresses.
//
// Instances are single-owner and not safe for concurrent mutation.
package value
