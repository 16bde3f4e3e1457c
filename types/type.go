package types

import (
	"fmt"
	"math/big"
)

// Type is an immutable type descriptor. Concrete descriptors are *Scalar,
// *Enum, *Struct, *Union, *Array, *Register, *Group and *File; switch on
// Kind or on the concrete type.
type Type interface {
	Kind() Kind
	Name() string
	Width() int
	Info() Info
}

// Location is where a type was declared.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	switch {
	case l.File == "":
		return ""
	case l.Line > 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return l.File
	}
}

// Info carries declaration metadata for generators.
type Info struct {
	Doc    string
	Source Location
}

// Field is one declared member of an assembly or group.
type Field struct {
	Type    Type
	Default *big.Int
	Name    string
	Doc     string
}

// Packing selects whether the first declared field takes the least or the
// most significant bits.
type Packing uint8

const (
	FromLSB Packing = iota
	FromMSB
)

func (p Packing) String() string {
	if p == FromMSB {
		return "from_msb"
	}
	return "from_lsb"
}

// ParsePacking parses the attribute spelling of a packing direction.
func ParsePacking(s string) (Packing, bool) {
	switch s {
	case "from_lsb", "":
		return FromLSB, true
	case "from_msb":
		return FromMSB, true
	default:
		return FromLSB, false
	}
}

// TypeName returns a printable name, falling back to a structural one for
// anonymous types.
func TypeName(t Type) string {
	if t == nil {
		return "nil"
	}
	if n := t.Name(); n != "" {
		return n
	}
	switch tt := t.(type) {
	case *Scalar:
		if tt.Signed() {
			return fmt.Sprintf("sint%d", tt.Width())
		}
		return fmt.Sprintf("uint%d", tt.Width())
	case *Array:
		s := TypeName(tt.Elem())
		for _, d := range tt.Dims() {
			s += fmt.Sprintf("[%d]", d)
		}
		return s
	default:
		return t.Kind().String()
	}
}

// Fields returns the declared (name, type, default) list of t in
// declaration order. Padding is not included.
func Fields(t Type) []Field {
	switch tt := t.(type) {
	case *Struct:
		return tt.declaredFields()
	case *Union:
		return tt.declaredFields()
	case *Register:
		return tt.declaredFields()
	case *Group:
		return append([]Field(nil), tt.fields...)
	case *File:
		return append([]Field(nil), tt.fields...)
	default:
		return nil
	}
}

// ResetValue returns the packed value an instance of t holds when freshly
// created: field defaults where declared, zero elsewhere.
func ResetValue(t Type) *big.Int {
	switch tt := t.(type) {
	case *Struct:
		return new(big.Int).Set(tt.reset)
	case *Union:
		return new(big.Int).Set(tt.reset)
	case *Register:
		return new(big.Int).Set(tt.reset)
	case *Array:
		return tt.resetValue()
	default:
		return new(big.Int)
	}
}
