package value

import (
	"math/big"

	"github.com/wippyai/bitschema/bits"
	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

// Assembly is an instance of a Struct, Union or Register. Field instances
// are created on first access and cached by field index, so repeated
// lookups return the same instance.
type Assembly struct {
	typ   types.Assembly
	st    bits.Storage
	cache map[int]Bits
}

func newAssembly(t types.Assembly, st bits.Storage) *Assembly {
	return &Assembly{typ: t, st: st}
}

func (a *Assembly) Type() types.Type { return a.typ }
func (a *Assembly) Storage() bits.Storage { return a.st }
func (a *Assembly) Get() *big.Int { return a.st.Value() }
func (a *Assembly) Set(v *big.Int) error { return a.st.Set(v) }

// Descriptor returns the assembly descriptor of the instance.
func (a *Assembly) Descriptor() types.Assembly { return a.typ }

// NumFields counts placed fields, padding included.
func (a *Assembly) NumFields() int { return a.typ.NumFields() }

// FieldAt returns the instance of the i-th placed field.
func (a *Assembly) FieldAt(i int) Bits {
	if b, ok := a.cache[i]; ok {
		return b
	}
	fl := a.typ.FieldAt(i)
	b, err := over(fl.Type, a.st.Window(fl.MSB, fl.LSB), a.typ.Packing())
	if err != nil {
		// layout widths always match their windows
		panic(err)
	}
	if a.cache == nil {
		a.cache = make(map[int]Bits)
	}
	a.cache[i] = b
	return b
}

// Field returns the instance of the named field.
func (a *Assembly) Field(name string) (Bits, error) {
	i, ok := a.typ.Lookup(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseAssign, "field", name)
	}
	return a.FieldAt(i), nil
}

// GetField returns the packed value of the named field.
func (a *Assembly) GetField(name string) (*big.Int, error) {
	f, err := a.Field(name)
	if err != nil {
		return nil, err
	}
	return f.Get(), nil
}

// SetField stores v into the named field, leaving other fields intact.
func (a *Assembly) SetField(name string, v *big.Int) error {
	i, ok := a.typ.Lookup(name)
	if !ok {
		return errors.FieldUnknown(errors.PhaseAssign, a.typ.Name(), name)
	}
	if err := a.FieldAt(i).Set(v); err != nil {
		return errors.Prefix(name, err)
	}
	return nil
}

// Assign sets several fields at once. Unknown names are rejected before
// any field is written; fields are written in declaration order.
func (a *Assembly) Assign(vals map[string]*big.Int) error {
	for name := range vals {
		if _, ok := a.typ.Lookup(name); !ok {
			return errors.FieldUnknown(errors.PhaseAssign, a.typ.Name(), name)
		}
	}
	for i := 0; i < a.typ.NumFields(); i++ {
		fl := a.typ.FieldAt(i)
		v, ok := vals[fl.Name]
		if fl.Padding || !ok {
			continue
		}
		if err := a.FieldAt(i).Set(v); err != nil {
			return errors.Prefix(fl.Name, err)
		}
	}
	return nil
}

// Register is an instance of a register descriptor at a byte address. FIFO
// registers carry an instance of their level pair.
type Register struct {
	*Assembly
	level   *Register
	address int
}

func newRegister(t *types.Register, st bits.Storage, address int) *Register {
	r := &Register{Assembly: newAssembly(t, st), address: address}
	if lt := t.Level(); lt != nil {
		vec, _ := bits.NewVectorValue(lt.Width(), types.ResetValue(lt))
		r.level = &Register{Assembly: newAssembly(lt, vec), address: address + t.ByteSize()}
	}
	return r
}

// NewRegister creates a register instance at address holding its reset
// value.
func NewRegister(t *types.Register, address int) *Register {
	vec, _ := bits.NewVectorValue(t.Width(), types.ResetValue(t))
	return newRegister(t, vec, address)
}

// Descriptor returns the register descriptor.
func (r *Register) Descriptor() *types.Register { return r.typ.(*types.Register) }

// Address is the absolute byte address of the register.
func (r *Register) Address() int { return r.address }

// Level returns the paired level register instance, or nil.
func (r *Register) Level() *Register { return r.level }
