package witgen

import (
	"math/big"
	"strconv"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/bitschema"
	"github.com/wippyai/bitschema/bits"
	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
	"github.com/wippyai/bitschema/value"
)

// Mirror stores instances as canonical ABI values of their WIT projection
// and reads them back. Integers are little-endian; a field of a record
// sits at its canonical offset.
type Mirror struct {
	proj *Projector
	calc *Calculator
}

func NewMirror() *Mirror {
	return &Mirror{proj: NewProjector(), calc: NewCalculator()}
}

// Projector returns the projector that owns the mirror's WIT types.
func (m *Mirror) Projector() *Projector { return m.proj }

// Layout returns the canonical ABI layout of t.
func (m *Mirror) Layout(t types.Type) (Info, error) {
	wt, err := m.proj.Project(t)
	if err != nil {
		return Info{}, err
	}
	return m.calc.Calculate(wt), nil
}

// Lower writes v at addr.
func (m *Mirror) Lower(v value.Value, mem bitschema.Memory, addr uint32) error {
	return m.walk(v, mem, addr, true)
}

// LiftInto reads the value at addr into v. Values that do not fit the
// declared widths are rejected with a range error.
func (m *Mirror) LiftInto(v value.Value, mem bitschema.Memory, addr uint32) error {
	return m.walk(v, mem, addr, false)
}

// Lift reads a new instance of t from addr.
func (m *Mirror) Lift(t types.Type, mem bitschema.Memory, addr uint32) (value.Value, error) {
	v, err := value.New(t)
	if err != nil {
		return nil, err
	}
	if err := m.LiftInto(v, mem, addr); err != nil {
		return nil, err
	}
	return v, nil
}

func (m *Mirror) walk(v value.Value, mem bitschema.Memory, addr uint32, store bool) error {
	wt, err := m.proj.Project(v.Type())
	if err != nil {
		return err
	}
	info := m.calc.Calculate(wt)

	switch vv := v.(type) {
	case *value.Primitive:
		s := vv.Type().(*types.Scalar)
		return intIO(vv, mem, addr, info.Size, s.Signed(), store)

	case *value.Enum:
		return enumIO(vv, mem, addr, info.Size, store)

	case *value.Register:
		return m.walk(vv.Assembly, mem, addr, store)

	case *value.Assembly:
		return m.assembly(vv, wt, info, mem, addr, store)

	case *value.PackedArray:
		el, err := m.Layout(vv.Type().(*types.Array).Inner())
		if err != nil {
			return err
		}
		for i := 0; i < vv.Len(); i++ {
			item, err := vv.At(i)
			if err != nil {
				return err
			}
			if err := m.walk(item, mem, addr+uint32(i)*el.Size, store); err != nil {
				return errors.Prefix(indexName(i), err)
			}
		}
		return nil

	case *value.UnpackedArray:
		el, err := m.Layout(vv.Type().(*types.Array).Elem())
		if err != nil {
			return err
		}
		for k, item := range vv.Items() {
			if err := m.walk(item, mem, addr+uint32(k)*el.Size, store); err != nil {
				return errors.Prefix(indexName(k), err)
			}
		}
		return nil

	case *value.Block:
		return m.block(vv, info, mem, addr, store)

	default:
		return errors.Unsupported(errors.PhaseABI, "mirroring "+types.TypeName(v.Type()))
	}
}

func (m *Mirror) assembly(a *value.Assembly, wt wit.Type, info Info, mem bitschema.Memory, addr uint32, store bool) error {
	td, _ := wt.(*wit.TypeDef)
	if td == nil {
		return intIO(a, mem, addr, info.Size, false, store)
	}

	switch td.Kind.(type) {
	case *wit.Flags:
		return flagsIO(a, mem, addr, info.Size, store)

	case *wit.Record:
		desc := a.Descriptor()
		for i := 0; i < desc.NumFields(); i++ {
			fl := desc.FieldAt(i)
			if fl.Padding {
				continue
			}
			n, err := Name(fl.Name)
			if err != nil {
				return err
			}
			if err := m.walk(a.FieldAt(i), mem, addr+info.FieldOffs[n], store); err != nil {
				return errors.Prefix(fl.Name, err)
			}
		}
		return nil

	default:
		return intIO(a, mem, addr, info.Size, false, store)
	}
}

func (m *Mirror) block(b *value.Block, info Info, mem bitschema.Memory, addr uint32, store bool) error {
	for _, f := range types.Fields(b.Group()) {
		fv, err := b.Field(f.Name)
		if err != nil {
			return err
		}
		n, err := Name(f.Name)
		if err != nil {
			return err
		}
		if err := m.walk(fv, mem, addr+info.FieldOffs[n], store); err != nil {
			return errors.Prefix(f.Name, err)
		}

		lt := levelType(f.Type)
		if lt == nil {
			continue
		}
		ln, err := Name(f.Name + "_level")
		if err != nil {
			return err
		}
		regs := registersOf(fv)
		lvl, err := m.Layout(regs[0].Level().Type())
		if err != nil {
			return err
		}
		base := addr + info.FieldOffs[ln]
		for k, r := range regs {
			if err := m.walk(r.Level(), mem, base+uint32(k)*lvl.Size, store); err != nil {
				return errors.Prefix(f.Name+"_level", err)
			}
		}
	}
	return nil
}

func registersOf(v value.Value) []*value.Register {
	switch vv := v.(type) {
	case *value.Register:
		return []*value.Register{vv}
	case *value.UnpackedArray:
		out := make([]*value.Register, 0, vv.Len())
		for _, item := range vv.Items() {
			if r, ok := item.(*value.Register); ok {
				out = append(out, r)
			}
		}
		return out
	default:
		return nil
	}
}

func intIO(b value.Bits, mem bitschema.Memory, addr, size uint32, signed bool, store bool) error {
	width := b.Type().Width()
	container := new(big.Int).Lsh(big.NewInt(1), uint(size*8))
	full := new(big.Int).Lsh(big.NewInt(1), uint(width))

	if store {
		v := b.Get()
		if signed && v.Bit(width-1) == 1 {
			v.Add(v, container).Sub(v, full)
		}
		return writeInt(mem, addr, size, v)
	}

	u, err := readInt(mem, addr, size)
	if err != nil {
		return err
	}
	if !signed {
		if u.BitLen() > width {
			return errors.Range(errors.PhaseABI, nil, u, width)
		}
		return b.Set(u)
	}

	s := new(big.Int).Set(u)
	if u.Bit(int(size*8)-1) == 1 {
		s.Sub(s, container)
	}
	half := new(big.Int).Rsh(full, 1)
	if s.Cmp(half) >= 0 || s.Cmp(new(big.Int).Neg(half)) < 0 {
		return errors.Range(errors.PhaseABI, nil, s, width)
	}
	if s.Sign() < 0 {
		s.Add(s, full)
	}
	return b.Set(s)
}

func enumIO(e *value.Enum, mem bitschema.Memory, addr, size uint32, store bool) error {
	desc := e.Type().(*types.Enum)
	entries := desc.Entries()

	if store {
		name, _ := e.Name()
		for i, en := range entries {
			if en.Name == name {
				return writeInt(mem, addr, size, bits.Int(i))
			}
		}
		return errors.Enum(desc.Name(), "", "value %s has no case", e.Get())
	}

	idx, err := readInt(mem, addr, size)
	if err != nil {
		return err
	}
	if !idx.IsInt64() || idx.Int64() >= int64(len(entries)) {
		return errors.Enum(desc.Name(), "", "case %s out of range (%d cases)", idx, len(entries))
	}
	return e.Set(entries[idx.Int64()].Value)
}

func flagsIO(a *value.Assembly, mem bitschema.Memory, addr, size uint32, store bool) error {
	n := len(types.Fields(a.Descriptor()))

	if store {
		mask := new(big.Int)
		for i := 0; i < n; i++ {
			if a.FieldAt(i).Get().Sign() != 0 {
				mask.SetBit(mask, i, 1)
			}
		}
		return writeInt(mem, addr, size, mask)
	}

	mask, err := readInt(mem, addr, size)
	if err != nil {
		return err
	}
	if mask.BitLen() > n {
		return errors.Range(errors.PhaseABI, nil, mask, n)
	}
	for i := 0; i < n; i++ {
		if err := a.FieldAt(i).Set(bits.Int(mask.Bit(i))); err != nil {
			return err
		}
	}
	return nil
}

func writeInt(mem bitschema.Memory, addr, size uint32, v *big.Int) error {
	switch size {
	case 1:
		return mem.WriteU8(addr, uint8(v.Uint64()))
	case 2:
		return mem.WriteU16(addr, uint16(v.Uint64()))
	case 4:
		return mem.WriteU32(addr, uint32(v.Uint64()))
	}
	word := new(big.Int)
	mask := new(big.Int).SetUint64(^uint64(0))
	for off := uint32(0); off < size; off += 8 {
		word.Rsh(v, uint(off*8)).And(word, mask)
		if err := mem.WriteU64(addr+off, word.Uint64()); err != nil {
			return err
		}
	}
	return nil
}

func readInt(mem bitschema.Memory, addr, size uint32) (*big.Int, error) {
	switch size {
	case 1:
		b, err := mem.ReadU8(addr)
		return bits.Int(b), err
	case 2:
		h, err := mem.ReadU16(addr)
		return bits.Int(h), err
	case 4:
		x, err := mem.ReadU32(addr)
		return bits.Int(x), err
	}
	out := new(big.Int)
	for off := uint32(0); off < size; off += 8 {
		w, err := mem.ReadU64(addr + off)
		if err != nil {
			return nil, err
		}
		out.Or(out, new(big.Int).Lsh(new(big.Int).SetUint64(w), uint(off*8)))
	}
	return out, nil
}

func indexName(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
