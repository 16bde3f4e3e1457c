package value

import (
	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

// Block is an instance of a Group or File at a base address. Field
// instances are created on first access and cached.
type Block struct {
	group  *types.Group
	file   *types.File
	fields map[int]Value
	base   int
}

// NewBlock instantiates g at base.
func NewBlock(g *types.Group, base int) *Block {
	return &Block{group: g, base: base}
}

// NewFile instantiates a register file at base.
func NewFile(f *types.File, base int) *Block {
	return &Block{group: f.Group, file: f, base: base}
}

func (b *Block) Type() types.Type {
	if b.file != nil {
		return b.file
	}
	return b.group
}

// Group returns the group descriptor.
func (b *Block) Group() *types.Group { return b.group }

// Base is the absolute byte address of the block.
func (b *Block) Base() int { return b.base }

// Field returns the instance of a declared field: a *Register, a nested
// *Block, or an *UnpackedArray of either for arrayed fields.
func (b *Block) Field(name string) (Value, error) {
	fields := types.Fields(b.group)
	for i, f := range fields {
		if f.Name == name {
			return b.fieldAt(i, f)
		}
	}
	return nil, errors.NotFound(errors.PhaseBus, "field", name)
}

func (b *Block) fieldAt(i int, f types.Field) (Value, error) {
	if v, ok := b.fields[i]; ok {
		return v, nil
	}

	placements, _ := b.group.Find(f.Name)
	var primaries []types.Placement
	for _, p := range placements {
		if !p.Level {
			primaries = append(primaries, p)
		}
	}

	var (
		v   Value
		err error
	)
	if arr, ok := f.Type.(*types.Array); ok {
		dims := arr.Dims()
		v, err = NewUnpackedArray(arr, func(index []int) Args {
			k := 0
			for d, i := range index {
				k = k*dims[d] + i
			}
			return Args{Address: b.base + primaries[k].Offset}
		})
		if err != nil {
			return nil, errors.Prefix(f.Name, err)
		}
	} else {
		v, err = instantiate(f.Type, Args{Address: b.base + primaries[0].Offset})
		if err != nil {
			return nil, errors.Prefix(f.Name, err)
		}
	}

	if b.fields == nil {
		b.fields = make(map[int]Value)
	}
	b.fields[i] = v
	return v, nil
}

// Registers returns every register instance in the block in address
// order, level pairs included.
func (b *Block) Registers() []*Register {
	var out []*Register
	for i, f := range types.Fields(b.group) {
		v, err := b.fieldAt(i, f)
		if err != nil {
			continue
		}
		out = appendRegisters(out, v)
	}
	return out
}

func appendRegisters(out []*Register, v Value) []*Register {
	switch vv := v.(type) {
	case *Register:
		out = append(out, vv)
		if vv.Level() != nil {
			out = append(out, vv.Level())
		}
	case *Block:
		out = append(out, vv.Registers()...)
	case *UnpackedArray:
		for _, item := range vv.items {
			out = appendRegisters(out, item)
		}
	}
	return out
}

// RegisterAt returns the register instance at an absolute address.
func (b *Block) RegisterAt(address int) (*Register, bool) {
	for _, r := range b.Registers() {
		if r.Address() == address {
			return r, true
		}
	}
	return nil, false
}
