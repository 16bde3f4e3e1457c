package types

import (
	"fmt"
	"math/bits"

	"go.uber.org/zap"

	"github.com/wippyai/bitschema/errors"
)

// Placement is one entry of a group's address map: a register, a nested
// group, one element of an arrayed field, or a synthesized level register.
// Offsets and sizes are in bytes relative to the group base.
type Placement struct {
	Type   Type
	Name   string
	Index  []int
	Field  int
	Size   int
	Align  int
	Offset int
	Stride int
	Level  bool
}

// Path renders the placement name with its array index, e.g. "tx[3]".
func (p Placement) Path() string {
	s := p.Name
	for _, i := range p.Index {
		s += fmt.Sprintf("[%d]", i)
	}
	return s
}

// GroupOptions configures NewGroup. A zero Align selects the larger of the
// cadence and the strictest field alignment.
type GroupOptions struct {
	Info  Info
	Align int
}

// Group places registers and nested groups in a byte address space.
type Group struct {
	index      map[string]int
	name       string
	info       Info
	fields     []Field
	placements []Placement
	byField    [][]int
	width      int
	cadence    int
	size       int
	align      int
}

// NewGroup computes byte offsets for fields in declaration order. Fields
// must be registers or groups, optionally arrayed.
func NewGroup(name string, fields []Field, opts GroupOptions) (*Group, error) {
	if len(fields) == 0 {
		return nil, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
			Type(name).
			Detail("group has no fields").
			Build()
	}
	if opts.Align != 0 && !isPow2(opts.Align) {
		return nil, errors.Attribute(name, "align", "alignment %d is not a power of two", opts.Align)
	}

	g := &Group{
		index:   make(map[string]int, len(fields)),
		name:    name,
		info:    opts.Info,
		fields:  append([]Field(nil), fields...),
		byField: make([][]int, len(fields)),
	}

	maxAlign := 1
	for i, f := range fields {
		if err := checkGroupField(name, f); err != nil {
			return nil, err
		}
		if _, dup := g.index[f.Name]; dup {
			return nil, errors.Duplicate(name, "field", f.Name)
		}
		g.index[f.Name] = i

		elem, _ := groupElem(f.Type)
		g.width = max(g.width, elem.Width())
		maxAlign = max(maxAlign, alignOf(elem))
	}

	g.cadence = nextPow2(max(g.width, 8)) / 8

	offset := 0
	for i, f := range fields {
		elem, dims := groupElem(f.Type)
		indices := [][]int{nil}
		if dims != nil {
			indices = Indices(dims)
		}
		for _, idx := range indices {
			p := Placement{
				Type:  elem,
				Name:  f.Name,
				Index: idx,
				Field: i,
				Size:  sizeOf(elem),
				Align: alignOf(elem),
			}
			p.Offset = roundUp(offset, max(p.Align, g.cadence))
			p.Stride = g.stride(p.Size)
			offset = p.Offset + p.Stride
			g.add(i, p)

			if reg, ok := elem.(*Register); ok && reg.Level() != nil {
				lvl := reg.Level()
				lp := Placement{
					Type:   lvl,
					Name:   f.Name + "_level",
					Index:  idx,
					Field:  i,
					Size:   lvl.ByteSize(),
					Align:  lvl.Align(),
					Offset: p.Offset + p.Size,
					Level:  true,
				}
				lp.Stride = g.stride(lp.Size)
				offset = lp.Offset + lp.Stride
				g.add(i, lp)
			}
		}
	}
	g.size = offset

	g.align = opts.Align
	if g.align == 0 {
		g.align = max(maxAlign, g.cadence)
	}

	Logger().Debug("group layout",
		zap.String("name", name),
		zap.Int("width", g.width),
		zap.Int("cadence", g.cadence),
		zap.Int("size", g.size),
		zap.Int("placements", len(g.placements)))

	return g, nil
}

func (g *Group) add(field int, p Placement) {
	g.byField[field] = append(g.byField[field], len(g.placements))
	g.placements = append(g.placements, p)
}

func (g *Group) stride(size int) int {
	return (size + g.cadence - 1) / g.cadence * g.cadence
}

func checkGroupField(group string, f Field) error {
	if f.Name == "" {
		return errors.New(errors.PhaseLayout, errors.KindInvalidInput).
			Type(group).
			Detail("group field has no name").
			Build()
	}
	if f.Type == nil {
		return errors.New(errors.PhaseLayout, errors.KindInvalidInput).
			Type(group).
			Path(f.Name).
			Detail("field has no type").
			Build()
	}
	elem, _ := groupElem(f.Type)
	switch t := elem.(type) {
	case *Register:
		if !t.Behavior().Primary() {
			return errors.New(errors.PhaseLayout, errors.KindUnsupported).
				Type(group).
				Path(f.Name).
				Detail("behavior %s cannot be declared as a group field", t.Behavior()).
				Build()
		}
		return nil
	case *Group:
		return nil
	default:
		return errors.New(errors.PhaseLayout, errors.KindUnsupported).
			Type(group).
			Path(f.Name).
			Detail("%s %s is not a register or group", elem.Kind(), TypeName(elem)).
			Build()
	}
}

// groupElem unwraps an arrayed group field.
func groupElem(t Type) (Type, []int) {
	if a, ok := t.(*Array); ok {
		return a.Elem(), a.Dims()
	}
	return t, nil
}

func sizeOf(t Type) int {
	switch tt := t.(type) {
	case *Register:
		return tt.ByteSize()
	case *Group:
		return tt.ByteSize()
	default:
		return (t.Width() + 7) / 8
	}
}

func alignOf(t Type) int {
	switch tt := t.(type) {
	case *Register:
		return tt.Align()
	case *Group:
		return tt.Align()
	default:
		return 1
	}
}

func roundUp(n, align int) int {
	return (n + align - 1) / align * align
}

func (g *Group) Kind() Kind { return KindGroup }
func (g *Group) Name() string { return g.name }
func (g *Group) Info() Info { return g.info }

// Width is the widest field in bits.
func (g *Group) Width() int { return g.width }

// Cadence is the default stride between fields in bytes.
func (g *Group) Cadence() int { return g.cadence }

// ByteSize is the total span of the group in bytes.
func (g *Group) ByteSize() int { return g.size }

// Align is the byte alignment of the group when nested.
func (g *Group) Align() int { return g.align }

// Placements returns the address map in walk order.
func (g *Group) Placements() []Placement {
	return append([]Placement(nil), g.placements...)
}

// Find returns the placements of the named field, level pairs included.
func (g *Group) Find(name string) ([]Placement, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Placement, len(g.byField[i]))
	for k, pi := range g.byField[i] {
		out[k] = g.placements[pi]
	}
	return out, true
}

// RegisterAt is a register reachable from a group with its absolute byte
// address.
type RegisterAt struct {
	Register *Register
	Path     string
	Address  int
	Level    bool
}

// Registers walks every register in the group, nested groups included,
// with addresses relative to base.
func (g *Group) Registers(base int) []RegisterAt {
	var out []RegisterAt
	g.walk(base, "", &out)
	return out
}

func (g *Group) walk(base int, prefix string, out *[]RegisterAt) {
	for _, p := range g.placements {
		path := prefix + p.Path()
		switch t := p.Type.(type) {
		case *Register:
			*out = append(*out, RegisterAt{Register: t, Path: path, Address: base + p.Offset, Level: p.Level})
		case *Group:
			t.walk(base+p.Offset, path+".", out)
		}
	}
}

// File is the top-level group of a register map.
type File struct {
	*Group
}

// NewFile lays out a register file like NewGroup.
func NewFile(name string, fields []Field, opts GroupOptions) (*File, error) {
	g, err := NewGroup(name, fields, opts)
	if err != nil {
		return nil, err
	}
	return &File{Group: g}, nil
}

func (f *File) Kind() Kind { return KindFile }

// MaxOffset is the largest register address in the file.
func (f *File) MaxOffset() int {
	m := 0
	for _, r := range f.Registers(0) {
		m = max(m, r.Address)
	}
	return m
}

// AddressBits is the number of address bits needed to reach MaxOffset.
func (f *File) AddressBits() int {
	return max(1, bits.Len(uint(f.MaxOffset())))
}
