package schema

import (
	"go.uber.org/zap"

	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

// Declaration is one named type declaration. Enum entries are passed as
// fields without a type: Name, Default as the explicit value, and Doc.
type Declaration struct {
	Attrs  map[string]any
	Name   string
	Fields []types.Field
	Info   types.Info
	Kind   types.Kind
}

// Builder turns declarations into frozen descriptors and collects them in
// a Package. A builder is used once: after Finish it rejects further
// declarations.
type Builder struct {
	pkg      *Package
	finished bool
}

// NewBuilder returns a builder that declares into pkg.
func NewBuilder(pkg *Package) *Builder {
	return &Builder{pkg: pkg}
}

// Declare validates attrs against the attribute schema of kind and builds
// the named type.
func (b *Builder) Declare(kind types.Kind, name string, fields []types.Field, attrs map[string]any) (types.Type, error) {
	return b.DeclareAt(Declaration{Kind: kind, Name: name, Fields: fields, Attrs: attrs})
}

// DeclareAt is Declare with declaration metadata.
func (b *Builder) DeclareAt(d Declaration) (types.Type, error) {
	if b.finished {
		return nil, errors.Unsupported(errors.PhaseDeclare, "declaring after the package was finished")
	}
	if d.Name == "" {
		return nil, errors.InvalidInput(errors.PhaseDeclare, d.Kind.String()+" declaration has no name")
	}
	if b.pkg.taken(d.Name) {
		return nil, errors.Duplicate(b.pkg.Name, "name", d.Name)
	}

	attrs, err := decodeAttrs(d.Kind, d.Name, d.Attrs)
	if err != nil {
		return nil, err
	}

	t, err := build(d, attrs)
	if err != nil {
		return nil, err
	}
	if err := b.pkg.Add(t); err != nil {
		return nil, err
	}

	Logger().Debug("declared",
		zap.String("name", d.Name),
		zap.Stringer("kind", d.Kind),
		zap.Int("width", t.Width()))

	return t, nil
}

// Finish freezes the builder and returns the package.
func (b *Builder) Finish() *Package {
	b.finished = true
	return b.pkg
}

func build(d Declaration, attrs any) (types.Type, error) {
	switch a := attrs.(type) {
	case *ScalarAttrs:
		if len(d.Fields) > 0 {
			return nil, errors.Attribute(d.Name, "fields", "a scalar has no fields")
		}
		return types.NewScalar(d.Name, a.Width, types.ScalarOptions{Info: d.Info, Signed: a.Signed})

	case *EnumAttrs:
		mode, _ := types.ParseEnumMode(a.Mode)
		entries := make([]types.EnumEntry, len(d.Fields))
		for i, f := range d.Fields {
			if f.Type != nil {
				return nil, errors.Enum(d.Name, f.Name, "enum entries carry no type")
			}
			entries[i] = types.EnumEntry{Name: f.Name, Value: f.Default, Doc: f.Doc}
		}
		return types.NewEnum(d.Name, entries, types.EnumOptions{Info: d.Info, Mode: mode, Width: a.Width})

	case *StructAttrs:
		packing, _ := types.ParsePacking(a.Packing)
		return types.NewStruct(d.Name, d.Fields, types.StructOptions{Info: d.Info, Width: a.Width, Packing: packing})

	case *UnionAttrs:
		return types.NewUnion(d.Name, d.Fields, types.UnionOptions{Info: d.Info})

	case *RegisterAttrs:
		behavior, _ := types.ParseBehavior(a.Behavior)
		packing, _ := types.ParsePacking(a.Packing)
		return types.NewRegister(d.Name, d.Fields, types.RegisterOptions{
			Info:     d.Info,
			Align:    a.Align,
			Width:    a.Width,
			Depth:    a.Depth,
			Behavior: behavior,
			Packing:  packing,
		})

	case *GroupAttrs:
		opts := types.GroupOptions{Info: d.Info, Align: a.Align}
		if d.Kind == types.KindFile {
			return types.NewFile(d.Name, d.Fields, opts)
		}
		return types.NewGroup(d.Name, d.Fields, opts)

	default:
		return nil, errors.Unsupported(errors.PhaseDeclare, "declaring a "+d.Kind.String())
	}
}
