package witgen

import (
	"regexp"
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

var (
	identExpr = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z][a-z0-9]*)*$`)
	lower     = cases.Lower(language.Und)
)

var keywords = map[string]bool{
	"bool": true, "char": true, "enum": true, "flags": true, "func": true,
	"import": true, "export": true, "interface": true, "list": true,
	"option": true, "record": true, "resource": true, "result": true,
	"string": true, "tuple": true, "type": true, "use": true, "variant": true,
	"world": true, "package": true, "include": true, "with": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"s8": true, "s16": true, "s32": true, "s64": true,
	"f32": true, "f64": true, "own": true, "borrow": true,
}

// Name converts a declared name to a WIT identifier: "RxFifo" and
// "rx_fifo" both become "rx-fifo". Keywords are escaped with '%'.
func Name(s string) (string, error) {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	n := lower.String(strings.TrimSuffix(b.String(), "-"))
	if !identExpr.MatchString(n) {
		return "", errors.InvalidInput(errors.PhaseABI, "name "+s+" has no WIT spelling")
	}
	if keywords[n] {
		n = "%" + n
	}
	return n, nil
}

// Projector maps descriptors onto WIT types. Named descriptors become
// named type definitions, created once per descriptor.
type Projector struct {
	defs  map[types.Type]*wit.TypeDef
	named []*wit.TypeDef
}

func NewProjector() *Projector {
	return &Projector{defs: make(map[types.Type]*wit.TypeDef)}
}

// TypeDefs returns the named definitions created so far, dependencies
// first.
func (p *Projector) TypeDefs() []*wit.TypeDef {
	return append([]*wit.TypeDef(nil), p.named...)
}

// Project returns the WIT type mirroring t:
//
//	uint1                   bool
//	uintN/sintN, N <= 64    smallest u8..u64 / s8..s64
//	wider scalars           tuple of u64 words, least significant first
//	enum                    enum, one case per entry
//	struct, register        record, or flags when every field is uint1
//	union                   the unsigned integer of its width
//	array                   tuple of the outer dimension
//	group, file             record of fields and FIFO level registers
func (p *Projector) Project(t types.Type) (wit.Type, error) {
	if td, ok := p.defs[t]; ok {
		return td, nil
	}

	switch tt := t.(type) {
	case *types.Scalar:
		base := scalarType(tt.Width(), tt.Signed())
		if tt.Name() == "" {
			return base, nil
		}
		return p.define(t, base)

	case *types.Enum:
		var cs []wit.EnumCase
		for _, e := range tt.Entries() {
			n, err := Name(e.Name)
			if err != nil {
				return nil, err
			}
			cs = append(cs, wit.EnumCase{Name: n})
		}
		return p.define(t, &wit.Enum{Cases: cs})

	case *types.Union:
		return p.define(t, scalarType(tt.Width(), false))

	case types.Assembly:
		return p.projectAssembly(tt)

	case *types.Array:
		inner, err := p.Project(tt.Inner())
		if err != nil {
			return nil, err
		}
		elems := make([]wit.Type, tt.Count())
		for i := range elems {
			elems[i] = inner
		}
		return p.define(t, &wit.Tuple{Types: elems})

	case *types.File:
		return p.projectGroup(t, tt.Group)

	case *types.Group:
		return p.projectGroup(t, tt)

	default:
		return nil, errors.Unsupported(errors.PhaseABI, "projecting "+types.TypeName(t))
	}
}

func (p *Projector) projectAssembly(a types.Assembly) (wit.Type, error) {
	declared := types.Fields(a)

	flags := len(declared) > 0
	for _, f := range declared {
		if s, ok := f.Type.(*types.Scalar); !ok || s.Width() != 1 || s.Signed() {
			flags = false
			break
		}
	}
	if flags {
		fs := make([]wit.Flag, len(declared))
		for i, f := range declared {
			n, err := Name(f.Name)
			if err != nil {
				return nil, err
			}
			fs[i] = wit.Flag{Name: n}
		}
		return p.define(a, &wit.Flags{Flags: fs})
	}

	rec := &wit.Record{}
	for _, f := range declared {
		if err := p.addField(rec, f.Name, f.Type); err != nil {
			return nil, err
		}
	}
	return p.define(a, rec)
}

func (p *Projector) projectGroup(t types.Type, g *types.Group) (wit.Type, error) {
	rec := &wit.Record{}
	for _, f := range types.Fields(g) {
		if err := p.addField(rec, f.Name, f.Type); err != nil {
			return nil, err
		}
		if lt := levelType(f.Type); lt != nil {
			if err := p.addField(rec, f.Name+"_level", lt); err != nil {
				return nil, err
			}
		}
	}
	return p.define(t, rec)
}

func (p *Projector) addField(rec *wit.Record, name string, t types.Type) error {
	n, err := Name(name)
	if err != nil {
		return err
	}
	for _, f := range rec.Fields {
		if f.Name == n {
			return errors.Duplicate("", "WIT field", n)
		}
	}
	ft, err := p.Project(t)
	if err != nil {
		return errors.Prefix(name, err)
	}
	rec.Fields = append(rec.Fields, wit.Field{Name: n, Type: ft})
	return nil
}

// levelType is the type of the level registers paired with a group field,
// arrayed like the field, or nil.
func levelType(t types.Type) types.Type {
	switch tt := t.(type) {
	case *types.Register:
		if lvl := tt.Level(); lvl != nil {
			return lvl
		}
	case *types.Array:
		if r, ok := tt.Elem().(*types.Register); ok && r.Level() != nil {
			return types.ArrayOf(r.Level(), tt.Dims()...)
		}
	}
	return nil
}

func (p *Projector) define(t types.Type, kind wit.TypeDefKind) (*wit.TypeDef, error) {
	td := &wit.TypeDef{Kind: kind}
	if name := t.Name(); name != "" {
		n, err := Name(name)
		if err != nil {
			return nil, err
		}
		td.Name = &n
		p.named = append(p.named, td)
	}
	p.defs[t] = td

	Logger().Debug("projected",
		zap.String("type", types.TypeName(t)),
		zap.Stringer("kind", t.Kind()))

	return td, nil
}

// scalarType is the smallest WIT integer holding width bits.
func scalarType(width int, signed bool) wit.Type {
	switch {
	case width == 1 && !signed:
		return wit.Bool{}
	case width <= 8:
		if signed {
			return wit.S8{}
		}
		return wit.U8{}
	case width <= 16:
		if signed {
			return wit.S16{}
		}
		return wit.U16{}
	case width <= 32:
		if signed {
			return wit.S32{}
		}
		return wit.U32{}
	case width <= 64:
		if signed {
			return wit.S64{}
		}
		return wit.U64{}
	}
	words := make([]wit.Type, (width+63)/64)
	for i := range words {
		words[i] = wit.U64{}
	}
	return &wit.TypeDef{Kind: &wit.Tuple{Types: words}}
}
