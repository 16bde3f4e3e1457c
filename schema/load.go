package schema

import (
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/bitschema/bits"
	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

// A schema document lists constants and then types in dependency order:
//
//	package: soc
//	constants:
//	  DEPTH: 8
//	types:
//	  - name: Mode
//	    kind: enum
//	    attrs: {mode: onehot}
//	    entries:
//	      - name: IDLE
//	      - name: RUN
//	  - name: rx
//	    kind: register
//	    attrs: {behavior: fifo_x2i, depth: DEPTH}
//	    fields:
//	      - {name: data, type: uint8[4]}
//	      - {name: mode, type: Mode, default: 1}
//
// Field types are a declared name or uintN/sintN, followed by optional
// [dim] suffixes; dims and attribute values may name a constant.
type document struct {
	Constants map[string]any `yaml:"constants" toml:"constants"`
	Package   string         `yaml:"package" toml:"package"`
	Doc       string         `yaml:"doc" toml:"doc"`
	Types     []typeDecl     `yaml:"types" toml:"types"`
}

type typeDecl struct {
	Attrs   map[string]any `yaml:"attrs" toml:"attrs"`
	Name    string         `yaml:"name" toml:"name"`
	Kind    string         `yaml:"kind" toml:"kind"`
	Doc     string         `yaml:"doc" toml:"doc"`
	Fields  []fieldDecl    `yaml:"fields" toml:"fields"`
	Entries []entryDecl    `yaml:"entries" toml:"entries"`
	line    int
}

type fieldDecl struct {
	Default any    `yaml:"default" toml:"default"`
	Name    string `yaml:"name" toml:"name"`
	Type    string `yaml:"type" toml:"type"`
	Doc     string `yaml:"doc" toml:"doc"`
	line    int
}

type entryDecl struct {
	Value any    `yaml:"value" toml:"value"`
	Name  string `yaml:"name" toml:"name"`
	Doc   string `yaml:"doc" toml:"doc"`
	line  int
}

// ValueError is a YAML decoding error tied to a node.
type ValueError struct {
	Node *yaml.Node
	Err  error
}

func (v ValueError) Unwrap() error { return v.Err }

func (v ValueError) Error() string {
	return fmt.Sprintf("%d: %s", v.Node.Line, v.Err)
}

func valueErrorf(n *yaml.Node, format string, a ...any) ValueError {
	return ValueError{
		Node: n,
		Err:  fmt.Errorf(format, a...),
	}
}

func checkKeys(n *yaml.Node, allowed ...string) error {
	if n.Kind != yaml.MappingNode {
		return valueErrorf(n, "expected a mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i]; !slices.Contains(allowed, k.Value) {
			return valueErrorf(k, "unknown key %q", k.Value)
		}
	}
	return nil
}

func (d *document) UnmarshalYAML(value *yaml.Node) error {
	if err := checkKeys(value, "package", "doc", "constants", "types"); err != nil {
		return err
	}
	type plain document
	return value.Decode((*plain)(d))
}

func (d *typeDecl) UnmarshalYAML(value *yaml.Node) error {
	if err := checkKeys(value, "name", "kind", "doc", "attrs", "fields", "entries"); err != nil {
		return err
	}
	type plain typeDecl
	if err := value.Decode((*plain)(d)); err != nil {
		return err
	}
	d.line = value.Line
	return nil
}

func (f *fieldDecl) UnmarshalYAML(value *yaml.Node) error {
	if err := checkKeys(value, "name", "type", "default", "doc"); err != nil {
		return err
	}
	type plain fieldDecl
	if err := value.Decode((*plain)(f)); err != nil {
		return err
	}
	f.line = value.Line
	return nil
}

func (e *entryDecl) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.Name = value.Value
		e.line = value.Line
		return nil
	}
	if err := checkKeys(value, "name", "value", "doc"); err != nil {
		return err
	}
	type plain entryDecl
	if err := value.Decode((*plain)(e)); err != nil {
		return err
	}
	e.line = value.Line
	return nil
}

// LoadYAML reads a YAML schema document. Errors carry source:line.
func LoadYAML(r io.Reader, source string) (*Package, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		var ve ValueError
		if errors.As(err, &ve) {
			return nil, errors.At(fmt.Sprintf("%s:%d", source, ve.Node.Line),
				errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, ve.Err, "invalid schema"))
		}
		return nil, errors.At(source, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "parse yaml"))
	}
	return assemble(&doc, source)
}

// LoadTOML reads a TOML schema document with the same layout as the YAML
// form. Keys the document does not define are rejected.
func LoadTOML(r io.Reader, source string) (*Package, error) {
	var doc document
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, errors.At(source, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "parse toml"))
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.At(source, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Detail("unknown key %q", undecoded[0].String()).
			Build())
	}
	return assemble(&doc, source)
}

// LoadFile loads a .yaml, .yml or .toml schema file.
func LoadFile(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "open schema")
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f, path)
	case ".toml":
		return LoadTOML(f, path)
	default:
		return nil, errors.Unsupported(errors.PhaseLoad, "schema format "+filepath.Ext(path))
	}
}

func assemble(doc *document, source string) (*Package, error) {
	pkg := NewPackage(doc.Package)
	pkg.Doc = doc.Doc

	names := maps.Keys(doc.Constants)
	slices.Sort(names)
	for _, name := range names {
		v, err := toBig(doc.Constants[name])
		if err == nil && v == nil {
			err = fmt.Errorf("constant has no value")
		}
		if err != nil {
			return nil, errors.At(source, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "constant "+name))
		}
		if err := pkg.Define(name, v); err != nil {
			return nil, errors.At(source, err)
		}
	}

	b := NewBuilder(pkg)
	for _, td := range doc.Types {
		loc := types.Location{File: source, Line: td.line}
		d, err := declaration(pkg, td, loc)
		if err != nil {
			return nil, errors.At(loc.String(), err)
		}
		if _, err := b.DeclareAt(d); err != nil {
			return nil, errors.At(loc.String(), err)
		}
	}

	Logger().Debug("schema loaded",
		zap.String("source", source),
		zap.String("package", pkg.Name),
		zap.Int("types", len(doc.Types)),
		zap.Int("constants", len(names)))

	return b.Finish(), nil
}

func declaration(pkg *Package, td typeDecl, loc types.Location) (Declaration, error) {
	kind, ok := types.ParseKind(td.Kind)
	if !ok || kind == types.KindArray {
		return Declaration{}, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Type(td.Name).
			Detail("unknown kind %q", td.Kind).
			Build()
	}

	d := Declaration{
		Kind:  kind,
		Name:  td.Name,
		Info:  types.Info{Doc: td.Doc, Source: loc},
		Attrs: make(map[string]any, len(td.Attrs)),
	}
	for k, v := range td.Attrs {
		if s, ok := v.(string); ok {
			if c, ok := pkg.Constant(s); ok {
				if !c.IsInt64() {
					return Declaration{}, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
						Type(td.Name).
						Path(k).
						Detail("constant %s does not fit in 64 bits", s).
						Build()
				}
				v = c.Int64()
			}
		}
		d.Attrs[k] = v
	}

	if kind == types.KindEnum {
		if len(td.Fields) > 0 {
			return Declaration{}, errors.Enum(td.Name, "", "enums declare entries, not fields")
		}
		for _, e := range td.Entries {
			v, err := toBig(e.Value)
			if err != nil {
				return Declaration{}, errors.Enum(td.Name, e.Name, "%s", err)
			}
			d.Fields = append(d.Fields, types.Field{Name: e.Name, Default: v, Doc: e.Doc})
		}
		return d, nil
	}

	if len(td.Entries) > 0 {
		return Declaration{}, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Type(td.Name).
			Detail("only enums declare entries").
			Build()
	}
	for _, fd := range td.Fields {
		t, err := ResolveType(pkg, fd.Type)
		if err != nil {
			return Declaration{}, errors.At(types.Location{File: loc.File, Line: fd.line}.String(), errors.Prefix(fd.Name, err))
		}
		def, err := toBig(fd.Default)
		if err != nil {
			return Declaration{}, errors.Prefix(fd.Name, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "default"))
		}
		d.Fields = append(d.Fields, types.Field{Name: fd.Name, Type: t, Default: def, Doc: fd.Doc})
	}
	return d, nil
}

var (
	typeExpr    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)((?:\[[^\]]+\])*)$`)
	dimExpr     = regexp.MustCompile(`\[([^\]]+)\]`)
	builtinExpr = regexp.MustCompile(`^(u|s)int([0-9]+)$`)
)

// ResolveType parses a field type expression such as "Mode", "uint12" or
// "Header[4][2]" against the declarations of pkg.
func ResolveType(pkg *Package, expr string) (types.Type, error) {
	m := typeExpr.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("invalid type expression %q", expr))
	}

	base, ok := pkg.Lookup(m[1])
	if !ok {
		bm := builtinExpr.FindStringSubmatch(m[1])
		if bm == nil {
			return nil, errors.NotFound(errors.PhaseLoad, "type", m[1])
		}
		width, err := strconv.Atoi(bm[2])
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "width of "+m[1])
		}
		base, err = types.NewScalar("", width, types.ScalarOptions{Signed: bm[1] == "s"})
		if err != nil {
			return nil, err
		}
	}
	if m[2] == "" {
		return base, nil
	}

	var dims []int
	for _, dm := range dimExpr.FindAllStringSubmatch(m[2], -1) {
		s := strings.TrimSpace(dm[1])
		n, err := strconv.Atoi(s)
		if err != nil {
			c, ok := pkg.Constant(s)
			if !ok {
				return nil, errors.NotFound(errors.PhaseLoad, "constant", s)
			}
			if !c.IsInt64() || c.Int64() > math.MaxInt32 {
				return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("dimension %s is too large", s))
			}
			n = int(c.Int64())
		}
		dims = append(dims, n)
	}
	return types.NewArray(base, dims...)
}

func toBig(v any) (*big.Int, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int:
		return bits.Int(n), nil
	case int64:
		return bits.Int(n), nil
	case uint64:
		return bits.Int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("%v is not an integer", n)
		}
		b, _ := big.NewFloat(n).Int(nil)
		return b, nil
	case string:
		b, ok := new(big.Int).SetString(strings.ReplaceAll(n, "_", ""), 0)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", n)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
