package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
)

const socYAML = `package: soc
doc: Test chip
constants:
  DEPTH: 15
  LANES: 2
types:
  - name: Mode
    kind: enum
    attrs: {mode: onehot}
    entries:
      - IDLE
      - RUN
      - name: HALT
        doc: stopped
  - name: Header
    kind: struct
    attrs: {width: 16}
    fields:
      - {name: mode, type: Mode, default: 2}
      - {name: len, type: uint12}
  - name: ctrl
    kind: register
    doc: Control
    fields:
      - {name: enable, type: uint1, default: 1}
      - {name: lanes, type: "uint4[LANES]"}
  - name: rx
    kind: register
    attrs: {behavior: fifo_x2i, depth: DEPTH}
    fields:
      - {name: hdr, type: Header}
  - name: regs
    kind: file
    fields:
      - {name: ctrl, type: ctrl}
      - {name: rx, type: rx}
`

func loadSoc(t *testing.T) *Package {
	t.Helper()
	pkg, err := LoadYAML(strings.NewReader(socYAML), "soc.yaml")
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	return pkg
}

func TestLoadYAML(t *testing.T) {
	pkg := loadSoc(t)

	if pkg.Name != "soc" || pkg.Doc != "Test chip" {
		t.Errorf("got package %q doc %q", pkg.Name, pkg.Doc)
	}
	if c, ok := pkg.Constant("DEPTH"); !ok || c.Int64() != 15 {
		t.Errorf("got DEPTH %v, want 15", c)
	}

	var names []string
	for _, typ := range pkg.Types() {
		names = append(names, typ.Name())
	}
	if got := strings.Join(names, ","); got != "Mode,Header,ctrl,rx,regs" {
		t.Errorf("got types %s", got)
	}

	mode, _ := pkg.Lookup("Mode")
	e := mode.(*types.Enum)
	if v, ok := e.Lookup("HALT"); !ok || v.Int64() != 4 {
		t.Errorf("got HALT %v, want 4", v)
	}
	if doc := e.Entries()[2].Doc; doc != "stopped" {
		t.Errorf("got entry doc %q, want stopped", doc)
	}

	hdr, _ := pkg.Lookup("Header")
	if src := hdr.Info().Source; src.File != "soc.yaml" || src.Line != 15 {
		t.Errorf("got source %v, want soc.yaml:15", src)
	}

	rx, _ := pkg.Lookup("rx")
	reg := rx.(*types.Register)
	if reg.Behavior() != types.FIFOX2I || reg.Depth() != 15 {
		t.Errorf("got %s depth %d, want fifo_x2i depth 15", reg.Behavior(), reg.Depth())
	}

	ctrl, _ := pkg.Lookup("ctrl")
	if ctrl.Width() != 9 {
		t.Errorf("got ctrl width %d, want 9", ctrl.Width())
	}
	if ctrl.Info().Doc != "Control" {
		t.Errorf("got doc %q, want Control", ctrl.Info().Doc)
	}
	if r := types.ResetValue(ctrl); r.Int64() != 1 {
		t.Errorf("got ctrl reset %v, want 1", r)
	}

	files := pkg.Files()
	if len(files) != 1 || files[0].ByteSize() != 6 {
		t.Fatalf("got files %v, want one 6 byte file", files)
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		source string
		kind   errors.Kind
	}{
		{
			name:   "unknown_type_key",
			doc:    "types:\n  - name: A\n    kind: scalar\n    color: red\n",
			source: "s.yaml:4",
			kind:   errors.KindInvalidInput,
		},
		{
			name:   "unknown_top_key",
			doc:    "package: p\nversion: 2\n",
			source: "s.yaml:2",
			kind:   errors.KindInvalidInput,
		},
		{
			name:   "unknown_field_type",
			doc:    "types:\n  - name: S\n    kind: struct\n    fields:\n      - {name: a, type: uint4}\n      - {name: b, type: Missing}\n",
			source: "s.yaml:6",
			kind:   errors.KindNotFound,
		},
		{
			name:   "width",
			doc:    "types:\n  - name: S\n    kind: struct\n    attrs: {width: 2}\n    fields:\n      - {name: a, type: uint4}\n",
			source: "s.yaml:2",
			kind:   errors.KindWidth,
		},
		{
			name:   "unknown_kind",
			doc:    "types:\n  - name: B\n    kind: blob\n",
			source: "s.yaml:2",
			kind:   errors.KindInvalidInput,
		},
		{
			name:   "entries_on_struct",
			doc:    "types:\n  - name: S\n    kind: struct\n    entries: [A]\n",
			source: "s.yaml:2",
			kind:   errors.KindInvalidInput,
		},
		{
			name:   "bad_default",
			doc:    "types:\n  - name: S\n    kind: struct\n    fields:\n      - {name: a, type: uint4, default: lots}\n",
			source: "s.yaml:2",
			kind:   errors.KindInvalidInput,
		},
		{
			name:   "default_out_of_range",
			doc:    "types:\n  - name: S\n    kind: struct\n    fields:\n      - {name: a, type: uint4, default: 16}\n",
			source: "s.yaml:2",
			kind:   errors.KindRange,
		},
		{
			name:   "empty_constant",
			doc:    "constants:\n  X:\n",
			source: "s.yaml",
			kind:   errors.KindInvalidInput,
		},
		{
			name:   "bad_attr",
			doc:    "types:\n  - name: R\n    kind: register\n    attrs: {behavior: level}\n    fields:\n      - {name: a, type: uint4}\n",
			source: "s.yaml:2",
			kind:   errors.KindAttributeSchema,
		},
		{
			name:   "wide_constant_attr",
			doc:    "constants:\n  HUGE: \"0x10000000000000000\"\ntypes:\n  - name: R\n    kind: register\n    attrs: {behavior: fifo_x2i, depth: HUGE}\n    fields:\n      - {name: a, type: uint4}\n",
			source: "s.yaml:4",
			kind:   errors.KindInvalidInput,
		},
		{
			name:   "malformed",
			doc:    "types: [\n",
			source: "s.yaml",
			kind:   errors.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(tt.doc), "s.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !errors.As(err, &e) {
				t.Fatalf("got %T, want *errors.Error", err)
			}
			if e.Source != tt.source {
				t.Errorf("got source %q, want %q (%v)", e.Source, tt.source, err)
			}
			if e.Kind != tt.kind {
				t.Errorf("got kind %q, want %q (%v)", e.Kind, tt.kind, err)
			}
		})
	}
}

const socTOML = `
package = "soc"

[constants]
DEPTH = 8

[[types]]
name = "Op"
kind = "enum"
  [[types.entries]]
  name = "NOP"
  [[types.entries]]
  name = "JMP"
  value = 5

[[types]]
name = "cmd"
kind = "register"
attrs = { behavior = "fifo_i2x", depth = "DEPTH" }
fields = [
  { name = "op", type = "Op" },
  { name = "arg", type = "sint5", default = -3 },
]
`

func TestLoadTOML(t *testing.T) {
	pkg, err := LoadTOML(strings.NewReader(socTOML), "soc.toml")
	if err != nil {
		t.Fatalf("LoadTOML: %v", err)
	}

	op, ok := pkg.Lookup("Op")
	if !ok {
		t.Fatal("Op not declared")
	}
	if op.Width() != 3 {
		t.Errorf("got Op width %d, want 3", op.Width())
	}

	cmd, _ := pkg.Lookup("cmd")
	reg := cmd.(*types.Register)
	if reg.Behavior() != types.FIFOI2X || reg.Depth() != 8 {
		t.Errorf("got %s depth %d, want fifo_i2x depth 8", reg.Behavior(), reg.Depth())
	}
	if reg.Level().Width() != 4 {
		t.Errorf("got level width %d, want 4", reg.Level().Width())
	}
	i, _ := reg.Lookup("arg")
	f := reg.FieldAt(i)
	if f.Default == nil || f.Default.Int64() != -3 {
		t.Errorf("got arg default %v, want -3", f.Default)
	}
	// op holds NOP (0), arg holds -3 as five bits.
	if r := types.ResetValue(reg); r.Int64() != 0x1d<<3 {
		t.Errorf("got reset %#x, want %#x", r, 0x1d<<3)
	}
}

func TestLoadTOMLUnknownKey(t *testing.T) {
	doc := "package = \"p\"\n[[types]]\nname = \"A\"\nkind = \"scalar\"\ncolour = \"red\"\n"
	_, err := LoadTOML(strings.NewReader(doc), "p.toml")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "colour") {
		t.Errorf("got %v, want the unknown key named", err)
	}
	var e *errors.Error
	if !errors.As(err, &e) || e.Source != "p.toml" {
		t.Errorf("got %v, want source p.toml", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "soc.yml")
	if err := os.WriteFile(path, []byte(socYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	pkg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(pkg.Types()) != 5 {
		t.Errorf("got %d types, want 5", len(pkg.Types()))
	}

	other := filepath.Join(dir, "soc.json")
	if err := os.WriteFile(other, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(other); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("got %v, want unsupported format", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestResolveType(t *testing.T) {
	pkg := loadSoc(t)

	tests := []struct {
		expr  string
		name  string
		width int
		err   errors.Kind
	}{
		{expr: "uint12", name: "uint12", width: 12},
		{expr: "sint8", name: "sint8", width: 8},
		{expr: "Header", name: "Header", width: 16},
		{expr: "Header[4][2]", name: "Header[4][2]", width: 128},
		{expr: " uint4[LANES] ", name: "uint4[2]", width: 8},
		{expr: "uint4[ 3 ]", name: "uint4[3]", width: 12},
		{expr: "4bits", err: errors.KindInvalidInput},
		{expr: "Missing", err: errors.KindNotFound},
		{expr: "uint4[NOPE]", err: errors.KindNotFound},
		{expr: "uint4[0]", err: errors.KindInvalidInput},
		{expr: "uint0", err: errors.KindWidth},
		{expr: "uint99999999999999999999", err: errors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ResolveType(pkg, tt.expr)
			if tt.err != "" {
				if k := errors.KindOf(err); k != tt.err {
					t.Fatalf("got %v, want kind %q", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveType: %v", err)
			}
			if n := types.TypeName(got); n != tt.name {
				t.Errorf("got name %q, want %q", n, tt.name)
			}
			if got.Width() != tt.width {
				t.Errorf("got width %d, want %d", got.Width(), tt.width)
			}
		})
	}
}
