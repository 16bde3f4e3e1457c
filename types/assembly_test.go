package types

import (
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/wippyai/bitschema/errors"
)

func abcFields() []Field {
	return []Field{
		{Name: "ab", Type: Uint(12)},
		{Name: "cd", Type: Uint(3)},
		{Name: "ef", Type: Uint(9)},
	}
}

type span struct {
	name     string
	lsb, msb int
	padding  bool
}

func spans(a Assembly) []span {
	var out []span
	for _, f := range a.Layout() {
		out = append(out, span{name: f.Name, lsb: f.LSB, msb: f.MSB, padding: f.Padding})
	}
	return out
}

func TestStructLayout(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		opts    StructOptions
		want    []span
		wantW   int
		natural int
	}{
		{
			name:   "lsb_first",
			fields: abcFields(),
			want: []span{
				{name: "ab", lsb: 0, msb: 11},
				{name: "cd", lsb: 12, msb: 14},
				{name: "ef", lsb: 15, msb: 23},
			},
			wantW:   24,
			natural: 24,
		},
		{
			name:   "msb_first",
			fields: abcFields(),
			opts:   StructOptions{Packing: FromMSB},
			want: []span{
				{name: "ab", lsb: 12, msb: 23},
				{name: "cd", lsb: 9, msb: 11},
				{name: "ef", lsb: 0, msb: 8},
			},
			wantW:   24,
			natural: 24,
		},
		{
			name:   "lsb_padded",
			fields: []Field{{Name: "a", Type: Uint(4)}},
			opts:   StructOptions{Width: 8},
			want: []span{
				{name: "a", lsb: 0, msb: 3},
				{lsb: 4, msb: 7, padding: true},
			},
			wantW:   8,
			natural: 4,
		},
		{
			name:   "msb_padded",
			fields: []Field{{Name: "a", Type: Uint(4)}},
			opts:   StructOptions{Width: 8, Packing: FromMSB},
			want: []span{
				{name: "a", lsb: 4, msb: 7},
				{lsb: 0, msb: 3, padding: true},
			},
			wantW:   8,
			natural: 4,
		},
		{
			name:   "exact_explicit_width",
			fields: abcFields(),
			opts:   StructOptions{Width: 24},
			want: []span{
				{name: "ab", lsb: 0, msb: 11},
				{name: "cd", lsb: 12, msb: 14},
				{name: "ef", lsb: 15, msb: 23},
			},
			wantW:   24,
			natural: 24,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStruct("S", tt.fields, tt.opts)
			if err != nil {
				t.Fatalf("NewStruct: %v", err)
			}
			if s.Width() != tt.wantW {
				t.Errorf("width = %d, want %d", s.Width(), tt.wantW)
			}
			if s.NaturalWidth() != tt.natural {
				t.Errorf("natural = %d, want %d", s.NaturalWidth(), tt.natural)
			}
			got := spans(s)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d fields, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("field %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Every bit of every struct is claimed by exactly one field.
func TestStructTiling(t *testing.T) {
	shapes := []struct {
		widths []int
		width  int
	}{
		{widths: []int{1}, width: 0},
		{widths: []int{3, 5, 7}, width: 0},
		{widths: []int{3, 5, 7}, width: 32},
		{widths: []int{64, 64, 1}, width: 200},
	}
	for _, shape := range shapes {
		for _, packing := range []Packing{FromLSB, FromMSB} {
			var fields []Field
			for i, w := range shape.widths {
				fields = append(fields, Field{Name: string(rune('a' + i)), Type: Uint(w)})
			}
			s, err := NewStruct("T", fields, StructOptions{Width: shape.width, Packing: packing})
			if err != nil {
				t.Fatalf("NewStruct(%v): %v", shape.widths, err)
			}
			claimed := make([]int, s.Width())
			for _, f := range s.Layout() {
				for b := f.LSB; b <= f.MSB; b++ {
					claimed[b]++
				}
			}
			for b, n := range claimed {
				if n != 1 {
					t.Errorf("%v %s: bit %d claimed %d times", shape.widths, packing, b, n)
				}
			}
		}
	}
}

func TestStructWidthError(t *testing.T) {
	_, err := NewStruct("Narrow", abcFields(), StructOptions{Width: 8})
	if !errors.Is(err, errors.ErrWidth) {
		t.Fatalf("got %v, want width error", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "8") || !strings.Contains(msg, "24") {
		t.Errorf("error %q should name both 8 and 24", msg)
	}
}

func TestStructFieldErrors(t *testing.T) {
	reg, err := NewRegister("R", []Field{{Name: "x", Type: Uint(8)}}, RegisterOptions{})
	if err != nil {
		t.Fatalf("NewRegister: %v", err)
	}

	tests := []struct {
		name   string
		fields []Field
		want   error
	}{
		{
			name:   "duplicate",
			fields: []Field{{Name: "a", Type: Uint(1)}, {Name: "a", Type: Uint(2)}},
			want:   errors.ErrDuplicate,
		},
		{
			name:   "register_field",
			fields: []Field{{Name: "r", Type: reg}},
			want:   errors.ErrUnsupported,
		},
		{
			name:   "default_too_wide",
			fields: []Field{{Name: "a", Type: Uint(4), Default: big.NewInt(16)}},
			want:   errors.ErrRange,
		},
		{
			name: "empty",
			want: errors.ErrWidth,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStruct("S", tt.fields, StructOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStructArrayElements(t *testing.T) {
	arr := ArrayOf(Uint(4), 3)
	fields := []Field{{Name: "lo", Type: Uint(2)}, {Name: "arr", Type: arr}}

	tests := []struct {
		packing Packing
		want    []Element
	}{
		{
			packing: FromLSB,
			want:    []Element{{Index: 0, LSB: 2, MSB: 5}, {Index: 1, LSB: 6, MSB: 9}, {Index: 2, LSB: 10, MSB: 13}},
		},
		{
			packing: FromMSB,
			want:    []Element{{Index: 0, LSB: 8, MSB: 11}, {Index: 1, LSB: 4, MSB: 7}, {Index: 2, LSB: 0, MSB: 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.packing.String(), func(t *testing.T) {
			s, err := NewStruct("A", fields, StructOptions{Packing: tt.packing})
			if err != nil {
				t.Fatalf("NewStruct: %v", err)
			}
			i, ok := s.Lookup("arr")
			if !ok {
				t.Fatal("arr not found")
			}
			got := s.FieldAt(i).Elements
			if len(got) != len(tt.want) {
				t.Fatalf("got %d elements, want %d", len(got), len(tt.want))
			}
			for k := range got {
				if !reflect.DeepEqual(got[k], tt.want[k]) {
					t.Errorf("element %d = %+v, want %+v", k, got[k], tt.want[k])
				}
			}
		})
	}
}

func TestStructNestedArrayElements(t *testing.T) {
	fields := []Field{{Name: "lo", Type: Uint(1)}, {Name: "grid", Type: ArrayOf(Uint(3), 2, 2)}}

	tests := []struct {
		packing Packing
		want    []Element
	}{
		{
			packing: FromLSB,
			want: []Element{
				{Index: 0, LSB: 1, MSB: 6, Elements: []Element{{Index: 0, LSB: 1, MSB: 3}, {Index: 1, LSB: 4, MSB: 6}}},
				{Index: 1, LSB: 7, MSB: 12, Elements: []Element{{Index: 0, LSB: 7, MSB: 9}, {Index: 1, LSB: 10, MSB: 12}}},
			},
		},
		{
			packing: FromMSB,
			want: []Element{
				{Index: 0, LSB: 6, MSB: 11, Elements: []Element{{Index: 0, LSB: 9, MSB: 11}, {Index: 1, LSB: 6, MSB: 8}}},
				{Index: 1, LSB: 0, MSB: 5, Elements: []Element{{Index: 0, LSB: 3, MSB: 5}, {Index: 1, LSB: 0, MSB: 2}}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.packing.String(), func(t *testing.T) {
			s, err := NewStruct("G", fields, StructOptions{Packing: tt.packing})
			if err != nil {
				t.Fatalf("NewStruct: %v", err)
			}
			i, _ := s.Lookup("grid")
			if got := s.FieldAt(i).Elements; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStructReset(t *testing.T) {
	inner, err := NewStruct("Inner", []Field{
		{Name: "x", Type: Uint(4), Default: big.NewInt(0xA)},
	}, StructOptions{})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	outer, err := NewStruct("Outer", []Field{
		{Name: "a", Type: Uint(4), Default: big.NewInt(5)},
		{Name: "b", Type: Uint(4), Default: big.NewInt(3)},
		{Name: "in", Type: inner},
	}, StructOptions{Width: 16})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	if got := ResetValue(outer).Int64(); got != 0xA35 {
		t.Errorf("reset = %#x, want 0xa35", got)
	}

	fields := Fields(outer)
	if len(fields) != 3 || fields[2].Name != "in" {
		t.Errorf("Fields = %+v, want a, b, in without padding", fields)
	}
}

func TestFieldsSkipPadding(t *testing.T) {
	fields := []Field{{Name: "a", Type: Uint(3)}, {Name: "b", Type: Uint(2)}}
	s, err := NewStruct("S", fields, StructOptions{Width: 8})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	r, err := NewRegister("r", fields, RegisterOptions{Width: 8})
	if err != nil {
		t.Fatalf("NewRegister: %v", err)
	}
	u, err := NewUnion("U", []Field{{Name: "x", Type: Uint(5)}, {Name: "y", Type: Uint(5)}}, UnionOptions{})
	if err != nil {
		t.Fatalf("NewUnion: %v", err)
	}

	tests := []struct {
		typ     Type
		names   []string
		padding bool
	}{
		{s, []string{"a", "b"}, true},
		{r, []string{"a", "b"}, true},
		{u, []string{"x", "y"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ.Name(), func(t *testing.T) {
			got := Fields(tt.typ)
			if len(got) != len(tt.names) {
				t.Fatalf("got %d fields, want %d", len(got), len(tt.names))
			}
			for i, f := range got {
				if f.Name != tt.names[i] {
					t.Errorf("field %d: got %q, want %q", i, f.Name, tt.names[i])
				}
			}
			pad, ok := tt.typ.(interface{ Padding() (FieldLayout, bool) }).Padding()
			if ok != tt.padding {
				t.Fatalf("got padding %v, want %v", ok, tt.padding)
			}
			if ok && (pad.LSB != 5 || pad.MSB != 7) {
				t.Errorf("got padding [%d:%d], want [7:5]", pad.MSB, pad.LSB)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	u, err := NewUnion("U", []Field{
		{Name: "a", Type: Uint(12)},
		{Name: "b", Type: Uint(12), Default: big.NewInt(0x123)},
		{Name: "c", Type: ArrayOf(Uint(4), 3)},
	}, UnionOptions{})
	if err != nil {
		t.Fatalf("NewUnion: %v", err)
	}
	if u.Width() != 12 || u.Kind() != KindUnion {
		t.Errorf("width/kind = %d/%v, want 12/union", u.Width(), u.Kind())
	}
	for _, f := range u.Layout() {
		if f.LSB != 0 || f.MSB != 11 {
			t.Errorf("member %s at [%d:%d], want [11:0]", f.Name, f.MSB, f.LSB)
		}
	}
	if got := ResetValue(u).Int64(); got != 0x123 {
		t.Errorf("reset = %#x, want 0x123", got)
	}
}

func TestUnionMismatch(t *testing.T) {
	_, err := NewUnion("U", []Field{
		{Name: "a", Type: Uint(12)},
		{Name: "b", Type: Uint(8)},
	}, UnionOptions{})
	if !errors.Is(err, errors.ErrUnion) {
		t.Fatalf("got %v, want union error", err)
	}
	if !errors.Is(err, errors.ErrWidth) {
		t.Errorf("got %v, want it filed under width errors too", err)
	}
	msg := err.Error()
	for _, want := range []string{"b", "12", "8"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %q", msg, want)
		}
	}
}

func TestArray(t *testing.T) {
	a := ArrayOf(Uint(3), 2, 4)
	if a.Width() != 24 {
		t.Errorf("width = %d, want 24", a.Width())
	}
	if a.Count() != 2 || a.Total() != 8 {
		t.Errorf("count/total = %d/%d, want 2/8", a.Count(), a.Total())
	}
	inner, ok := a.Inner().(*Array)
	if !ok {
		t.Fatalf("Inner = %T, want *Array", a.Inner())
	}
	if inner.Width() != 12 || inner.Inner() != a.Elem() {
		t.Errorf("inner width = %d, want 12 with scalar elements", inner.Width())
	}
	if TypeName(a) != "uint3[2][4]" {
		t.Errorf("TypeName = %q", TypeName(a))
	}

	if _, err := NewArray(Uint(1)); err == nil {
		t.Error("array without dimensions should fail")
	}
	if _, err := NewArray(Uint(1), 0); err == nil {
		t.Error("zero dimension should fail")
	}
}

func TestArrayReset(t *testing.T) {
	s, err := NewStruct("E", []Field{{Name: "x", Type: Uint(4), Default: big.NewInt(9)}}, StructOptions{})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	if got := ResetValue(ArrayOf(s, 3)).Int64(); got != 0x999 {
		t.Errorf("reset = %#x, want 0x999", got)
	}
}

func TestIndices(t *testing.T) {
	got := Indices([]int{2, 3})
	want := [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	if len(got) != len(want) {
		t.Fatalf("got %d indices, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i][0] != want[i][0] || got[i][1] != want[i][1] {
			t.Errorf("index %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScalar(t *testing.T) {
	if _, err := NewScalar("zero", 0, ScalarOptions{}); !errors.Is(err, errors.ErrWidth) {
		t.Errorf("width 0: got %v, want width error", err)
	}
	s := Sint(8)
	if !s.Signed() || TypeName(s) != "sint8" {
		t.Errorf("Sint(8) = %s signed=%v", TypeName(s), s.Signed())
	}
	if TypeName(Uint(5)) != "uint5" {
		t.Errorf("TypeName(Uint(5)) = %q", TypeName(Uint(5)))
	}
}

func TestSignedDefault(t *testing.T) {
	s, err := NewStruct("S", []Field{
		{Name: "a", Type: Sint(5), Default: big.NewInt(-3)},
		{Name: "b", Type: Uint(3), Default: big.NewInt(5)},
	}, StructOptions{})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	if got, want := ResetValue(s).Int64(), int64(5<<5|0x1d); got != want {
		t.Errorf("got reset %#x, want %#x", got, want)
	}

	_, err = NewStruct("S", []Field{
		{Name: "a", Type: Sint(5), Default: big.NewInt(-17)},
	}, StructOptions{})
	if !errors.Is(err, errors.ErrRange) {
		t.Errorf("got %v, want range error", err)
	}
}
