package witgen

import (
	"testing"

	"go.bytecodealliance.org/wit"
)

func TestCalculatePrimitives(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		typ   wit.Type
		name  string
		size  uint32
		align uint32
	}{
		{wit.Bool{}, "bool", 1, 1},
		{wit.U8{}, "u8", 1, 1},
		{wit.S8{}, "s8", 1, 1},
		{wit.U16{}, "u16", 2, 2},
		{wit.S16{}, "s16", 2, 2},
		{wit.U32{}, "u32", 4, 4},
		{wit.S32{}, "s32", 4, 4},
		{wit.U64{}, "u64", 8, 8},
		{wit.S64{}, "s64", 8, 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := c.Calculate(tc.typ)
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestCalculateRecord(t *testing.T) {
	c := NewCalculator()

	t.Run("empty", func(t *testing.T) {
		info := c.Calculate(&wit.TypeDef{Kind: &wit.Record{}})
		if info.Size != 0 {
			t.Errorf("size: got %d, want 0", info.Size)
		}
	})

	t.Run("mixed_alignment", func(t *testing.T) {
		record := &wit.Record{
			Fields: []wit.Field{
				{Name: "a", Type: wit.U8{}},
				{Name: "b", Type: wit.U32{}},
				{Name: "c", Type: wit.U8{}},
			},
		}
		info := c.Calculate(&wit.TypeDef{Kind: record})

		want := map[string]uint32{"a": 0, "b": 4, "c": 8}
		for name, off := range want {
			if info.FieldOffs[name] != off {
				t.Errorf("field %s offset: got %d, want %d", name, info.FieldOffs[name], off)
			}
		}
		if info.Size != 12 {
			t.Errorf("size: got %d, want 12", info.Size)
		}
		if info.Align != 4 {
			t.Errorf("align: got %d, want 4", info.Align)
		}
	})

	t.Run("nested", func(t *testing.T) {
		inner := &wit.TypeDef{Kind: &wit.Record{
			Fields: []wit.Field{{Name: "x", Type: wit.U16{}}},
		}}
		outer := &wit.TypeDef{Kind: &wit.Record{
			Fields: []wit.Field{
				{Name: "tag", Type: wit.U8{}},
				{Name: "inner", Type: inner},
				{Name: "wide", Type: wit.U64{}},
			},
		}}
		info := c.Calculate(outer)
		if info.FieldOffs["inner"] != 2 || info.FieldOffs["wide"] != 8 {
			t.Errorf("got offsets %v", info.FieldOffs)
		}
		if info.Size != 16 || info.Align != 8 {
			t.Errorf("got size %d align %d, want 16 and 8", info.Size, info.Align)
		}
	})
}

func TestCalculateTuple(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name  string
		types []wit.Type
		size  uint32
		align uint32
	}{
		{"empty", nil, 0, 1},
		{"two_u32", []wit.Type{wit.U32{}, wit.U32{}}, 8, 4},
		{"mixed", []wit.Type{wit.U8{}, wit.U64{}, wit.U8{}}, 24, 8},
		{"wide_scalar", []wit.Type{wit.U64{}, wit.U64{}}, 16, 8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := c.Calculate(&wit.TypeDef{Kind: &wit.Tuple{Types: tc.types}})
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestCalculateEnum(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name      string
		numCases  int
		wantSize  uint32
		wantAlign uint32
	}{
		{"1_case", 1, 1, 1},
		{"256_cases", 256, 1, 1},
		{"257_cases", 257, 2, 2},
		{"65536_cases", 65536, 2, 2},
		{"65537_cases", 65537, 4, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cases := make([]wit.EnumCase, tc.numCases)
			for i := range cases {
				cases[i] = wit.EnumCase{Name: "case"}
			}
			info := c.Calculate(&wit.TypeDef{Kind: &wit.Enum{Cases: cases}})

			if info.Size != tc.wantSize {
				t.Errorf("size: got %d, want %d", info.Size, tc.wantSize)
			}
			if info.Align != tc.wantAlign {
				t.Errorf("align: got %d, want %d", info.Align, tc.wantAlign)
			}
		})
	}
}

func TestCalculateFlags(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name      string
		numFlags  int
		wantSize  uint32
		wantAlign uint32
	}{
		{"0_flags", 0, 0, 1},
		{"1_flag", 1, 1, 1},
		{"8_flags", 8, 1, 1},
		{"9_flags", 9, 2, 2},
		{"17_flags", 17, 4, 4},
		{"32_flags", 32, 4, 4},
		{"33_flags", 33, 8, 4},
		{"65_flags", 65, 12, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flags := make([]wit.Flag, tc.numFlags)
			for i := range flags {
				flags[i] = wit.Flag{Name: "flag"}
			}
			info := c.Calculate(&wit.TypeDef{Kind: &wit.Flags{Flags: flags}})

			if info.Size != tc.wantSize {
				t.Errorf("size: got %d, want %d", info.Size, tc.wantSize)
			}
			if info.Align != tc.wantAlign {
				t.Errorf("align: got %d, want %d", info.Align, tc.wantAlign)
			}
		})
	}
}

func TestCalculateAlias(t *testing.T) {
	c := NewCalculator()
	name := "word"
	info := c.Calculate(&wit.TypeDef{Name: &name, Kind: wit.U16{}})
	if info.Size != 2 || info.Align != 2 {
		t.Errorf("got size %d align %d, want 2 and 2", info.Size, info.Align)
	}
}

func TestCaching(t *testing.T) {
	c := NewCalculator()

	typedef := &wit.TypeDef{Kind: &wit.Record{
		Fields: []wit.Field{{Name: "x", Type: wit.U32{}}},
	}}

	info1 := c.Calculate(typedef)
	info2 := c.Calculate(typedef)

	if info1.Size != info2.Size {
		t.Error("cached results should be identical")
	}
	if _, ok := c.cache[typedef]; !ok {
		t.Error("typedef not cached")
	}
}

func TestFlatCount(t *testing.T) {
	rec := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "a", Type: wit.U8{}},
		{Name: "b", Type: &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U64{}, wit.U64{}}}}},
	}}}

	tests := []struct {
		typ  wit.Type
		name string
		want int
	}{
		{wit.U32{}, "primitive", 1},
		{rec, "record", 3},
		{&wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 40)}}, "flags", 2},
		{&wit.TypeDef{Kind: &wit.Enum{Cases: make([]wit.EnumCase, 3)}}, "enum", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FlatCount(tc.typ); got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}
