package types

import (
	"math/big"
	"testing"

	"github.com/wippyai/bitschema/errors"
)

func entries(names ...string) []EnumEntry {
	out := make([]EnumEntry, len(names))
	for i, n := range names {
		out[i] = EnumEntry{Name: n}
	}
	return out
}

func values(e *Enum) []int64 {
	var out []int64
	for _, entry := range e.Entries() {
		out = append(out, entry.Value.Int64())
	}
	return out
}

func equalInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEnumModes(t *testing.T) {
	tests := []struct {
		name      string
		mode      EnumMode
		entries   []EnumEntry
		want      []int64
		wantWidth int
	}{
		{
			name:      "indexed",
			mode:      Indexed,
			entries:   entries("A", "B", "C", "D", "E"),
			want:      []int64{0, 1, 2, 3, 4},
			wantWidth: 3,
		},
		{
			name: "indexed_explicit_restart",
			mode: Indexed,
			entries: []EnumEntry{
				{Name: "A"},
				{Name: "B", Value: big.NewInt(5)},
				{Name: "C"},
			},
			want:      []int64{0, 5, 6},
			wantWidth: 3,
		},
		{
			name:      "onehot",
			mode:      OneHot,
			entries:   entries("A", "B", "C"),
			want:      []int64{1, 2, 4},
			wantWidth: 3,
		},
		{
			name: "onehot_explicit",
			mode: OneHot,
			entries: []EnumEntry{
				{Name: "A", Value: big.NewInt(4)},
				{Name: "B"},
			},
			want:      []int64{4, 8},
			wantWidth: 4,
		},
		{
			name:      "gray",
			mode:      Gray,
			entries:   entries("A", "B", "C", "D"),
			want:      []int64{0, 1, 3, 2},
			wantWidth: 2,
		},
		{
			name:      "single",
			mode:      Indexed,
			entries:   entries("ONLY"),
			want:      []int64{0},
			wantWidth: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEnum("E", tt.entries, EnumOptions{Mode: tt.mode})
			if err != nil {
				t.Fatalf("NewEnum: %v", err)
			}
			if got := values(e); !equalInts(got, tt.want) {
				t.Errorf("values = %v, want %v", got, tt.want)
			}
			if e.Width() != tt.wantWidth {
				t.Errorf("width = %d, want %d", e.Width(), tt.wantWidth)
			}
			if e.Kind() != KindEnum {
				t.Errorf("kind = %v, want enum", e.Kind())
			}
		})
	}
}

func TestEnumExplicitWidth(t *testing.T) {
	e, err := NewEnum("Wide", entries("A", "B"), EnumOptions{Width: 8})
	if err != nil {
		t.Fatalf("NewEnum: %v", err)
	}
	if e.Width() != 8 {
		t.Errorf("width = %d, want 8", e.Width())
	}
}

func TestEnumErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []EnumEntry
		opts    EnumOptions
		want    error
	}{
		{
			name: "empty",
			opts: EnumOptions{},
			want: errors.ErrEnum,
		},
		{
			name: "onehot_not_power_of_two",
			entries: []EnumEntry{
				{Name: "A", Value: big.NewInt(3)},
			},
			opts: EnumOptions{Mode: OneHot},
			want: errors.ErrEnum,
		},
		{
			name: "gray_out_of_sequence",
			entries: []EnumEntry{
				{Name: "A"},
				{Name: "B"},
				{Name: "C", Value: big.NewInt(2)},
			},
			opts: EnumOptions{Mode: Gray},
			want: errors.ErrEnum,
		},
		{
			name: "duplicate_value",
			entries: []EnumEntry{
				{Name: "A", Value: big.NewInt(1)},
				{Name: "B", Value: big.NewInt(1)},
			},
			want: errors.ErrEnum,
		},
		{
			name:    "width_too_small",
			entries: entries("A", "B", "C", "D", "E"),
			opts:    EnumOptions{Width: 2},
			want:    errors.ErrEnum,
		},
		{
			name:    "duplicate_name",
			entries: entries("A", "A"),
			want:    errors.ErrDuplicate,
		},
		{
			name: "negative_value",
			entries: []EnumEntry{
				{Name: "A", Value: big.NewInt(-1)},
			},
			want: errors.ErrEnum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEnum("Bad", tt.entries, tt.opts)
			if err == nil {
				t.Fatalf("expected error, got enum with values %v", values(e))
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want kind %v", err, tt.want)
			}
		})
	}
}

func TestEnumLookup(t *testing.T) {
	e, err := NewEnum("Color", entries("RED", "GREEN", "BLUE"), EnumOptions{Mode: OneHot})
	if err != nil {
		t.Fatalf("NewEnum: %v", err)
	}

	v, ok := e.Lookup("BLUE")
	if !ok || v.Int64() != 4 {
		t.Errorf("Lookup(BLUE) = %v, %v; want 4, true", v, ok)
	}
	if _, ok := e.Lookup("PINK"); ok {
		t.Error("Lookup(PINK) should fail")
	}

	name, ok := e.NameOf(big.NewInt(2))
	if !ok || name != "GREEN" {
		t.Errorf("NameOf(2) = %q, %v; want GREEN, true", name, ok)
	}
	if _, ok := e.NameOf(big.NewInt(3)); ok {
		t.Error("NameOf(3) should fail")
	}

	v.SetInt64(99)
	if again, _ := e.Lookup("BLUE"); again.Int64() != 4 {
		t.Error("Lookup must return a copy")
	}
}

func TestParseEnumMode(t *testing.T) {
	for _, m := range []EnumMode{Indexed, OneHot, Gray} {
		got, ok := ParseEnumMode(m.String())
		if !ok || got != m {
			t.Errorf("ParseEnumMode(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseEnumMode("binary"); ok {
		t.Error("ParseEnumMode(binary) should fail")
	}
}
