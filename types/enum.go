package types

import (
	"math/big"

	"go.uber.org/zap"

	"github.com/wippyai/bitschema/errors"
)

// EnumMode is the numbering law an enumeration obeys.
type EnumMode uint8

const (
	Indexed EnumMode = iota
	OneHot
	Gray
)

var enumModeNames = [...]string{
	Indexed: "indexed",
	OneHot:  "onehot",
	Gray:    "gray",
}

func (m EnumMode) String() string {
	if int(m) < len(enumModeNames) {
		return enumModeNames[m]
	}
	return "unknown"
}

// ParseEnumMode parses the attribute spelling of a mode.
func ParseEnumMode(s string) (EnumMode, bool) {
	for i, n := range enumModeNames {
		if n == s {
			return EnumMode(i), true
		}
	}
	return Indexed, false
}

// EnumEntry is one enumeration constant. A nil Value asks for the next
// value under the enum's mode.
type EnumEntry struct {
	Value *big.Int
	Name  string
	Doc   string
}

// EnumOptions configures NewEnum. A zero Width selects the minimal width
// for the largest value.
type EnumOptions struct {
	Info  Info
	Mode  EnumMode
	Width int
}

// Enum is a named-value enumeration with resolved values.
type Enum struct {
	byName  map[string]int
	byValue map[string]int
	name    string
	info    Info
	entries []EnumEntry
	width   int
	mode    EnumMode
}

// NewEnum resolves entry values under opts.Mode and validates them.
func NewEnum(name string, entries []EnumEntry, opts EnumOptions) (*Enum, error) {
	if len(entries) == 0 {
		return nil, errors.Enum(name, "", "enumeration has no entries")
	}
	if opts.Width < 0 {
		return nil, errors.Enum(name, "", "negative width %d", opts.Width)
	}

	e := &Enum{
		byName:  make(map[string]int, len(entries)),
		byValue: make(map[string]int, len(entries)),
		name:    name,
		info:    opts.Info,
		entries: make([]EnumEntry, len(entries)),
		mode:    opts.Mode,
	}

	var prev *big.Int
	maxValue := new(big.Int)
	for i, entry := range entries {
		if entry.Name == "" {
			return nil, errors.Enum(name, "", "entry %d has no name", i)
		}
		if _, dup := e.byName[entry.Name]; dup {
			return nil, errors.Duplicate(name, "entry", entry.Name)
		}

		v, err := resolveEnumValue(name, entry, i, prev, opts.Mode)
		if err != nil {
			return nil, err
		}

		key := v.String()
		if other, dup := e.byValue[key]; dup {
			return nil, errors.Enum(name, entry.Name, "value %s already used by %q", key, e.entries[other].Name)
		}

		e.entries[i] = EnumEntry{Name: entry.Name, Value: v, Doc: entry.Doc}
		e.byName[entry.Name] = i
		e.byValue[key] = i
		if v.Cmp(maxValue) > 0 {
			maxValue = v
		}
		prev = v
	}

	e.width = opts.Width
	if e.width == 0 {
		e.width = max(1, maxValue.BitLen())
	}
	for _, entry := range e.entries {
		if entry.Value.BitLen() > e.width {
			return nil, errors.Enum(name, entry.Name, "value %s does not fit in %d bits", entry.Value, e.width)
		}
	}

	Logger().Debug("enum resolved",
		zap.String("name", name),
		zap.Stringer("mode", opts.Mode),
		zap.Int("entries", len(e.entries)),
		zap.Int("width", e.width))

	return e, nil
}

func resolveEnumValue(name string, entry EnumEntry, index int, prev *big.Int, mode EnumMode) (*big.Int, error) {
	if entry.Value != nil && entry.Value.Sign() < 0 {
		return nil, errors.Enum(name, entry.Name, "negative value %s", entry.Value)
	}

	switch mode {
	case Indexed:
		if entry.Value != nil {
			return new(big.Int).Set(entry.Value), nil
		}
		if prev == nil {
			return new(big.Int), nil
		}
		return new(big.Int).Add(prev, big.NewInt(1)), nil

	case OneHot:
		if entry.Value != nil {
			if !isOneHot(entry.Value) {
				return nil, errors.Enum(name, entry.Name, "value %s is not one-hot", entry.Value)
			}
			return new(big.Int).Set(entry.Value), nil
		}
		if prev == nil {
			return big.NewInt(1), nil
		}
		return new(big.Int).Lsh(prev, 1), nil

	case Gray:
		want := grayCode(index)
		if entry.Value != nil && entry.Value.Cmp(want) != 0 {
			return nil, errors.Enum(name, entry.Name, "value %s at position %d is not gray code %s", entry.Value, index, want)
		}
		return want, nil

	default:
		return nil, errors.Enum(name, entry.Name, "unknown mode %d", mode)
	}
}

// isOneHot reports whether v has exactly one bit set.
func isOneHot(v *big.Int) bool {
	if v.Sign() <= 0 {
		return false
	}
	m := new(big.Int).Sub(v, big.NewInt(1))
	return m.And(m, v).Sign() == 0
}

func grayCode(i int) *big.Int {
	return big.NewInt(int64(i ^ (i >> 1)))
}

func (e *Enum) Kind() Kind { return KindEnum }
func (e *Enum) Name() string { return e.name }
func (e *Enum) Width() int { return e.width }
func (e *Enum) Info() Info { return e.info }
func (e *Enum) Mode() EnumMode { return e.mode }

// Entries returns the resolved entries in declaration order.
func (e *Enum) Entries() []EnumEntry {
	out := make([]EnumEntry, len(e.entries))
	for i, entry := range e.entries {
		out[i] = EnumEntry{Name: entry.Name, Value: new(big.Int).Set(entry.Value), Doc: entry.Doc}
	}
	return out
}

// Lookup returns the value of the named entry.
func (e *Enum) Lookup(name string) (*big.Int, bool) {
	i, ok := e.byName[name]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(e.entries[i].Value), true
}

// NameOf returns the entry name for v, if any.
func (e *Enum) NameOf(v *big.Int) (string, bool) {
	i, ok := e.byValue[v.String()]
	if !ok {
		return "", false
	}
	return e.entries[i].Name, true
}
