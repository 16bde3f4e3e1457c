package types

import (
	"math/bits"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/bitschema/errors"
)

// Behavior describes how a register is accessed from either side of the
// bus: externally by software, internally by hardware.
type Behavior uint8

const (
	Constant Behavior = iota
	DataX2I
	DataI2X
	FIFOX2I
	FIFOI2X
	Level
)

var behaviorNames = [...]string{
	Constant: "constant",
	DataX2I:  "data_x2i",
	DataI2X:  "data_i2x",
	FIFOX2I:  "fifo_x2i",
	FIFOI2X:  "fifo_i2x",
	Level:    "level",
}

func (b Behavior) String() string {
	if int(b) < len(behaviorNames) {
		return behaviorNames[b]
	}
	return "unknown"
}

// ParseBehavior parses the attribute spelling of a behavior. Matching is
// case-insensitive on the canonical lower-case names.
func ParseBehavior(s string) (Behavior, bool) {
	s = strings.ToLower(s)
	for i, n := range behaviorNames {
		if n == s {
			return Behavior(i), true
		}
	}
	return Constant, false
}

// Capabilities are the access rights a behavior implies.
type Capabilities struct {
	InternalRead  bool
	InternalWrite bool
	ExternalRead  bool
	ExternalWrite bool
	Strobe        bool
	Stream        bool
}

// Capabilities returns the derived access flags for b.
func (b Behavior) Capabilities() Capabilities {
	switch b {
	case Constant:
		return Capabilities{InternalRead: true, ExternalRead: true}
	case DataX2I:
		return Capabilities{InternalRead: true, ExternalRead: true, ExternalWrite: true, Strobe: true}
	case DataI2X:
		return Capabilities{InternalWrite: true, ExternalRead: true, Strobe: true}
	case FIFOX2I:
		return Capabilities{InternalRead: true, ExternalWrite: true, Strobe: true, Stream: true}
	case FIFOI2X:
		return Capabilities{InternalWrite: true, ExternalRead: true, Strobe: true, Stream: true}
	case Level:
		return Capabilities{InternalWrite: true, ExternalRead: true}
	default:
		return Capabilities{}
	}
}

// Primary reports whether b may be declared directly as a group field.
func (b Behavior) Primary() bool { return b != Level && int(b) < len(behaviorNames) }

// Paired reports whether b requires a synthesized level register.
func (b Behavior) Paired() bool { return b == FIFOX2I || b == FIFOI2X }

// DefaultDepth is the FIFO depth assumed when none is declared.
const DefaultDepth = 4

// RegisterOptions configures NewRegister. Align is in bytes; zero means 1.
// Depth only applies to FIFO behaviors; zero means DefaultDepth.
type RegisterOptions struct {
	Info     Info
	Align    int
	Width    int
	Depth    int
	Behavior Behavior
	Packing  Packing
}

// Register is an assembly with a bus behavior and byte alignment.
type Register struct {
	level *Register
	assembly
	align    int
	depth    int
	behavior Behavior
}

// NewRegister lays out fields like a struct and, for FIFO behaviors,
// synthesizes the paired level register.
func NewRegister(name string, fields []Field, opts RegisterOptions) (*Register, error) {
	if int(opts.Behavior) >= len(behaviorNames) {
		return nil, errors.Attribute(name, "behavior", "unknown behavior %d", opts.Behavior)
	}
	align := opts.Align
	if align == 0 {
		align = 1
	}
	if !isPow2(align) {
		return nil, errors.Attribute(name, "align", "alignment %d is not a power of two", opts.Align)
	}
	if opts.Depth < 0 {
		return nil, errors.Attribute(name, "depth", "negative depth %d", opts.Depth)
	}

	a, err := placeStruct(name, fields, opts.Width, opts.Packing)
	if err != nil {
		return nil, err
	}
	a.info = opts.Info

	r := &Register{
		assembly: *a,
		align:    align,
		behavior: opts.Behavior,
	}
	if opts.Behavior.Paired() {
		r.depth = opts.Depth
		if r.depth == 0 {
			r.depth = DefaultDepth
		}
		r.level, err = levelFor(name, r.depth, opts.Info)
		if err != nil {
			return nil, err
		}
	}

	Logger().Debug("register layout",
		zap.String("name", name),
		zap.Stringer("behavior", opts.Behavior),
		zap.Int("width", r.width),
		zap.Int("align", align),
		zap.Int("depth", r.depth))

	return r, nil
}

// levelFor builds the occupancy register paired with a FIFO of depth.
func levelFor(name string, depth int, info Info) (*Register, error) {
	w := bits.Len(uint(depth))
	a, err := placeStruct(name+"_level", []Field{{Name: "level", Type: Uint(w)}}, 0, FromLSB)
	if err != nil {
		return nil, err
	}
	a.info = Info{Doc: "occupancy of " + name, Source: info.Source}
	return &Register{assembly: *a, align: 1, behavior: Level}, nil
}

func (r *Register) Kind() Kind { return KindRegister }
func (r *Register) Behavior() Behavior { return r.behavior }

// Align is the byte alignment of the register within a group.
func (r *Register) Align() int { return r.align }

// Depth is the FIFO depth, or zero for non-FIFO registers.
func (r *Register) Depth() int { return r.depth }

// ByteSize is the width rounded up to whole bytes.
func (r *Register) ByteSize() int { return (r.width + 7) / 8 }

// Level returns the paired level register, or nil.
func (r *Register) Level() *Register { return r.level }

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }

// nextPow2 returns the smallest power of two >= n, for n >= 1.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
