package bus

import (
	"math/big"

	"go.uber.org/zap"

	"github.com/wippyai/bitschema"
	"github.com/wippyai/bitschema/bits"
	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/types"
	"github.com/wippyai/bitschema/value"
)

// Port is one register reachable through a Bus.
type Port struct {
	Reg     *value.Register
	Path    string
	Address int
	Level   bool
}

// Bus decodes byte addresses of a register file onto its registers and
// applies each register's behavior. External accesses are the bus side of
// a register, internal accesses the device side. Every change is written
// through to the memory image.
type Bus struct {
	block   *value.Block
	mem     bitschema.Memory
	byAddr  map[int]int
	byPath  map[string]int
	queues  map[int][]*big.Int
	strobes map[int]int
	ports   []Port
}

// New attaches b to mem and stores its current image.
func New(b *value.Block, mem bitschema.Memory) (*Bus, error) {
	regs := b.Registers()
	at := b.Group().Registers(b.Base())
	if len(regs) != len(at) {
		return nil, errors.InvalidInput(errors.PhaseBus, "register walk does not match the layout")
	}

	bus := &Bus{
		block:   b,
		mem:     mem,
		byAddr:  make(map[int]int, len(regs)),
		byPath:  make(map[string]int, len(regs)),
		queues:  make(map[int][]*big.Int),
		strobes: make(map[int]int),
		ports:   make([]Port, len(regs)),
	}
	for i, r := range regs {
		if r.Address() != at[i].Address {
			return nil, errors.New(errors.PhaseBus, errors.KindInvalidInput).
				Path(at[i].Path).
				Detail("instance at %#x, layout at %#x", r.Address(), at[i].Address).
				Build()
		}
		bus.ports[i] = Port{Reg: r, Path: at[i].Path, Address: r.Address(), Level: at[i].Level}
		bus.byAddr[r.Address()] = i
		bus.byPath[at[i].Path] = i
	}

	if err := Store(b, mem); err != nil {
		return nil, err
	}
	return bus, nil
}

// Ports returns the registers in address order.
func (b *Bus) Ports() []Port {
	return append([]Port(nil), b.ports...)
}

// Memory returns the memory the image lives in.
func (b *Bus) Memory() bitschema.Memory { return b.mem }

func (b *Bus) decode(addr int) (int, error) {
	i, ok := b.byAddr[addr]
	if !ok {
		return 0, errors.New(errors.PhaseBus, errors.KindNotFound).
			Detail("no register at %#x", addr).
			Value(addr).
			Build()
	}
	return i, nil
}

func (b *Bus) lookup(path string) (int, error) {
	i, ok := b.byPath[path]
	if !ok {
		return 0, errors.NotFound(errors.PhaseBus, "register", path)
	}
	return i, nil
}

func (b *Bus) denied(i int, access string) error {
	p := b.ports[i]
	return errors.New(errors.PhaseBus, errors.KindUnsupported).
		Path(p.Path).
		Detail("%s access to a %s register", access, p.Reg.Descriptor().Behavior()).
		Build()
}

// Write is an external write. FIFO registers fed from outside queue the
// value; data registers take it directly.
func (b *Bus) Write(addr int, v *big.Int) error {
	i, err := b.decode(addr)
	if err != nil {
		return err
	}
	caps := b.ports[i].Reg.Descriptor().Behavior().Capabilities()
	if !caps.ExternalWrite {
		return b.denied(i, "external write")
	}

	if caps.Stream {
		err = b.push(i, v)
	} else {
		err = b.ports[i].Reg.Set(v)
	}
	if err != nil {
		return errors.Prefix(b.ports[i].Path, err)
	}
	if caps.Strobe {
		b.strobes[i]++
	}

	Logger().Debug("external write",
		zap.String("path", b.ports[i].Path),
		zap.Int("addr", addr),
		zap.Stringer("value", v))

	return b.sync(i)
}

// Read is an external read. FIFO registers drained from outside pop their
// head.
func (b *Bus) Read(addr int) (*big.Int, error) {
	i, err := b.decode(addr)
	if err != nil {
		return nil, err
	}
	caps := b.ports[i].Reg.Descriptor().Behavior().Capabilities()
	if !caps.ExternalRead {
		return nil, b.denied(i, "external read")
	}

	v := b.ports[i].Reg.Get()
	if caps.Stream {
		if v, err = b.pop(i); err != nil {
			return nil, err
		}
	}
	if caps.Strobe && !caps.ExternalWrite {
		b.strobes[i]++
	}

	Logger().Debug("external read",
		zap.String("path", b.ports[i].Path),
		zap.Int("addr", addr),
		zap.Stringer("value", v))

	return v, b.sync(i)
}

// Get is an internal read of the register at path.
func (b *Bus) Get(path string) (*big.Int, error) {
	i, err := b.lookup(path)
	if err != nil {
		return nil, err
	}
	caps := b.ports[i].Reg.Descriptor().Behavior().Capabilities()
	if !caps.InternalRead {
		return nil, b.denied(i, "internal read")
	}
	if !caps.Stream {
		return b.ports[i].Reg.Get(), nil
	}
	v, err := b.pop(i)
	if err != nil {
		return nil, err
	}
	return v, b.sync(i)
}

// Set is an internal write of the register at path. Level registers
// follow their FIFO and cannot be set.
func (b *Bus) Set(path string, v *big.Int) error {
	i, err := b.lookup(path)
	if err != nil {
		return err
	}
	p := b.ports[i]
	caps := p.Reg.Descriptor().Behavior().Capabilities()
	if !caps.InternalWrite || p.Level {
		return b.denied(i, "internal write")
	}

	if caps.Stream {
		err = b.push(i, v)
	} else {
		err = p.Reg.Set(v)
	}
	if err != nil {
		return errors.Prefix(p.Path, err)
	}
	return b.sync(i)
}

// Strobes counts the accesses in the data direction of a strobed register.
func (b *Bus) Strobes(path string) int {
	i, ok := b.byPath[path]
	if !ok {
		return 0
	}
	return b.strobes[i]
}

// Pending is the number of queued entries of a FIFO register.
func (b *Bus) Pending(path string) int {
	i, ok := b.byPath[path]
	if !ok {
		return 0
	}
	return len(b.queues[i])
}

func (b *Bus) push(i int, v *big.Int) error {
	r := b.ports[i].Reg
	desc := r.Descriptor()
	if !bits.Fits(v, desc.Width()) {
		return errors.Range(errors.PhaseBus, nil, v, desc.Width())
	}
	q := b.queues[i]
	if len(q) >= desc.Depth() {
		return errors.New(errors.PhaseBus, errors.KindOutOfBounds).
			Type(desc.Name()).
			Detail("fifo full (depth %d)", desc.Depth()).
			Build()
	}
	b.queues[i] = append(q, new(big.Int).Set(v))
	return b.settle(i)
}

func (b *Bus) pop(i int) (*big.Int, error) {
	q := b.queues[i]
	if len(q) == 0 {
		return nil, errors.New(errors.PhaseBus, errors.KindOutOfBounds).
			Type(b.ports[i].Reg.Descriptor().Name()).
			Detail("fifo empty").
			Build()
	}
	head := q[0]
	b.queues[i] = q[1:]
	return head, b.settle(i)
}

// settle makes a FIFO register show its head entry and its level register
// the queue length.
func (b *Bus) settle(i int) error {
	r := b.ports[i].Reg
	q := b.queues[i]
	head := new(big.Int)
	if len(q) > 0 {
		head = q[0]
	}
	if err := r.Set(head); err != nil {
		return err
	}
	if lvl := r.Level(); lvl != nil {
		return lvl.Set(bits.Int(len(q)))
	}
	return nil
}

func (b *Bus) sync(i int) error {
	r := b.ports[i].Reg
	if err := storeRegister(r, b.mem); err != nil {
		return err
	}
	if lvl := r.Level(); lvl != nil {
		return storeRegister(lvl, b.mem)
	}
	return nil
}

// Reset restores every register to its reset value, empties the FIFOs and
// rewrites the image.
func (b *Bus) Reset() error {
	for i, p := range b.ports {
		if err := p.Reg.Set(types.ResetValue(p.Reg.Type())); err != nil {
			return err
		}
		delete(b.queues, i)
		delete(b.strobes, i)
	}
	return Store(b.block, b.mem)
}
