package bus

import (
	"context"
	"encoding/binary"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/bitschema"
	"github.com/wippyai/bitschema/errors"
)

// SliceMemory is a bounds-checked Memory over a byte slice.
type SliceMemory struct {
	data []byte
}

func NewSliceMemory(size int) *SliceMemory {
	return &SliceMemory{data: make([]byte, size)}
}

// Bytes returns the backing slice.
func (m *SliceMemory) Bytes() []byte { return m.data }

func (m *SliceMemory) Size() uint32 { return uint32(len(m.data)) }

func (m *SliceMemory) span(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, errors.New(errors.PhaseBus, errors.KindOutOfBounds).
			Detail("access [%d, %d) outside memory of %d bytes", offset, end, len(m.data)).
			Value(offset).
			Build()
	}
	return m.data[offset:end], nil
}

func (m *SliceMemory) Read(offset uint32, length uint32) ([]byte, error) {
	b, err := m.span(offset, length)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (m *SliceMemory) Write(offset uint32, data []byte) error {
	b, err := m.span(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

func (m *SliceMemory) ReadU8(offset uint32) (uint8, error) {
	b, err := m.span(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *SliceMemory) ReadU16(offset uint32) (uint16, error) {
	b, err := m.span(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *SliceMemory) ReadU32(offset uint32) (uint32, error) {
	b, err := m.span(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *SliceMemory) ReadU64(offset uint32) (uint64, error) {
	b, err := m.span(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *SliceMemory) WriteU8(offset uint32, value uint8) error {
	b, err := m.span(offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

func (m *SliceMemory) WriteU16(offset uint32, value uint16) error {
	b, err := m.span(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

func (m *SliceMemory) WriteU32(offset uint32, value uint32) error {
	b, err := m.span(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func (m *SliceMemory) WriteU64(offset uint32, value uint64) error {
	b, err := m.span(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

// WasmMemory is the linear memory of a wazero module instance. Register
// images stored in it are visible to guest code sharing the runtime.
type WasmMemory struct {
	rt  wazero.Runtime
	mem api.Memory
}

// NewWasmMemory instantiates a module exporting one linear memory of the
// given number of 64 KiB pages.
func NewWasmMemory(ctx context.Context, pages uint32) (*WasmMemory, error) {
	rt := wazero.NewRuntime(ctx)
	mod, err := rt.InstantiateWithConfig(ctx, memoryModule(pages), wazero.NewModuleConfig().WithName(""))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseBus, errors.KindInvalidInput, err, "instantiate memory module")
	}
	mem := mod.ExportedMemory("memory")
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.NotFound(errors.PhaseBus, "memory export", "memory")
	}
	return &WasmMemory{rt: rt, mem: mem}, nil
}

// WrapMemory adapts an existing wazero memory.
func WrapMemory(mem api.Memory) *WasmMemory {
	if mem == nil {
		return nil
	}
	return &WasmMemory{mem: mem}
}

// Close releases the runtime created by NewWasmMemory.
func (m *WasmMemory) Close(ctx context.Context) error {
	if m.rt == nil {
		return nil
	}
	return m.rt.Close(ctx)
}

func (m *WasmMemory) Size() uint32 { return m.mem.Size() }

// Grow adds pages and returns the previous size in pages.
func (m *WasmMemory) Grow(pages uint32) (uint32, bool) { return m.mem.Grow(pages) }

func outOfBounds(offset uint32, length int, size uint32) error {
	return errors.New(errors.PhaseBus, errors.KindOutOfBounds).
		Detail("access [%d, %d) outside memory of %d bytes", offset, uint64(offset)+uint64(length), size).
		Value(offset).
		Build()
}

func (m *WasmMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, outOfBounds(offset, int(length), m.mem.Size())
	}
	return append([]byte(nil), data...), nil
}

func (m *WasmMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return outOfBounds(offset, len(data), m.mem.Size())
	}
	return nil
}

func (m *WasmMemory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, outOfBounds(offset, 1, m.mem.Size())
	}
	return v, nil
}

func (m *WasmMemory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, outOfBounds(offset, 2, m.mem.Size())
	}
	return v, nil
}

func (m *WasmMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, outOfBounds(offset, 4, m.mem.Size())
	}
	return v, nil
}

func (m *WasmMemory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, outOfBounds(offset, 8, m.mem.Size())
	}
	return v, nil
}

func (m *WasmMemory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return outOfBounds(offset, 1, m.mem.Size())
	}
	return nil
}

func (m *WasmMemory) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return outOfBounds(offset, 2, m.mem.Size())
	}
	return nil
}

func (m *WasmMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return outOfBounds(offset, 4, m.mem.Size())
	}
	return nil
}

func (m *WasmMemory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return outOfBounds(offset, 8, m.mem.Size())
	}
	return nil
}

// memoryModule encodes a module with a single exported memory:
//
//	(module (memory (export "memory") pages))
func memoryModule(pages uint32) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	mem := append([]byte{0x01, 0x00}, uleb(pages)...)
	out = append(out, 0x05)
	out = append(out, uleb(uint32(len(mem)))...)
	out = append(out, mem...)

	exp := []byte{0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00}
	out = append(out, 0x07)
	out = append(out, uleb(uint32(len(exp)))...)
	return append(out, exp...)
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

var (
	_ bitschema.Memory      = (*SliceMemory)(nil)
	_ bitschema.MemorySizer = (*SliceMemory)(nil)
	_ bitschema.Memory      = (*WasmMemory)(nil)
	_ bitschema.MemorySizer = (*WasmMemory)(nil)
)
