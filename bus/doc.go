// Package bus places register file instances in a byte-addressed Memory.
//
// Store and Load move a whole image between a value.Block and memory.
// A Bus additionally decodes addresses onto registers and applies register
// behaviors: access capabilities, strobes, and FIFO queues whose paired
// level register tracks the number of entries.
//
// Two memories are provided: SliceMemory over a Go byte slice and
// WasmMemory over the linear memory of a wazero module instance.
package bus
