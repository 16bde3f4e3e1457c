// Package witgen projects descriptors onto WIT types and computes the
// canonical ABI memory layout of the projection.
//
// The projection is the software mirror of a bit-packed type: every field
// gets its own naturally aligned slot instead of a bit range. A Mirror
// lowers instances into that layout in a bitschema.Memory and lifts them
// back, so host code and guest code can exchange register file contents
// through linear memory.
//
// # Layout Rules
//
// The Canonical ABI defines specific layout rules:
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8, etc.)
//   - Records: fields laid out sequentially with padding for alignment
//   - Enums: a discriminant sized for the number of cases
//   - Flags: one bit per flag in the smallest integer that holds them
package witgen
