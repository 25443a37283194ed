// Package abi provides low-level layout helpers shared by the field tree and
// the block assembler.
//
// This includes:
//   - Alignment and pack-capped alignment
//   - Overflow-checked uint32 arithmetic for offsets and sizes
//   - Range-checked numeric coercion into fixed-width integer and float types
//   - In-place byte pair swapping
//
// No value is ever clamped or truncated: every coercion reports whether the
// value fits the target exactly.
package abi
