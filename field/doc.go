// Package field models the memory layout of one block as a tree.
//
// Leaves are scalars, fixed-length arrays and row-major matrices of one
// scalar type. Interior nodes are structs and struct arrays; a struct array
// repeats its scalar members row by row (array of structs).
//
//	root, err := field.NewTree(
//		field.Scalar("version", field.U8),
//		field.Struct("device",
//			field.Scalar("serial", field.U32),
//			field.Array("name", field.U8, 16),
//		),
//		field.StructArray("cal", 10,
//			field.Scalar("gain", field.F32),
//			field.Scalar("offset", field.F32),
//		),
//	)
//
// The byte order of the emitted image is the Walk order. Sizes are known
// statically; see Size.
package field
