package field

import (
	"fmt"
	"strings"
)

// ScalarType is a fixed-width primitive stored in the image.
type ScalarType uint8

const (
	Invalid ScalarType = iota
	U8
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	F32
	F64
)

var typeNames = [...]string{
	Invalid: "invalid",
	U8:      "u8",
	I8:      "i8",
	U16:     "u16",
	I16:     "i16",
	U32:     "u32",
	I32:     "i32",
	U64:     "u64",
	I64:     "i64",
	F32:     "f32",
	F64:     "f64",
}

var typeWidths = [...]uint32{
	U8:  1,
	I8:  1,
	U16: 2,
	I16: 2,
	U32: 4,
	I32: 4,
	U64: 8,
	I64: 8,
	F32: 4,
	F64: 8,
}

func (t ScalarType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Width is the size in bytes, also used as the natural alignment.
func (t ScalarType) Width() uint32 {
	if t == Invalid || int(t) >= len(typeWidths) {
		return 0
	}
	return typeWidths[t]
}

// Bits is Width in bits.
func (t ScalarType) Bits() int {
	return int(t.Width()) * 8
}

func (t ScalarType) Valid() bool {
	return t != Invalid && int(t) < len(typeNames)
}

func (t ScalarType) IsFloat() bool {
	return t == F32 || t == F64
}

func (t ScalarType) IsSigned() bool {
	switch t {
	case I8, I16, I32, I64:
		return true
	}
	return false
}

// ParseScalarType accepts the layout file spellings (u8..u64, i8..i64, f32, f64).
// "s" is accepted as an alias prefix for signed types.
func ParseScalarType(s string) (ScalarType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(name, "s") {
		name = "i" + name[1:]
	}
	for i, n := range typeNames {
		if ScalarType(i) != Invalid && n == name {
			return ScalarType(i), nil
		}
	}
	return Invalid, fmt.Errorf("unknown scalar type %q", s)
}

// Kind is the shape of a field.
type Kind uint8

const (
	KindScalar Kind = iota
	KindArray
	KindMatrix
	KindStruct
	KindStructArray
)

var kindNames = [...]string{
	KindScalar:      "scalar",
	KindArray:       "array",
	KindMatrix:      "matrix",
	KindStruct:      "struct",
	KindStructArray: "struct_array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsLeaf reports whether fields of this kind carry values directly.
func (k Kind) IsLeaf() bool {
	return k == KindScalar || k == KindArray || k == KindMatrix
}
