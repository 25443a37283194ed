package field

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Value is a converted scalar: a type and its bit pattern.
type Value struct {
	Type ScalarType
	bits uint64
}

func UintValue(t ScalarType, v uint64) Value {
	return Value{Type: t, bits: v}
}

func IntValue(t ScalarType, v int64) Value {
	return Value{Type: t, bits: uint64(v)}
}

// FloatValue stores f at the precision of t.
func FloatValue(t ScalarType, f float64) Value {
	if t == F32 {
		return Value{Type: t, bits: uint64(math.Float32bits(float32(f)))}
	}
	return Value{Type: t, bits: math.Float64bits(f)}
}

// Bits is the raw pattern truncated to the type's width.
func (v Value) Bits() uint64 {
	switch v.Type.Width() {
	case 1:
		return v.bits & 0xFF
	case 2:
		return v.bits & 0xFFFF
	case 4:
		return v.bits & 0xFFFFFFFF
	}
	return v.bits
}

func (v Value) Uint64() uint64 {
	return v.Bits()
}

// Int64 sign-extends signed types.
func (v Value) Int64() int64 {
	switch v.Type {
	case I8:
		return int64(int8(v.bits))
	case I16:
		return int64(int16(v.bits))
	case I32:
		return int64(int32(v.bits))
	}
	return int64(v.bits)
}

func (v Value) Float64() float64 {
	switch v.Type {
	case F32:
		return float64(math.Float32frombits(uint32(v.bits)))
	case F64:
		return math.Float64frombits(v.bits)
	}
	if v.Type.IsSigned() {
		return float64(v.Int64())
	}
	return float64(v.Bits())
}

func (v Value) String() string {
	switch {
	case v.Type.IsFloat():
		return strconv.FormatFloat(v.Float64(), 'g', -1, v.Type.Bits())
	case v.Type.IsSigned():
		return strconv.FormatInt(v.Int64(), 10)
	}
	return strconv.FormatUint(v.Bits(), 10)
}

// Put writes the value into dst[:Width] in the given byte order.
// dst must be at least Width bytes long.
func (v Value) Put(dst []byte, order binary.ByteOrder) {
	switch v.Type.Width() {
	case 1:
		dst[0] = byte(v.bits)
	case 2:
		order.PutUint16(dst, uint16(v.bits))
	case 4:
		order.PutUint32(dst, uint32(v.bits))
	case 8:
		order.PutUint64(dst, v.bits)
	}
}

// Append is Put onto the end of dst.
func (v Value) Append(dst []byte, order binary.ByteOrder) []byte {
	var buf [8]byte
	w := v.Type.Width()
	v.Put(buf[:w], order)
	return append(dst, buf[:w]...)
}
