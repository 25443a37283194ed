package abi

import "math"

// CoerceToUnsigned converts an int64, uint64 or float64 into an unsigned
// integer of the given bit width. Fractional and out-of-range values fail.
func CoerceToUnsigned(value any, bits int) (uint64, bool) {
	limit := uint64(math.MaxUint64)
	if bits < 64 {
		limit = 1<<uint(bits) - 1
	}
	switch v := value.(type) {
	case uint64:
		if v <= limit {
			return v, true
		}
	case int64:
		if v >= 0 && uint64(v) <= limit {
			return uint64(v), true
		}
	case int:
		if v >= 0 && uint64(v) <= limit {
			return uint64(v), true
		}
	case float64:
		// 2^64 is exactly representable, so >= rejects everything past MaxUint64
		if v >= 0 && v < 18446744073709551616.0 && v == math.Trunc(v) {
			u := uint64(v)
			if u <= limit {
				return u, true
			}
		}
	}
	return 0, false
}

// CoerceToSigned converts an int64, uint64 or float64 into a signed integer
// of the given bit width. Fractional and out-of-range values fail.
func CoerceToSigned(value any, bits int) (int64, bool) {
	maxV := int64(math.MaxInt64)
	minV := int64(math.MinInt64)
	if bits < 64 {
		maxV = 1<<uint(bits-1) - 1
		minV = -1 << uint(bits-1)
	}
	switch v := value.(type) {
	case int64:
		if v >= minV && v <= maxV {
			return v, true
		}
	case int:
		if int64(v) >= minV && int64(v) <= maxV {
			return int64(v), true
		}
	case uint64:
		if v <= uint64(maxV) {
			return int64(v), true
		}
	case float64:
		if v >= -9223372036854775808.0 && v < 9223372036854775808.0 && v == math.Trunc(v) {
			i := int64(v)
			if i >= minV && i <= maxV {
				return i, true
			}
		}
	}
	return 0, false
}

// CoerceToFloat converts a number into a float of the given bit width.
// Values outside the finite range of the width fail. With exact set,
// integers that would round and float64 values that lose precision in a
// float32 also fail.
func CoerceToFloat(value any, bits int, exact bool) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case int64:
		f = float64(v)
		if exact && int64(f) != v {
			return 0, false
		}
	case int:
		f = float64(v)
		if exact && int(f) != v {
			return 0, false
		}
	case uint64:
		f = float64(v)
		if exact && (f >= 18446744073709551616.0 || uint64(f) != v) {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if bits == 32 {
		if math.Abs(f) > math.MaxFloat32 {
			return 0, false
		}
		if exact && float64(float32(f)) != f {
			return 0, false
		}
	}
	return f, true
}
