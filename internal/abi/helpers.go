package abi

import "math"

func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// AlignTo rounds offset up to the next multiple of align.
// align need not be a power of two.
func AlignTo(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	if r := offset % align; r != 0 {
		return offset + align - r
	}
	return offset
}

// EffectiveAlign caps a scalar's natural alignment at pack. pack 0 means natural.
func EffectiveAlign(width, pack uint32) uint32 {
	if pack != 0 && pack < width {
		return pack
	}
	return width
}

// SwapPairs swaps each adjacent pair of bytes in place. A trailing odd byte is left alone.
func SwapPairs(b []byte) {
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
}
