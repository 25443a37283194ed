package abi

import (
	"bytes"
	"math"
	"testing"
)

func TestAlignTo(t *testing.T) {
	tests := []struct {
		offset uint32
		align  uint32
		want   uint32
	}{
		{0, 4, 0},
		{1, 4, 4},
		{3, 4, 4},
		{4, 4, 4},
		{5, 2, 6},
		{7, 8, 8},
		{7, 1, 7},
		{7, 0, 7},
		{5, 3, 6},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.offset, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.offset, tt.align, got, tt.want)
		}
	}
}

func TestEffectiveAlign(t *testing.T) {
	tests := []struct {
		width, pack, want uint32
	}{
		{4, 0, 4},
		{4, 1, 1},
		{4, 2, 2},
		{2, 4, 2},
		{8, 4, 4},
	}
	for _, tt := range tests {
		if got := EffectiveAlign(tt.width, tt.pack); got != tt.want {
			t.Errorf("EffectiveAlign(%d, %d) = %d, want %d", tt.width, tt.pack, got, tt.want)
		}
	}
}

func TestSafeArithmetic(t *testing.T) {
	if v, ok := SafeMulU32(1000, 1000); !ok || v != 1000000 {
		t.Errorf("SafeMulU32(1000, 1000) = %d, %v", v, ok)
	}
	if _, ok := SafeMulU32(math.MaxUint32, 2); ok {
		t.Error("SafeMulU32 should detect overflow")
	}
	if v, ok := SafeMulU32(0, math.MaxUint32); !ok || v != 0 {
		t.Errorf("SafeMulU32(0, max) = %d, %v", v, ok)
	}
	if v, ok := SafeAddU32(1, 2); !ok || v != 3 {
		t.Errorf("SafeAddU32(1, 2) = %d, %v", v, ok)
	}
	if _, ok := SafeAddU32(math.MaxUint32, 1); ok {
		t.Error("SafeAddU32 should detect overflow")
	}
}

func TestSwapPairs(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"empty", []byte{}, []byte{}},
		{"even", []byte{0x01, 0x02, 0x03, 0x04}, []byte{0x02, 0x01, 0x04, 0x03}},
		{"odd", []byte{0x01, 0x02, 0x03}, []byte{0x02, 0x01, 0x03}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := append([]byte(nil), tt.in...)
			SwapPairs(b)
			if !bytes.Equal(b, tt.want) {
				t.Errorf("got % X, want % X", b, tt.want)
			}
		})
	}
}
