package nvmbuild

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Endianness selects the byte order of multi-byte scalars and the CRC field.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

// ByteOrder returns the encoding/binary order for e.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endianness) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ParseEndianness accepts "little" or "big" in any case.
func ParseEndianness(s string) (Endianness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "little", "le":
		return LittleEndian, nil
	case "big", "be":
		return BigEndian, nil
	}
	return LittleEndian, fmt.Errorf("unknown endianness %q (want little or big)", s)
}
