package assemble

import (
	"fmt"
	"strings"

	"github.com/wippyai/nvmbuild"
	"github.com/wippyai/nvmbuild/checksum"
	"github.com/wippyai/nvmbuild/errors"
)

// Settings configures one block.
type Settings struct {
	// StartAddress is the on-device address of the first payload byte.
	StartAddress uint32
	// VirtualOffset shifts output addresses only.
	VirtualOffset uint32
	// Length is the allocated size; the payload must fit.
	Length     uint32
	Endianness nvmbuild.Endianness
	ByteSwap   bool
	PadToEnd   bool
	// Padding fills alignment gaps and the padded tail.
	Padding byte
	// Pack caps scalar alignment like #pragma pack(N). 0 is natural.
	Pack uint32
	CRC  CRC
}

type CRC struct {
	// Params is the algorithm; zero means checksum.Default.
	Params   checksum.Params
	Location Location
	Area     Area
}

// LocationKind says where the CRC is stored.
type LocationKind uint8

const (
	// CRCAtEnd stores the CRC at the first 4-byte boundary after the payload.
	CRCAtEnd LocationKind = iota
	// CRCAtAddress stores the CRC at an absolute on-device address.
	CRCAtAddress
	// CRCNone emits no CRC.
	CRCNone
)

type Location struct {
	Kind    LocationKind
	Address uint32
}

func AtEnd() Location { return Location{Kind: CRCAtEnd} }
func AtAddress(a uint32) Location { return Location{Kind: CRCAtAddress, Address: a} }
func NoCRC() Location { return Location{Kind: CRCNone} }

func (l Location) String() string {
	switch l.Kind {
	case CRCAtAddress:
		return fmt.Sprintf("0x%08X", l.Address)
	case CRCNone:
		return "none"
	}
	return "end"
}

// Area is the byte range the CRC covers.
type Area uint8

const (
	// AreaData covers the payload and its alignment padding up to the CRC.
	AreaData Area = iota
	// AreaBlock covers the whole block padded to Length with the CRC slot
	// zeroed.
	AreaBlock
)

func (a Area) String() string {
	if a == AreaBlock {
		return "block"
	}
	return "data"
}

func ParseArea(s string) (Area, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "data":
		return AreaData, nil
	case "block":
		return AreaBlock, nil
	}
	return AreaData, fmt.Errorf("unknown crc area %q (want data or block)", s)
}

func (s Settings) params() checksum.Params {
	if s.CRC.Params.Width == 0 {
		return checksum.Default()
	}
	return s.CRC.Params
}

// Validate checks settings that do not depend on the payload.
func (s Settings) Validate() error {
	if s.Length == 0 {
		return errors.InvalidInput(errors.PhaseAssemble, "block length must be positive")
	}
	if uint64(s.StartAddress)+uint64(s.VirtualOffset)+uint64(s.Length) > 1<<32 {
		return errors.InvalidInput(errors.PhaseAssemble,
			"block 0x%08X+0x%X (virtual offset 0x%X) exceeds the 32-bit address space",
			s.StartAddress, s.Length, s.VirtualOffset)
	}
	if s.CRC.Location.Kind == CRCNone {
		return nil
	}
	if err := s.params().Validate(); err != nil {
		return err
	}
	if s.CRC.Location.Kind == CRCAtAddress && s.CRC.Location.Address < s.StartAddress {
		return errors.AddressConflict(errors.PhaseAssemble, s.CRC.Location.Address, s.StartAddress,
			"crc address is before the block start")
	}
	return nil
}
