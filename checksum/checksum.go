// Package checksum computes the block CRC.
//
// Params describes a CRC in the Rocksoft model (width, polynomial, initial
// value, final xor, input and output reflection). Named presets cover the
// common flash conventions; layout files pick one with "algorithm" and can
// override any parameter.
package checksum

import (
	"sort"
	"strings"

	"github.com/snksoft/crc"

	"github.com/wippyai/nvmbuild/errors"
)

type Params struct {
	Name       string
	Width      uint
	Polynomial uint64
	Init       uint64
	XorOut     uint64
	RefIn      bool
	RefOut     bool
}

var presets = map[string]Params{
	"crc32":        {Name: "crc32", Width: 32, Polynomial: 0x04C11DB7, Init: 0xFFFFFFFF, XorOut: 0xFFFFFFFF, RefIn: true, RefOut: true},
	"crc32c":       {Name: "crc32c", Width: 32, Polynomial: 0x1EDC6F41, Init: 0xFFFFFFFF, XorOut: 0xFFFFFFFF, RefIn: true, RefOut: true},
	"crc32-mpeg2":  {Name: "crc32-mpeg2", Width: 32, Polynomial: 0x04C11DB7, Init: 0xFFFFFFFF},
	"crc16-ccitt":  {Name: "crc16-ccitt", Width: 16, Polynomial: 0x1021, Init: 0xFFFF},
	"crc16-xmodem": {Name: "crc16-xmodem", Width: 16, Polynomial: 0x1021},
	"crc16-modbus": {Name: "crc16-modbus", Width: 16, Polynomial: 0x8005, Init: 0xFFFF, RefIn: true, RefOut: true},
	"crc8":         {Name: "crc8", Width: 8, Polynomial: 0x07},
}

// Default is the CRC-32 used by zlib and Ethernet.
func Default() Params {
	return presets["crc32"]
}

// Preset looks up a named algorithm, case-insensitively.
func Preset(name string) (Params, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Params{}, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Value(name).
			Detail("unknown crc algorithm %q; known: %s", name, strings.Join(Presets(), ", ")).
			Build()
	}
	return p, nil
}

// Presets lists the preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks the width and that the parameters fit in it.
func (p Params) Validate() error {
	switch p.Width {
	case 8, 16, 32, 64:
	default:
		return errors.InvalidInput(errors.PhaseLoad, "crc width must be 8, 16, 32 or 64, got %d", p.Width)
	}
	if p.Polynomial == 0 {
		return errors.InvalidInput(errors.PhaseLoad, "crc polynomial must be non-zero")
	}
	mask := p.mask()
	if p.Polynomial&^mask != 0 || p.Init&^mask != 0 || p.XorOut&^mask != 0 {
		return errors.InvalidInput(errors.PhaseLoad, "crc parameters exceed %d bits", p.Width)
	}
	return nil
}

// Size is the serialized size in bytes.
func (p Params) Size() int {
	return int(p.Width / 8)
}

func (p Params) mask() uint64 {
	if p.Width >= 64 {
		return ^uint64(0)
	}
	return 1<<p.Width - 1
}

func (p Params) parameters() *crc.Parameters {
	return &crc.Parameters{
		Width:      p.Width,
		Polynomial: p.Polynomial,
		ReflectIn:  p.RefIn,
		ReflectOut: p.RefOut,
		Init:       p.Init,
		FinalXor:   p.XorOut,
	}
}

// Checksum computes the CRC of data.
func (p Params) Checksum(data []byte) uint64 {
	return crc.CalculateCRC(p.parameters(), data)
}

// Hash returns an incremental hash for p.
func (p Params) Hash() *crc.Hash {
	return crc.NewHash(p.parameters())
}

func (p Params) String() string {
	if p.Name != "" {
		return p.Name
	}
	return "custom"
}
