package assemble

import (
	"fmt"
	"sort"
)

// DataRange is the assembled image of one block.
type DataRange struct {
	Name string
	// StartAddress is the output address of Bytestream[0], virtual offset
	// included.
	StartAddress uint32
	// Bytestream holds the payload, alignment padding before an end CRC and
	// any tail padding. The CRC itself lives in CRCBytestream.
	Bytestream []byte
	// UsedSize is the payload length before any padding.
	UsedSize      uint32
	AllocatedSize uint32
	CRCAddress    uint32
	CRCBytestream []byte
	CRCValue      uint64
}

// HasCRC reports whether the block carries a CRC.
func (d *DataRange) HasCRC() bool {
	return len(d.CRCBytestream) > 0
}

// Efficiency is UsedSize as a percentage of AllocatedSize.
func (d *DataRange) Efficiency() float64 {
	if d.AllocatedSize == 0 {
		return 0
	}
	return float64(d.UsedSize) * 100 / float64(d.AllocatedSize)
}

func (d *DataRange) String() string {
	return fmt.Sprintf("%s@0x%08X used=%d/%d crc=0x%X", d.Name, d.StartAddress, d.UsedSize, d.AllocatedSize, d.CRCValue)
}

// Segment is a contiguous run of bytes at an output address.
type Segment struct {
	Address uint32
	Data    []byte
}

// End is the address one past the last byte.
func (s Segment) End() uint64 {
	return uint64(s.Address) + uint64(len(s.Data))
}

// Segments returns the image as address-ordered runs for an encoder. A CRC
// that lands inside Bytestream padding replaces those bytes; a CRC directly
// after Bytestream is merged into one run. The DataRange is not modified.
func (d *DataRange) Segments() []Segment {
	payload := Segment{Address: d.StartAddress, Data: d.Bytestream}
	if !d.HasCRC() {
		if len(payload.Data) == 0 {
			return nil
		}
		return []Segment{payload}
	}
	crc := Segment{Address: d.CRCAddress, Data: d.CRCBytestream}

	if crc.Address >= d.StartAddress && uint64(crc.Address) <= payload.End() {
		off := int(crc.Address - d.StartAddress)
		n := off + len(crc.Data)
		if n < len(payload.Data) {
			n = len(payload.Data)
		}
		merged := make([]byte, n)
		copy(merged, payload.Data)
		copy(merged[off:], crc.Data)
		return []Segment{{Address: d.StartAddress, Data: merged}}
	}

	segs := []Segment{crc}
	if len(payload.Data) > 0 {
		segs = append(segs, payload)
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].Address < segs[j].Address })
	return segs
}

// Image returns the block as one contiguous buffer starting at StartAddress,
// gaps filled with fill.
func (d *DataRange) Image(fill byte) []byte {
	segs := d.Segments()
	if len(segs) == 0 {
		return nil
	}
	end := segs[len(segs)-1].End()
	out := make([]byte, end-uint64(d.StartAddress))
	for i := range out {
		out[i] = fill
	}
	for _, s := range segs {
		copy(out[s.Address-d.StartAddress:], s.Data)
	}
	return out
}
