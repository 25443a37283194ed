// Package ihex writes and reads Intel HEX.
//
// Encode emits data records of at most RecordWidth bytes in ascending
// address order, an Extended Linear Address record whenever the upper 16
// address bits change, and the end-of-file record. Output is uppercase with
// one record per line. Decode reads HEX back with gohex for comparisons.
package ihex

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/wippyai/nvmbuild/assemble"
	"github.com/wippyai/nvmbuild/errors"
)

const (
	DefaultRecordWidth = 32
	MaxRecordWidth     = 64
)

const (
	recData      = 0x00
	recEOF       = 0x01
	recExtLinear = 0x04
)

type Options struct {
	// RecordWidth is the maximum data bytes per record, 1..64. 0 means
	// DefaultRecordWidth.
	RecordWidth int
}

func (o Options) width() (int, error) {
	w := o.RecordWidth
	if w == 0 {
		w = DefaultRecordWidth
	}
	if w < 1 || w > MaxRecordWidth {
		return 0, errors.InvalidInput(errors.PhaseEncode, "record width must be 1..%d, got %d", MaxRecordWidth, o.RecordWidth)
	}
	return w, nil
}

// Sorted returns a copy of segs ordered by address, failing on overlap and on
// runs past the 32-bit address space. Empty segments are dropped.
func Sorted(segs []assemble.Segment) ([]assemble.Segment, error) {
	out := make([]assemble.Segment, 0, len(segs))
	for _, s := range segs {
		if len(s.Data) > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Address < out[j].Address })

	for i, s := range out {
		if s.End() > 1<<32 {
			return nil, errors.InvalidInput(errors.PhaseEncode, "segment at 0x%08X with %d bytes exceeds the 32-bit address space", s.Address, len(s.Data))
		}
		if i > 0 && uint64(s.Address) < out[i-1].End() {
			return nil, errors.AddressConflict(errors.PhaseEncode, out[i-1].Address, s.Address, "")
		}
	}
	return out, nil
}

// Encode writes segs as Intel HEX followed by the EOF record.
func Encode(w io.Writer, segs []assemble.Segment, opts Options) error {
	width, err := opts.width()
	if err != nil {
		return err
	}
	sorted, err := Sorted(segs)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	rw := recordWriter{w: bw}
	var upper uint32
	for _, s := range sorted {
		for pos := 0; pos < len(s.Data); {
			addr := s.Address + uint32(pos)
			n := len(s.Data) - pos
			if n > width {
				n = width
			}
			// never cross a 64 KiB boundary inside one record
			if room := int(0x10000 - addr&0xFFFF); n > room {
				n = room
			}

			if hi := addr >> 16; hi != upper {
				rw.record(recExtLinear, 0, []byte{byte(hi >> 8), byte(hi)})
				upper = hi
			}
			rw.record(recData, uint16(addr), s.Data[pos:pos+n])
			pos += n
		}
	}
	rw.record(recEOF, 0, nil)

	if rw.err != nil {
		return errors.IO(errors.PhaseEncode, "write", "intel hex", rw.err)
	}
	if err := bw.Flush(); err != nil {
		return errors.IO(errors.PhaseEncode, "write", "intel hex", err)
	}
	return nil
}

// EncodeToString is Encode into a string.
func EncodeToString(segs []assemble.Segment, opts Options) (string, error) {
	var b strings.Builder
	if err := Encode(&b, segs, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

const hexDigits = "0123456789ABCDEF"

type recordWriter struct {
	w   *bufio.Writer
	err error
	buf []byte
}

func (r *recordWriter) record(typ byte, addr uint16, data []byte) {
	r.buf = r.buf[:0]
	r.buf = append(r.buf, ':')
	sum := byte(len(data)) + byte(addr>>8) + byte(addr) + typ
	r.buf = appendHex(r.buf, byte(len(data)))
	r.buf = appendHex(r.buf, byte(addr>>8))
	r.buf = appendHex(r.buf, byte(addr))
	r.buf = appendHex(r.buf, typ)
	for _, b := range data {
		r.buf = appendHex(r.buf, b)
		sum += b
	}
	r.buf = appendHex(r.buf, -sum)
	r.buf = append(r.buf, '\n')
	r.write(r.buf)
}

func (r *recordWriter) write(p []byte) {
	if r.err != nil {
		return
	}
	_, r.err = r.w.Write(p)
}

func appendHex(dst []byte, b byte) []byte {
	return append(dst, hexDigits[b>>4], hexDigits[b&0x0F])
}
