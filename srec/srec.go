// Package srec writes Motorola S-records (.mot).
//
// The address width follows the highest address written: S1/S9 up to
// 64 KiB, S2/S8 up to 16 MiB and S3/S7 beyond. The data records are
// followed by an S5 (or S6) record count and the termination record.
package srec

import (
	"bufio"
	"io"
	"strings"

	"github.com/wippyai/nvmbuild/assemble"
	"github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/ihex"
)

const (
	DefaultRecordWidth = ihex.DefaultRecordWidth
	MaxRecordWidth     = ihex.MaxRecordWidth
)

type Options struct {
	// RecordWidth is the maximum data bytes per record, 1..64. 0 means
	// DefaultRecordWidth.
	RecordWidth int
	// Header is the S0 payload, usually a file or module name.
	Header string
}

// AddressWidth is the number of address bytes in data records.
type AddressWidth int

const (
	Addr16 AddressWidth = 2
	Addr24 AddressWidth = 3
	Addr32 AddressWidth = 4
)

func (a AddressWidth) dataType() byte {
	switch a {
	case Addr16:
		return '1'
	case Addr24:
		return '2'
	}
	return '3'
}

func (a AddressWidth) termType() byte {
	switch a {
	case Addr16:
		return '9'
	case Addr24:
		return '8'
	}
	return '7'
}

// WidthFor returns the smallest address width that reaches end, the
// exclusive upper bound of the image.
func WidthFor(end uint64) AddressWidth {
	switch {
	case end <= 1<<16:
		return Addr16
	case end <= 1<<24:
		return Addr24
	}
	return Addr32
}

// Encode writes segs as S-records.
func Encode(w io.Writer, segs []assemble.Segment, opts Options) error {
	width := opts.RecordWidth
	if width == 0 {
		width = DefaultRecordWidth
	}
	if width < 1 || width > MaxRecordWidth {
		return errors.InvalidInput(errors.PhaseEncode, "record width must be 1..%d, got %d", MaxRecordWidth, opts.RecordWidth)
	}
	if len(opts.Header) > 252 {
		return errors.InvalidInput(errors.PhaseEncode, "header is %d bytes, at most 252 fit in an S0 record", len(opts.Header))
	}

	sorted, err := ihex.Sorted(segs)
	if err != nil {
		return err
	}
	var end uint64
	if n := len(sorted); n > 0 {
		end = sorted[n-1].End()
	}
	aw := WidthFor(end)

	bw := bufio.NewWriter(w)
	rw := recordWriter{w: bw}
	rw.record('0', 0, Addr16, []byte(opts.Header))

	count := 0
	for _, s := range sorted {
		for pos := 0; pos < len(s.Data); pos += width {
			n := min(width, len(s.Data)-pos)
			rw.record(aw.dataType(), s.Address+uint32(pos), aw, s.Data[pos:pos+n])
			count++
		}
	}

	if count <= 0xFFFF {
		rw.record('5', uint32(count), Addr16, nil)
	} else {
		rw.record('6', uint32(count), Addr24, nil)
	}
	rw.record(aw.termType(), 0, aw, nil)

	if rw.err != nil {
		return errors.IO(errors.PhaseEncode, "write", "s-record", rw.err)
	}
	if err := bw.Flush(); err != nil {
		return errors.IO(errors.PhaseEncode, "write", "s-record", err)
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

// record writes S<typ> with the count byte, addr in aw bytes, data and the
// ones' complement checksum.
func (r *recordWriter) record(typ byte, addr uint32, aw AddressWidth, data []byte) {
	r.buf = append(r.buf[:0], 'S', typ)
	count := byte(int(aw) + len(data) + 1)
	sum := count
	r.buf = appendHex(r.buf, count)
	for i := int(aw) - 1; i >= 0; i-- {
		b := byte(addr >> (8 * i))
		r.buf = appendHex(r.buf, b)
		sum += b
	}
	for _, b := range data {
		r.buf = appendHex(r.buf, b)
		sum += b
	}
	r.buf = appendHex(r.buf, ^sum)
	r.buf = append(r.buf, '\n')

	if r.err != nil {
		return
	}
	_, r.err = r.w.Write(r.buf)
}

func appendHex(dst []byte, b byte) []byte {
	return append(dst, hexDigits[b>>4], hexDigits[b&0x0F])
}
