// Package assemble lays out one block's fields into bytes.
//
// Fields are emitted in field.Walk order. Each scalar is aligned to its own
// width (capped by Settings.Pack) with padding bytes, serialized in the block
// endianness and appended. The CRC is computed over the unswapped image and
// byte swapping, when enabled, is applied last to payload and CRC alike.
package assemble

import (
	"github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/field"
	"github.com/wippyai/nvmbuild/internal/abi"
)

// Resolver supplies leaf values. *resolve.Resolver implements it.
type Resolver interface {
	Scalar(v field.Visit) (field.Value, error)
	Array(v field.Visit, n int) ([]field.Value, error)
	Matrix(v field.Visit, rows, cols int) ([]field.Value, error)
	Column(v field.Visit, rows int) ([]field.Value, error)
}

// Assemble builds the image of block name. On error nothing is returned;
// errors carry the block name and the failing field path.
func Assemble(name string, root *field.Field, s Settings, r Resolver) (*DataRange, error) {
	if err := s.Validate(); err != nil {
		return nil, errors.InBlock(name, "", err)
	}
	if err := field.Validate(root); err != nil {
		return nil, errors.InBlock(name, "", err)
	}

	b := &builder{
		settings: s,
		resolver: r,
		buf:      make([]byte, 0, s.Length),
	}
	if err := field.Walk(root, b.visit); err != nil {
		return nil, errors.InBlock(name, "", err)
	}

	dr, err := b.finish()
	if err != nil {
		return nil, errors.InBlock(name, "", err)
	}
	dr.Name = name
	return dr, nil
}

type builder struct {
	resolver Resolver
	columns  map[*field.Field][]field.Value
	buf      []byte
	settings Settings
}

func (b *builder) visit(v field.Visit) error {
	f := v.Field
	switch f.Kind {
	case field.KindScalar:
		if v.Row >= 0 {
			return b.emit(f.Type, b.columns[f][v.Row:v.Row+1])
		}
		val, err := b.resolver.Scalar(v)
		if err != nil {
			return err
		}
		return b.emit(f.Type, []field.Value{val})
	case field.KindArray:
		vals, err := b.resolver.Array(v, f.Len)
		if err != nil {
			return err
		}
		return b.emit(f.Type, vals)
	case field.KindMatrix:
		vals, err := b.resolver.Matrix(v, f.Rows, f.Cols)
		if err != nil {
			return err
		}
		return b.emit(f.Type, vals)
	case field.KindStructArray:
		return b.loadColumns(v)
	}
	return nil
}

// loadColumns resolves every member of a struct array once, before its rows
// are visited.
func (b *builder) loadColumns(v field.Visit) error {
	f := v.Field
	b.columns = make(map[*field.Field][]field.Value, len(f.Children))
	for _, m := range f.Children {
		mv := field.Visit{
			Field: m,
			Path:  append(append([]string(nil), v.Path...), m.Name),
			Row:   -1,
			Depth: v.Depth + 1,
		}
		vals, err := b.resolver.Column(mv, f.Rows)
		if err != nil {
			return err
		}
		if len(vals) != f.Rows {
			return errors.WithPath(errors.LengthMismatch(nil, f.Rows, len(vals)), mv.Path...)
		}
		b.columns[m] = vals
	}
	return nil
}

func (b *builder) emit(t field.ScalarType, vals []field.Value) error {
	order := b.settings.Endianness.ByteOrder()
	for _, val := range vals {
		b.pad(field.Offset(uint32(len(b.buf)), t, b.settings.Pack))
		b.buf = val.Append(b.buf, order)
	}
	return nil
}

func (b *builder) pad(to uint32) {
	for uint32(len(b.buf)) < to {
		b.buf = append(b.buf, b.settings.Padding)
	}
}

func (b *builder) finish() (*DataRange, error) {
	s := b.settings
	used := uint32(len(b.buf))
	if used > s.Length {
		return nil, errors.BlockOverflow(uint64(used), s.Length, "payload")
	}

	origin := s.StartAddress + s.VirtualOffset
	dr := &DataRange{
		StartAddress:  origin,
		UsedSize:      used,
		AllocatedSize: s.Length,
	}

	if s.CRC.Location.Kind != CRCNone {
		params := s.params()
		size := uint32(params.Size())

		var off uint32
		switch s.CRC.Location.Kind {
		case CRCAtEnd:
			off = abi.AlignTo(used, 4)
		case CRCAtAddress:
			off = s.CRC.Location.Address - s.StartAddress
			if off < used {
				return nil, errors.AddressConflict(errors.PhaseAssemble,
					s.StartAddress, s.CRC.Location.Address,
					"crc overlaps the payload")
			}
		}
		if end := uint64(off) + uint64(size); end > uint64(s.Length) {
			return nil, errors.BlockOverflow(end, s.Length, "crc")
		}

		if s.CRC.Location.Kind == CRCAtEnd {
			b.pad(off)
		}
		covered := b.buf
		if s.CRC.Area == AreaBlock {
			b.pad(s.Length)
			for i := off; i < off+size; i++ {
				b.buf[i] = 0
			}
			covered = b.buf
		}

		dr.CRCValue = params.Checksum(covered)
		dr.CRCAddress = origin + off
		dr.CRCBytestream = field.UintValue(crcType(size), dr.CRCValue).Append(nil, s.Endianness.ByteOrder())
	}

	if s.PadToEnd {
		b.pad(s.Length)
	}
	dr.Bytestream = b.buf

	if s.ByteSwap {
		abi.SwapPairs(dr.Bytestream)
		abi.SwapPairs(dr.CRCBytestream)
	}
	return dr, nil
}

func crcType(size uint32) field.ScalarType {
	switch size {
	case 1:
		return field.U8
	case 2:
		return field.U16
	case 8:
		return field.U64
	}
	return field.U32
}
