// Package resolve picks and converts the value of every layout leaf.
//
// A leaf's raw cell comes from the Debug column when debug is enabled and
// the cell is non-empty, then from the selected variant column, then from
// Default. Nothing else is consulted: a missing default is always an error.
// References are dereferenced into rows before element conversion.
package resolve

import (
	"strconv"

	"github.com/wippyai/nvmbuild/cell"
	"github.com/wippyai/nvmbuild/datasource"
	"github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/field"
)

type Options struct {
	// Variant selects a variant column. Empty means none.
	Variant string
	// Debug enables the Debug column.
	Debug bool
	// Strict rejects integers that a float type cannot hold exactly.
	Strict bool
	// Padding fills u8 arrays given as shorter strings.
	Padding byte
}

// Resolver is read-only after New and safe for concurrent use.
type Resolver struct {
	src  datasource.Source
	opts Options
}

// New checks that the requested columns exist. src may be nil for layouts
// whose leaves all carry inline values.
func New(src datasource.Source, opts Options) (*Resolver, error) {
	if src == nil {
		if opts.Variant != "" {
			return nil, errors.NotFound(errors.PhaseResolve, "variant column", opts.Variant)
		}
		if opts.Debug {
			return nil, errors.NotFound(errors.PhaseResolve, "column", string(datasource.Debug))
		}
		return &Resolver{opts: opts}, nil
	}
	if !src.HasColumn(datasource.Default) {
		return nil, errors.NotFound(errors.PhaseResolve, "column", string(datasource.Default))
	}
	if opts.Variant != "" && !src.HasColumn(datasource.Column(opts.Variant)) {
		return nil, errors.NotFound(errors.PhaseResolve, "variant column", opts.Variant)
	}
	if opts.Debug && !src.HasColumn(datasource.Debug) {
		return nil, errors.NotFound(errors.PhaseResolve, "column", string(datasource.Debug))
	}
	return &Resolver{src: src, opts: opts}, nil
}

func (r *Resolver) Options() Options {
	return r.opts
}

// Cell returns the highest-precedence non-empty cell for key.
func (r *Resolver) Cell(key string) (cell.Cell, error) {
	if r.src == nil {
		return cell.Empty(), errors.MissingDefault(nil, key)
	}
	if r.opts.Debug {
		if c, ok := r.src.Lookup(key, datasource.Debug); ok && !c.IsEmpty() {
			return c, nil
		}
	}
	if r.opts.Variant != "" {
		if c, ok := r.src.Lookup(key, datasource.Column(r.opts.Variant)); ok && !c.IsEmpty() {
			return c, nil
		}
	}
	if c, ok := r.src.Lookup(key, datasource.Default); ok && !c.IsEmpty() {
		return c, nil
	}
	return cell.Empty(), errors.MissingDefault(nil, key)
}

// raw is the inline literal or the looked-up cell of a leaf.
func (r *Resolver) raw(v field.Visit) ([]cell.Cell, bool, error) {
	if lit := v.Field.Literal; lit != nil {
		return lit.Cells, lit.List, nil
	}
	c, err := r.Cell(v.Key())
	if err != nil {
		return nil, false, err
	}
	return []cell.Cell{c}, false, nil
}

// Scalar resolves a scalar leaf.
func (r *Resolver) Scalar(v field.Visit) (field.Value, error) {
	cells, list, err := r.raw(v)
	if err != nil {
		return field.Value{}, errors.WithPath(err, v.Path...)
	}
	if list || len(cells) != 1 {
		return field.Value{}, errors.WithPath(errors.LengthMismatch(nil, 1, len(cells)), v.Path...)
	}
	val, err := Convert(v.Field.Type, cells[0], r.opts.Strict)
	if err != nil {
		return field.Value{}, errors.WithPath(err, v.Path...)
	}
	return val, nil
}

// Array resolves exactly n elements of v.Field.Type. A text cell for a u8
// array is taken as a string and padded to n.
func (r *Resolver) Array(v field.Visit, n int) ([]field.Value, error) {
	vals, err := r.sequence(v, n)
	if err != nil {
		return nil, errors.WithPath(err, v.Path...)
	}
	return vals, nil
}

// Column resolves the rows values of one struct array member. v is the
// member visited outside any row; its key is shared by every row.
func (r *Resolver) Column(v field.Visit, rows int) ([]field.Value, error) {
	return r.Array(v, rows)
}

// Matrix resolves a rows x cols grid in row-major order.
func (r *Resolver) Matrix(v field.Visit, rows, cols int) ([]field.Value, error) {
	vals, err := r.grid(v, rows, cols)
	if err != nil {
		return nil, errors.WithPath(err, v.Path...)
	}
	return vals, nil
}

func (r *Resolver) sequence(v field.Visit, n int) ([]field.Value, error) {
	cells, list, err := r.raw(v)
	if err != nil {
		return nil, err
	}
	t := v.Field.Type

	if !list && len(cells) == 1 {
		c := cells[0]
		if ref, ok := c.Reference(); ok {
			if cells, err = r.deref(ref); err != nil {
				return nil, err
			}
		} else if s, ok := c.Text(); ok && t == field.U8 {
			if _, numeric := parseNumber(s); !numeric || n > 1 {
				return r.bytes(s, n)
			}
		}
	}

	if len(cells) != n {
		return nil, errors.LengthMismatch(nil, n, len(cells))
	}
	return r.convertAll(t, cells)
}

func (r *Resolver) grid(v field.Visit, rows, cols int) ([]field.Value, error) {
	cells, list, err := r.raw(v)
	if err != nil {
		return nil, err
	}
	if !list && len(cells) == 1 {
		ref, ok := cells[0].Reference()
		if !ok {
			return nil, errors.TypeConversion(nil, cells[0].String(), "reference", "a matrix needs a sheet reference")
		}
		data, err := r.derefRows(ref)
		if err != nil {
			return nil, err
		}
		if len(data) != rows {
			return nil, errors.LengthMismatch(nil, rows, len(data))
		}
		cells = make([]cell.Cell, 0, rows*cols)
		for i, row := range data {
			if w := width(row); w != cols {
				return nil, errors.WithPath(errors.LengthMismatch(nil, cols, w), rowIndex(i))
			}
			cells = append(cells, row[:cols]...)
		}
	}
	if len(cells) != rows*cols {
		return nil, errors.LengthMismatch(nil, rows*cols, len(cells))
	}
	return r.convertAll(v.Field.Type, cells)
}

func (r *Resolver) convertAll(t field.ScalarType, cells []cell.Cell) ([]field.Value, error) {
	out := make([]field.Value, len(cells))
	for i, c := range cells {
		val, err := Convert(t, c, r.opts.Strict)
		if err != nil {
			return nil, errors.WithPath(err, rowIndex(i))
		}
		out[i] = val
	}
	return out, nil
}

// bytes stores a string into n u8 slots, padded with the padding byte.
func (r *Resolver) bytes(s string, n int) ([]field.Value, error) {
	if len(s) > n {
		return nil, errors.New(errors.PhaseResolve, errors.KindLengthMismatch).
			Value(s).
			Detail("string of %d bytes does not fit %d", len(s), n).
			Build()
	}
	out := make([]field.Value, n)
	for i := range out {
		b := r.opts.Padding
		if i < len(s) {
			b = s[i]
		}
		out[i] = field.UintValue(field.U8, uint64(b))
	}
	return out, nil
}

// deref returns the first cell of every referenced row.
func (r *Resolver) deref(ref cell.Reference) ([]cell.Cell, error) {
	rows, err := r.derefRows(ref)
	if err != nil {
		return nil, err
	}
	out := make([]cell.Cell, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			out[i] = row[0]
		}
	}
	return out, nil
}

func (r *Resolver) derefRows(ref cell.Reference) ([][]cell.Cell, error) {
	if r.src == nil {
		return nil, errors.NotFound(errors.PhaseResolve, "sheet", ref.Sheet)
	}
	return r.src.Deref(ref)
}

// width counts leading non-empty cells.
func width(row []cell.Cell) int {
	n := 0
	for _, c := range row {
		if c.IsEmpty() {
			break
		}
		n++
	}
	return n
}

func rowIndex(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
