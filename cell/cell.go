// Package cell defines the raw content of a spreadsheet cell.
//
// A Cell is exactly one of Empty, Number, Text or Reference. Cell formatting
// never decides the type; conversion to a field type happens in resolve.
package cell

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindReference:
		return "reference"
	}
	return "unknown"
}

// Cell is an immutable cell value. The zero value is Empty.
type Cell struct {
	text string
	ref  Reference
	num  float64
	kind Kind
}

// Empty returns the empty cell.
func Empty() Cell { return Cell{} }

func Number(v float64) Cell { return Cell{kind: KindNumber, num: v} }

func Text(s string) Cell { return Cell{kind: KindText, text: s} }

func Ref(r Reference) Cell { return Cell{kind: KindReference, ref: r} }

// Parse classifies raw spreadsheet text. Blank text is Empty, text starting
// with '#' is a Reference, and everything else is Text. Numbers stored as
// text stay Text; resolve decides whether they are numeric.
func Parse(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Empty()
	}
	if r, ok := ParseReference(s); ok {
		return Ref(r)
	}
	return Text(raw)
}

func (c Cell) Kind() Kind { return c.kind }

func (c Cell) IsEmpty() bool { return c.kind == KindEmpty }

// Number returns the numeric value and whether c is a Number.
func (c Cell) Number() (float64, bool) { return c.num, c.kind == KindNumber }

func (c Cell) Text() (string, bool) { return c.text, c.kind == KindText }

func (c Cell) Reference() (Reference, bool) { return c.ref, c.kind == KindReference }

// String renders the cell as it would appear in a report.
func (c Cell) String() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.num, 'g', -1, 64)
	case KindText:
		return strconv.Quote(c.text)
	case KindReference:
		return c.ref.String()
	}
	return "<empty>"
}

// Reference names a range on another sheet: the first column of Sheet, or
// the column under header Column.
type Reference struct {
	Sheet  string
	Column string
}

// ParseReference parses "#Sheet" and "#Sheet:Header".
func ParseReference(s string) (Reference, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '#' {
		return Reference{}, false
	}
	body := s[1:]
	sheet, col, _ := strings.Cut(body, ":")
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return Reference{}, false
	}
	return Reference{Sheet: sheet, Column: strings.TrimSpace(col)}, true
}

func (r Reference) String() string {
	if r.Column == "" {
		return "#" + r.Sheet
	}
	return fmt.Sprintf("#%s:%s", r.Sheet, r.Column)
}
