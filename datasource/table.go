package datasource

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/nvmbuild/cell"
	"github.com/wippyai/nvmbuild/errors"
)

// Sheet is a grid of cells whose first row holds the headers.
type Sheet struct {
	Name string
	Rows [][]cell.Cell
}

// NewSheet builds a sheet from raw text, classifying each value with
// cell.Parse. Useful for tests and in-memory fixtures.
func NewSheet(name string, rows ...[]string) Sheet {
	s := Sheet{Name: name, Rows: make([][]cell.Cell, len(rows))}
	for i, row := range rows {
		cells := make([]cell.Cell, len(row))
		for j, raw := range row {
			cells[j] = cell.Parse(raw)
		}
		s.Rows[i] = cells
	}
	return s
}

func (s *Sheet) at(row, col int) cell.Cell {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return cell.Empty()
	}
	return s.Rows[row][col]
}

// headerIndex finds a header case-insensitively.
func (s *Sheet) headerIndex(name string) int {
	if len(s.Rows) == 0 {
		return -1
	}
	for i, c := range s.Rows[0] {
		if headerEqual(c, name) {
			return i
		}
	}
	return -1
}

// width counts leading non-empty header cells.
func (s *Sheet) width() int {
	if len(s.Rows) == 0 {
		return 0
	}
	n := 0
	for _, c := range s.Rows[0] {
		if c.IsEmpty() {
			break
		}
		n++
	}
	return n
}

func headerEqual(c cell.Cell, name string) bool {
	return strings.EqualFold(strings.TrimSpace(cellText(c)), name)
}

func cellText(c cell.Cell) string {
	if s, ok := c.Text(); ok {
		return s
	}
	if r, ok := c.Reference(); ok {
		return r.String()
	}
	if c.IsEmpty() {
		return ""
	}
	return c.String()
}

// Table is an in-memory Source.
type Table struct {
	main    Sheet
	sheets  map[string]*Sheet
	rows    map[string]int
	columns map[string]int
}

var _ Source = (*Table)(nil)

// NewTable indexes the main sheet and the auxiliary sheets. The main sheet
// must have Name and Default headers. When a name appears on several rows
// the first row wins and a warning is logged.
func NewTable(main Sheet, aux ...Sheet) (*Table, error) {
	if len(main.Rows) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "main sheet %q has no header row", main.Name)
	}

	t := &Table{
		main:    main,
		sheets:  make(map[string]*Sheet, len(aux)),
		rows:    make(map[string]int, len(main.Rows)-1),
		columns: make(map[string]int, len(main.Rows[0])),
	}

	for i, c := range main.Rows[0] {
		h := strings.ToLower(strings.TrimSpace(cellText(c)))
		if h == "" {
			continue
		}
		if _, dup := t.columns[h]; !dup {
			t.columns[h] = i
		}
	}
	for _, required := range []Column{NameColumn, Default} {
		if !t.HasColumn(required) {
			return nil, errors.NotFound(errors.PhaseLoad, "column", string(required))
		}
	}

	nameCol := t.columns[strings.ToLower(string(NameColumn))]
	duplicates := make(map[string][]int)
	for r := 1; r < len(main.Rows); r++ {
		name := strings.TrimSpace(cellText(main.at(r, nameCol)))
		if name == "" {
			continue
		}
		if _, seen := t.rows[name]; seen {
			duplicates[name] = append(duplicates[name], r+1)
			continue
		}
		t.rows[name] = r
	}
	warnDuplicates(main.Name, t.rows, duplicates)

	for i := range aux {
		s := aux[i]
		t.sheets[s.Name] = &s
	}
	return t, nil
}

func warnDuplicates(sheet string, first map[string]int, dups map[string][]int) {
	if len(dups) == 0 {
		return
	}
	names := make([]string, 0, len(dups))
	for n := range dups {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		// rows are 1-based spreadsheet rows including the header
		rows := append([]int{first[n] + 1}, dups[n]...)
		Logger().Warn("duplicate name in main sheet, first row wins",
			zap.String("sheet", sheet),
			zap.String("name", n),
			zap.Ints("rows", rows))
	}
}

func (t *Table) HasColumn(col Column) bool {
	_, ok := t.columns[strings.ToLower(strings.TrimSpace(string(col)))]
	return ok
}

func (t *Table) Lookup(key string, col Column) (cell.Cell, bool) {
	r, ok := t.rows[strings.TrimSpace(key)]
	if !ok {
		return cell.Empty(), false
	}
	c, ok := t.columns[strings.ToLower(strings.TrimSpace(string(col)))]
	if !ok {
		return cell.Empty(), false
	}
	return t.main.at(r, c), true
}

func (t *Table) Deref(ref cell.Reference) ([][]cell.Cell, error) {
	s := t.sheet(ref.Sheet)
	if s == nil {
		return nil, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Value(ref.Sheet).
			Detail("sheet %q not found; available: %s", ref.Sheet, strings.Join(t.SheetNames(), ", ")).
			Build()
	}

	if ref.Column != "" {
		col := s.headerIndex(ref.Column)
		if col < 0 {
			return nil, errors.NotFound(errors.PhaseResolve, "column", ref.String())
		}
		var out [][]cell.Cell
		for r := 1; r < len(s.Rows); r++ {
			c := s.at(r, col)
			if c.IsEmpty() {
				break
			}
			out = append(out, []cell.Cell{c})
		}
		return out, nil
	}

	width := s.width()
	if width == 0 {
		return nil, errors.InvalidInput(errors.PhaseResolve, "sheet %q has no header row", s.Name)
	}
	var out [][]cell.Cell
	for r := 1; r < len(s.Rows); r++ {
		if s.at(r, 0).IsEmpty() {
			break
		}
		row := make([]cell.Cell, width)
		for c := range row {
			row[c] = s.at(r, c)
		}
		out = append(out, row)
	}
	return out, nil
}

// sheet finds an auxiliary sheet by exact name, then case-insensitively.
func (t *Table) sheet(name string) *Sheet {
	if s, ok := t.sheets[name]; ok {
		return s
	}
	for n, s := range t.sheets {
		if strings.EqualFold(n, name) {
			return s
		}
	}
	return nil
}

// SheetNames lists the auxiliary sheets in sorted order.
func (t *Table) SheetNames() []string {
	out := make([]string, 0, len(t.sheets))
	for n := range t.sheets {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Variants lists the main sheet headers that are neither Name, Default nor
// Debug, in sheet order.
func (t *Table) Variants() []string {
	var out []string
	for _, c := range t.main.Rows[0] {
		h := strings.TrimSpace(cellText(c))
		if h == "" {
			continue
		}
		switch strings.ToLower(h) {
		case "name", "default", "debug":
			continue
		}
		out = append(out, h)
	}
	return out
}

// Keys lists the main sheet names in row order.
func (t *Table) Keys() []string {
	out := make([]string, 0, len(t.rows))
	for r := 1; r < len(t.main.Rows); r++ {
		name := strings.TrimSpace(cellText(t.main.at(r, t.columns["name"])))
		if n, ok := t.rows[name]; ok && n == r {
			out = append(out, name)
		}
	}
	return out
}
