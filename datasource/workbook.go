package datasource

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/wippyai/nvmbuild/cell"
	"github.com/wippyai/nvmbuild/errors"
)

// OpenWorkbook loads an .xlsx file into a Table. mainSheet names the sheet
// with the Name and Default columns; every other sheet is a reference
// target. Formulas are not evaluated; their cached values are used.
func OpenWorkbook(path, mainSheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseLoad, "open workbook", path, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	var main *Sheet
	aux := make([]Sheet, 0, len(names))
	for _, name := range names {
		s, err := readSheet(f, name)
		if err != nil {
			return nil, errors.IO(errors.PhaseLoad, "read sheet", name, err)
		}
		if name == mainSheet {
			main = &s
			continue
		}
		aux = append(aux, s)
	}
	if main == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "main sheet", mainSheet)
	}

	Logger().Debug("workbook loaded",
		zap.String("path", path),
		zap.String("main", mainSheet),
		zap.Int("rows", len(main.Rows)),
		zap.Int("sheets", len(names)))

	return NewTable(*main, aux...)
}

func readSheet(f *excelize.File, name string) (Sheet, error) {
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return Sheet{}, err
	}
	s := Sheet{Name: name, Rows: make([][]cell.Cell, len(raw))}
	for r, row := range raw {
		cells := make([]cell.Cell, len(row))
		for c, v := range row {
			if strings.TrimSpace(v) == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return Sheet{}, err
			}
			typ, err := f.GetCellType(name, axis)
			if err != nil {
				return Sheet{}, err
			}
			cells[c] = classify(typ, v)
		}
		s.Rows[r] = cells
	}
	return s, nil
}

// classify maps a stored cell to the closed cell variant. String cells stay
// text even when they look numeric; numeric cells become numbers.
func classify(typ excelize.CellType, raw string) cell.Cell {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return cell.Parse(raw)
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return cell.Number(1)
		}
		return cell.Number(0)
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return cell.Number(v)
	}
	return cell.Parse(raw)
}
