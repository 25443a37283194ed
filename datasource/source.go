// Package datasource supplies raw cell values to the resolver.
//
// A data source is a main sheet with one row per lookup key and the columns
// Name, Default, any number of variant columns and an optional Debug column,
// plus auxiliary sheets that references point into. Sources are read-only
// and safe for concurrent use once built.
package datasource

import (
	"github.com/wippyai/nvmbuild/cell"
)

// Column names a value column of the main sheet. Matching is
// case-insensitive.
type Column string

const (
	NameColumn Column = "Name"
	Default    Column = "Default"
	Debug      Column = "Debug"
)

// Source is the read-only contract the resolver depends on.
type Source interface {
	// Lookup returns the cell for key in col. ok is false when the key has
	// no row or the column does not exist; a present but blank cell is
	// returned as Empty with ok true.
	Lookup(key string, col Column) (c cell.Cell, ok bool)

	// Deref returns the rows a reference points at. "#Sheet" yields every
	// row below the header, as wide as the header; "#Sheet:Header" yields
	// one-cell rows from that column. Rows stop at the first empty leading
	// cell.
	Deref(ref cell.Reference) ([][]cell.Cell, error)

	// HasColumn reports whether the main sheet has col.
	HasColumn(col Column) bool
}
