package field

import stderrors "errors"

// SkipChildren may be returned by a WalkFunc to skip the children of the
// visited node. Walk itself does not return it.
var SkipChildren = stderrors.New("skip children")

// Visit is one step of a traversal.
type Visit struct {
	Field *Field
	// Path from the root; struct array rows appear as "[r]" segments.
	Path []string
	// Row is the struct array row for members visited inside one, else -1.
	Row   int
	Depth int
}

// Key is the lookup key of the visited field: its explicit key if set,
// otherwise the dotted path without row segments.
func (v Visit) Key() string {
	if v.Field.Key != "" {
		return v.Field.Key
	}
	return DottedKey(v.Path)
}

type WalkFunc func(v Visit) error

// Walk visits root and its descendants pre-order, depth-first, children in
// declaration order. A struct array is visited once, then every member of
// row 0, every member of row 1, and so on.
func Walk(root *Field, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	return walk(root, nil, -1, 0, fn)
}

func walk(f *Field, path []string, row, depth int, fn WalkFunc) error {
	err := fn(Visit{Field: f, Path: path, Row: row, Depth: depth})
	if err == SkipChildren {
		return nil
	}
	if err != nil {
		return err
	}

	switch f.Kind {
	case KindStruct:
		for _, c := range f.Children {
			if err := walk(c, childPath(path, c.Name), row, depth+1, fn); err != nil {
				return err
			}
		}
	case KindStructArray:
		for r := 0; r < f.Rows; r++ {
			rowPath := childPath(path, rowSegment(r))
			for _, c := range f.Children {
				if err := walk(c, childPath(rowPath, c.Name), r, depth+1, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// DottedKey joins path segments with dots, dropping row segments, so that
// every row of a struct array member shares the member's key.
func DottedKey(path []string) string {
	n := 0
	for _, seg := range path {
		if seg == "" || seg[0] == '[' {
			continue
		}
		n += len(seg) + 1
	}
	buf := make([]byte, 0, n)
	for _, seg := range path {
		if seg == "" || seg[0] == '[' {
			continue
		}
		if len(buf) > 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, seg...)
	}
	return string(buf)
}
