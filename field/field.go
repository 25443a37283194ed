package field

import (
	"strconv"

	"github.com/wippyai/nvmbuild/cell"
	"github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/internal/abi"
)

// Field is a node of the layout tree. Build trees with the kind
// constructors and validate them with NewTree.
type Field struct {
	Name     string
	Kind     Kind
	Type     ScalarType
	Len      int
	Rows     int
	Cols     int
	Children []*Field

	// Key overrides the dotted path as the data source lookup key.
	Key string
	// Literal holds an inline value from the layout file. Leaves with a
	// literal never consult the data source.
	Literal *Literal
}

// Literal is an inline value. List distinguishes [x] from x.
type Literal struct {
	Cells []cell.Cell
	List  bool
}

// Scalar declares a single value of type t.
func Scalar(name string, t ScalarType) *Field {
	return &Field{Name: name, Kind: KindScalar, Type: t}
}

// Array declares length consecutive elements of type t.
func Array(name string, t ScalarType, length int) *Field {
	return &Field{Name: name, Kind: KindArray, Type: t, Len: length}
}

// Matrix declares a row-major rows x cols grid of type t.
func Matrix(name string, t ScalarType, rows, cols int) *Field {
	return &Field{Name: name, Kind: KindMatrix, Type: t, Rows: rows, Cols: cols}
}

// Struct groups children in declaration order.
func Struct(name string, children ...*Field) *Field {
	return &Field{Name: name, Kind: KindStruct, Children: children}
}

// StructArray declares rows repetitions of the scalar members, laid out as an
// array of structs. Cols is the member count.
func StructArray(name string, rows int, members ...*Field) *Field {
	return &Field{Name: name, Kind: KindStructArray, Rows: rows, Cols: len(members), Children: members}
}

// WithKey sets the lookup key and returns f.
func (f *Field) WithKey(key string) *Field {
	f.Key = key
	return f
}

// WithLiteral sets an inline value and returns f.
func (f *Field) WithLiteral(l *Literal) *Field {
	f.Literal = l
	return f
}

// Count is the number of scalar slots the field occupies.
func (f *Field) Count() int {
	switch f.Kind {
	case KindScalar:
		return 1
	case KindArray:
		return f.Len
	case KindMatrix:
		return f.Rows * f.Cols
	case KindStructArray:
		return f.Rows * f.Cols
	}
	n := 0
	for _, c := range f.Children {
		n += c.Count()
	}
	return n
}

// NewTree wraps children in an unnamed root struct and validates the
// geometry of the whole tree.
func NewTree(children ...*Field) (*Field, error) {
	root := Struct("", children...)
	if err := Validate(root); err != nil {
		return nil, err
	}
	return root, nil
}

// Validate checks dimensions, member shapes and names, and that the tree's
// size fits in 32 bits.
func Validate(root *Field) error {
	if root == nil {
		return errors.Layout(nil, "nil field tree")
	}
	if err := validate(root, nil); err != nil {
		return err
	}
	if _, ok := size(root, 0, 0); !ok {
		return errors.Layout(nil, "layout size exceeds 4 GiB")
	}
	return nil
}

func validate(f *Field, path []string) error {
	switch f.Kind {
	case KindScalar:
		if !f.Type.Valid() {
			return errors.Layout(path, "invalid scalar type")
		}
	case KindArray:
		if !f.Type.Valid() {
			return errors.Layout(path, "invalid element type")
		}
		if f.Len <= 0 {
			return errors.Layout(path, "array length must be positive, got %d", f.Len)
		}
		if tooLarge(f.Len, 1) {
			return errors.Layout(path, "array length %d exceeds the 32-bit address space", f.Len)
		}
	case KindMatrix:
		if !f.Type.Valid() {
			return errors.Layout(path, "invalid element type")
		}
		if f.Rows <= 0 || f.Cols <= 0 {
			return errors.Layout(path, "matrix dimensions must be positive, got %dx%d", f.Rows, f.Cols)
		}
		if tooLarge(f.Rows, f.Cols) {
			return errors.Layout(path, "matrix %dx%d exceeds the 32-bit address space", f.Rows, f.Cols)
		}
	case KindStruct:
		if err := validateChildren(f, path); err != nil {
			return err
		}
	case KindStructArray:
		if f.Rows <= 0 {
			return errors.Layout(path, "struct array rows must be positive, got %d", f.Rows)
		}
		if tooLarge(f.Rows, len(f.Children)) {
			return errors.Layout(path, "struct array with %d rows exceeds the 32-bit address space", f.Rows)
		}
		if len(f.Children) == 0 {
			return errors.Layout(path, "struct array has no members")
		}
		if f.Cols != len(f.Children) {
			return errors.Layout(path, "struct array declares %d columns but has %d members", f.Cols, len(f.Children))
		}
		for _, m := range f.Children {
			if m.Kind != KindScalar {
				return errors.Layout(childPath(path, m.Name), "struct array members must be scalars, got %s", m.Kind)
			}
		}
		if err := validateChildren(f, path); err != nil {
			return err
		}
	default:
		return errors.Layout(path, "unknown field kind %d", f.Kind)
	}
	return nil
}

func validateChildren(f *Field, path []string) error {
	seen := make(map[string]struct{}, len(f.Children))
	for i, c := range f.Children {
		if c == nil {
			return errors.Layout(path, "child %d is nil", i)
		}
		if c.Name == "" {
			return errors.Layout(path, "child %d has no name", i)
		}
		if _, dup := seen[c.Name]; dup {
			return errors.Layout(childPath(path, c.Name), "duplicate field name")
		}
		seen[c.Name] = struct{}{}
		if err := validate(c, childPath(path, c.Name)); err != nil {
			return err
		}
	}
	return nil
}

func childPath(path []string, name string) []string {
	// copy so sibling paths never share a backing array
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = name
	return out
}

func tooLarge(a, b int) bool {
	const limit = 1 << 32
	return b > 0 && int64(a) > limit/int64(b)
}

func rowSegment(row int) string {
	return "[" + strconv.Itoa(row) + "]"
}

// elementBytes is count * width with overflow detection.
func elementBytes(t ScalarType, count int) (uint32, bool) {
	if count < 0 || uint64(count) > 0xFFFFFFFF {
		return 0, false
	}
	return abi.SafeMulU32(t.Width(), uint32(count))
}
