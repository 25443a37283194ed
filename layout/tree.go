package layout

import (
	"math"

	"github.com/wippyai/nvmbuild/cell"
	"github.com/wippyai/nvmbuild/field"
)

var (
	leafKeys   = []string{"type", "size", "SIZE", "name", "value"}
	structKeys = []string{"type", "size", "SIZE", "fields"}
	memberKeys = []string{"name", "type", "value"}
)

// members converts the entries of a data table in declaration order.
func members(n *node, path []string) ([]*field.Field, error) {
	out := make([]*field.Field, 0, len(n.keys))
	for i, name := range n.keys {
		f, err := entry(name, n.vals[i], sub(path, name))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func entry(name string, n *node, path []string) (*field.Field, error) {
	if err := n.expect(mapNode, path); err != nil {
		return nil, err
	}
	if t := n.get("type"); t != nil && t.kind == scalarNode {
		if typ, ok := t.value.(string); ok {
			if typ == "struct" {
				return structArray(name, n, path)
			}
			return leaf(name, typ, n, path)
		}
	}

	children, err := members(n, path)
	if err != nil {
		return nil, err
	}
	return field.Struct(name, children...), nil
}

// size returns the "size" or "SIZE" entry. Both spellings mean an exact
// element count.
func size(n *node, path []string) (*node, error) {
	lower, upper := n.get("size"), n.get("SIZE")
	if lower != nil && upper != nil {
		return nil, invalid(path, "use either size or SIZE, not both")
	}
	if lower != nil {
		return lower, nil
	}
	return upper, nil
}

func leaf(name, typ string, n *node, path []string) (*field.Field, error) {
	if err := n.only(path, leafKeys...); err != nil {
		return nil, err
	}
	t, err := field.ParseScalarType(typ)
	if err != nil {
		return nil, invalid(sub(path, "type"), "%v", err)
	}

	sz, err := size(n, path)
	if err != nil {
		return nil, err
	}
	var f *field.Field
	switch {
	case sz == nil:
		f = field.Scalar(name, t)
	case sz.kind == listNode:
		if len(sz.items) != 2 {
			return nil, invalid(sub(path, "size"), "a matrix size is [rows, cols], got %d entries", len(sz.items))
		}
		rows, err := sz.items[0].asInt(sub(path, "size"))
		if err != nil {
			return nil, err
		}
		cols, err := sz.items[1].asInt(sub(path, "size"))
		if err != nil {
			return nil, err
		}
		f = field.Matrix(name, t, rows, cols)
	default:
		length, err := sz.asInt(sub(path, "size"))
		if err != nil {
			return nil, err
		}
		f = field.Array(name, t, length)
	}

	key, value := n.get("name"), n.get("value")
	if key != nil && value != nil {
		return nil, invalid(path, "use either name or value, not both")
	}
	if key != nil {
		k, err := key.asString(sub(path, "name"))
		if err != nil {
			return nil, err
		}
		f.WithKey(k)
	}
	if value != nil {
		lit, err := literal(value, sub(path, "value"))
		if err != nil {
			return nil, err
		}
		f.WithLiteral(lit)
	}
	return f, nil
}

// structArray builds {type = "struct", size = N, fields = [...]}.
func structArray(name string, n *node, path []string) (*field.Field, error) {
	if err := n.only(path, structKeys...); err != nil {
		return nil, err
	}
	sz, err := size(n, path)
	if err != nil {
		return nil, err
	}
	if sz == nil {
		return nil, invalid(path, "a struct array needs a size")
	}
	rows, err := sz.asInt(sub(path, "size"))
	if err != nil {
		return nil, err
	}

	fields := n.get("fields")
	if fields == nil {
		return nil, invalid(path, "a struct array needs fields")
	}
	if err := fields.expect(listNode, sub(path, "fields")); err != nil {
		return nil, err
	}

	cols := make([]*field.Field, 0, len(fields.items))
	for _, m := range fields.items {
		if err := m.expect(mapNode, sub(path, "fields")); err != nil {
			return nil, err
		}
		if err := m.only(sub(path, "fields"), memberKeys...); err != nil {
			return nil, err
		}
		nameNode, typeNode := m.get("name"), m.get("type")
		if nameNode == nil || typeNode == nil {
			return nil, invalid(sub(path, "fields"), "every field needs a name and a type")
		}
		mname, err := nameNode.asString(sub(path, "fields", "name"))
		if err != nil {
			return nil, err
		}
		mpath := sub(path, mname)
		typ, err := typeNode.asString(sub(mpath, "type"))
		if err != nil {
			return nil, err
		}
		t, err := field.ParseScalarType(typ)
		if err != nil {
			return nil, invalid(sub(mpath, "type"), "%v", err)
		}

		member := field.Scalar(mname, t)
		if v := m.get("value"); v != nil {
			lit, err := literal(v, sub(mpath, "value"))
			if err != nil {
				return nil, err
			}
			member.WithLiteral(lit)
		}
		cols = append(cols, member)
	}
	return field.StructArray(name, rows, cols...), nil
}

// literal converts an inline value. Nested lists flatten in row-major
// order.
func literal(n *node, path []string) (*field.Literal, error) {
	if n.kind == scalarNode {
		c, err := literalCell(n, path)
		if err != nil {
			return nil, err
		}
		return &field.Literal{Cells: []cell.Cell{c}}, nil
	}
	if n.kind != listNode {
		return nil, invalid(path, "expected a value or a list, got a %s", n.kind)
	}

	lit := &field.Literal{List: true}
	var flatten func(n *node) error
	flatten = func(n *node) error {
		for _, item := range n.items {
			if item.kind == listNode {
				if err := flatten(item); err != nil {
					return err
				}
				continue
			}
			c, err := literalCell(item, path)
			if err != nil {
				return err
			}
			lit.Cells = append(lit.Cells, c)
		}
		return nil
	}
	if err := flatten(n); err != nil {
		return nil, err
	}
	return lit, nil
}

// Integers beyond float64 precision travel as decimal text so they convert
// exactly.
const exactFloat = 1 << 53

func literalCell(n *node, path []string) (cell.Cell, error) {
	if n.kind != scalarNode {
		return cell.Cell{}, invalid(path, "expected a value, got a %s", n.kind)
	}
	switch v := n.value.(type) {
	case nil:
		return cell.Empty(), nil
	case bool:
		if v {
			return cell.Number(1), nil
		}
		return cell.Number(0), nil
	case int64:
		if v > -exactFloat && v < exactFloat {
			return cell.Number(float64(v)), nil
		}
		return cell.Text(n.describe()), nil
	case uint64:
		if v < exactFloat {
			return cell.Number(float64(v)), nil
		}
		return cell.Text(n.describe()), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return cell.Cell{}, invalid(path, "%v is not a finite number", v)
		}
		return cell.Number(v), nil
	case string:
		return cell.Parse(v), nil
	}
	return cell.Cell{}, invalid(path, "unsupported value %s", n.describe())
}
