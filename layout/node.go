package layout

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/nvmbuild/errors"
)

type nodeKind uint8

const (
	scalarNode nodeKind = iota
	mapNode
	listNode
)

func (k nodeKind) String() string {
	switch k {
	case mapNode:
		return "table"
	case listNode:
		return "list"
	}
	return "value"
}

// node is the format-neutral document tree. Maps keep declaration order.
type node struct {
	kind  nodeKind
	keys  []string
	vals  []*node
	items []*node
	// value is nil, bool, int64, uint64, float64 or string.
	value any
}

func newMap() *node { return &node{kind: mapNode} }

// set appends key. It reports false, leaving the map unchanged, when key
// is already present.
func (n *node) set(key string, v *node) bool {
	for _, k := range n.keys {
		if k == key {
			return false
		}
	}
	n.keys = append(n.keys, key)
	n.vals = append(n.vals, v)
	return true
}

func (n *node) get(key string) *node {
	if n == nil || n.kind != mapNode {
		return nil
	}
	for i, k := range n.keys {
		if k == key {
			return n.vals[i]
		}
	}
	return nil
}

// sub returns a copy of path extended by seg.
func sub(path []string, seg ...string) []string {
	return append(append(make([]string, 0, len(path)+len(seg)), path...), seg...)
}

func invalid(path []string, format string, args ...any) *errors.Error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidData).
		Path(path...).
		Detail(format, args...).
		Build()
}

// expect fails when n is not of kind k.
func (n *node) expect(k nodeKind, path []string) error {
	if n.kind != k {
		return invalid(path, "expected a %s, got a %s", k, n.kind)
	}
	return nil
}

// only rejects keys outside allowed.
func (n *node) only(path []string, allowed ...string) error {
	for _, k := range n.keys {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return invalid(sub(path, k), "unknown key (allowed: %s)", strings.Join(allowed, ", "))
		}
	}
	return nil
}

func (n *node) asString(path []string) (string, error) {
	if n.kind == scalarNode {
		if s, ok := n.value.(string); ok {
			return s, nil
		}
	}
	return "", invalid(path, "expected a string, got %s", n.describe())
}

func (n *node) asBool(path []string) (bool, error) {
	if n.kind == scalarNode {
		if b, ok := n.value.(bool); ok {
			return b, nil
		}
	}
	return false, invalid(path, "expected true or false, got %s", n.describe())
}

// asUint reads an unsigned integer of at most bits bits. Strings with 0x, 0o
// and 0b prefixes are accepted so JSON can spell addresses in hex.
func (n *node) asUint(bits int, path []string) (uint64, error) {
	if n.kind != scalarNode {
		return 0, invalid(path, "expected an integer, got a %s", n.kind)
	}
	var u uint64
	switch v := n.value.(type) {
	case int64:
		if v < 0 {
			return 0, invalid(path, "expected a non-negative integer, got %d", v)
		}
		u = uint64(v)
	case uint64:
		u = v
	case float64:
		if v < 0 || v != math.Trunc(v) || v >= math.Ldexp(1, 64) {
			return 0, invalid(path, "expected a non-negative integer, got %v", v)
		}
		u = uint64(v)
	case string:
		p, err := strconv.ParseUint(strings.ReplaceAll(strings.TrimSpace(v), "_", ""), 0, 64)
		if err != nil {
			return 0, invalid(path, "expected an integer, got %q", v)
		}
		u = p
	default:
		return 0, invalid(path, "expected an integer, got %s", n.describe())
	}
	if bits < 64 && u>>uint(bits) != 0 {
		return 0, invalid(path, "%d does not fit in %d bits", u, bits)
	}
	return u, nil
}

// asInt reads a signed count such as an array size.
func (n *node) asInt(path []string) (int, error) {
	if n.kind != scalarNode {
		return 0, invalid(path, "expected an integer, got a %s", n.kind)
	}
	switch v := n.value.(type) {
	case int64:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	case uint64:
		if v <= math.MaxInt32 {
			return int(v), nil
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	case string:
		if p, err := strconv.ParseInt(strings.TrimSpace(v), 0, 32); err == nil {
			return int(p), nil
		}
	}
	return 0, invalid(path, "expected an integer, got %s", n.describe())
}

func (n *node) describe() string {
	if n.kind != scalarNode {
		return "a " + n.kind.String()
	}
	switch v := n.value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "an unsupported value"
}

// scalar normalises decoded values to the node value set.
func scalar(v any) (*node, bool) {
	switch v := v.(type) {
	case nil, bool, string, int64, uint64, float64:
		return &node{value: v}, true
	case int:
		return &node{value: int64(v)}, true
	case int32:
		return &node{value: int64(v)}, true
	case uint:
		return &node{value: uint64(v)}, true
	case uint32:
		return &node{value: uint64(v)}, true
	case float32:
		return &node{value: float64(v)}, true
	}
	return nil, false
}
