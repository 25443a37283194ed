package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/nvmbuild/errors"
)

// decodeTOML orders map keys by their first appearance in MetaData.Keys.
// Keys the metadata does not report sort after the known ones, by name.
func decodeTOML(data []byte) (*node, error) {
	var m map[string]any
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, errors.ParseFailed("toml layout", err)
	}

	rank := make(map[string]int)
	for _, k := range md.Keys() {
		for i := 1; i <= len(k); i++ {
			id := strings.Join(k[:i], "\x00")
			if _, ok := rank[id]; !ok {
				rank[id] = len(rank)
			}
		}
	}
	return fromTOML(m, nil, rank)
}

func fromTOML(v any, path []string, rank map[string]int) (*node, error) {
	switch v := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		prefix := strings.Join(path, "\x00")
		if len(path) > 0 {
			prefix += "\x00"
		}
		sort.Slice(keys, func(i, j int) bool {
			ri, iok := rank[prefix+keys[i]]
			rj, jok := rank[prefix+keys[j]]
			switch {
			case iok && jok:
				return ri < rj
			case iok != jok:
				return iok
			}
			return keys[i] < keys[j]
		})

		n := newMap()
		for _, k := range keys {
			child, err := fromTOML(v[k], sub(path, k), rank)
			if err != nil {
				return nil, err
			}
			n.set(k, child)
		}
		return n, nil

	case []map[string]any:
		n := &node{kind: listNode}
		for _, item := range v {
			child, err := fromTOML(item, path, rank)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
		return n, nil

	case []any:
		n := &node{kind: listNode}
		for _, item := range v {
			child, err := fromTOML(item, path, rank)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
		return n, nil
	}

	n, ok := scalar(v)
	if !ok {
		return nil, invalid(path, "unsupported toml value of type %T", v)
	}
	return n, nil
}

func decodeYAML(data []byte) (*node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseFailed("yaml layout", err)
	}
	return fromYAML(&doc, nil)
}

func fromYAML(y *yaml.Node, path []string) (*node, error) {
	switch y.Kind {
	case 0:
		return newMap(), nil

	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return newMap(), nil
		}
		return fromYAML(y.Content[0], path)

	case yaml.AliasNode:
		return fromYAML(y.Alias, path)

	case yaml.MappingNode:
		n := newMap()
		for i := 0; i+1 < len(y.Content); i += 2 {
			key := y.Content[i].Value
			child, err := fromYAML(y.Content[i+1], sub(path, key))
			if err != nil {
				return nil, err
			}
			if !n.set(key, child) {
				return nil, invalid(sub(path, key), "line %d: duplicate key", y.Content[i].Line)
			}
		}
		return n, nil

	case yaml.SequenceNode:
		n := &node{kind: listNode}
		for i, item := range y.Content {
			child, err := fromYAML(item, sub(path, "["+strconv.Itoa(i)+"]"))
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
		return n, nil
	}

	var v any
	if err := y.Decode(&v); err != nil {
		return nil, invalid(path, "line %d: %v", y.Line, err)
	}
	n, ok := scalar(v)
	if !ok {
		return nil, invalid(path, "line %d: unsupported yaml value %q", y.Line, y.Value)
	}
	return n, nil
}

// decodeJSON walks the token stream so object keys keep their order.
func decodeJSON(data []byte) (*node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := fromJSON(dec, nil)
	if err == io.EOF {
		return newMap(), nil
	}
	if e, ok := err.(*errors.Error); ok {
		return nil, e
	}
	if err != nil {
		return nil, errors.ParseFailed("json layout", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.ParseFailed("json layout", fmt.Errorf("unexpected data after the top-level value"))
	}
	return n, nil
}

func fromJSON(dec *json.Decoder, path []string) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := newMap()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", kt)
				}
				child, err := fromJSON(dec, sub(path, key))
				if err != nil {
					return nil, err
				}
				if !n.set(key, child) {
					return nil, invalid(sub(path, key), "duplicate key")
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil

		case '[':
			n := &node{kind: listNode}
			for i := 0; dec.More(); i++ {
				child, err := fromJSON(dec, sub(path, "["+strconv.Itoa(i)+"]"))
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("unexpected %v", t)

	case json.Number:
		if i, err := t.Int64(); err == nil {
			return &node{value: i}, nil
		}
		if u, err := strconv.ParseUint(t.String(), 10, 64); err == nil {
			return &node{value: u}, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return &node{value: f}, nil
	}

	n, _ := scalar(tok)
	return n, nil
}
