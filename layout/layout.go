// Package layout loads block layouts from TOML, YAML and JSON files.
//
// A layout file holds one optional [settings] table and any number of
// named blocks, each with a header table and a data tree:
//
//	[settings]
//	endianness = "little"
//
//	[settings.crc]
//	algorithm = "crc32"
//
//	[config.header]
//	start_address = 0x8000
//	length = 0x100
//	crc_location = "end"
//
//	[config.data]
//	device.serial = { type = "u32" }
//	device.name = { type = "u8", size = 16 }
//
// Tables nest into structs in declaration order. A table with a string
// "type" is a leaf; "struct" leaves declare arrays of structs through
// "size" and a "fields" list.
package layout

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/nvmbuild/assemble"
	"github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/field"
)

// Format names a layout file syntax.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	}
	return "", errors.Unsupported(errors.PhaseLoad, "layout file extension of "+path+" (want .toml, .yaml, .yml or .json)")
}

// File is a parsed layout file. Documents are built on demand.
type File struct {
	Path   string
	Format Format

	settings *node
	names    []string
	blocks   map[string]*node
}

// Document is one block ready for assembly. It is not modified after
// construction and may be shared between goroutines.
type Document struct {
	Name     string
	File     string
	Settings assemble.Settings
	Root     *field.Field
}

// Size is the laid-out payload size of the document.
func (d *Document) Size() uint32 {
	return field.Size(d.Root, d.Settings.Pack)
}

// Load reads and parses a layout file, choosing the format by extension.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseLoad, "read", path, err)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, errors.InBlock("", path, err)
	}
	f.Path = path

	Logger().Debug("layout loaded",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Strings("blocks", f.names),
	)
	return f, nil
}

// Parse parses layout text in the given format.
func Parse(data []byte, format Format) (*File, error) {
	var (
		root *node
		err  error
	)
	switch format {
	case TOML:
		root, err = decodeTOML(data)
	case YAML:
		root, err = decodeYAML(data)
	case JSON:
		root, err = decodeJSON(data)
	default:
		return nil, errors.Unsupported(errors.PhaseLoad, "layout format "+string(format))
	}
	if err != nil {
		return nil, err
	}
	if err := root.expect(mapNode, nil); err != nil {
		return nil, err
	}

	f := &File{Format: format, blocks: make(map[string]*node)}
	for i, name := range root.keys {
		v := root.vals[i]
		if name == "settings" {
			if err := v.expect(mapNode, []string{name}); err != nil {
				return nil, err
			}
			f.settings = v
			continue
		}
		if v.kind != mapNode || v.get("header") == nil || v.get("data") == nil {
			return nil, invalid([]string{name}, "a block needs header and data tables")
		}
		f.names = append(f.names, name)
		f.blocks[name] = v
	}
	return f, nil
}

// Blocks lists the block names in declaration order.
func (f *File) Blocks() []string {
	return append([]string(nil), f.names...)
}

// Document builds the named block. Errors carry the block and file name.
func (f *File) Document(name string) (*Document, error) {
	b, ok := f.blocks[name]
	if !ok {
		return nil, errors.InBlock(name, f.Path, errors.NotFound(errors.PhaseLoad, "block", name))
	}
	doc, err := f.document(name, b)
	if err != nil {
		return nil, errors.InBlock(name, f.Path, err)
	}
	return doc, nil
}

func (f *File) document(name string, b *node) (*Document, error) {
	if err := b.only([]string{name}, "header", "data"); err != nil {
		return nil, err
	}
	s, err := parseSettings(f.settings, b.get("header"), name)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	data := b.get("data")
	if err := data.expect(mapNode, []string{name, "data"}); err != nil {
		return nil, err
	}
	children, err := members(data, nil)
	if err != nil {
		return nil, err
	}
	root, err := field.NewTree(children...)
	if err != nil {
		return nil, err
	}
	return &Document{Name: name, File: f.Path, Settings: s, Root: root}, nil
}
