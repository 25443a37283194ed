package layout

import (
	"strings"

	"github.com/wippyai/nvmbuild"
	"github.com/wippyai/nvmbuild/assemble"
	"github.com/wippyai/nvmbuild/checksum"
)

var (
	settingsKeys = []string{"endianness", "virtual_offset", "byte_swap", "pad_to_end", "pack", "crc"}
	crcKeys      = []string{"algorithm", "width", "polynomial", "start", "xor_out", "ref_in", "ref_out", "reverse", "area"}
	headerKeys   = []string{"start_address", "length", "crc_location", "padding"}
)

// parseSettings merges the file-wide settings table with one block header.
// Omitted settings default to little endian, CRC-32 over the data area and
// zero padding.
func parseSettings(global, header *node, block string) (assemble.Settings, error) {
	var s assemble.Settings

	if global != nil {
		if err := readGlobal(global, &s); err != nil {
			return s, err
		}
	}
	if err := readHeader(header, []string{block, "header"}, &s); err != nil {
		return s, err
	}
	return s, nil
}

func readGlobal(n *node, s *assemble.Settings) error {
	path := []string{"settings"}
	if err := n.only(path, settingsKeys...); err != nil {
		return err
	}

	if v := n.get("endianness"); v != nil {
		str, err := v.asString(sub(path, "endianness"))
		if err != nil {
			return err
		}
		if s.Endianness, err = nvmbuild.ParseEndianness(str); err != nil {
			return invalid(sub(path, "endianness"), "%v", err)
		}
	}
	if v := n.get("virtual_offset"); v != nil {
		u, err := v.asUint(32, sub(path, "virtual_offset"))
		if err != nil {
			return err
		}
		s.VirtualOffset = uint32(u)
	}
	if v := n.get("pack"); v != nil {
		u, err := v.asUint(32, sub(path, "pack"))
		if err != nil {
			return err
		}
		s.Pack = uint32(u)
	}
	for _, flag := range []struct {
		key string
		dst *bool
	}{
		{"byte_swap", &s.ByteSwap},
		{"pad_to_end", &s.PadToEnd},
	} {
		if v := n.get(flag.key); v != nil {
			b, err := v.asBool(sub(path, flag.key))
			if err != nil {
				return err
			}
			*flag.dst = b
		}
	}

	if v := n.get("crc"); v != nil {
		if err := readCRC(v, sub(path, "crc"), &s.CRC); err != nil {
			return err
		}
	}
	return nil
}

// readCRC starts from the named preset and applies explicit overrides.
func readCRC(n *node, path []string, c *assemble.CRC) error {
	if err := n.expect(mapNode, path); err != nil {
		return err
	}
	if err := n.only(path, crcKeys...); err != nil {
		return err
	}

	p := checksum.Default()
	if v := n.get("algorithm"); v != nil {
		name, err := v.asString(sub(path, "algorithm"))
		if err != nil {
			return err
		}
		if p, err = checksum.Preset(name); err != nil {
			return err
		}
	}

	overridden := false
	uintKeys := []struct {
		key  string
		bits int
		dst  *uint64
	}{
		{"polynomial", 64, &p.Polynomial},
		{"start", 64, &p.Init},
		{"xor_out", 64, &p.XorOut},
	}
	if v := n.get("width"); v != nil {
		w, err := v.asUint(8, sub(path, "width"))
		if err != nil {
			return err
		}
		p.Width = uint(w)
		overridden = true
	}
	for _, k := range uintKeys {
		if v := n.get(k.key); v != nil {
			u, err := v.asUint(k.bits, sub(path, k.key))
			if err != nil {
				return err
			}
			*k.dst = u
			overridden = true
		}
	}

	boolKeys := []struct {
		key string
		dst []*bool
	}{
		{"reverse", []*bool{&p.RefIn, &p.RefOut}},
		{"ref_in", []*bool{&p.RefIn}},
		{"ref_out", []*bool{&p.RefOut}},
	}
	for _, k := range boolKeys {
		if v := n.get(k.key); v != nil {
			b, err := v.asBool(sub(path, k.key))
			if err != nil {
				return err
			}
			for _, d := range k.dst {
				*d = b
			}
			overridden = true
		}
	}
	if overridden {
		p.Name = "custom"
	}
	if err := p.Validate(); err != nil {
		return err
	}
	c.Params = p

	if v := n.get("area"); v != nil {
		str, err := v.asString(sub(path, "area"))
		if err != nil {
			return err
		}
		if c.Area, err = assemble.ParseArea(str); err != nil {
			return invalid(sub(path, "area"), "%v", err)
		}
	}
	return nil
}

func readHeader(n *node, path []string, s *assemble.Settings) error {
	if err := n.expect(mapNode, path); err != nil {
		return err
	}
	if err := n.only(path, headerKeys...); err != nil {
		return err
	}

	for _, k := range []struct {
		key string
		dst *uint32
	}{
		{"start_address", &s.StartAddress},
		{"length", &s.Length},
	} {
		v := n.get(k.key)
		if v == nil {
			return invalid(sub(path, k.key), "required")
		}
		u, err := v.asUint(32, sub(path, k.key))
		if err != nil {
			return err
		}
		*k.dst = uint32(u)
	}

	if v := n.get("padding"); v != nil {
		u, err := v.asUint(8, sub(path, "padding"))
		if err != nil {
			return err
		}
		s.Padding = byte(u)
	}

	s.CRC.Location = assemble.AtEnd()
	if v := n.get("crc_location"); v != nil {
		loc, err := crcLocation(v, sub(path, "crc_location"))
		if err != nil {
			return err
		}
		s.CRC.Location = loc
	}
	return nil
}

// crcLocation accepts "end", "none" or an absolute address.
func crcLocation(n *node, path []string) (assemble.Location, error) {
	if str, ok := n.value.(string); ok && n.kind == scalarNode {
		switch strings.ToLower(strings.TrimSpace(str)) {
		case "end":
			return assemble.AtEnd(), nil
		case "none":
			return assemble.NoCRC(), nil
		}
	}
	addr, err := n.asUint(32, path)
	if err != nil {
		return assemble.Location{}, invalid(path, "want \"end\", \"none\" or an address, got %s", n.describe())
	}
	return assemble.AtAddress(uint32(addr)), nil
}
