package ihex

import (
	"io"
	"os"
	"sort"

	"github.com/marcinbor85/gohex"

	"github.com/wippyai/nvmbuild/assemble"
	"github.com/wippyai/nvmbuild/errors"
)

// Decode parses Intel HEX into address-ordered segments. Contiguous records
// are merged.
func Decode(r io.Reader) ([]assemble.Segment, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, errors.ParseFailed("intel hex", err)
	}

	data := mem.GetDataSegments()
	segs := make([]assemble.Segment, len(data))
	for i, d := range data {
		segs[i] = assemble.Segment{Address: d.Address, Data: d.Data}
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].Address < segs[j].Address })
	return segs, nil
}

// DecodeFile is Decode on a file.
func DecodeFile(path string) ([]assemble.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseEncode, "open", path, err)
	}
	defer f.Close()

	segs, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return segs, nil
}
