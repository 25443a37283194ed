package field

import (
	stderrors "errors"

	"github.com/wippyai/nvmbuild/internal/abi"
)

var errSizeOverflow = stderrors.New("size overflow")

// Size is the number of bytes the assembler emits for root, including
// alignment padding, when starting at offset 0. pack caps alignment; 0 is
// natural alignment. Size of an invalid tree is undefined.
func Size(root *Field, pack uint32) uint32 {
	n, _ := size(root, 0, pack)
	return n
}

// Offset returns the cursor after aligning for a leaf of type t at cursor.
func Offset(cursor uint32, t ScalarType, pack uint32) uint32 {
	return abi.AlignTo(cursor, abi.EffectiveAlign(t.Width(), pack))
}

func size(root *Field, cursor, pack uint32) (uint32, bool) {
	err := Walk(root, func(v Visit) error {
		f := v.Field
		if !f.Kind.IsLeaf() {
			return nil
		}
		n, ok := elementBytes(f.Type, f.Count())
		if !ok {
			return errSizeOverflow
		}
		start := Offset(cursor, f.Type, pack)
		if start < cursor {
			return errSizeOverflow
		}
		if cursor, ok = abi.SafeAddU32(start, n); !ok {
			return errSizeOverflow
		}
		return nil
	})
	return cursor, err == nil
}
