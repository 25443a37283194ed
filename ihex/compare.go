package ihex

import (
	"fmt"
	"sort"

	"github.com/wippyai/nvmbuild/assemble"
)

type DiffKind uint8

const (
	Changed DiffKind = iota
	Added
	Removed
)

func (k DiffKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	}
	return "changed"
}

// Diff is a maximal run of addresses that differ in the same way.
type Diff struct {
	Address uint32
	Length  uint32
	Kind    DiffKind
}

func (d Diff) String() string {
	return fmt.Sprintf("%s 0x%08X..0x%08X (%d bytes)", d.Kind, d.Address, uint64(d.Address)+uint64(d.Length)-1, d.Length)
}

// Compare reports the address ranges where next differs from prev: bytes
// whose value changed, bytes only in next and bytes only in prev. Both
// inputs must be free of overlaps.
func Compare(prev, next []assemble.Segment) []Diff {
	a := index(prev)
	b := index(next)

	var diffs []Diff
	emit := func(addr uint64, kind DiffKind) {
		if n := len(diffs); n > 0 {
			last := &diffs[n-1]
			if last.Kind == kind && uint64(last.Address)+uint64(last.Length) == addr {
				last.Length++
				return
			}
		}
		diffs = append(diffs, Diff{Address: uint32(addr), Length: 1, Kind: kind})
	}

	for _, r := range union(a, b) {
		for addr := r.start; addr < r.end; addr++ {
			x, inA := a.at(addr)
			y, inB := b.at(addr)
			switch {
			case inA && inB:
				if x != y {
					emit(addr, Changed)
				}
			case inB:
				emit(addr, Added)
			case inA:
				emit(addr, Removed)
			}
		}
	}
	return diffs
}

type span struct {
	start, end uint64
}

type segIndex []assemble.Segment

func index(segs []assemble.Segment) segIndex {
	out := make(segIndex, 0, len(segs))
	for _, s := range segs {
		if len(s.Data) > 0 {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (ix segIndex) at(addr uint64) (byte, bool) {
	i := sort.Search(len(ix), func(i int) bool { return ix[i].End() > addr })
	if i == len(ix) || uint64(ix[i].Address) > addr {
		return 0, false
	}
	return ix[i].Data[addr-uint64(ix[i].Address)], true
}

// union merges the covered ranges of both indexes.
func union(a, b segIndex) []span {
	all := make([]span, 0, len(a)+len(b))
	for _, s := range a {
		all = append(all, span{uint64(s.Address), s.End()})
	}
	for _, s := range b {
		all = append(all, span{uint64(s.Address), s.End()})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].start < all[j].start })

	var out []span
	for _, s := range all {
		if n := len(out); n > 0 && s.start <= out[n-1].end {
			if s.end > out[n-1].end {
				out[n-1].end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
