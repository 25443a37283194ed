package ihex

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/nvmbuild/assemble"
	nverrors "github.com/wippyai/nvmbuild/errors"
)

func seq(n int, start byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = start + byte(i)
	}
	return out
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func checkRecord(t *testing.T, line string) []byte {
	t.Helper()
	if !strings.HasPrefix(line, ":") {
		t.Fatalf("record %q does not start with ':'", line)
	}
	if line != strings.ToUpper(line) {
		t.Errorf("record %q is not uppercase", line)
	}
	raw, err := hex.DecodeString(line[1:])
	if err != nil {
		t.Fatalf("record %q: %v", line, err)
	}
	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		t.Errorf("record %q: checksum sum = %#x, want 0", line, sum)
	}
	if int(raw[0]) != len(raw)-5 {
		t.Errorf("record %q: count %d, data %d", line, raw[0], len(raw)-5)
	}
	return raw
}

func TestEncode_TwoRecords(t *testing.T) {
	segs := []assemble.Segment{{Address: 0x1000, Data: seq(64, 0)}}
	out, err := EncodeToString(segs, Options{RecordWidth: 32})
	if err != nil {
		t.Fatal(err)
	}
	ls := lines(out)
	if len(ls) != 3 {
		t.Fatalf("got %d records, want 3:\n%s", len(ls), out)
	}
	for i, l := range ls[:2] {
		raw := checkRecord(t, l)
		if raw[3] != recData {
			t.Errorf("record %d type = %d, want data", i, raw[3])
		}
		addr := uint16(raw[1])<<8 | uint16(raw[2])
		if want := uint16(0x1000 + 32*i); addr != want {
			t.Errorf("record %d address = %#x, want %#x", i, addr, want)
		}
	}
	if ls[2] != ":00000001FF" {
		t.Errorf("last record = %q, want EOF", ls[2])
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("output should end with a newline")
	}
}

func TestEncode_Exact(t *testing.T) {
	out, err := EncodeToString([]assemble.Segment{{Address: 0, Data: []byte{0x01, 0x02}}}, Options{RecordWidth: 16})
	if err != nil {
		t.Fatal(err)
	}
	if want := ":020000000102FB\n:00000001FF\n"; out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestEncode_ExtendedLinearAddress(t *testing.T) {
	segs := []assemble.Segment{{Address: 0x0800FFF0, Data: seq(32, 0)}}
	out, err := EncodeToString(segs, Options{RecordWidth: 16})
	if err != nil {
		t.Fatal(err)
	}
	ls := lines(out)
	want := []string{":020000040800F2", "", ":020000040801F1", "", ":00000001FF"}
	if len(ls) != len(want) {
		t.Fatalf("got %d records, want %d:\n%s", len(ls), len(want), out)
	}
	for i, w := range want {
		checkRecord(t, ls[i])
		if w != "" && ls[i] != w {
			t.Errorf("record %d = %q, want %q", i, ls[i], w)
		}
	}
	if !strings.HasPrefix(ls[1], ":10FFF000") || !strings.HasPrefix(ls[3], ":10000000") {
		t.Errorf("unexpected data records:\n%s", out)
	}
}

func TestEncode_SplitsAt64K(t *testing.T) {
	segs := []assemble.Segment{{Address: 0xFFF8, Data: seq(16, 0)}}
	out, err := EncodeToString(segs, Options{RecordWidth: 32})
	if err != nil {
		t.Fatal(err)
	}
	ls := lines(out)
	if len(ls) != 4 {
		t.Fatalf("got %d records, want 4:\n%s", len(ls), out)
	}
	if !strings.HasPrefix(ls[0], ":08FFF800") {
		t.Errorf("first record = %q", ls[0])
	}
	if ls[1] != ":020000040001F9" {
		t.Errorf("ela record = %q", ls[1])
	}
	if !strings.HasPrefix(ls[2], ":08000000") {
		t.Errorf("third record = %q", ls[2])
	}
}

func TestEncode_SortsSegments(t *testing.T) {
	segs := []assemble.Segment{
		{Address: 0x2000, Data: []byte{2}},
		{Address: 0x1000, Data: []byte{1}},
	}
	out, err := EncodeToString(segs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	ls := lines(out)
	if !strings.HasPrefix(ls[0], ":01100000") || !strings.HasPrefix(ls[1], ":01200000") {
		t.Errorf("records not in address order:\n%s", out)
	}
}

func TestEncode_Errors(t *testing.T) {
	overlap := []assemble.Segment{
		{Address: 0x1000, Data: seq(8, 0)},
		{Address: 0x1004, Data: seq(4, 0)},
	}
	if _, err := EncodeToString(overlap, Options{}); !errors.Is(err, nverrors.ErrAddressConflict) {
		t.Errorf("overlap: err = %v, want address conflict", err)
	}

	for _, w := range []int{-1, 65, 1000} {
		_, err := EncodeToString([]assemble.Segment{{Data: []byte{1}}}, Options{RecordWidth: w})
		var e *nverrors.Error
		if !errors.As(err, &e) || e.Kind != nverrors.KindInvalidInput {
			t.Errorf("width %d: err = %v, want invalid input", w, err)
		}
	}

	past := []assemble.Segment{{Address: 0xFFFFFFFE, Data: seq(4, 0)}}
	if _, err := EncodeToString(past, Options{}); err == nil {
		t.Error("segment past 4 GiB should fail")
	}
}

func TestEncode_Widths(t *testing.T) {
	data := seq(100, 0)
	for _, w := range []int{1, 7, 16, 64} {
		out, err := EncodeToString([]assemble.Segment{{Address: 0x100, Data: data}}, Options{RecordWidth: w})
		if err != nil {
			t.Fatal(err)
		}
		ls := lines(out)
		want := (len(data)+w-1)/w + 1
		if len(ls) != want {
			t.Errorf("width %d: got %d records, want %d", w, len(ls), want)
		}
		for _, l := range ls {
			checkRecord(t, l)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	segs := []assemble.Segment{
		{Address: 0x0800FF00, Data: seq(0x180, 3)},
		{Address: 0x08020000, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
	}
	out, err := EncodeToString(segs, Options{RecordWidth: 32})
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diffs := Compare(segs, decoded); len(diffs) != 0 {
		t.Errorf("round trip differs: %v", diffs)
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.hex")
	if err := os.WriteFile(path, []byte(":020000000102FB\n:00000001FF\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	segs, err := DecodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || segs[0].Address != 0 || string(segs[0].Data) != "\x01\x02" {
		t.Errorf("segs = %+v", segs)
	}

	if _, err := Decode(strings.NewReader(":zz\n")); err == nil {
		t.Error("garbage should fail")
	}
}

func TestCompare(t *testing.T) {
	prev := []assemble.Segment{{Address: 0x100, Data: []byte{1, 2, 3, 4, 5, 6}}}
	next := []assemble.Segment{
		{Address: 0x100, Data: []byte{1, 9, 9, 4}},
		{Address: 0x200, Data: []byte{7, 7}},
	}
	diffs := Compare(prev, next)
	want := []Diff{
		{Address: 0x101, Length: 2, Kind: Changed},
		{Address: 0x104, Length: 2, Kind: Removed},
		{Address: 0x200, Length: 2, Kind: Added},
	}
	if len(diffs) != len(want) {
		t.Fatalf("got %v, want %v", diffs, want)
	}
	for i := range want {
		if diffs[i] != want[i] {
			t.Errorf("diff %d = %v, want %v", i, diffs[i], want[i])
		}
	}
	if len(Compare(next, next)) != 0 {
		t.Error("identical images should not differ")
	}
	if s := want[0].String(); s != "changed 0x00000101..0x00000102 (2 bytes)" {
		t.Errorf("String() = %q", s)
	}
}
