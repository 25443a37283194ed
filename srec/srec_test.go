package srec

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/nvmbuild/assemble"
	nverrors "github.com/wippyai/nvmbuild/errors"
)

func checkRecord(t *testing.T, line string) {
	t.Helper()
	if len(line) < 4 || line[0] != 'S' {
		t.Fatalf("record %q is malformed", line)
	}
	raw, err := hex.DecodeString(line[2:])
	if err != nil {
		t.Fatalf("record %q: %v", line, err)
	}
	if int(raw[0]) != len(raw)-1 {
		t.Errorf("record %q: count %d, bytes %d", line, raw[0], len(raw)-1)
	}
	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0xFF {
		t.Errorf("record %q: byte sum = %#x, want 0xFF", line, sum)
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestEncode_Exact(t *testing.T) {
	out, err := EncodeToString([]assemble.Segment{{Address: 0, Data: []byte{0x01, 0x02}}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := "S0030000FC\nS10500000102F7\nS5030001FB\nS9030000FC\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestEncode_Header(t *testing.T) {
	out, err := EncodeToString(nil, Options{Header: "HDR"})
	if err != nil {
		t.Fatal(err)
	}
	ls := lines(out)
	if ls[0] != "S00600004844521B" {
		t.Errorf("S0 = %q", ls[0])
	}
	if ls[1] != "S5030000FC" {
		t.Errorf("count = %q", ls[1])
	}
}

func TestEncode_AddressWidth(t *testing.T) {
	tests := []struct {
		name string
		addr uint32
		data string
		term string
	}{
		{"s1 at the 64K edge", 0xFFFF, "S1", "S9030000FC"},
		{"s2 past 64K", 0x10000, "S2", "S804000000FB"},
		{"s3 flash base", 0x08000000, "S3", "S70500000000FA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EncodeToString([]assemble.Segment{{Address: tt.addr, Data: []byte{0xAA}}}, Options{})
			if err != nil {
				t.Fatal(err)
			}
			ls := lines(out)
			if len(ls) != 4 {
				t.Fatalf("got %d records:\n%s", len(ls), out)
			}
			for _, l := range ls {
				checkRecord(t, l)
			}
			if !strings.HasPrefix(ls[1], tt.data) {
				t.Errorf("data record = %q, want %s", ls[1], tt.data)
			}
			if ls[3] != tt.term {
				t.Errorf("termination = %q, want %q", ls[3], tt.term)
			}
		})
	}
}

func TestEncode_RecordCount(t *testing.T) {
	data := make([]byte, 100)
	out, err := EncodeToString([]assemble.Segment{{Address: 0x8000, Data: data}}, Options{RecordWidth: 16})
	if err != nil {
		t.Fatal(err)
	}
	ls := lines(out)
	// S0, 7 data records, S5, S9
	if len(ls) != 10 {
		t.Fatalf("got %d records, want 10", len(ls))
	}
	if ls[8] != "S5030007F5" {
		t.Errorf("count record = %q, want S5030007F5", ls[8])
	}
	if !strings.HasPrefix(ls[2], "S1138010") {
		t.Errorf("second data record = %q", ls[2])
	}
	for _, l := range ls {
		checkRecord(t, l)
	}
}

func TestEncode_Errors(t *testing.T) {
	overlap := []assemble.Segment{
		{Address: 0x10, Data: make([]byte, 4)},
		{Address: 0x12, Data: make([]byte, 4)},
	}
	if _, err := EncodeToString(overlap, Options{}); !errors.Is(err, nverrors.ErrAddressConflict) {
		t.Errorf("overlap: err = %v", err)
	}
	if _, err := EncodeToString(nil, Options{RecordWidth: 65}); err == nil {
		t.Error("width 65 should fail")
	}
	if _, err := EncodeToString(nil, Options{Header: strings.Repeat("x", 300)}); err == nil {
		t.Error("oversized header should fail")
	}
}

func TestWidthFor(t *testing.T) {
	tests := []struct {
		end  uint64
		want AddressWidth
	}{
		{0, Addr16},
		{0x10000, Addr16},
		{0x10001, Addr24},
		{0x1000000, Addr24},
		{0x1000001, Addr32},
	}
	for _, tt := range tests {
		if got := WidthFor(tt.end); got != tt.want {
			t.Errorf("WidthFor(%#x) = %d, want %d", tt.end, got, tt.want)
		}
	}
}
