package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/wippyai/nvmbuild/assemble"
	"github.com/wippyai/nvmbuild/build"
	"github.com/wippyai/nvmbuild/ihex"
)

const literalTOML = `
[cal.header]
start_address = 0x2000
length = 0x10
crc_location = "none"

[cal.data]
gain = { type = "i16", size = 2, value = [-1, 2] }

[id.header]
start_address = 0x3000
length = 0x10

[id.data]
serial = { type = "u32", value = 0x12345678 }
`

func testConfig(t *testing.T, blocks ...string) config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "blocks.toml")
	if err := os.WriteFile(path, []byte(literalTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	args := make([]string, len(blocks))
	for i, b := range blocks {
		args[i] = b + "@" + path
	}
	reqs, err := build.ParseRequests(args)
	if err != nil {
		t.Fatal(err)
	}
	return config{
		requests: reqs,
		output: build.Output{
			Dir:    filepath.Join(dir, "out"),
			Format: build.HEX,
		},
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t, "cal", "id")
	if code := run(cfg, zap.NewNop()); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	segs, err := ihex.DecodeFile(filepath.Join(cfg.output.Dir, "cal.hex"))
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) == 0 || segs[0].Address != 0x2000 {
		t.Fatalf("segments = %v, want first at 0x2000", segs)
	}
	if got, want := segs[0].Data[:4], []byte{0xFF, 0xFF, 0x02, 0x00}; !bytes.Equal(got, want) {
		t.Errorf("cal data = % X, want % X", got, want)
	}
	if _, err := os.Stat(filepath.Join(cfg.output.Dir, "id.hex")); err != nil {
		t.Errorf("id.hex not written: %v", err)
	}
}

func TestRun_FailedBlock(t *testing.T) {
	cfg := testConfig(t, "cal", "missing")
	if code := run(cfg, zap.NewNop()); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	// the good block is still written
	if _, err := os.Stat(filepath.Join(cfg.output.Dir, "cal.hex")); err != nil {
		t.Errorf("cal.hex not written: %v", err)
	}
}

func TestRun_MissingWorkbook(t *testing.T) {
	cfg := testConfig(t, "cal")
	cfg.xlsx = filepath.Join(t.TempDir(), "absent.xlsx")
	if code := run(cfg, zap.NewNop()); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestHexDump(t *testing.T) {
	segs := []assemble.Segment{
		{Address: 0x1000, Data: []byte("ABCDEFGHIJKLMNOPqr")},
		{Address: 0x2000, Data: []byte{0x00, 0x7F}},
	}
	lines := hexDump(segs, 16)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), lines)
	}

	want0 := "00001000  41 42 43 44 45 46 47 48 49 4A 4B 4C 4D 4E 4F 50  |ABCDEFGHIJKLMNOP|"
	if lines[0] != want0 {
		t.Errorf("line 0 = %q, want %q", lines[0], want0)
	}
	if !strings.HasPrefix(lines[1], "00001010  71 72 ") || !strings.HasSuffix(lines[1], "|qr|") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "00002000  00 7F ") || !strings.HasSuffix(lines[2], "|..|") {
		t.Errorf("line 2 = %q", lines[2])
	}
	if len(lines[1]) != len(lines[0])-14 {
		t.Errorf("short line width = %d, want hex column padded to %d", len(lines[1]), len(lines[0])-14)
	}
}

func TestPrintStats_Plain(t *testing.T) {
	s := build.Stats{
		Blocks:    1,
		Failed:    1,
		Allocated: 0x20,
		Used:      8,
		Elapsed:   1500 * time.Microsecond,
		PerBlock: []build.BlockStat{{
			Name: "config", StartAddress: 0x1000, Allocated: 0x20, Used: 8,
			HasCRC: true, CRC: 0xCBF43926, CRCAddress: 0x101C,
		}},
	}
	var buf bytes.Buffer
	printStats(&buf, s, false)
	out := buf.String()

	for _, want := range []string{
		"config\t0x00001000\t32\t8\t25.0%\t0xCBF43926 @ 0x0000101C\n",
		"Blocks processed: 1 (1 failed)\n",
		"Total allocated:  32 bytes\n",
		"Efficiency:       25.0%\n",
		"Elapsed:          1.5ms\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintChanges(t *testing.T) {
	changes := []build.Change{
		{Name: "a", Previous: "old/a.hex", Missing: true},
		{Name: "b"},
		{Name: "c", Diffs: []ihex.Diff{{Address: 0x101, Length: 2, Kind: ihex.Changed}}},
	}
	var buf bytes.Buffer
	printChanges(&buf, changes)

	want := "a: no previous file old/a.hex\n" +
		"b: unchanged\n" +
		"c: 1 differing ranges\n" +
		"  changed 0x00000101..0x00000102 (2 bytes)\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInteractiveModel(t *testing.T) {
	dr := &assemble.DataRange{Name: "cal", StartAddress: 0x2000, Bytestream: make([]byte, 40), UsedSize: 40, AllocatedSize: 64}
	report := &build.Report{Results: []build.Result{
		{Request: build.Request{Block: "bad", File: "x.toml"}, Err: os.ErrNotExist},
		{Request: build.Request{Block: "cal", File: "x.toml"}, Range: dr},
	}}

	var tm tea.Model = newInteractiveModel(config{}, nil, []string{"ProdA"})
	tm, _ = tm.Update(builtMsg{report: report})
	m := tm.(interactiveModel)
	if m.building || len(m.results) != 2 {
		t.Fatalf("building = %v, results = %d", m.building, len(m.results))
	}

	// a failed block has no dump
	tm, _ = m.Update(key("enter"))
	if m = tm.(interactiveModel); m.state != stateBlocks {
		t.Fatalf("state = %v after enter on failed block", m.state)
	}

	tm, _ = m.Update(key("down"))
	tm, _ = tm.Update(key("enter"))
	m = tm.(interactiveModel)
	if m.selected != 1 || m.state != stateDump {
		t.Fatalf("selected = %d, state = %v, want 1 and dump", m.selected, m.state)
	}
	if len(m.lines) != 3 {
		t.Errorf("dump lines = %d, want 3", len(m.lines))
	}
	if !strings.Contains(m.View(), "00002000") {
		t.Errorf("dump view missing start address:\n%s", m.View())
	}

	tm, _ = m.Update(key("esc"))
	tm, _ = tm.Update(key("v"))
	m = tm.(interactiveModel)
	if m.state != stateVariant {
		t.Fatalf("state = %v, want variant input", m.state)
	}
	if !strings.Contains(m.View(), "ProdA") {
		t.Errorf("variant view does not list variants:\n%s", m.View())
	}

	for _, r := range "ProdA" {
		tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	tm, cmd := tm.Update(key("enter"))
	m = tm.(interactiveModel)
	if m.cfg.opts.Variant != "ProdA" || !m.building || cmd == nil {
		t.Errorf("variant = %q, building = %v, cmd nil = %v", m.cfg.opts.Variant, m.building, cmd == nil)
	}
	if m.state != stateBlocks {
		t.Errorf("state = %v, want blocks", m.state)
	}
}
