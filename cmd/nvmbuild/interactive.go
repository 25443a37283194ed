package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/nvmbuild/assemble"
	"github.com/wippyai/nvmbuild/build"
	"github.com/wippyai/nvmbuild/datasource"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	blockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBlocks modelState = iota
	stateDump
	stateVariant
)

const dumpWidth = 16

type interactiveModel struct {
	err      error
	src      datasource.Source
	cfg      config
	status   string
	variants []string
	results  []build.Result
	lines    []string
	input    textinput.Model
	selected int
	scroll   int
	height   int
	state    modelState
	building bool
}

type builtMsg struct {
	report *build.Report
}

type writtenMsg struct {
	err   error
	paths []string
}

func newInteractiveModel(cfg config, src datasource.Source, variants []string) interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "variant column, empty for Default"
	ti.Prompt = "variant> "
	ti.Width = 40

	return interactiveModel{
		cfg:      cfg,
		src:      src,
		variants: variants,
		input:    ti,
		height:   24,
		building: true,
	}
}

func (m interactiveModel) Init() tea.Cmd {
	return m.buildCmd()
}

func (m interactiveModel) buildCmd() tea.Cmd {
	b := build.New(m.src, m.cfg.opts)
	reqs := m.cfg.requests
	return func() tea.Msg {
		report, _ := b.Build(context.Background(), reqs)
		return builtMsg{report: report}
	}
}

func (m interactiveModel) writeCmd() tea.Cmd {
	out := m.cfg.output
	report := &build.Report{Results: m.results}
	return func() tea.Msg {
		paths, err := out.Write(report)
		return writtenMsg{paths: paths, err: err}
	}
}

func (m interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case builtMsg:
		m.building = false
		m.results = msg.report.Results
		if m.selected >= len(m.results) {
			m.selected = 0
		}
		m.status = fmt.Sprintf("built %d blocks, %d failed", len(m.results), msg.report.Failed())
		return m, nil

	case writtenMsg:
		m.err = msg.err
		m.status = fmt.Sprintf("wrote %d files to %s", len(msg.paths), m.cfg.output.Dir)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateVariant:
			return m.updateVariant(msg)
		case stateDump:
			return m.updateDump(msg)
		default:
			return m.updateBlocks(msg)
		}
	}
	return m, nil
}

func (m interactiveModel) updateBlocks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.results)-1 {
			m.selected++
		}
	case "enter":
		if m.selected < len(m.results) {
			if dr := m.results[m.selected].Range; dr != nil {
				m.lines = hexDump(dr.Segments(), dumpWidth)
				m.scroll = 0
				m.state = stateDump
			}
		}
	case "v":
		m.input.SetValue(m.cfg.opts.Variant)
		m.input.Focus()
		m.state = stateVariant
		return m, textinput.Blink
	case "r":
		if !m.building {
			m.building = true
			return m, m.buildCmd()
		}
	case "w":
		if !m.building {
			return m, m.writeCmd()
		}
	}
	return m, nil
}

func (m interactiveModel) updateDump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.pageSize()
	last := len(m.lines) - page
	if last < 0 {
		last = 0
	}
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.state = stateBlocks
	case "up", "k":
		if m.scroll > 0 {
			m.scroll--
		}
	case "down", "j":
		if m.scroll < last {
			m.scroll++
		}
	case "pgup":
		m.scroll = max(0, m.scroll-page)
	case "pgdown", " ":
		m.scroll = min(last, m.scroll+page)
	case "home", "g":
		m.scroll = 0
	case "end", "G":
		m.scroll = last
	}
	return m, nil
}

func (m interactiveModel) updateVariant(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.state = stateBlocks
		return m, nil
	case "enter":
		m.cfg.opts.Variant = strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.state = stateBlocks
		m.building = true
		return m, m.buildCmd()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m interactiveModel) pageSize() int {
	// title, block line, blank and help
	if n := m.height - 5; n > 1 {
		return n
	}
	return 1
}

func (m interactiveModel) View() string {
	var b strings.Builder

	variant := m.cfg.opts.Variant
	if variant == "" {
		variant = string(datasource.Default)
	}
	b.WriteString(titleStyle.Render("NVM Builder"))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render("variant: " + variant))
	b.WriteString("\n\n")

	switch m.state {
	case stateDump:
		m.viewDump(&b)
	case stateVariant:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		if len(m.variants) > 0 {
			b.WriteString(helpStyle.Render("available: " + strings.Join(m.variants, ", ")))
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("enter: rebuild  esc: cancel"))
	default:
		m.viewBlocks(&b)
	}
	return b.String()
}

func (m interactiveModel) viewBlocks(b *strings.Builder) {
	if m.building {
		b.WriteString("Building...\n")
		return
	}
	for i, res := range m.results {
		line := blockLine(res)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
		if res.Err != nil && i == m.selected {
			b.WriteString("    " + errorStyle.Render(res.Err.Error()) + "\n")
		}
	}
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(resultStyle.Render(m.status) + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓: select  enter: dump  v: variant  r: rebuild  w: write  q: quit"))
}

func blockLine(res build.Result) string {
	name := blockStyle.Render(res.Request.String())
	if res.Err != nil {
		return name + " " + errorStyle.Render("failed")
	}
	dr := res.Range
	s := fmt.Sprintf("%s %s %d/%d bytes (%.1f%%)",
		name, addrStyle.Render(fmt.Sprintf("0x%08X", dr.StartAddress)),
		dr.UsedSize, dr.AllocatedSize, dr.Efficiency())
	if dr.HasCRC() {
		s += fmt.Sprintf(" crc 0x%X @ 0x%08X", dr.CRCValue, dr.CRCAddress)
	}
	return s
}

func (m interactiveModel) viewDump(b *strings.Builder) {
	res := m.results[m.selected]
	b.WriteString(blockLine(res))
	b.WriteString("\n")

	end := min(len(m.lines), m.scroll+m.pageSize())
	for _, l := range m.lines[m.scroll:end] {
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ pgup/pgdn: scroll  esc: back  q: quit"))
}

// hexDump renders segments as address, hex bytes and printable ASCII,
// width bytes per line. Lines never cross segment boundaries.
func hexDump(segs []assemble.Segment, width int) []string {
	var lines []string
	for _, seg := range segs {
		for off := 0; off < len(seg.Data); off += width {
			chunk := seg.Data[off:min(off+width, len(seg.Data))]

			var l strings.Builder
			fmt.Fprintf(&l, "%08X ", uint64(seg.Address)+uint64(off))
			for i := 0; i < width; i++ {
				if i < len(chunk) {
					fmt.Fprintf(&l, " %02X", chunk[i])
				} else {
					l.WriteString("   ")
				}
			}
			l.WriteString("  |")
			for _, c := range chunk {
				if c >= 0x20 && c < 0x7F {
					l.WriteByte(c)
				} else {
					l.WriteByte('.')
				}
			}
			l.WriteString("|")
			lines = append(lines, l.String())
		}
	}
	return lines
}

func runInteractive(cfg config) error {
	var (
		src      datasource.Source
		variants []string
	)
	if cfg.xlsx != "" {
		tbl, err := datasource.OpenWorkbook(cfg.xlsx, cfg.mainSheet)
		if err != nil {
			return err
		}
		src = tbl
		variants = tbl.Variants()
	}

	p := tea.NewProgram(newInteractiveModel(cfg, src, variants), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
