package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wippyai/nvmbuild/build"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func statRows(s build.Stats) [][]string {
	rows := make([][]string, 0, len(s.PerBlock))
	for _, b := range s.PerBlock {
		crc := "-"
		if b.HasCRC {
			crc = fmt.Sprintf("0x%X @ 0x%08X", b.CRC, b.CRCAddress)
		}
		rows = append(rows, []string{
			b.Name,
			fmt.Sprintf("0x%08X", b.StartAddress),
			strconv.FormatUint(uint64(b.Allocated), 10),
			strconv.FormatUint(uint64(b.Used), 10),
			fmt.Sprintf("%.1f%%", b.Efficiency()),
			crc,
		})
	}
	return rows
}

var statHeaders = []string{"Block", "Start", "Allocated", "Used", "Efficiency", "CRC"}

// printStats writes the per-block table and the totals. fancy selects the
// lipgloss table over plain tab-separated lines.
func printStats(w io.Writer, s build.Stats, fancy bool) {
	rows := statRows(s)
	if fancy {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(borderStyle).
			Headers(statHeaders...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		fmt.Fprintln(w, t.Render())
	} else {
		for _, r := range rows {
			for i, c := range r {
				if i > 0 {
					fmt.Fprint(w, "\t")
				}
				fmt.Fprint(w, c)
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "Blocks processed: %d", s.Blocks)
	if s.Failed > 0 {
		fmt.Fprintf(w, " (%d failed)", s.Failed)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total allocated:  %d bytes\n", s.Allocated)
	fmt.Fprintf(w, "Total used:       %d bytes\n", s.Used)
	fmt.Fprintf(w, "Efficiency:       %.1f%%\n", s.Efficiency())
	fmt.Fprintf(w, "Elapsed:          %s\n", s.Elapsed.Round(time.Microsecond))
}

func printChanges(w io.Writer, changes []build.Change) {
	for _, c := range changes {
		switch {
		case c.Missing:
			fmt.Fprintf(w, "%s: no previous file %s\n", c.Name, c.Previous)
		case len(c.Diffs) == 0:
			fmt.Fprintf(w, "%s: unchanged\n", c.Name)
		default:
			fmt.Fprintf(w, "%s: %d differing ranges\n", c.Name, len(c.Diffs))
			for _, d := range c.Diffs {
				fmt.Fprintf(w, "  %s\n", d)
			}
		}
	}
}
