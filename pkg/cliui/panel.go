package cliui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// KV is one labelled row in a panel.
type KV struct {
	Key   string
	Value string
}

// Panel renders rows as an aligned key/value block under an optional title.
func Panel(title string, rows []KV) string {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.Key))
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
		b.WriteString("\n")
	}
	for _, r := range rows {
		key := KeyStyle.Render(r.Key + ":")
		pad := strings.Repeat(" ", width-lipgloss.Width(r.Key))
		fmt.Fprintf(&b, "  %s%s %s\n", key, pad, r.Value)
	}
	return b.String()
}

// MapRows turns an arbitrary JSON object into sorted panel rows.
func MapRows(m map[string]any) []KV {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]KV, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, KV{Key: k, Value: fmt.Sprint(m[k])})
	}
	return rows
}

// Table writes rows under a header with columns padded to their widest cell.
func Table(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range min(len(row), len(widths)) {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	fmt.Fprintln(w, StepStyle.Render(line(header)))
	for _, row := range rows {
		fmt.Fprintln(w, line(row))
	}
}
