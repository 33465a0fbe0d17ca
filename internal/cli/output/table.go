package output

import (
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const defaultMaxCellWidth = 48

// Table renders rows as left-aligned columns. Widths are display widths, so
// wide runes and escape sequences in titles do not break alignment.
type Table struct {
	Header []string
	Rows   [][]string
	// MaxCellWidth truncates longer cells; zero means 48, negative disables.
	MaxCellWidth int
}

// Write renders the table. The last column is never padded.
func (t Table) Write(w io.Writer) error {
	maxWidth := t.MaxCellWidth
	if maxWidth == 0 {
		maxWidth = defaultMaxCellWidth
	}
	rows := make([][]string, 0, len(t.Rows)+1)
	if len(t.Header) > 0 {
		rows = append(rows, t.Header)
	}
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cell = strings.ReplaceAll(cell, "\n", " ")
			if maxWidth > 0 && ansi.StringWidth(cell) > maxWidth {
				cell = ansi.Truncate(cell, maxWidth, "…")
			}
			cells[i] = cell
		}
		rows = append(rows, cells)
	}
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if width := ansi.StringWidth(cell); width > widths[i] {
				widths[i] = width
			}
		}
	}
	var b strings.Builder
	for _, row := range rows {
		line := make([]string, 0, len(row))
		for i, cell := range row {
			if i < len(row)-1 {
				cell += strings.Repeat(" ", widths[i]-ansi.StringWidth(cell))
			}
			line = append(line, cell)
		}
		b.WriteString(strings.TrimRight(strings.Join(line, "  "), " "))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
