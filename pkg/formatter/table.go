// File: pkg/formatter/table.go
package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table renders rows as a bordered text grid. Widths are measured on the raw cell
// text in terminal columns, so store names with accents and styled cells stay aligned.
type Table struct {
	headers []string
	rows    [][]string
	align   []Align
	styles  map[int]func(string) string
}

func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		align:   make([]Align, len(headers)),
		styles:  make(map[int]func(string) string),
	}
}

// AlignRight right-aligns the given columns, used for counts and IDs
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		if c >= 0 && c < len(t.align) {
			t.align[c] = AlignRight
		}
	}
	return t
}

// StyleColumn applies style to every body cell of col after padding has been computed
func (t *Table) StyleColumn(col int, style func(cell string) string) *Table {
	t.styles[col] = style
	return t
}

// AddRow appends a row. Missing cells render empty; cells beyond the header count are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) String() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := t.widths()
	var sb strings.Builder

	t.writeBorder(&sb, widths)
	t.writeRow(&sb, widths, t.headers, false)
	t.writeBorder(&sb, widths)
	for _, row := range t.rows {
		t.writeRow(&sb, widths, row, true)
	}
	t.writeBorder(&sb, widths)

	return strings.TrimSuffix(sb.String(), "\n")
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func (t *Table) writeRow(sb *strings.Builder, widths []int, cells []string, body bool) {
	sb.WriteString("|")
	for i, cell := range cells {
		padding := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		if style, ok := t.styles[i]; ok && body {
			cell = style(cell)
		}

		sb.WriteString(" ")
		if t.align[i] == AlignRight {
			sb.WriteString(padding + cell)
		} else {
			sb.WriteString(cell + padding)
		}
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func (t *Table) writeBorder(sb *strings.Builder, widths []int) {
	sb.WriteString("+")
	for _, width := range widths {
		sb.WriteString(strings.Repeat("-", width+2))
		sb.WriteString("+")
	}
	sb.WriteString("\n")
}

// Formats a simple section title
func FormatSectionTitle(title string) string {
	return "-- " + title + " --"
}
