package output

import (
	"fmt"
	"io"
	"strings"
)

// Table renders aligned plain-text tables
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends one row of cells
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table with dash-underlined headers
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, 0, len(cells))
		for i, cell := range cells {
			if i < len(widths) {
				parts = append(parts, fmt.Sprintf("%-*s", widths[i], cell))
			}
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(t.headers)
	underline := make([]string, len(t.headers))
	for i := range t.headers {
		underline[i] = strings.Repeat("-", widths[i])
	}
	printRow(underline)
	for _, row := range t.rows {
		printRow(row)
	}
}
