package db

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nickyhof/SQLitePlus/core"
)

// TextTable renders rows as a boxed plain-text grid. Numeric cells are
// right-aligned; everything else, including NULL, is left-aligned.
type TextTable struct {
	writer  io.Writer
	headers []string
	rows    []core.Row
}

// NewTable creates a table writing to w.
func NewTable(w io.Writer) *TextTable {
	return &TextTable{writer: w}
}

// Header sets the column titles.
func (t *TextTable) Header(headers []string) {
	t.headers = headers
}

// Row appends one row.
func (t *TextTable) Row(row core.Row) {
	t.rows = append(t.rows, row)
}

// Bulk appends rows in order.
func (t *TextTable) Bulk(rows []core.Row) {
	t.rows = append(t.rows, rows...)
}

// Render writes the table. An empty table writes nothing.
func (t *TextTable) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	widths := t.widths()
	rule := ruleLine(widths)

	fmt.Fprintln(t.writer, rule)
	if len(t.headers) > 0 {
		fmt.Fprintln(t.writer, formatCells(t.headers, widths, false))
		fmt.Fprintln(t.writer, rule)
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, formatCells(row, widths, true))
	}
	fmt.Fprintln(t.writer, rule)
}

func (t *TextTable) widths() []int {
	n := len(t.headers)
	for _, row := range t.rows {
		n = max(n, len(row))
	}

	widths := make([]int, n)
	for i := range widths {
		widths[i] = 1
	}
	grow := func(cells []string) {
		for i, cell := range cells {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	grow(t.headers)
	for _, row := range t.rows {
		grow(row)
	}
	return widths
}

func ruleLine(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	return b.String()
}

func formatCells(cells []string, widths []int, alignNumbers bool) string {
	var b strings.Builder
	b.WriteByte('|')
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", w-utf8.RuneCountInString(cell))
		b.WriteByte(' ')
		if alignNumbers && isNumeric(cell) {
			b.WriteString(pad + cell)
		} else {
			b.WriteString(cell + pad)
		}
		b.WriteString(" |")
	}
	return b.String()
}

func isNumeric(cell string) bool {
	_, err := strconv.ParseFloat(cell, 64)
	return err == nil
}
