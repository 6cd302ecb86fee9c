package render

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/rodaine/table"
)

// Column describes one table column. Numeric columns are right aligned.
type Column struct {
	Header  string
	Numeric bool
}

// Table renders rows as a monospace table with a header line.
func Table(columns []Column, rows [][]string) string {
	return renderTable(columns, rows, true)
}

// Pairs renders label/value rows without a header, values right aligned.
func Pairs(labels, values []string) string {
	rows := make([][]string, len(labels))
	for i := range labels {
		rows[i] = []string{labels[i], values[i]}
	}
	return renderTable([]Column{{}, {Numeric: true}}, rows, false)
}

func renderTable(columns []Column, rows [][]string, header bool) string {
	widths := make([]int, len(columns))
	for i, c := range columns {
		if header {
			widths[i] = utf8.RuneCountInString(c.Header)
		}
	}
	for _, row := range rows {
		for i := range columns {
			if i < len(row) {
				widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
			}
		}
	}

	align := func(i int, s string) string {
		if !columns[i].Numeric {
			return s
		}
		return strings.Repeat(" ", widths[i]-utf8.RuneCountInString(s)) + s
	}

	headers := make([]any, len(columns))
	for i, c := range columns {
		headers[i] = align(i, c.Header)
		if !header {
			headers[i] = ""
		}
	}

	var buf bytes.Buffer
	tbl := table.New(headers...).WithWriter(&buf).WithPadding(2)
	for _, row := range rows {
		vals := make([]any, len(columns))
		for i := range columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			vals[i] = align(i, cell)
		}
		tbl.AddRow(vals...)
	}
	tbl.Print()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if !header && len(lines) > 0 {
		lines = lines[1:]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}
