// Package output provides report formatting for the load test CLI.
//
// Purpose:
//
//	Render run results as a human-readable table, a JSON envelope for CI
//	pipelines, or a CSV file of per-chunk timings for later analysis.
//
package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TableFormatter formats output as a human-readable table.
type TableFormatter struct {
	writer *tabwriter.Writer
	err    error
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
	}
}

// WriteHeader writes table headers followed by a separator row.
func (t *TableFormatter) WriteHeader(headers ...string) error {
	t.writeCells(headers)
	sep := make([]string, len(headers))
	for i, h := range headers {
		sep[i] = strings.Repeat("-", max(len(h), 3))
	}
	t.writeCells(sep)
	return t.err
}

// WriteRow writes a table row.
func (t *TableFormatter) WriteRow(values ...string) error {
	t.writeCells(values)
	return t.err
}

// WriteField writes a "key: value" line, used for summaries.
func (t *TableFormatter) WriteField(key string, value interface{}) error {
	if t.err == nil {
		_, t.err = fmt.Fprintf(t.writer, "%s:\t%v\n", key, value)
	}
	return t.err
}

// Flush flushes the table output.
func (t *TableFormatter) Flush() error {
	if t.err != nil {
		return t.err
	}
	return t.writer.Flush()
}

func (t *TableFormatter) writeCells(cells []string) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintln(t.writer, strings.Join(cells, "\t"))
}

// PrintTable writes headers and rows to w.
func PrintTable(w io.Writer, headers []string, rows [][]string) error {
	formatter := NewTableFormatter(w)
	if err := formatter.WriteHeader(headers...); err != nil {
		return err
	}
	for _, row := range rows {
		if err := formatter.WriteRow(row...); err != nil {
			return err
		}
	}
	return formatter.Flush()
}
