package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// CSVFormatter writes CSV with optional "# " comment lines ahead of the data.
type CSVFormatter struct {
	out    io.Writer
	writer *csv.Writer
	file   *os.File
	now    func() time.Time
}

// NewCSVFormatter creates a CSV formatter writing to w.
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{out: w, writer: csv.NewWriter(w), now: time.Now}
}

// CreateCSVFile creates (or truncates) filePath with 0600 permissions and
// returns a formatter writing to it. Close releases the file.
func CreateCSVFile(filePath string) (*CSVFormatter, error) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}
	c := NewCSVFormatter(file)
	c.file = file
	return c, nil
}

// WriteComment writes a comment line. It must precede any data row.
func (c *CSVFormatter) WriteComment(comment string) error {
	_, err := fmt.Fprintf(c.out, "# %s\n", comment)
	return err
}

// WriteMetadata writes sorted key/value metadata and a generation timestamp
// as comment lines.
func (c *CSVFormatter) WriteMetadata(metadata map[string]interface{}) error {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.WriteComment(fmt.Sprintf("%s: %v", k, metadata[k])); err != nil {
			return err
		}
	}
	return c.WriteComment("generated: " + c.now().UTC().Format(time.RFC3339))
}

// WriteHeader writes CSV column headers.
func (c *CSVFormatter) WriteHeader(headers []string) error {
	return c.writer.Write(headers)
}

// WriteRow writes a CSV data row.
func (c *CSVFormatter) WriteRow(row []string) error {
	return c.writer.Write(row)
}

// Flush flushes buffered rows.
func (c *CSVFormatter) Flush() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file, if any.
func (c *CSVFormatter) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}
