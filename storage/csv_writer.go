package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"rancher-dashboard/models"
)

// NotAvailable is written in place of a metric value that cannot be shown.
const NotAvailable = "N/A"

// CSVWriter writes display tables as CSV.
type CSVWriter struct {
	writer *csv.Writer
}

// NewCSVWriter wraps w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{writer: csv.NewWriter(w)}
}

// WriteTable writes the table header followed by one line per row.
func (c *CSVWriter) WriteTable(t *models.DisplayTable) error {
	if err := c.writer.Write(t.Header[:]); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, r := range t.Rows {
		if err := c.writer.Write([]string{r.State, r.Code, FormatValue(r.Value)}); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// FormatValue renders a rounded table value with the shortest exact
// representation, or NotAvailable for nil.
func FormatValue(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
