package storage

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"rancher-dashboard/models"
)

// WriteTablesXLSX writes one sheet per table, named after its year, and
// streams the workbook to w.
func WriteTablesXLSX(w io.Writer, tables []*models.DisplayTable) error {
	if len(tables) == 0 {
		return fmt.Errorf("xlsx: no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		sheet := t.Year
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("xlsx: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx: new sheet %q: %w", sheet, err)
		}

		if err := writeTableSheet(f, sheet, t); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

func writeTableSheet(f *excelize.File, sheet string, t *models.DisplayTable) error {
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: %s header: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", "B", 18); err != nil {
		return fmt.Errorf("xlsx: %s column width: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "C", "C", 60); err != nil {
		return fmt.Errorf("xlsx: %s column width: %w", sheet, err)
	}

	for i, r := range t.Rows {
		var value interface{} = NotAvailable
		if r.Value != nil {
			value = *r.Value
		}

		row := []interface{}{r.State, r.Code, value}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
