package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"rancher-dashboard/models"
	"rancher-dashboard/utils"
)

// XLSXSource reads raw records from the farmer estimates workbook.
type XLSXSource struct {
	path   string
	sheet  string
	logger *utils.Logger
}

// NewXLSXSource creates a source for the workbook at path. An empty sheet
// selects the first sheet of the workbook.
func NewXLSXSource(path, sheet string, logger *utils.Logger) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet, logger: logger}
}

// Load opens the workbook and parses every state row of the sheet.
func (s *XLSXSource) Load(ctx context.Context) ([]models.RawRecord, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %q: %w", s.path, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: read sheet %q: %w", sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("xlsx: %s: %w", sheet, err)
	}

	s.logger.Info("[xlsx] Loaded %d records from %s (sheet %q)", len(records), s.path, sheet)
	return records, nil
}

// Close is a no-op; the workbook is closed after every Load.
func (s *XLSXSource) Close() error { return nil }

func parseRows(rows [][]string) ([]models.RawRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	idx, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	cell := func(row []string, col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]models.RawRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		state := cell(row, ColState)
		if state == "" || state == NationalAggregate {
			continue
		}

		rec := models.RawRecord{State: state, Year: normaliseYear(cell(row, ColYear))}
		if rec.Year == "" {
			return nil, fmt.Errorf("row %d: empty %s", line, ColYear)
		}
		if rec.TotalPopulation, err = parseCount(cell(row, ColTotalPopulation)); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", line, ColTotalPopulation, err)
		}
		if rec.TotalRegistered, err = parseCount(cell(row, ColTotalRegistered)); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", line, ColTotalRegistered, err)
		}
		if rec.FarmersNoFeed, err = parseNumber(cell(row, ColFarmersNoFeed)); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", line, ColFarmersNoFeed, err)
		}
		if rec.FarmersFeed, err = parseNumber(cell(row, ColFarmersFeed)); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", line, ColFarmersFeed, err)
		}

		records = append(records, rec)
	}
	return records, nil
}
