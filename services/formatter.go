package services

import (
	"fmt"
	"math"
	"sort"

	"rancher-dashboard/models"
	"rancher-dashboard/utils"
)

// DisplayDecimals is the number of decimal places shown in display tables.
const DisplayDecimals = 4

// Formatter builds the per-year display tables.
type Formatter struct {
	logger *utils.Logger
}

// NewFormatter creates a Formatter with the given logger.
func NewFormatter(logger *utils.Logger) *Formatter {
	return &Formatter{logger: logger}
}

// Format returns the rows of year as (State, Code, Value), sorted by value
// descending. The sort is stable, so ties keep dataset order, and rows whose
// value is not available go last. Values are rounded half-to-even to
// DisplayDecimals places.
func (f *Formatter) Format(ds *models.Dataset, metricKey, year string) (*models.DisplayTable, error) {
	metric, ok := models.LookupMetric(metricKey)
	if !ok {
		return nil, fmt.Errorf("format table: %w: %q", ErrUnknownMetric, metricKey)
	}
	if !ds.HasYear(year) {
		return nil, fmt.Errorf("format table: %w: %q", ErrUnknownYear, year)
	}

	type sortable struct {
		row   models.TableRow
		value float64
	}

	var rows []sortable
	ds.Each(func(r models.EnrichedRecord) {
		if r.Year != year {
			return
		}
		v := metric.Value(&r)
		rows = append(rows, sortable{
			row:   models.TableRow{State: r.State, Code: r.Code, Value: available(v)},
			value: v,
		})
	})

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.row.Value == nil || b.row.Value == nil {
			return a.row.Value != nil && b.row.Value == nil
		}
		return a.value > b.value
	})

	table := &models.DisplayTable{
		Metric: metric.Key,
		Year:   year,
		Header: [3]string{"State", "State Code", metric.Title + " in " + year},
		Rows:   make([]models.TableRow, len(rows)),
	}
	for i, s := range rows {
		row := s.row
		if row.Value != nil {
			rounded := roundHalfEven(*row.Value, DisplayDecimals)
			row.Value = &rounded
		}
		table.Rows[i] = row
	}

	f.logger.Debug("[formatter] %s %s: %d rows", metricKey, year, len(table.Rows))
	return table, nil
}

// FormatAll formats one table per dataset year, ascending by year.
func (f *Formatter) FormatAll(ds *models.Dataset, metricKey string) ([]*models.DisplayTable, error) {
	years := ds.Years()
	tables := make([]*models.DisplayTable, 0, len(years))
	for _, y := range years {
		t, err := f.Format(ds, metricKey, y)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// roundingLimit is the magnitude past which a float64 has no fractional
// digits left to round.
const roundingLimit = 1e15

func roundHalfEven(v float64, decimals int) float64 {
	if math.Abs(v) >= roundingLimit {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*scale) / scale
}
