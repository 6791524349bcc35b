package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column names of the farmer estimates workbook.
const (
	ColState           = "State"
	ColYear            = "Year"
	ColTotalPopulation = "Total_Population"
	ColTotalRegistered = "Total_Registered"
	ColFarmersNoFeed   = "Farmers_in_animal_ag_no_feed"
	ColFarmersFeed     = "Farmers_in_animal_ag_feed"
)

// NationalAggregate is the summary row the workbook carries next to the
// states; it is not a state and is skipped on load.
const NationalAggregate = "United States"

var requiredColumns = []string{
	ColState, ColYear, ColTotalPopulation, ColTotalRegistered, ColFarmersNoFeed, ColFarmersFeed,
}

// columnIndex maps each required column to its position in header. Matching
// ignores surrounding whitespace and case.
func columnIndex(header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}

	idx := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, col := range requiredColumns {
		i, ok := pos[strings.ToLower(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseNumber(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty value")
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return f, nil
}

// parseCount accepts non-negative whole counts that fit in an int64.
func parseCount(raw string) (int64, error) {
	f, err := parseNumber(raw)
	if err != nil {
		return 0, err
	}
	f = math.Round(f)
	if f < 0 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%q is out of range for a count", raw)
	}
	return int64(f), nil
}

// normaliseYear renders integral years without a fractional part, so a
// numeric 2012 cell and a "2012" text cell load identically.
func normaliseYear(raw string) string {
	raw = strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return raw
	}
	return strconv.FormatInt(int64(f), 10)
}
