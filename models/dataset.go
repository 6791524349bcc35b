package models

import "sort"

// Dataset is the enriched record set shared by every request. It is built
// once at startup and never modified afterwards; accessors hand out copies.
type Dataset struct {
	records []EnrichedRecord
	years   []string
}

// NewDataset takes ownership of records and indexes the years they cover.
func NewDataset(records []EnrichedRecord) *Dataset {
	seen := make(map[string]struct{})
	var years []string
	for _, r := range records {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		years = append(years, r.Year)
	}
	sort.Strings(years)

	return &Dataset{records: records, years: years}
}

// Len returns the number of enriched records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of the enriched records in load order.
func (d *Dataset) Records() []EnrichedRecord {
	out := make([]EnrichedRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Years returns the distinct years present, ascending.
func (d *Dataset) Years() []string {
	out := make([]string, len(d.years))
	copy(out, d.years)
	return out
}

// HasYear reports whether any record belongs to year.
func (d *Dataset) HasYear(year string) bool {
	for _, y := range d.years {
		if y == year {
			return true
		}
	}
	return false
}

// Each calls fn with a copy of every record in load order.
func (d *Dataset) Each(fn func(r EnrichedRecord)) {
	for _, r := range d.records {
		fn(r)
	}
}
