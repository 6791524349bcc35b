package models

// TableRow is one line of a display table. Value is nil when the metric is
// not available for the state (non-finite ratio).
type TableRow struct {
	State string   `json:"state"`
	Code  string   `json:"code"`
	Value *float64 `json:"value"`
}

// DisplayTable is the per-year, sorted, rounded view of one metric.
type DisplayTable struct {
	Metric string     `json:"metric"`
	Year   string     `json:"year"`
	Header [3]string  `json:"header"`
	Rows   []TableRow `json:"rows"`
}

// MapPoint is one state's value inside a map facet.
type MapPoint struct {
	Code  string   `json:"code"`
	State string   `json:"state"`
	Value *float64 `json:"value"`
}

// MapFacet holds the points of one year's map panel.
type MapFacet struct {
	Year   string     `json:"year"`
	Points []MapPoint `json:"points"`
}

// ColorDomain is the value range the shared color scale spans.
type ColorDomain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MapFigure describes a choropleth faceted by year. All facets share Domain.
// Domain is nil when no facet holds an available value.
type MapFigure struct {
	Metric string       `json:"metric"`
	Title  string       `json:"title"`
	Legend string       `json:"legend"`
	Domain *ColorDomain `json:"domain"`
	Facets []MapFacet   `json:"facets"`
}
