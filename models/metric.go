package models

// Metric keys accepted by the map and table endpoints.
const (
	MetricFarmersNoFeed   = "Farmers_in_animal_ag_no_feed"
	MetricFarmersFeed     = "Farmers_in_animal_ag_feed"
	MetricNoFeedPerPerson = "farmers_no_feed_per_person"
	MetricFeedPerPerson   = "farmers_feed_per_person"
	MetricNoFeedPerVoter  = "farmers_no_feed_per_voter"
	MetricFeedPerVoter    = "farmers_feed_per_voter"
)

// DefaultMetricKey is the metric shown before the user picks one.
const DefaultMetricKey = MetricFarmersNoFeed

// Metric is one selectable quantity: its key, the title used for figures and
// table headers, and the legend label for the color scale.
type Metric struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Legend string `json:"legend"`

	value func(*EnrichedRecord) float64
}

// Value extracts the metric from an enriched record.
func (m Metric) Value(r *EnrichedRecord) float64 {
	return m.value(r)
}

var metrics = []Metric{
	{
		Key:    MetricFarmersNoFeed,
		Title:  "Farmers in Animal Agriculture (excluding feed crops)",
		Legend: "Farmers",
		value:  func(r *EnrichedRecord) float64 { return r.FarmersNoFeed },
	},
	{
		Key:    MetricFarmersFeed,
		Title:  "Farmers in Animal Agriculture (including feed crops)",
		Legend: "Farmers",
		value:  func(r *EnrichedRecord) float64 { return r.FarmersFeed },
	},
	{
		Key:    MetricNoFeedPerPerson,
		Title:  "Animal Agriculture Farmers per Person (excluding feed crops)",
		Legend: "Farmers per Person",
		value:  func(r *EnrichedRecord) float64 { return r.NoFeedPerPerson },
	},
	{
		Key:    MetricFeedPerPerson,
		Title:  "Animal Agriculture Farmers per Person (including feed crops)",
		Legend: "Farmers per Person",
		value:  func(r *EnrichedRecord) float64 { return r.FeedPerPerson },
	},
	{
		Key:    MetricNoFeedPerVoter,
		Title:  "Animal Agriculture Farmers per Registered Voter (excluding feed crops)",
		Legend: "Farmers per Voter",
		value:  func(r *EnrichedRecord) float64 { return r.NoFeedPerVoter },
	},
	{
		Key:    MetricFeedPerVoter,
		Title:  "Animal Agriculture Farmers per Registered Voter (including feed crops)",
		Legend: "Farmers per Voter",
		value:  func(r *EnrichedRecord) float64 { return r.FeedPerVoter },
	},
}

// Metrics returns every recognized metric in dropdown order.
func Metrics() []Metric {
	out := make([]Metric, len(metrics))
	copy(out, metrics)
	return out
}

// LookupMetric finds a metric by key.
func LookupMetric(key string) (Metric, bool) {
	for _, m := range metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}
