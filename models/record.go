package models

// RawRecord is one (State, Year) row of the farmer estimates workbook,
// exactly as loaded and before any derived columns are added.
type RawRecord struct {
	State           string
	Year            string
	TotalPopulation int64
	TotalRegistered int64
	FarmersNoFeed   float64
	FarmersFeed     float64
}

// StateCode maps a state name to its two-letter postal code.
type StateCode struct {
	State string
	Code  string
}

// EnrichedRecord is a RawRecord joined with its state code and extended with
// the four normalized farmer ratios. A zero denominator leaves the matching
// ratio non-finite (NaN or ±Inf).
type EnrichedRecord struct {
	RawRecord
	Code string

	NoFeedPerPerson float64
	FeedPerPerson   float64
	NoFeedPerVoter  float64
	FeedPerVoter    float64
}
