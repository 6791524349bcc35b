package services

import (
	"errors"
	"fmt"
	"strings"

	"rancher-dashboard/models"
	"rancher-dashboard/utils"
)

// ErrNoRecords is returned when there is nothing to enrich, or when the join
// with the state-code lookup leaves no rows.
var ErrNoRecords = errors.New("no records")

// Enricher joins raw records with their state codes and derives the
// per-person and per-voter farmer ratios.
type Enricher struct {
	logger *utils.Logger
}

// NewEnricher creates an Enricher with the given logger.
func NewEnricher(logger *utils.Logger) *Enricher {
	return &Enricher{logger: logger}
}

// Enrich inner-joins raw with lookup on state name and computes the four
// ratio columns. Rows whose state has no code are dropped with a warning.
// Duplicate (State, Year) pairs are rejected.
func (e *Enricher) Enrich(raw []models.RawRecord, lookup []models.StateCode) (*models.Dataset, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("enrich: %w in raw data", ErrNoRecords)
	}

	codes := e.indexCodes(lookup)
	pairs := utils.NewKeySet()
	result := make([]models.EnrichedRecord, 0, len(raw))

	for _, r := range raw {
		if !pairs.Add(r.State + "|" + r.Year) {
			return nil, fmt.Errorf("enrich: duplicate row for state %q in year %s", r.State, r.Year)
		}

		code, ok := codes[r.State]
		if !ok {
			e.logger.Warn("[enricher] No state code for %q (year %s), dropping row", r.State, r.Year)
			continue
		}

		if r.TotalPopulation == 0 {
			e.logger.Warn("[enricher] %s %s has zero population, per-person ratios not available", r.State, r.Year)
		}
		if r.TotalRegistered == 0 {
			e.logger.Warn("[enricher] %s %s has zero registered voters, per-voter ratios not available", r.State, r.Year)
		}

		result = append(result, enrichRecord(r, code))
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("enrich: %w matched the state-code lookup", ErrNoRecords)
	}

	e.logger.Info("[enricher] Enriched %d → %d records (dropped %d)",
		len(raw), len(result), len(raw)-len(result))

	return models.NewDataset(result), nil
}

func (e *Enricher) indexCodes(lookup []models.StateCode) map[string]string {
	codes := make(map[string]string, len(lookup))
	for _, sc := range lookup {
		state := strings.TrimSpace(sc.State)
		code := strings.ToUpper(strings.TrimSpace(sc.Code))
		if state == "" || code == "" {
			e.logger.Debug("[enricher] Skipping incomplete lookup entry %+v", sc)
			continue
		}
		if prev, dup := codes[state]; dup {
			e.logger.Warn("[enricher] Duplicate lookup entry for %q: keeping %s, ignoring %s", state, prev, code)
			continue
		}
		codes[state] = code
	}
	return codes
}

// enrichRecord computes the ratios with plain float division, so a zero
// denominator yields NaN (0/0) or ±Inf.
func enrichRecord(r models.RawRecord, code string) models.EnrichedRecord {
	population := float64(r.TotalPopulation)
	registered := float64(r.TotalRegistered)

	return models.EnrichedRecord{
		RawRecord:       r,
		Code:            code,
		NoFeedPerPerson: r.FarmersNoFeed / population,
		FeedPerPerson:   r.FarmersFeed / population,
		NoFeedPerVoter:  r.FarmersNoFeed / registered,
		FeedPerVoter:    r.FarmersFeed / registered,
	}
}
