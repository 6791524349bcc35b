package services

import (
	"fmt"
	"math"

	"rancher-dashboard/models"
	"rancher-dashboard/utils"
)

// Projector turns the dataset into a choropleth description faceted by year.
type Projector struct {
	logger *utils.Logger
}

// NewProjector creates a Projector with the given logger.
func NewProjector(logger *utils.Logger) *Projector {
	return &Projector{logger: logger}
}

// Project builds the map figure for metricKey. Every record appears once, in
// its year's facet, in dataset order. The color domain spans the available
// values of all years so the panels share one scale.
func (p *Projector) Project(ds *models.Dataset, metricKey string) (*models.MapFigure, error) {
	metric, ok := models.LookupMetric(metricKey)
	if !ok {
		return nil, fmt.Errorf("project map: %w: %q", ErrUnknownMetric, metricKey)
	}

	years := ds.Years()
	facetIndex := make(map[string]int, len(years))
	facets := make([]models.MapFacet, len(years))
	for i, y := range years {
		facetIndex[y] = i
		facets[i] = models.MapFacet{Year: y, Points: []models.MapPoint{}}
	}

	var domain *models.ColorDomain
	ds.Each(func(r models.EnrichedRecord) {
		v := metric.Value(&r)
		point := models.MapPoint{Code: r.Code, State: r.State, Value: available(v)}

		i := facetIndex[r.Year]
		facets[i].Points = append(facets[i].Points, point)

		if point.Value == nil {
			return
		}
		if domain == nil {
			domain = &models.ColorDomain{Min: v, Max: v}
			return
		}
		domain.Min = math.Min(domain.Min, v)
		domain.Max = math.Max(domain.Max, v)
	})

	p.logger.Debug("[projector] %s: %d facets", metricKey, len(facets))

	return &models.MapFigure{
		Metric: metric.Key,
		Title:  metric.Title,
		Legend: metric.Legend,
		Domain: domain,
		Facets: facets,
	}, nil
}

// available returns a pointer to v, or nil when v is NaN or infinite.
func available(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
