package services

import "errors"

var (
	// ErrUnknownMetric is returned when a metric key is not in the registry.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrUnknownYear is returned when a year is not present in the dataset.
	ErrUnknownYear = errors.New("unknown year")
)
