package storage

import (
	"context"

	"rancher-dashboard/models"
)

// RecordSource is the interface any raw-record backend must satisfy.
type RecordSource interface {
	Load(ctx context.Context) ([]models.RawRecord, error)
	Close() error
}

// StateCodeSource supplies the state name → code lookup table.
type StateCodeSource interface {
	Fetch(ctx context.Context) ([]models.StateCode, error)
}
