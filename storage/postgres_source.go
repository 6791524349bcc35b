package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"rancher-dashboard/models"
	"rancher-dashboard/utils"
)

// PostgresSource reads raw records from the farmer_estimates table. It never
// writes; the table is maintained outside this service.
type PostgresSource struct {
	db     *sql.DB
	logger *utils.Logger
}

const selectEstimates = `
	SELECT state, year::text, total_population, total_registered,
	       farmers_in_animal_ag_no_feed, farmers_in_animal_ag_feed
	FROM farmer_estimates
	WHERE state <> $1
	ORDER BY year, state
`

// NewPostgresSource opens a connection to PostgreSQL and waits for it to
// answer a ping, retrying with back-off.
func NewPostgresSource(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, Logger: logger}
	err = retry.Do(ctx, "postgres-ping", func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &PostgresSource{db: db, logger: logger}, nil
}

// Load fetches every state row, skipping the national aggregate.
func (ps *PostgresSource) Load(ctx context.Context) ([]models.RawRecord, error) {
	rows, err := ps.db.QueryContext(ctx, selectEstimates, NationalAggregate)
	if err != nil {
		return nil, fmt.Errorf("postgres: query estimates: %w", err)
	}
	defer rows.Close()

	var records []models.RawRecord
	for rows.Next() {
		var r models.RawRecord
		if err := rows.Scan(
			&r.State, &r.Year, &r.TotalPopulation, &r.TotalRegistered,
			&r.FarmersNoFeed, &r.FarmersFeed,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		r.State = strings.TrimSpace(r.State)
		r.Year = normaliseYear(r.Year)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate rows: %w", err)
	}

	ps.logger.Info("[postgres] Loaded %d records from farmer_estimates", len(records))
	return records, nil
}

func (ps *PostgresSource) Close() error {
	return ps.db.Close()
}
