package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"rancher-dashboard/models"
	"rancher-dashboard/utils"
)

// StateCodeFetcher loads the state-code lookup CSV from a URL or a local
// file. The CSV must have "code" and "state" columns; others are ignored.
type StateCodeFetcher struct {
	location string
	client   *http.Client
	retry    *utils.RetryConfig
	logger   *utils.Logger
}

// NewStateCodeFetcher creates a fetcher for location. HTTP(S) locations are
// retried up to retries times.
func NewStateCodeFetcher(location string, retries int, timeout time.Duration, logger *utils.Logger) *StateCodeFetcher {
	return &StateCodeFetcher{
		location: location,
		client:   &http.Client{Timeout: timeout},
		retry: &utils.RetryConfig{
			MaxAttempts: retries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
		logger: logger,
	}
}

// Fetch downloads (or opens) and parses the lookup table.
func (f *StateCodeFetcher) Fetch(ctx context.Context) ([]models.StateCode, error) {
	if !isRemote(f.location) {
		file, err := os.Open(f.location)
		if err != nil {
			return nil, fmt.Errorf("state codes: open %q: %w", f.location, err)
		}
		defer file.Close()
		return f.parse(file)
	}

	var codes []models.StateCode
	err := f.retry.Do(ctx, "fetch-state-codes", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.location, nil)
		if err != nil {
			return err
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}

		codes, err = f.parse(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("state codes: %w", err)
	}
	return codes, nil
}

func (f *StateCodeFetcher) parse(r io.Reader) ([]models.StateCode, error) {
	codes, err := parseStateCodes(r)
	if err != nil {
		return nil, err
	}
	f.logger.Info("[lookup] Loaded %d state codes from %s", len(codes), f.location)
	return codes, nil
}

func parseStateCodes(r io.Reader) ([]models.StateCode, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	codeCol, stateCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "code":
			codeCol = i
		case "state":
			stateCol = i
		}
	}
	if codeCol < 0 || stateCol < 0 {
		return nil, fmt.Errorf("lookup header %v lacks code/state columns", header)
	}

	var codes []models.StateCode
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if codeCol >= len(rec) || stateCol >= len(rec) {
			continue
		}
		codes = append(codes, models.StateCode{
			State: strings.TrimSpace(rec[stateCol]),
			Code:  strings.TrimSpace(rec[codeCol]),
		})
	}
	return codes, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
