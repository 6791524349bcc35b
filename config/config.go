package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Data sources understood by the loader.
const (
	SourceXLSX     = "xlsx"
	SourcePostgres = "postgres"
)

// DefaultStateCodesURL is the public CSV the state-code lookup is read from.
const DefaultStateCodesURL = "https://raw.githubusercontent.com/plotly/datasets/master/2011_us_ag_exports.csv"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port string `env:"PORT" envDefault:"8050"`

	DataSource    string        `env:"DATA_SOURCE" envDefault:"xlsx"`
	DataPath      string        `env:"DATA_PATH" envDefault:"./data/family_farmer_estimates_state_year_level.xlsx"`
	DataSheet     string        `env:"DATA_SHEET"`
	StateCodesURL string        `env:"STATE_CODES_URL"`
	FetchRetries  int           `env:"FETCH_RETRIES" envDefault:"3"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" envDefault:"20s"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"rancher"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"rancher"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"rancher_db"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8050,http://127.0.0.1:8050"`
	MapCacheTTL    time.Duration `env:"MAP_CACHE_TTL" envDefault:"1h"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`

	ChromeBin           string `env:"CHROME_BIN"`
	SnapshotBaseURL     string `env:"SNAPSHOT_BASE_URL" envDefault:"http://localhost:8050"`
	SnapshotDir         string `env:"SNAPSHOT_DIR" envDefault:"./output/snapshots"`
	SnapshotConcurrency int    `env:"SNAPSHOT_CONCURRENCY" envDefault:"2"`
	RateLimitMs         int    `env:"RATE_LIMIT_MS" envDefault:"500"`
}

// Load reads the .env file and returns a populated Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the loader or the snapshot tool cannot work with.
func (c *Config) Validate() error {
	c.DataSource = strings.ToLower(strings.TrimSpace(c.DataSource))
	switch c.DataSource {
	case SourceXLSX:
		if c.DataPath == "" {
			return fmt.Errorf("config: DATA_PATH is required for the %s source", SourceXLSX)
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("config: unsupported DATA_SOURCE %q", c.DataSource)
	}
	if c.StateCodesURL == "" {
		c.StateCodesURL = DefaultStateCodesURL
	}
	if c.FetchRetries < 1 {
		c.FetchRetries = 1
	}
	if c.SnapshotConcurrency < 1 {
		c.SnapshotConcurrency = 1
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
