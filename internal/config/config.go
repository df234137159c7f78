package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"shotbuzz/internal/adapters/storage"
)

// EnvProduction is the SHOTBUZZ_ENV value that enables production checks.
const EnvProduction = "production"

// Config is the server configuration, read from SHOTBUZZ_* environment variables.
type Config struct {
	Addr          string        `env:"SHOTBUZZ_ADDR" envDefault:":8080"`
	Env           string        `env:"SHOTBUZZ_ENV" envDefault:"development"`
	DBDriver      string        `env:"SHOTBUZZ_DB_DRIVER" envDefault:"sqlite"`
	DBDSN         string        `env:"SHOTBUZZ_DB_DSN" envDefault:"shotbuzz.db"`
	ProjectsFile  string        `env:"SHOTBUZZ_PROJECTS_FILE"`
	LoadWait      time.Duration `env:"SHOTBUZZ_LOAD_WAIT" envDefault:"2s"`
	FetchTimeout  time.Duration `env:"SHOTBUZZ_FETCH_TIMEOUT" envDefault:"30s"`
	WorkspaceTTL  time.Duration `env:"SHOTBUZZ_WORKSPACE_TTL" envDefault:"24h"`
	WorkspaceMax  int           `env:"SHOTBUZZ_WORKSPACE_MAX" envDefault:"10000"`
	SlowQueryMs   int           `env:"SHOTBUZZ_SLOW_QUERY_MS" envDefault:"50"`
	SlowRequestMs int           `env:"SHOTBUZZ_SLOW_REQUEST_MS" envDefault:"200"`
	CSRFKey       string        `env:"SHOTBUZZ_CSRF_KEY"` // 64 hex characters
	RateLimit     int           `env:"SHOTBUZZ_RATE_LIMIT" envDefault:"100"`
	Seed          bool          `env:"SHOTBUZZ_SEED" envDefault:"false"`
}

// Load parses the environment and validates the result.
// PRE: none
// POST: Returns a validated Config or an error naming the first problem
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field rules.
// INVARIANT: durations and thresholds are non-negative; production requires a CSRF key
func (c Config) Validate() error {
	switch c.DBDriver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("SHOTBUZZ_DB_DRIVER must be %q or %q, got %q", storage.DriverSQLite, storage.DriverPostgres, c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("SHOTBUZZ_DB_DSN is required")
	}
	if c.LoadWait < 0 || c.FetchTimeout < 0 || c.WorkspaceTTL < 0 {
		return errors.New("durations must not be negative")
	}
	if c.SlowQueryMs < 0 || c.SlowRequestMs < 0 {
		return errors.New("slow thresholds must not be negative")
	}
	if c.WorkspaceMax <= 0 {
		return errors.New("SHOTBUZZ_WORKSPACE_MAX must be positive")
	}
	if c.RateLimit <= 0 {
		return errors.New("SHOTBUZZ_RATE_LIMIT must be positive")
	}
	if c.CSRFKey != "" {
		if _, err := decodeKey(c.CSRFKey); err != nil {
			return err
		}
	} else if c.IsProduction() {
		return errors.New("SHOTBUZZ_CSRF_KEY is required in production")
	}
	if c.Seed && c.DBDriver != storage.DriverSQLite {
		return errors.New("SHOTBUZZ_SEED only works with the sqlite driver")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// CSRFKeyBytes returns the configured 32-byte key, or a random one when unset.
// A random key invalidates tokens on restart, which is fine for development.
func (c Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey != "" {
		return decodeKey(c.CSRFKey)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	return key, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil || len(key) != 32 {
		return nil, errors.New("SHOTBUZZ_CSRF_KEY must be 64 hex characters")
	}
	return key, nil
}

// SlowQuery returns the slow-query threshold as a duration.
func (c Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMs) * time.Millisecond
}

// SlowRequest returns the slow-request threshold as a duration.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMs) * time.Millisecond
}
