// Package config loads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"

	applog "github.com/janisto/linkglyph/internal/platform/logging"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreSQLite    = "sqlite"
	StoreMemory    = "memory"
)

// DevelopmentProjectID is used when FIREBASE_PROJECT_ID is unset in development.
const DevelopmentProjectID = "demo-test-project"

// Config holds server and admin CLI settings.
type Config struct {
	Port              string        `env:"PORT"                envDefault:"8080"`
	Environment       string        `env:"APP_ENVIRONMENT"     envDefault:"production"`
	StoreDriver       string        `env:"STORE_DRIVER"        envDefault:"firestore"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	FirebaseProjectID string        `env:"FIREBASE_PROJECT_ID"`
	AuthEnabled       bool          `env:"AUTH_ENABLED"        envDefault:"true"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB"            envDefault:"0"`
	CacheTTL          time.Duration `env:"CACHE_TTL"           envDefault:"5m"`
	BodyLimit         int64         `env:"BODY_LIMIT"          envDefault:"1048576"`
	OpenAPISpecPath   string        `env:"OPENAPI_SPEC_PATH"   envDefault:"api-docs/openapi.json"`
	LogLevel          string        `env:"LOG_LEVEL"           envDefault:"info"`
	CORSOrigins       []string      `env:"CORS_ORIGINS"        envDefault:"*"          envSeparator:","`
}

// Load parses the environment into a Config and checks it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDevelopment reports whether APP_ENVIRONMENT is "development".
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// UsesFirebase reports whether a Firebase app is needed, either for the
// Firestore store or for bearer-token verification.
func (c Config) UsesFirebase() bool {
	return c.StoreDriver == StoreFirestore || (c.AuthEnabled && c.FirebaseProjectID != "")
}

// ProjectID returns the Firebase project, falling back to the demo project in
// development.
func (c Config) ProjectID() (string, error) {
	if c.FirebaseProjectID != "" {
		return c.FirebaseProjectID, nil
	}
	if c.IsDevelopment() {
		return DevelopmentProjectID, nil
	}
	return "", errors.New("FIREBASE_PROJECT_ID environment variable is required")
}

// Level returns the parsed LOG_LEVEL. Load has already rejected bad values.
func (c Config) Level() slog.Level {
	level, err := applog.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c Config) validate() error {
	drivers := []string{StoreFirestore, StorePostgres, StoreSQLite, StoreMemory}
	if !slices.Contains(drivers, c.StoreDriver) {
		return fmt.Errorf("STORE_DRIVER %q must be one of %v", c.StoreDriver, drivers)
	}
	if (c.StoreDriver == StorePostgres || c.StoreDriver == StoreSQLite) && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for STORE_DRIVER %s", c.StoreDriver)
	}
	if c.BodyLimit <= 0 {
		return errors.New("BODY_LIMIT must be positive")
	}
	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.CacheTTL < 0 {
		return errors.New("CACHE_TTL must not be negative")
	}
	return nil
}
