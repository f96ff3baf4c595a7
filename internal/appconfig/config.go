// Package appconfig loads the oracle client's runtime configuration from
// the environment (optionally via a .env file) and builds the process-wide
// zerolog logger. Neither concern has a counterpart in the teacher, which
// ships no configuration or logging package of its own; both are grounded
// in the env-file + zerolog convention shared by the rest of the retrieved
// example pack.
package appconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds everything the oracle client and the driver loop need to
// talk to a running oracle server and identify themselves to it.
type Config struct {
	// BaseURL is the oracle server's address, e.g. "http://localhost:5000".
	BaseURL string
	// TeamID is sent as the "id" field on every request.
	TeamID string
	// ProblemName is passed to /select at the start of each attempt.
	ProblemName string
	// RequestTimeout bounds every individual HTTP call.
	RequestTimeout time.Duration
	// LogLevel sets the level of the logger NewLogger builds ("debug", "info", "warn", "error").
	LogLevel string
}

const (
	envBaseURL        = "ROOMMAPPER_BASE_URL"
	envTeamID         = "ROOMMAPPER_TEAM_ID"
	envProblemName    = "ROOMMAPPER_PROBLEM_NAME"
	envRequestTimeout = "ROOMMAPPER_REQUEST_TIMEOUT_SECONDS"
	envLogLevel       = "ROOMMAPPER_LOG_LEVEL"

	defaultBaseURL        = "http://localhost:5000"
	defaultProblemName    = "probatio"
	defaultRequestTimeout = 30 * time.Second
	defaultLogLevel       = "info"
)

// Load reads configuration from the environment, first loading envFile
// (if non-empty and present) into the process environment via godotenv.
// A missing envFile is not an error — only os.Getenv values are required,
// and every field has a sane default.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("appconfig: loading %s: %w", envFile, err)
		}
	}

	cfg := Config{
		BaseURL:        getenvDefault(envBaseURL, defaultBaseURL),
		TeamID:         os.Getenv(envTeamID),
		ProblemName:    getenvDefault(envProblemName, defaultProblemName),
		RequestTimeout: defaultRequestTimeout,
		LogLevel:       getenvDefault(envLogLevel, defaultLogLevel),
	}

	if raw := os.Getenv(envRequestTimeout); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("appconfig: parsing %s=%q: %w", envRequestTimeout, raw, err)
		}
		cfg.RequestTimeout = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewLogger builds the process-wide zerolog logger at the configured
// level, writing human-readable output to stderr.
func (c Config) NewLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
