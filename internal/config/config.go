// Package config loads and validates application configuration from
// environment variables, following the teacher's accumulate-errors-then-
// validate-once pattern.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the full set of options a CLI invocation or MCP tool call
// may be parametrized by (spec §6 "Configuration"), plus the connection
// settings needed to reach the remote data service.
type Config struct {
	// Remote connection settings.
	Endpoint           string
	AccountID          string
	JWTSigningKeyPath  string // path to a file holding the base64-encoded Ed25519 private key; alternative to JWTSigningKey
	JWTSigningKey      string // inline base64-encoded Ed25519 private key
	RequestTimeout     time.Duration
	RateLimitPerSecond float64

	// Query scope (spec §6 options table).
	Scorecard    string
	Score        string
	Days         int
	Hours        *int // takes precedence over Days when set
	StartDate    string
	EndDate      string
	InitialValue string
	FinalValue   string

	// Output shaping.
	Limit                  int
	LimitPerCell           int
	FeedbackID             string
	PrioritizeEditComments bool
	GroupBy                string
	Mode                   string
	Breakdown              string
	Concurrency            int
	ColumnMappings         map[string]string

	// Operational settings.
	LogLevel     string
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string
}

// Load reads configuration from environment variables with sensible
// defaults. Returns an error if any environment variable contains an
// unparseable value, or if Validate fails.
func Load() (Config, error) {
	var errs []error
	cfg := Config{
		Endpoint:          envStr("HYOUKA_ENDPOINT", ""),
		AccountID:         envStr("HYOUKA_ACCOUNT_ID", ""),
		JWTSigningKeyPath: envStr("HYOUKA_JWT_SIGNING_KEY_PATH", ""),
		JWTSigningKey:     envStr("HYOUKA_JWT_SIGNING_KEY", ""),

		Scorecard:    envStr("HYOUKA_SCORECARD", ""),
		Score:        envStr("HYOUKA_SCORE", ""),
		StartDate:    envStr("HYOUKA_START_DATE", ""),
		EndDate:      envStr("HYOUKA_END_DATE", ""),
		InitialValue: envStr("HYOUKA_INITIAL_VALUE", ""),
		FinalValue:   envStr("HYOUKA_FINAL_VALUE", ""),

		FeedbackID: envStr("HYOUKA_FEEDBACK_ID", ""),
		GroupBy:    envStr("HYOUKA_GROUP_BY", ""),
		Mode:       envStr("HYOUKA_MODE", ""),
		Breakdown:  envStr("HYOUKA_BREAKDOWN", ""),

		LogLevel:     envStr("HYOUKA_LOG_LEVEL", "info"),
		OTELEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  envStr("OTEL_SERVICE_NAME", "hyouka"),
	}

	cfg.ColumnMappings = envStrMap("HYOUKA_COLUMN_MAPPINGS", nil)

	cfg.Days, errs = collectInt(errs, "HYOUKA_DAYS", 7)
	cfg.Limit, errs = collectInt(errs, "HYOUKA_LIMIT", 0)
	cfg.LimitPerCell, errs = collectInt(errs, "HYOUKA_LIMIT_PER_CELL", 0)
	cfg.Concurrency, errs = collectInt(errs, "HYOUKA_CONCURRENCY", 4)

	cfg.Hours, errs = collectIntPtr(errs, "HYOUKA_HOURS")

	cfg.PrioritizeEditComments, errs = collectBool(errs, "HYOUKA_PRIORITIZE_EDIT_COMMENTS", true)
	cfg.OTELInsecure, errs = collectBool(errs, "OTEL_EXPORTER_OTLP_INSECURE", false)

	cfg.RequestTimeout, errs = collectDuration(errs, "HYOUKA_REQUEST_TIMEOUT", 30*time.Second)

	var rate int
	rate, errs = collectInt(errs, "HYOUKA_RATE_LIMIT_PER_SECOND", 10)
	cfg.RateLimitPerSecond = float64(rate)

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return Config{}, fmt.Errorf("config: invalid environment variables:\n  %s", strings.Join(msgs, "\n  "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// collectInt parses an int env var, appending any error to the accumulator.
func collectInt(errs []error, key string, fallback int) (int, []error) {
	v, err := envInt(key, fallback)
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

// collectIntPtr parses an optional int env var; nil when unset.
func collectIntPtr(errs []error, key string) (*int, []error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, append(errs, fmt.Errorf("%s=%q is not a valid integer", key, v))
	}
	return &n, errs
}

// collectBool parses a bool env var, appending any error to the accumulator.
func collectBool(errs []error, key string, fallback bool) (bool, []error) {
	v, err := envBool(key, fallback)
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

// collectDuration parses a duration env var, appending any error to the
// accumulator.
func collectDuration(errs []error, key string, fallback time.Duration) (time.Duration, []error) {
	v, err := envDuration(key, fallback)
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

// Validate checks that required configuration is present and sane.
func (c Config) Validate() error {
	var errs []error

	if c.AccountID == "" {
		errs = append(errs, errors.New("config: HYOUKA_ACCOUNT_ID is required"))
	}
	if c.Concurrency < 1 || c.Concurrency > 16 {
		errs = append(errs, errors.New("config: HYOUKA_CONCURRENCY must be between 1 and 16"))
	}
	if c.Days < 0 {
		errs = append(errs, errors.New("config: HYOUKA_DAYS must not be negative"))
	}
	if c.Hours != nil && *c.Hours < 1 {
		errs = append(errs, errors.New("config: HYOUKA_HOURS must be positive when set"))
	}
	if c.Limit < 0 {
		errs = append(errs, errors.New("config: HYOUKA_LIMIT must not be negative"))
	}
	if c.LimitPerCell < 0 {
		errs = append(errs, errors.New("config: HYOUKA_LIMIT_PER_CELL must not be negative"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("config: HYOUKA_REQUEST_TIMEOUT must be positive"))
	}
	if c.RateLimitPerSecond <= 0 {
		errs = append(errs, errors.New("config: HYOUKA_RATE_LIMIT_PER_SECOND must be positive"))
	}

	return errors.Join(errs...)
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}

// envStrMap reads a comma-separated "key=value" list into a map, e.g.
// "Greeting=opening_line,Closing=closing_line" (spec §6 "column_mappings").
// Returns fallback if the env var is empty or unset.
func envStrMap(key string, fallback map[string]string) map[string]string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	out := map[string]string{}
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(val)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
