package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/campus-booking/internal/booking"
)

// Config captures the service configuration. Values come from defaults, then
// an optional YAML file named by BOOKING_CONFIG, then BOOKING_* environment
// variables, with later sources winning.
type Config struct {
	HTTPPort         int           `yaml:"http_port"`
	SQLiteDSN        string        `yaml:"sqlite_dsn"`
	TokenSecret      string        `yaml:"token_secret"`
	MinAdvanceNotice time.Duration `yaml:"min_advance_notice"`
	MinDuration      time.Duration `yaml:"min_duration"`
	MaxDuration      time.Duration `yaml:"max_duration"`
	Timezone         string        `yaml:"timezone"`
	MonthCacheTTL    time.Duration `yaml:"month_cache_ttl"`
}

// Policy projects the configuration onto the booking policy.
func (c Config) Policy() booking.Policy {
	return booking.Policy{
		MinAdvanceNotice: c.MinAdvanceNotice,
		MinDuration:      c.MinDuration,
		MaxDuration:      c.MaxDuration,
		Timezone:         c.Timezone,
	}
}

// Load assembles the configuration from the file and environment.
//
// The loader applies defaults for optional fields while validating required
// values, accumulating every missing and invalid entry into one error so a
// misconfigured deployment reports all problems at once.
func Load() (Config, error) {
	policy := booking.DefaultPolicy()
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "file:booking.db?_foreign_keys=on",
		MinAdvanceNotice: policy.MinAdvanceNotice,
		MinDuration:      policy.MinDuration,
		MaxDuration:      policy.MaxDuration,
		Timezone:         policy.Timezone,
		MonthCacheTTL:    30 * time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if path := strings.TrimSpace(os.Getenv("BOOKING_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if portValue := strings.TrimSpace(os.Getenv("BOOKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "BOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("BOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("BOOKING_TOKEN_SECRET")); secret != "" {
		cfg.TokenSecret = secret
	}
	if cfg.TokenSecret == "" {
		missing = append(missing, "BOOKING_TOKEN_SECRET")
	}

	for _, field := range []struct {
		env    string
		target *time.Duration
	}{
		{"BOOKING_MIN_ADVANCE_NOTICE", &cfg.MinAdvanceNotice},
		{"BOOKING_MIN_DURATION", &cfg.MinDuration},
		{"BOOKING_MAX_DURATION", &cfg.MaxDuration},
		{"BOOKING_MONTH_CACHE_TTL", &cfg.MonthCacheTTL},
	} {
		value := strings.TrimSpace(os.Getenv(field.env))
		if value == "" {
			continue
		}
		duration, err := time.ParseDuration(value)
		if err != nil || duration <= 0 {
			invalid = append(invalid, field.env)
		} else {
			*field.target = duration
		}
	}

	if zone := strings.TrimSpace(os.Getenv("BOOKING_TIMEZONE")); zone != "" {
		cfg.Timezone = zone
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		invalid = append(invalid, "BOOKING_TIMEZONE")
	}

	if cfg.MinDuration > cfg.MaxDuration {
		invalid = append(invalid, "BOOKING_MIN_DURATION")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
