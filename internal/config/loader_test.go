package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearBookingEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOOKING_CONFIG",
		"BOOKING_HTTP_PORT",
		"BOOKING_SQLITE_DSN",
		"BOOKING_TOKEN_SECRET",
		"BOOKING_MIN_ADVANCE_NOTICE",
		"BOOKING_MIN_DURATION",
		"BOOKING_MAX_DURATION",
		"BOOKING_MONTH_CACHE_TTL",
		"BOOKING_TIMEZONE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearBookingEnv(t)
	t.Setenv("BOOKING_TOKEN_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("unexpected port %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:booking.db?_foreign_keys=on" {
		t.Fatalf("unexpected dsn %q", cfg.SQLiteDSN)
	}
	if cfg.MinAdvanceNotice != time.Hour || cfg.MinDuration != 30*time.Minute || cfg.MaxDuration != 8*time.Hour {
		t.Fatalf("unexpected policy durations: %+v", cfg)
	}
	if cfg.Timezone != "America/New_York" {
		t.Fatalf("unexpected timezone %q", cfg.Timezone)
	}
}

func TestLoadRequiresTokenSecret(t *testing.T) {
	clearBookingEnv(t)

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "BOOKING_TOKEN_SECRET") {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearBookingEnv(t)
	t.Setenv("BOOKING_TOKEN_SECRET", "test-secret")
	t.Setenv("BOOKING_HTTP_PORT", "9090")
	t.Setenv("BOOKING_MIN_ADVANCE_NOTICE", "2h")
	t.Setenv("BOOKING_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 9090 || cfg.MinAdvanceNotice != 2*time.Hour || cfg.Timezone != "Europe/Berlin" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearBookingEnv(t)

	path := filepath.Join(t.TempDir(), "booking.yaml")
	content := strings.Join([]string{
		"http_port: 9000",
		"token_secret: file-secret",
		"min_duration: 1h",
		"max_duration: 4h",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("BOOKING_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 9000 || cfg.TokenSecret != "file-secret" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.MinDuration != time.Hour || cfg.MaxDuration != 4*time.Hour {
		t.Fatalf("file durations not applied: %+v", cfg)
	}

	// Environment still wins over the file.
	t.Setenv("BOOKING_HTTP_PORT", "9100")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load with override: %v", err)
	}
	if cfg.HTTPPort != 9100 {
		t.Fatalf("environment did not win: %+v", cfg)
	}
}

func TestLoadAccumulatesInvalidValues(t *testing.T) {
	clearBookingEnv(t)
	t.Setenv("BOOKING_TOKEN_SECRET", "test-secret")
	t.Setenv("BOOKING_HTTP_PORT", "not-a-port")
	t.Setenv("BOOKING_MIN_DURATION", "banana")
	t.Setenv("BOOKING_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"BOOKING_HTTP_PORT", "BOOKING_MIN_DURATION", "BOOKING_TIMEZONE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %s: %v", want, err)
		}
	}
}

func TestLoadRejectsInvertedDurationBounds(t *testing.T) {
	clearBookingEnv(t)
	t.Setenv("BOOKING_TOKEN_SECRET", "test-secret")
	t.Setenv("BOOKING_MIN_DURATION", "4h")
	t.Setenv("BOOKING_MAX_DURATION", "2h")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "BOOKING_MIN_DURATION") {
		t.Fatalf("expected inverted bounds error, got %v", err)
	}
}
