package config

import (
	"os"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	// Clear any existing env vars
	os.Unsetenv("DB_HOST")
	os.Unsetenv("DB_SCHEMA")
	os.Unsetenv("DB_TABLE")
	os.Unsetenv("OVERPROVISIONED_THRESHOLD")
	os.Unsetenv("SAFETY_BUFFER")
	os.Unsetenv("PROMETHEUS_URL")

	cfg := NewConfig()

	// Verify defaults
	if cfg.DBHost != "localhost" {
		t.Errorf("Expected default DB host localhost, got %s", cfg.DBHost)
	}

	if cfg.DBSchema != "public" || cfg.DBTable != "resource_utilization" {
		t.Errorf("Expected default schema/table, got %s.%s", cfg.DBSchema, cfg.DBTable)
	}

	if cfg.DBSSLMode != "disable" {
		t.Errorf("Expected sslmode disable by default, got %s", cfg.DBSSLMode)
	}

	if cfg.OverprovisionedThreshold != 50 {
		t.Errorf("Expected default threshold 50, got %.1f", cfg.OverprovisionedThreshold)
	}

	if cfg.SafetyBuffer != 1.5 {
		t.Errorf("Expected safety buffer 1.5, got %.1f", cfg.SafetyBuffer)
	}

	if cfg.MetricsDuration != 7*24*time.Hour {
		t.Errorf("Expected duration 168h, got %v", cfg.MetricsDuration)
	}

	if cfg.PrometheusURL != "http://localhost:9090" {
		t.Errorf("Expected default Prometheus URL, got %s", cfg.PrometheusURL)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	// Set environment variables
	os.Setenv("DB_HOST", "db.internal")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_SCHEMA", "krs")
	os.Setenv("DB_TABLE", "nonprod_all_data_all_v1")
	os.Setenv("DB_SSL", "true")
	os.Setenv("OVERPROVISIONED_THRESHOLD", "60")
	defer os.Unsetenv("DB_HOST")
	defer os.Unsetenv("DB_PORT")
	defer os.Unsetenv("DB_SCHEMA")
	defer os.Unsetenv("DB_TABLE")
	defer os.Unsetenv("DB_SSL")
	defer os.Unsetenv("OVERPROVISIONED_THRESHOLD")

	cfg := NewConfig()

	if cfg.DBHost != "db.internal" {
		t.Errorf("Expected DB host from env, got %s", cfg.DBHost)
	}

	if cfg.DBPort != 5433 {
		t.Errorf("Expected DB port 5433 from env, got %d", cfg.DBPort)
	}

	if cfg.DBSchema != "krs" || cfg.DBTable != "nonprod_all_data_all_v1" {
		t.Errorf("Expected schema/table from env, got %s.%s", cfg.DBSchema, cfg.DBTable)
	}

	if cfg.DBSSLMode != "require" {
		t.Errorf("Expected sslmode require, got %s", cfg.DBSSLMode)
	}

	if cfg.OverprovisionedThreshold != 60 {
		t.Errorf("Expected threshold 60 from env, got %.1f", cfg.OverprovisionedThreshold)
	}
}

func TestValidate(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}

	cfg.OverprovisionedThreshold = 150
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for threshold above 100")
	}

	cfg = NewConfig()
	cfg.SafetyBuffer = 0.5
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for safety buffer below 1.0")
	}

	cfg = NewConfig()
	cfg.DBTable = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for empty table name")
	}
}
