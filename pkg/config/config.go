package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSchema   string
	DBTable    string
	DBSSLMode  string

	// HTTP API
	ListenAddress  string
	MetricsAddress string

	// Dumps
	DumpDir string

	// Scan
	PrometheusURL   string
	MetricsDuration time.Duration
	SafetyBuffer    float64 // e.g., 1.5 = 50% buffer on observed peak
	ClusterEnv      string  // environment label stamped on scanned rows

	// Reporting
	OverprovisionedThreshold float64 // percent of request
	CPUCostPerCore           float64 // USD per core per month

	Verbose bool
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "resource_utilization"),
		DBSchema:   getEnv("DB_SCHEMA", "public"),
		DBTable:    getEnv("DB_TABLE", "resource_utilization"),
		DBSSLMode:  sslMode(getEnvBool("DB_SSL", false)),

		ListenAddress:  getEnv("LISTEN_ADDRESS", ":3001"),
		MetricsAddress: getEnv("METRICS_ADDRESS", ":9101"),

		DumpDir: getEnv("DUMP_DIR", "dumps"),

		PrometheusURL:   getEnv("PROMETHEUS_URL", "http://localhost:9090"),
		MetricsDuration: time.Duration(getEnvInt("METRICS_LOOKBACK_DAYS", 7)) * 24 * time.Hour,
		SafetyBuffer:    getEnvFloat("SAFETY_BUFFER", 1.5),
		ClusterEnv:      getEnv("CLUSTER_ENV", "dit"),

		OverprovisionedThreshold: getEnvFloat("OVERPROVISIONED_THRESHOLD", 50),
		CPUCostPerCore:           getEnvFloat("CPU_COST_PER_CORE", 23.0),

		Verbose: getEnvBool("VERBOSE", false),
	}
}

func sslMode(required bool) string {
	if required {
		return "require"
	}
	return "disable"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.DBHost == "" || c.DBName == "" {
		return fmt.Errorf("DB_HOST and DB_NAME must be set")
	}
	if c.DBSchema == "" || c.DBTable == "" {
		return fmt.Errorf("DB_SCHEMA and DB_TABLE must be set")
	}
	if c.OverprovisionedThreshold < 0 || c.OverprovisionedThreshold > 100 {
		return fmt.Errorf("overprovisioned threshold must be between 0 and 100")
	}
	if c.SafetyBuffer < 1.0 {
		return fmt.Errorf("safety buffer must be >= 1.0")
	}
	if c.MetricsDuration < 1*time.Hour {
		return fmt.Errorf("metrics duration must be at least 1 hour")
	}
	return nil
}
