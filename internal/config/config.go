package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the importer service
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Logging
	LogLevel string

	// CORS
	AllowedOrigins []string

	// Webservice client timeouts. Listings can take minutes on large shops;
	// detail and auxiliary calls are expected to answer quickly.
	ListTimeout   time.Duration
	DetailTimeout time.Duration
	AuxTimeout    time.Duration

	// Webservice retry policy for detail and auxiliary calls
	RetryAttempts    int
	RetryBackoffStep time.Duration

	// Rate limiting towards the shop
	RequestsPerSecond float64

	// Batch abort threshold
	AbortMinErrors  int
	AbortErrorRatio float64

	// Batch pacing
	ItemDelay  time.Duration
	GroupDelay time.Duration
	ImageDelay time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	// Build DATABASE_URL from components when not given directly
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "prestashop_importer")
		dbSSLMode := getEnv("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbUser, dbPassword, dbHost, dbPort, dbName, dbSSLMode)
	}

	config := &Config{
		Port:        getEnv("PORT", "8099"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:3001",
		}),

		// Webservice client
		ListTimeout:       getEnvAsDuration("PS_LIST_TIMEOUT", 300*time.Second),
		DetailTimeout:     getEnvAsDuration("PS_DETAIL_TIMEOUT", 60*time.Second),
		AuxTimeout:        getEnvAsDuration("PS_AUX_TIMEOUT", 30*time.Second),
		RetryAttempts:     getEnvAsInt("PS_RETRY_ATTEMPTS", 3),
		RetryBackoffStep:  getEnvAsDuration("PS_RETRY_BACKOFF_STEP", 2*time.Second),
		RequestsPerSecond: getEnvAsFloat("PS_REQUESTS_PER_SECOND", 5),

		// Import engine
		AbortMinErrors:  getEnvAsInt("IMPORT_ABORT_MIN_ERRORS", 10),
		AbortErrorRatio: getEnvAsFloat("IMPORT_ABORT_ERROR_RATIO", 0.3),
		ItemDelay:       getEnvAsDuration("IMPORT_ITEM_DELAY", 100*time.Millisecond),
		GroupDelay:      getEnvAsDuration("IMPORT_GROUP_DELAY", 300*time.Millisecond),
		ImageDelay:      getEnvAsDuration("IMPORT_IMAGE_DELAY", 500*time.Millisecond),
	}

	// Validate required fields
	if config.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getEnvAsSlice gets a comma-separated environment variable as a slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
