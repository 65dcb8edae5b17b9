// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PostgreSQL (canonical store)
	PostgresURI string

	// MongoDB (run audit store)
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Scraping
	ScrapeInterval time.Duration
	FetchTimeout   time.Duration
	VenueTimezone  string

	// Validation
	EarliestScreeningHour int
	LatestStartHour       int
	FutureHorizonDays     int

	// Anomaly detection
	TopTierDropPct      float64
	StandardTierDropPct float64
	HighCountCeilingPct float64
	HealthCheckBudget   time.Duration

	// AI verifier
	OpenAIAPIKey  string
	CheapModel    string
	StrongModel   string
	MinConfidence float64

	// Vendor API auth
	VendorTokenURL     string
	VendorClientID     string
	VendorClientSecret string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		PostgresURI: getEnv("POSTGRES_DSN", "postgres://localhost:5432/screenwatch"),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "screenwatch"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		ScrapeInterval: time.Duration(getEnvAsInt("SCRAPE_INTERVAL", 3600)) * time.Second,
		FetchTimeout:   time.Duration(getEnvAsInt("FETCH_TIMEOUT", 30)) * time.Second,
		VenueTimezone:  getEnv("VENUE_TIMEZONE", "Europe/London"),

		EarliestScreeningHour: getEnvAsInt("EARLIEST_SCREENING_HOUR", 10),
		LatestStartHour:       getEnvAsInt("LATEST_START_HOUR", 23),
		FutureHorizonDays:     getEnvAsInt("FUTURE_HORIZON_DAYS", 90),

		TopTierDropPct:      getEnvAsFloat("TOP_TIER_DROP_PCT", 30),
		StandardTierDropPct: getEnvAsFloat("STANDARD_TIER_DROP_PCT", 50),
		HighCountCeilingPct: getEnvAsFloat("HIGH_COUNT_CEILING_PCT", 100),
		HealthCheckBudget:   time.Duration(getEnvAsInt("HEALTH_CHECK_BUDGET", 30)) * time.Second,

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		CheapModel:    getEnv("VERIFIER_CHEAP_MODEL", "gpt-4o-mini"),
		StrongModel:   getEnv("VERIFIER_STRONG_MODEL", "gpt-4o"),
		MinConfidence: getEnvAsFloat("VERIFIER_MIN_CONFIDENCE", 0.7),

		VendorTokenURL:     getEnv("VENDOR_TOKEN_URL", ""),
		VendorClientID:     getEnv("VENDOR_CLIENT_ID", ""),
		VendorClientSecret: getEnv("VENDOR_CLIENT_SECRET", ""),
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
