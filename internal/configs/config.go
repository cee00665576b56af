package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DBConfig holds the database settings.
type DBConfig struct {
	URL string
}

// RabbitMQConfig holds the message broker settings. The broker is
// optional: without it match events are only logged.
type RabbitMQConfig struct {
	URL     string
	Enabled bool
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// ScraperConfig holds everything the crawling pipeline needs at runtime.
type ScraperConfig struct {
	Sources             []string
	Cities              []string
	MaxPagesPerCity     int
	LiveScraping        bool
	MinDelay            time.Duration
	MaxDelay            time.Duration
	PerSiteConcurrency  int
	FetchRetries        int
	FetchTimeout        time.Duration
	RateLimitBackoff    time.Duration
	DelistThresholdDays int
	ProxyList           []string
	OutputDir           string
	FixturesDir         string
}

// AppConfig is the full application configuration.
type AppConfig struct {
	AppName      string
	HTTPAddr     string
	Database     DBConfig
	RabbitMQ     RabbitMQConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
	Scraper      ScraperConfig
}

// LoadConfig reads configuration from the environment, optionally seeded
// from a .env file.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		// A missing .env is fine when the environment is set externally.
		log.Printf("Info: could not load .env file (path: %v): %v\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "scraper-worker")
	cfg.HTTPAddr = getEnvAsString("HTTP_ADDR", ":8085")

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
	cfg.RabbitMQ.Enabled = cfg.RabbitMQ.URL != ""

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	cfg.Scraper.Sources = getEnvAsSlice("SCRAPER_SOURCES", []string{"funda", "pararius"})
	cfg.Scraper.Cities = getEnvAsSlice("SCRAPER_CITIES", []string{"amsterdam"})
	cfg.Scraper.MaxPagesPerCity = getEnvAsInt("MAX_PAGES_PER_CITY", 1)
	cfg.Scraper.LiveScraping = getEnvAsBool("ENABLE_LIVE_SCRAPING", false)
	cfg.Scraper.MinDelay = getEnvAsSeconds("SCRAPE_MIN_DELAY", 2*time.Second)
	cfg.Scraper.MaxDelay = getEnvAsSeconds("SCRAPE_MAX_DELAY", 5*time.Second)
	cfg.Scraper.PerSiteConcurrency = getEnvAsInt("PER_SITE_CONCURRENCY", 2)
	cfg.Scraper.FetchRetries = getEnvAsInt("FETCH_RETRIES", 3)
	cfg.Scraper.FetchTimeout = getEnvAsSeconds("FETCH_TIMEOUT", 30*time.Second)
	cfg.Scraper.RateLimitBackoff = getEnvAsSeconds("RATE_LIMIT_BACKOFF_BASE", 30*time.Second)
	cfg.Scraper.DelistThresholdDays = getEnvAsInt("DELIST_THRESHOLD_DAYS", 7)
	cfg.Scraper.ProxyList = getEnvAsSlice("PROXY_LIST", nil)
	cfg.Scraper.OutputDir = getEnvAsString("OUTPUT_DIR", "output")
	cfg.Scraper.FixturesDir = getEnvAsString("FIXTURES_DIR", "fixtures")

	if cfg.Scraper.MinDelay > cfg.Scraper.MaxDelay {
		return nil, fmt.Errorf("SCRAPE_MIN_DELAY must not exceed SCRAPE_MAX_DELAY")
	}

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsSeconds reads a duration expressed in (possibly fractional)
// seconds, e.g. "2.5".
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	seconds, err := strconv.ParseFloat(valStr, 64)
	if err != nil || seconds < 0 {
		log.Printf("Warning: environment variable %s (value: %s) could not be parsed as seconds: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return time.Duration(seconds * float64(time.Second))
}

// getEnvAsSlice reads a comma-separated list, dropping empty entries.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
