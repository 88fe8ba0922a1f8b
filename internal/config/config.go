// Package config reads the crawler settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"mercedeshelper/internal/scraper"
)

// Configuration validation errors.
var (
	ErrInvalidPort          = errors.New("PORT must be a number between 1 and 65535")
	ErrInvalidDuration      = errors.New("duration must be a non-negative Go duration such as 30s")
	ErrInvalidMaxImages     = errors.New("MAX_IMAGES must be at least 1")
	ErrInvalidRate          = errors.New("CRAWL_RATE_PER_MINUTE must be at least 1")
	ErrInvalidLogLevel      = errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	ErrInvalidAllowedHost   = errors.New("ALLOWED_HOST must be a bare host name")
	ErrInvalidUploadsPrefix = errors.New("UPLOADS_URL_PREFIX must be a path below /")
)

// Config holds every runtime setting of the server and CLI
type Config struct {
	Port               string
	DatabasePath       string
	UploadsDir         string
	UploadsURLPrefix   string
	NavigationTimeout  time.Duration
	SettlePeriod       time.Duration
	ImageTimeout       time.Duration
	MaxImages          int
	UserAgent          string
	AllowedHost        string
	SelectorsFile      string
	BrowserBin         string
	LogLevel           log.Level
	CrawlRatePerMinute int
}

// Default returns the configuration used when no variables are set
func Default() *Config {
	return &Config{
		Port:               "3000",
		DatabasePath:       "data/vehicles.db",
		UploadsDir:         "uploads",
		UploadsURLPrefix:   "/uploads",
		NavigationTimeout:  30 * time.Second,
		SettlePeriod:       3 * time.Second,
		ImageTimeout:       10 * time.Second,
		MaxImages:          10,
		AllowedHost:        "gebrauchtwagen.mercedes-benz.de",
		LogLevel:           log.InfoLevel,
		CrawlRatePerMinute: 10,
	}
}

// Load reads an optional .env file and then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment on top of Default
func FromEnv() (*Config, error) {
	cfg := Default()

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.UploadsDir = getEnv("UPLOADS_DIR", cfg.UploadsDir)
	cfg.UploadsURLPrefix = getEnv("UPLOADS_URL_PREFIX", cfg.UploadsURLPrefix)
	cfg.UserAgent = os.Getenv("USER_AGENT")
	cfg.AllowedHost = strings.ToLower(getEnv("ALLOWED_HOST", cfg.AllowedHost))
	cfg.SelectorsFile = os.Getenv("SELECTORS_FILE")
	cfg.BrowserBin = os.Getenv("BROWSER_BIN")

	var err error
	if cfg.NavigationTimeout, err = getDuration("NAVIGATION_TIMEOUT", cfg.NavigationTimeout); err != nil {
		return nil, err
	}
	if cfg.SettlePeriod, err = getDuration("SETTLE_PERIOD", cfg.SettlePeriod); err != nil {
		return nil, err
	}
	if cfg.ImageTimeout, err = getDuration("IMAGE_TIMEOUT", cfg.ImageTimeout); err != nil {
		return nil, err
	}

	if cfg.MaxImages, err = getInt("MAX_IMAGES", cfg.MaxImages); err != nil || cfg.MaxImages < 1 {
		return nil, ErrInvalidMaxImages
	}
	if cfg.CrawlRatePerMinute, err = getInt("CRAWL_RATE_PER_MINUTE", cfg.CrawlRatePerMinute); err != nil || cfg.CrawlRatePerMinute < 1 {
		return nil, ErrInvalidRate
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := log.ParseLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLogLevel, raw)
		}
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be checked while parsing
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidPort, c.Port)
	}
	if c.AllowedHost == "" || strings.ContainsAny(c.AllowedHost, "/:@ ") {
		return fmt.Errorf("%w: %q", ErrInvalidAllowedHost, c.AllowedHost)
	}
	if !strings.HasPrefix(c.UploadsURLPrefix, "/") || strings.Trim(c.UploadsURLPrefix, "/") == "" {
		return fmt.Errorf("%w: %q", ErrInvalidUploadsPrefix, c.UploadsURLPrefix)
	}
	return nil
}

// NewLogger creates the structured logger used by every component
func (c *Config) NewLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           c.LogLevel,
	})
	return logger
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: %w", key, ErrInvalidDuration)
	}
	return d, nil
}

// CrawlerSettings maps the configuration onto the crawler's settings
func (c *Config) CrawlerSettings() scraper.Settings {
	return scraper.Settings{
		SelectorsFile:     c.SelectorsFile,
		BrowserBin:        c.BrowserBin,
		UserAgent:         c.UserAgent,
		NavigationTimeout: c.NavigationTimeout,
		SettlePeriod:      c.SettlePeriod,
		UploadsDir:        c.UploadsDir,
		UploadsURLPrefix:  c.UploadsURLPrefix,
		MaxImages:         c.MaxImages,
		ImageTimeout:      c.ImageTimeout,
	}
}
