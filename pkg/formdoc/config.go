package formdoc

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PlaceholderMode controls whether {{ }} and {% %} markers are evaluated by
// the builder or written to the document untouched.
type PlaceholderMode string

const (
	// PlaceholdersEvaluate substitutes fields and evaluates conditionals.
	PlaceholdersEvaluate PlaceholderMode = "evaluate"
	// PlaceholdersPreserve writes markers literally, for documents that are
	// filled in by a later templating pass.
	PlaceholdersPreserve PlaceholderMode = "preserve"
)

// Config contains all configuration options for the formdoc engine
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// Fallback is rendered for fields missing from the field mapping. A
	// template's own fallback takes precedence.
	Fallback string
	// Placeholders selects the placeholder mode.
	Placeholders PlaceholderMode
	// CacheMaxSize is the maximum number of parsed templates to cache. 0 disables caching.
	CacheMaxSize int
	// CacheTTL is the time-to-live for cached templates. 0 means no expiration.
	CacheTTL time.Duration
	// Addr is the listen address of the HTTP server.
	Addr string
	// Form is the built-in form served when a request names none.
	Form string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		Fallback:     "",
		Placeholders: PlaceholdersEvaluate,
		CacheMaxSize: 100,
		CacheTTL:     0,
		Addr:         ":5000",
		Form:         "mediation",
	}
}

// ConfigFromEnvironment creates a configuration from FORMDOC_* environment
// variables. Unparseable values are ignored and keep their default.
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	if val := os.Getenv("FORMDOC_LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(val)
	}

	// FORMDOC_FALLBACK may be set to the empty string on purpose.
	if val, ok := os.LookupEnv("FORMDOC_FALLBACK"); ok {
		config.Fallback = val
	}

	if val := os.Getenv("FORMDOC_PLACEHOLDERS"); val != "" {
		config.Placeholders = PlaceholderMode(strings.ToLower(val))
	}

	if val := os.Getenv("FORMDOC_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	if val := os.Getenv("FORMDOC_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = duration
		}
	}

	if val := os.Getenv("FORMDOC_ADDR"); val != "" {
		config.Addr = val
	}

	if val := os.Getenv("FORMDOC_FORM"); val != "" {
		config.Form = val
	}

	return config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	if _, ok := parseLevel(c.LogLevel); !ok {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	switch c.Placeholders {
	case PlaceholdersEvaluate, PlaceholdersPreserve:
	default:
		return fmt.Errorf("invalid placeholder mode %q (want evaluate or preserve)", c.Placeholders)
	}

	return nil
}
