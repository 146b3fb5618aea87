package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type (
	// Config holds the settings used by the bpmspec command line
	Config struct {
		// Engine
		EngineURL    string
		User         string
		Password     string
		Tenant       string
		Timeout      time.Duration
		JobTimeout   time.Duration
		PollInterval time.Duration

		// Trace & Archiving
		RedisAddr     string
		RedisKey      string
		ArchiveBucket string
		ArchivePrefix string
		Styled        bool
		LogLevel      string
	}
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultJobTimeout   = 10 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	DefaultRedisKey     = "bpmspec:trace"
	DefaultArchivePath  = "audit"

	MaxTimeout      = time.Hour
	MaxPollInterval = time.Minute
)

var (
	ErrInvalidEngineURL    = errors.New("invalid engine URL")
	ErrInvalidTimeout      = errors.New("timeout must be positive")
	ErrInvalidJobTimeout   = errors.New("job timeout must be positive")
	ErrInvalidPollInterval = errors.New("poll interval must be positive")
	ErrMissingRedisKey     = errors.New("redis trace key is required")
)

// NewDefaultConfig creates a configuration that runs scenarios against the
// in-memory engine with plain trace output
func NewDefaultConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		JobTimeout:    DefaultJobTimeout,
		PollInterval:  DefaultPollInterval,
		RedisKey:      DefaultRedisKey,
		ArchivePrefix: DefaultArchivePath,
		LogLevel:      "info",
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	loadEnvString("BPMSPEC_ENGINE_URL", &c.EngineURL)
	loadEnvString("BPMSPEC_USER", &c.User)
	loadEnvString("BPMSPEC_PASSWORD", &c.Password)
	loadEnvString("BPMSPEC_TENANT", &c.Tenant)
	loadEnvString("BPMSPEC_REDIS_ADDR", &c.RedisAddr)
	loadEnvString("BPMSPEC_REDIS_KEY", &c.RedisKey)
	loadEnvString("BPMSPEC_ARCHIVE_BUCKET", &c.ArchiveBucket)
	loadEnvString("BPMSPEC_ARCHIVE_PREFIX", &c.ArchivePrefix)
	loadEnvString("LOG_LEVEL", &c.LogLevel)

	if s := os.Getenv("BPMSPEC_STYLED"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid BPMSPEC_STYLED: %q", s)
		}
		c.Styled = b
	}

	if err := loadEnvDuration(
		"BPMSPEC_TIMEOUT", &c.Timeout, MaxTimeout,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"BPMSPEC_JOB_TIMEOUT", &c.JobTimeout, MaxTimeout,
	); err != nil {
		return err
	}
	return loadEnvDuration(
		"BPMSPEC_POLL_INTERVAL", &c.PollInterval, MaxPollInterval,
	)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.EngineURL != "" {
		u, err := url.Parse(c.EngineURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidEngineURL, c.EngineURL)
		}
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JobTimeout <= 0 {
		return ErrInvalidJobTimeout
	}

	if c.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}

	if c.RedisAddr != "" && c.RedisKey == "" {
		return ErrMissingRedisKey
	}

	return nil
}

// InMemory returns true when no remote engine is configured
func (c *Config) InMemory() bool {
	return c.EngineURL == ""
}

func loadEnvString(key string, dst *string) {
	if s := os.Getenv(key); s != "" {
		*dst = s
	}
}

// loadEnvDuration reads key from the environment as a Go duration (or a
// bare number of milliseconds) and sets *dst if the value is in the range
// (0, max]
func loadEnvDuration(key string, dst *time.Duration, max time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		ms, perr := strconv.ParseInt(s, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid %s: %q", key, s)
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d <= 0 || d > max {
		return fmt.Errorf("invalid %s: %s out of range (0, %s]", key, d, max)
	}
	*dst = d
	return nil
}
