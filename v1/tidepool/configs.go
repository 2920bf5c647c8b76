package tidepool

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for configuration
const (
	DefaultQueryURL  = "http://localhost:8080"
	DefaultIngestURL = "http://localhost:8081"
	DefaultTimeout   = 30 * time.Second
	DefaultNamespace = "default"
	DefaultTopK      = 10
)

// Environment variables read by NewConfig and LoadConfig.
const (
	EnvQueryURL           = "TIDEPOOL_QUERY_URL"
	EnvIngestURL          = "TIDEPOOL_INGEST_URL"
	EnvTimeoutMs          = "TIDEPOOL_TIMEOUT_MS"
	EnvNamespace          = "TIDEPOOL_NAMESPACE"
	EnvHealthCheckOnStart = "TIDEPOOL_HEALTH_CHECK_ON_START"
)

// Config holds the addresses of the two services and the per-request
// behaviour of the client. It is validated once by NewClient and never
// changes afterwards.
//
// Example (programmatic):
//
//	cfg := tidepool.DefaultConfig()
//	cfg.QueryURL = "http://query.internal:8080"
//	cfg.Timeout = 5 * time.Second
//
// Example (builder style):
//
//	cfg := tidepool.FromURLs("http://query:8080", "http://ingest:8081").
//	    WithNamespace("tenant_a").
//	    WithTimeout(5 * time.Second)
type Config struct {
	// Base URL of the read-only Query service.
	QueryURL string `yaml:"query_url" env:"TIDEPOOL_QUERY_URL"`

	// Base URL of the Ingest service (writes, status, compaction).
	IngestURL string `yaml:"ingest_url" env:"TIDEPOOL_INGEST_URL"`

	// Maximum duration of a single request. In YAML this is a Go duration
	// string such as "5s".
	Timeout time.Duration `yaml:"timeout" env:"TIDEPOOL_TIMEOUT_MS"`

	// Namespace used by operations that are not given one explicitly.
	Namespace string `yaml:"default_namespace" env:"TIDEPOOL_NAMESPACE"`

	// When set, the fx lifecycle checks both services' /health on start.
	HealthCheckOnStart bool `yaml:"health_check_on_start" env:"TIDEPOOL_HEALTH_CHECK_ON_START"`

	// HTTPClient overrides the transport. Its Timeout is ignored; requests
	// are bounded by Timeout above.
	HTTPClient *http.Client `yaml:"-"`

	// Logger is optional; nil disables logging.
	Logger Logger `yaml:"-"`
}

// DefaultConfig returns the configuration used for local development.
func DefaultConfig() *Config {
	return &Config{
		QueryURL:  DefaultQueryURL,
		IngestURL: DefaultIngestURL,
		Timeout:   DefaultTimeout,
		Namespace: DefaultNamespace,
	}
}

// FromURLs returns a default config pointing at the given services.
func FromURLs(queryURL, ingestURL string) *Config {
	cfg := DefaultConfig()
	cfg.QueryURL = queryURL
	cfg.IngestURL = ingestURL
	return cfg
}

// NewConfig returns DefaultConfig overridden by the TIDEPOOL_* environment
// variables.
func NewConfig() (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML file on top of DefaultConfig, then applies the
// environment. Keys missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvQueryURL); v != "" {
		c.QueryURL = v
	}
	if v := os.Getenv(EnvIngestURL); v != "" {
		c.IngestURL = v
	}
	if v := os.Getenv(EnvNamespace); v != "" {
		c.Namespace = v
	}
	if v := os.Getenv(EnvTimeoutMs); v != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return newValidationError("%s must be an integer number of milliseconds (got %q)", EnvTimeoutMs, v)
		}
		c.Timeout = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv(EnvHealthCheckOnStart); v != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return newValidationError("%s must be a boolean (got %q)", EnvHealthCheckOnStart, v)
		}
		c.HealthCheckOnStart = enabled
	}
	return nil
}

func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

func (c *Config) WithNamespace(ns string) *Config {
	c.Namespace = ns
	return c
}

func (c *Config) WithHTTPClient(client *http.Client) *Config {
	c.HTTPClient = client
	return c
}

func (c *Config) WithLogger(logger Logger) *Config {
	c.Logger = logger
	return c
}

func (c *Config) WithHealthCheckOnStart(enabled bool) *Config {
	c.HealthCheckOnStart = enabled
	return c
}

// withDefaults fills zero-valued fields. Whitespace is not zero, so a blank
// override still reaches Validate.
func (c Config) withDefaults() Config {
	if c.QueryURL == "" {
		c.QueryURL = DefaultQueryURL
	}
	if c.IngestURL == "" {
		c.IngestURL = DefaultIngestURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	return c
}

// Validate checks the four connection settings and returns a validation
// *Error describing the first violation.
func (c *Config) Validate() error {
	if err := validateBaseURL(c.QueryURL, "queryUrl"); err != nil {
		return err
	}
	if err := validateBaseURL(c.IngestURL, "ingestUrl"); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return newValidationError("timeout must be a positive duration (got %s)", c.Timeout)
	}
	if _, err := requireNonEmpty(c.Namespace, "defaultNamespace"); err != nil {
		return err
	}
	return nil
}

func validateBaseURL(raw, field string) error {
	trimmed, err := requireNonEmpty(raw, field)
	if err != nil {
		return err
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return newValidationError("%s must be an absolute URL (got %q)", field, raw)
	}
	return nil
}
