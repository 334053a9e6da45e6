// Package config provides configuration loading and validation for the job portal.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Artifact backends.
const (
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// Defaults applied by LoadServerConfig.
const (
	DefaultPort             = 8080
	DefaultSubmitRateLimit  = 10
	DefaultSubmitRateWindow = time.Hour
	DefaultCleanupTimeout   = 10 * time.Second
	DefaultMemoryBaseURL    = "http://localhost:8080/files"
)

// Duration is a time.Duration that reads as a Go duration string in JSON ("90s", "1h").
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// ServerConfig configures the HTTP server and the pipeline behind it.
// Values come from an optional JSON file, then environment variables override them.
type ServerConfig struct {
	Port        int    `json:"port,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Resume storage
	ArtifactBackend    string `json:"artifact_backend,omitempty"`     // gcs or memory
	GCSBucket          string `json:"gcs_bucket,omitempty"`           // Bucket holding resume/ objects
	GCSPublicBaseURL   string `json:"gcs_public_base_url,omitempty"`  // Prefix for resume URLs
	GCSCredentialsFile string `json:"gcs_credentials_file,omitempty"` // Service account JSON; ADC when empty
	GCSEndpoint        string `json:"gcs_endpoint,omitempty"`         // Emulator endpoint
	MemoryBaseURL      string `json:"memory_base_url,omitempty"`      // URL prefix for the memory backend

	// Intake
	VerifyPDF bool `json:"verify_pdf,omitempty"`

	// Submit limiter. RedisURL switches it from in-process to shared.
	RedisURL         string   `json:"redis_url,omitempty"`
	SubmitRateLimit  int      `json:"submit_rate_limit,omitempty"`
	SubmitRateWindow Duration `json:"submit_rate_window,omitempty"`

	CleanupTimeout Duration `json:"artifact_cleanup_timeout,omitempty"`
}

// LoadServerConfig reads the JSON file at path (skipped when path is empty),
// overlays environment variables, fills defaults and validates the result.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if path != "" {
		if err := readJSON(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readJSON(path string, cfg *ServerConfig) error {
	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *ServerConfig) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"DATABASE_URL":         &c.DatabaseURL,
		"ARTIFACT_BACKEND":     &c.ArtifactBackend,
		"GCS_BUCKET":           &c.GCSBucket,
		"GCS_PUBLIC_BASE_URL":  &c.GCSPublicBaseURL,
		"GCS_CREDENTIALS_FILE": &c.GCSCredentialsFile,
		"GCS_ENDPOINT":         &c.GCSEndpoint,
		"MEMORY_BASE_URL":      &c.MemoryBaseURL,
		"REDIS_URL":            &c.RedisURL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %v", err)
		}
		c.Port = port
	}
	if v, ok := lookup("RESUME_VERIFY_PDF"); ok && v != "" {
		verify, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RESUME_VERIFY_PDF: %v", err)
		}
		c.VerifyPDF = verify
	}
	if v, ok := lookup("SUBMIT_RATE_LIMIT"); ok && v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SUBMIT_RATE_LIMIT: %v", err)
		}
		c.SubmitRateLimit = limit
	}

	durations := map[string]*Duration{
		"SUBMIT_RATE_WINDOW":       &c.SubmitRateWindow,
		"ARTIFACT_CLEANUP_TIMEOUT": &c.CleanupTimeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", key, err)
		}
		*dst = Duration(d)
	}
	return nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ArtifactBackend == "" {
		c.ArtifactBackend = BackendGCS
	}
	c.ArtifactBackend = strings.ToLower(c.ArtifactBackend)
	if c.MemoryBaseURL == "" {
		c.MemoryBaseURL = DefaultMemoryBaseURL
	}
	if c.SubmitRateLimit == 0 {
		c.SubmitRateLimit = DefaultSubmitRateLimit
	}
	if c.SubmitRateWindow == 0 {
		c.SubmitRateWindow = Duration(DefaultSubmitRateWindow)
	}
	if c.CleanupTimeout == 0 {
		c.CleanupTimeout = Duration(DefaultCleanupTimeout)
	}
}

// Validate checks that the configuration has valid values.
func (c *ServerConfig) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: port must be between 1 and 65535, got %d", c.Port)
	}
	switch c.ArtifactBackend {
	case BackendGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("config error: GCS_BUCKET is required for the gcs artifact backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config error: unknown artifact backend %q (want gcs or memory)", c.ArtifactBackend)
	}
	if c.SubmitRateLimit < 0 {
		return fmt.Errorf("config error: submit rate limit must be non-negative")
	}
	if c.SubmitRateWindow < 0 {
		return fmt.Errorf("config error: submit rate window must be positive")
	}
	if c.CleanupTimeout < 0 {
		return fmt.Errorf("config error: artifact cleanup timeout must be positive")
	}
	return nil
}
