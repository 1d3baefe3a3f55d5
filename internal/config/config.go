// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variables read by FromEnv.
const (
	EnvBackendURL     = "FORM_FILLER_BACKEND_URL"
	EnvSessionURL     = "FORM_FILLER_SESSION_URL"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvSettleDelay    = "FORM_FILLER_SETTLE_DELAY"
	EnvHighlightColor = "FORM_FILLER_HIGHLIGHT_COLOR"
	EnvLogLevel       = "FORM_FILLER_LOG_LEVEL"
	EnvLogFormat      = "FORM_FILLER_LOG_FORMAT"
	EnvJWTSecret      = "JWT_SECRET"
	EnvBrowserTimeout = "FORM_FILLER_BROWSER_TIMEOUT"
)

// Duration is a time.Duration that decodes from "1500ms"-style strings or
// from a number of milliseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalJSON encodes the duration as a Go duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts "1.5s", "1500ms" or 1500.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := parseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("duration must be a string or a number of milliseconds")
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// parseDuration accepts Go duration syntax or a bare millisecond count.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// Config represents the form filler configuration. It can be loaded from a
// JSON file, from the environment, or both.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	// Candidate sources
	BackendURL     string `json:"backend_url,omitempty" validate:"omitempty,url"`     // Candidates list endpoint
	SessionURL     string `json:"session_url,omitempty" validate:"omitempty,url"`     // Auth session endpoint
	SessionCookie  string `json:"session_cookie,omitempty"`                           // Cookie forwarded to the session endpoint
	CandidatesFile string `json:"candidates_file,omitempty"`                          // Local JSON file of candidates
	DatabaseURL    string `json:"database_url,omitempty" validate:"omitempty,uri"`    // PostgreSQL connection URL

	// Fill behaviour
	SettleDelay    Duration `json:"settle_delay,omitempty"`                                       // Pause after the last field; negative disables
	HighlightColor string   `json:"highlight_color,omitempty" validate:"omitempty,iscolor"`       // Success flash background
	BrowserTimeout Duration `json:"browser_timeout,omitempty" validate:"gte=0"`                   // Per-operation browser timeout
	Headful        bool     `json:"headful,omitempty"`                                            // Show the browser window

	// Logging
	LogLevel  string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `json:"log_format,omitempty" validate:"omitempty,oneof=json console"`
	Verbose   bool   `json:"verbose,omitempty"` // Print boxed summaries

	// Server
	Addr      string `json:"addr,omitempty" validate:"omitempty,hostname_port"` // Listen address for serve
	JWTSecret string `json:"-"`                                                 // Enables bearer auth on the API when set
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Unset variables
// leave their fields empty.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BackendURL:     os.Getenv(EnvBackendURL),
		SessionURL:     os.Getenv(EnvSessionURL),
		DatabaseURL:    os.Getenv(EnvDatabaseURL),
		HighlightColor: os.Getenv(EnvHighlightColor),
		LogLevel:       strings.ToLower(os.Getenv(EnvLogLevel)),
		LogFormat:      strings.ToLower(os.Getenv(EnvLogFormat)),
		JWTSecret:      os.Getenv(EnvJWTSecret),
	}

	if v := os.Getenv(EnvSettleDelay); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSettleDelay, err)
		}
		cfg.SettleDelay = Duration(d)
	}
	if v := os.Getenv(EnvBrowserTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvBrowserTimeout, err)
		}
		cfg.BrowserTimeout = Duration(d)
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' check", jsonName(fe.StructField()), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.CandidatesFile != "" && c.DatabaseURL != "" {
		return fmt.Errorf("config error: 'candidates_file' and 'database_url' are mutually exclusive")
	}

	if c.CandidatesFile != "" {
		if _, err := os.Stat(c.CandidatesFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: candidates file not found: %s", c.CandidatesFile)
		}
	}

	return nil
}

func jsonName(field string) string {
	switch field {
	case "BackendURL":
		return "backend_url"
	case "SessionURL":
		return "session_url"
	case "DatabaseURL":
		return "database_url"
	case "HighlightColor":
		return "highlight_color"
	case "BrowserTimeout":
		return "browser_timeout"
	case "LogLevel":
		return "log_level"
	case "LogFormat":
		return "log_format"
	case "Addr":
		return "addr"
	default:
		return field
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer file values over environment values over built-in defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.BackendURL == "" {
		result.BackendURL = defaults.BackendURL
	}
	if result.SessionURL == "" {
		result.SessionURL = defaults.SessionURL
	}
	if result.SessionCookie == "" {
		result.SessionCookie = defaults.SessionCookie
	}
	if result.CandidatesFile == "" {
		result.CandidatesFile = defaults.CandidatesFile
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.HighlightColor == "" {
		result.HighlightColor = defaults.HighlightColor
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.Addr == "" {
		result.Addr = defaults.Addr
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}

	// Duration fields: use default if zero (a negative settle delay is kept)
	if result.SettleDelay == 0 {
		result.SettleDelay = defaults.SettleDelay
	}
	if result.BrowserTimeout == 0 {
		result.BrowserTimeout = defaults.BrowserTimeout
	}

	// Bool fields: cannot distinguish unset from false, so either side enables
	result.Headful = result.Headful || defaults.Headful
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// Load layers a config file (optional) over the environment.
func Load(path string) (*Config, error) {
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return env, nil
	}

	file, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	merged := file.MergeWithDefaults(*env)
	return &merged, nil
}
