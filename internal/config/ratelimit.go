package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by NewRateLimitConfig.
const (
	EnvRateLimitEnabled         = "RATE_LIMIT_ENABLED"
	EnvRateLimitDefaultLimit    = "RATE_LIMIT_DEFAULT_LIMIT"
	EnvRateLimitDefaultWindow   = "RATE_LIMIT_DEFAULT_WINDOW"
	EnvRateLimitCleanupInterval = "RATE_LIMIT_CLEANUP_INTERVAL"
	EnvRateLimitWhitelist       = "RATE_LIMIT_WHITELIST"
	EnvRateLimitBlacklist       = "RATE_LIMIT_BLACKLIST"
)

// RateLimitConfig holds the API rate limiting settings. Per-endpoint limits
// are fixed by the server; these set the fallback and the client lists.
type RateLimitConfig struct {
	Enabled         bool
	DefaultLimit    int           `validate:"gte=1"`
	DefaultWindow   time.Duration `validate:"gt=0"`
	CleanupInterval time.Duration `validate:"gt=0"`
	Whitelist       []string      `validate:"dive,ip"`
	Blacklist       []string      `validate:"dive,ip"`
}

// NewRateLimitConfig reads rate limiting settings from the environment.
// Durations accept Go syntax or a bare millisecond count, like the other
// FORM_FILLER_* durations. Malformed values are errors, not defaults.
func NewRateLimitConfig() (*RateLimitConfig, error) {
	enabled, err := boolEnv(EnvRateLimitEnabled, true)
	if err != nil {
		return nil, err
	}
	limit, err := intEnv(EnvRateLimitDefaultLimit, 1000)
	if err != nil {
		return nil, err
	}
	window, err := durationEnv(EnvRateLimitDefaultWindow, time.Minute)
	if err != nil {
		return nil, err
	}
	cleanup, err := durationEnv(EnvRateLimitCleanupInterval, 5*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &RateLimitConfig{
		Enabled:         enabled,
		DefaultLimit:    limit,
		DefaultWindow:   window,
		CleanupInterval: cleanup,
		Whitelist:       listEnv(EnvRateLimitWhitelist),
		Blacklist:       listEnv(EnvRateLimitBlacklist),
	}
	if !cfg.Enabled {
		return cfg, nil
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("rate limit config error: %w", err)
	}
	return cfg, nil
}

func boolEnv(name string, def bool) (bool, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %v", name, err)
	}
	return v, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	d, err := parseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	return d, nil
}

// listEnv splits a comma-separated variable, dropping blanks.
func listEnv(name string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(name), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
