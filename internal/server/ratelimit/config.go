package ratelimit

import (
	"time"

	"github.com/jonathan/form-filler/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// FromSettings builds the limiter configuration for the fill API. A nil
// or disabled settings value turns limiting off.
func FromSettings(settings *config.RateLimitConfig) *Config {
	if settings == nil || !settings.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    settings.DefaultLimit,
		DefaultWindow:   settings.DefaultWindow,
		CleanupInterval: settings.CleanupInterval,
		Whitelist:       clientSet(settings.Whitelist),
		Blacklist:       clientSet(settings.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Live browser fills are the most expensive
		{Path: "/fill/url", Method: "POST", Limit: 10, Window: time.Minute, Burst: 2},

		// In-memory fills
		{Path: "/fill", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},

		// Candidate listing proxies the backend
		{Path: "/candidates", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},

		// Everything else uses the default limit; /health is unlimited
	}
}

func clientSet(ips []string) map[string]bool {
	set := make(map[string]bool, len(ips))
	for _, ip := range ips {
		set[ip] = true
	}
	return set
}
