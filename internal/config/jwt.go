package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// JWTConfig holds configuration for bearer tokens accepted by the API server.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
	Leeway          time.Duration
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required), JWT_EXPIRATION_HOURS (default: 24) and
// JWT_LEEWAY_SECONDS (default: 30).
func NewJWTConfig() (*JWTConfig, error) {
	return NewJWTConfigWithSecret(os.Getenv(EnvJWTSecret))
}

// NewJWTConfigWithSecret is NewJWTConfig with the secret supplied by the caller,
// typically from a merged Config.
func NewJWTConfigWithSecret(secret string) (*JWTConfig, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationHours, err := intEnv("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	leewaySeconds, err := intEnv("JWT_LEEWAY_SECONDS", 30)
	if err != nil {
		return nil, err
	}

	config := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
		Leeway:          time.Duration(leewaySeconds) * time.Second,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	return v, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	if c.Leeway < 0 {
		return fmt.Errorf("JWT_LEEWAY_SECONDS must not be negative, got: %s", c.Leeway)
	}
	return nil
}
