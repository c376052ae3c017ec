// Package config provides environment-based configuration for the coordinator.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the coordinator service.
type Config struct {
	// Database configuration
	DatabaseDSN string

	// Authentication
	JWTSecret string
	JWTExpiry time.Duration

	// MagicLinkExpiry bounds how long a login link stays valid.
	MagicLinkExpiry time.Duration

	// Server configuration
	APIPort int
	APIHost string

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration

	// InternalSecret authenticates internal trigger endpoints (nudge runs,
	// billing provider updates).
	InternalSecret string

	// Entitlements
	FreeTierEventCap int

	// Nudge scheduler
	Nudge NudgeConfig

	// Vault holds age key material for the credential vault.
	Vault VaultConfig
}

// NudgeConfig holds nudge scheduler configuration.
type NudgeConfig struct {
	// PolicyPath points at the YAML policy file. Empty uses built-in defaults.
	PolicyPath string
}

// VaultConfig holds age encryption configuration for stored credentials.
type VaultConfig struct {
	// AgePublicKey is the age public key for encryption.
	// Format: age1... (Bech32 encoded)
	AgePublicKey string
	// AgePrivateKey is the age private key for decryption.
	// Format: AGE-SECRET-KEY-1... (Bech32 encoded)
	AgePrivateKey string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDSN:      getEnv("DATABASE_URL", "postgres://localhost:5432/coordinator?sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTExpiry:        getDurationEnv("JWT_EXPIRY", 24*time.Hour),
		MagicLinkExpiry:  getDurationEnv("MAGIC_LINK_EXPIRY", 15*time.Minute),
		APIPort:          getIntEnv("API_PORT", 8080),
		APIHost:          getEnv("API_HOST", "0.0.0.0"),
		ShutdownTimeout:  getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		InternalSecret:   getEnv("INTERNAL_SECRET", ""),
		FreeTierEventCap: getIntEnv("FREE_TIER_EVENT_CAP", 1),
		Nudge: NudgeConfig{
			PolicyPath: getEnv("NUDGE_POLICY_PATH", ""),
		},
		Vault: VaultConfig{
			AgePublicKey:  getEnv("VAULT_AGE_PUBLIC_KEY", ""),
			AgePrivateKey: getEnv("VAULT_AGE_PRIVATE_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.FreeTierEventCap < 1 {
		return fmt.Errorf("FREE_TIER_EVENT_CAP must be at least 1")
	}
	return nil
}

// LoadWithDefaults loads configuration with defaults for development.
// It does not validate required fields, useful for testing.
func LoadWithDefaults() *Config {
	return &Config{
		DatabaseDSN:      getEnv("DATABASE_URL", "postgres://localhost:5432/coordinator?sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", "development-secret-key-min-32-chars"),
		JWTExpiry:        getDurationEnv("JWT_EXPIRY", 24*time.Hour),
		MagicLinkExpiry:  getDurationEnv("MAGIC_LINK_EXPIRY", 15*time.Minute),
		APIPort:          getIntEnv("API_PORT", 8080),
		APIHost:          getEnv("API_HOST", "0.0.0.0"),
		ShutdownTimeout:  getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		InternalSecret:   getEnv("INTERNAL_SECRET", "development-internal-secret"),
		FreeTierEventCap: getIntEnv("FREE_TIER_EVENT_CAP", 1),
		Nudge: NudgeConfig{
			PolicyPath: getEnv("NUDGE_POLICY_PATH", ""),
		},
		Vault: VaultConfig{
			AgePublicKey:  getEnv("VAULT_AGE_PUBLIC_KEY", ""),
			AgePrivateKey: getEnv("VAULT_AGE_PRIVATE_KEY", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
