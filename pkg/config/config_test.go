package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-perfectly-valid-32-char-secret!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 24h", cfg.JWTExpiry)
	}
	if cfg.MagicLinkExpiry != 15*time.Minute {
		t.Errorf("MagicLinkExpiry = %v, want 15m", cfg.MagicLinkExpiry)
	}
	if cfg.FreeTierEventCap != 1 {
		t.Errorf("FreeTierEventCap = %d, want 1", cfg.FreeTierEventCap)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-perfectly-valid-32-char-secret!")
	t.Setenv("DATABASE_URL", "postgres://db:5432/coord")
	t.Setenv("API_PORT", "9090")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("FREE_TIER_EVENT_CAP", "3")
	t.Setenv("NUDGE_POLICY_PATH", "/etc/coordinator/nudge.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseDSN != "postgres://db:5432/coord" {
		t.Errorf("DatabaseDSN = %s", cfg.DatabaseDSN)
	}
	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("JWTExpiry = %v, want 2h", cfg.JWTExpiry)
	}
	if cfg.FreeTierEventCap != 3 {
		t.Errorf("FreeTierEventCap = %d, want 3", cfg.FreeTierEventCap)
	}
	if cfg.Nudge.PolicyPath != "/etc/coordinator/nudge.yaml" {
		t.Errorf("Nudge.PolicyPath = %s", cfg.Nudge.PolicyPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short secret", func(c *Config) { c.JWTSecret = "too-short" }, "at least 32 characters"},
		{"zero cap", func(c *Config) { c.FreeTierEventCap = 0 }, "FREE_TIER_EVENT_CAP"},
		{"valid", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				JWTSecret:        "a-perfectly-valid-32-char-secret!",
				FreeTierEventCap: 1,
			}
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
