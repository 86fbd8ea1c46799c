package config

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenExpiration)
	assert.Equal(t, 24*time.Hour, cfg.TokenMaxAge)
	assert.Equal(t, 10, cfg.PageSize)
	assert.False(t, cfg.Debug)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("TOKEN_MAX_AGE_HOURS", "12")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("DEBUG", "true")

	cfg := Load()

	// Trailing slash is stripped so path joining stays predictable.
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, 12*time.Hour, cfg.TokenMaxAge)
	assert.Equal(t, 25, cfg.PageSize)
	assert.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "relative base URL",
			mutate:  func(c *Config) { c.APIBaseURL = "/api" },
			wantErr: true,
		},
		{
			name:    "non-http scheme",
			mutate:  func(c *Config) { c.APIBaseURL = "ftp://example.com" },
			wantErr: true,
		},
		{
			name:    "empty token file",
			mutate:  func(c *Config) { c.TokenFile = "" },
			wantErr: true,
		},
		{
			name:    "max age beyond retention",
			mutate:  func(c *Config) { c.TokenMaxAge = c.TokenExpiration + time.Hour },
			wantErr: true,
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.PageSize = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
