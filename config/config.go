// Package config holds the environment-driven configuration for the client.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable of the client. All values come from the
// environment, with an optional .env file loaded first.
type Config struct {
	// Backend origin, e.g. "http://localhost:8000".
	APIBaseURL string

	// Path of the persisted session token file.
	TokenFile string

	// How long a persisted token file is retained before Save refuses to
	// reuse it at all.
	TokenExpiration time.Duration

	// How old a persisted token may be before Initialize discards it
	// without revalidating against the server.
	TokenMaxAge time.Duration

	// Default page size for list endpoints.
	PageSize int

	// Debug enables structured logging on stderr.
	Debug bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:      strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
		TokenFile:       getEnv("TOKEN_FILE", defaultTokenFile()),
		TokenExpiration: time.Duration(getEnvInt("TOKEN_EXPIRATION_DAYS", 7)) * 24 * time.Hour,
		TokenMaxAge:     time.Duration(getEnvInt("TOKEN_MAX_AGE_HOURS", 24)) * time.Hour,
		PageSize:        getEnvInt("PAGE_SIZE", 10),
		Debug:           getEnvBool("DEBUG", false),
	}
}

// Validate returns an error describing every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid API_BASE_URL %q: must be an absolute http(s) URL", c.APIBaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("invalid API_BASE_URL scheme %q: must be http or https", u.Scheme))
	}

	if c.TokenFile == "" {
		problems = append(problems, "TOKEN_FILE must not be empty")
	}
	if c.TokenExpiration <= 0 {
		problems = append(problems, "TOKEN_EXPIRATION_DAYS must be positive")
	}
	if c.TokenMaxAge <= 0 {
		problems = append(problems, "TOKEN_MAX_AGE_HOURS must be positive")
	}
	if c.TokenMaxAge > c.TokenExpiration {
		problems = append(problems, "TOKEN_MAX_AGE_HOURS must not exceed TOKEN_EXPIRATION_DAYS")
	}
	if c.PageSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid PAGE_SIZE %d: must be at least 1", c.PageSize))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "supermarket-task", "token.json")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
