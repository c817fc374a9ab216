// Package config loads process configuration from the environment.
//
// main calls godotenv.Load() first, so a local .env file works the same as
// real environment variables. Real variables win over .env entries.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Port the HTTP server listens on (PORT, default 5555).
	Port int
	// DBPath is the SQLite file (DB_PATH, default data/recipes.db). ":memory:" works for throwaway runs.
	DBPath string

	// SessionSecret signs the session cookie (SESSION_SECRET, at least 16 characters).
	// When unset, EnsureSessionSecret generates one per process.
	SessionSecret string
	// SessionTTL is how long a login lasts (SESSION_TTL, Go duration, default 168h).
	SessionTTL time.Duration
	// CookieSecure sets the Secure flag on the session cookie (COOKIE_SECURE, default false).
	// Turn it on whenever the API is served over HTTPS.
	CookieSecure bool

	// BcryptCost is the password hashing work factor (BCRYPT_COST, default 12).
	BcryptCost int

	// CORSAllowedOrigins is set via CORS_ALLOWED_ORIGINS (comma-separated).
	// When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string

	// LogLevel is debug, info, warn or error (LOG_LEVEL, default info).
	LogLevel slog.Level
	// LogFormat is "text" (default) or "json".
	LogFormat string
}

// Load reads the environment. Malformed values are errors rather than silent
// fallbacks, so a typo in SESSION_TTL stops startup instead of being ignored.
func Load() (Config, error) {
	cfg := Config{
		DBPath:             getEnv("DB_PATH", "data/recipes.db"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 5555); err != nil {
		return Config{}, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: PORT %d out of range", cfg.Port)
	}
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if cfg.CookieSecure, err = getEnvBool("COOKIE_SECURE", false); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", 12); err != nil {
		return Config{}, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// EnsureSessionSecret fills in a random secret when none was configured and
// reports whether it did. A generated secret dies with the process, so every
// restart logs everyone out.
func (c *Config) EnsureSessionSecret() (bool, error) {
	if c.SessionSecret != "" {
		return false, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return false, fmt.Errorf("config: generating session secret: %w", err)
	}
	c.SessionSecret = hex.EncodeToString(buf)
	return true, nil
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("config: %s: %q is not an integer", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("config: %s: %q is not a boolean", key, v)
	}
	return b, nil
}
