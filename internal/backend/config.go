package backend

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds the hosted backend (Supabase PostgREST) settings. The
// backend is optional: with no URL configured, progress is kept locally.
type Config struct {
	URL     string
	AnonKey string

	// Timeout bounds a single request. Default: 10s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with no backend and a 10s timeout.
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("COURSEGATE_SUPABASE_URL"); u != "" {
		cfg.URL = u
	}
	if k := os.Getenv("COURSEGATE_SUPABASE_ANON_KEY"); k != "" {
		cfg.AnonKey = k
	}
	if d, err := time.ParseDuration(os.Getenv("COURSEGATE_BACKEND_TIMEOUT")); err == nil {
		cfg.Timeout = d
	}

	return cfg
}

// Enabled reports whether a backend is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// Validate checks the URL and inspects the anon key. The key is a JWT
// signed by the backend; its signature cannot be checked here, but it must
// carry a role claim and must not have expired.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid COURSEGATE_SUPABASE_URL %q", c.URL)
	}
	if c.AnonKey == "" {
		return fmt.Errorf("COURSEGATE_SUPABASE_ANON_KEY is required when COURSEGATE_SUPABASE_URL is set")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive, got %s", c.Timeout)
	}
	return inspectAnonKey(c.AnonKey, time.Now())
}

func inspectAnonKey(key string, now time.Time) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return fmt.Errorf("parse anon key: %w", err)
	}
	if role, _ := claims["role"].(string); role == "" {
		return fmt.Errorf("anon key carries no role claim")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("anon key expiry: %w", err)
	}
	if exp != nil && exp.Before(now) {
		return fmt.Errorf("anon key expired at %s", exp.Format(time.RFC3339))
	}
	return nil
}
