package quiz

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds quiz engine settings.
type Config struct {
	// MaxAttempts is the number of tries before a question locks and the
	// correct answer is revealed. Default: 3.
	MaxAttempts int

	// KeyFormat builds the KV key from the course name.
	KeyFormat string
}

// DefaultConfig returns sensible defaults for the quiz engine.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		KeyFormat:   "hillway-%s-quiz-v3",
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or malformed values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, err := strconv.Atoi(os.Getenv("COURSEGATE_MAX_ATTEMPTS")); err == nil {
		cfg.MaxAttempts = v
	}
	return cfg
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.KeyFormat == "" {
		return fmt.Errorf("quiz key format is required")
	}
	return nil
}

// StorageKey returns the KV key holding a course's quiz state.
func (c Config) StorageKey(courseName string) string {
	return fmt.Sprintf(c.KeyFormat, courseName)
}
