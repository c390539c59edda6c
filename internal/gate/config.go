package gate

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the reading-gate policy constants.
type Config struct {
	// WordsPerMinute is the assumed reading speed. Default: 150.
	WordsPerMinute int

	// MinSectionSeconds floors the required dwell time of every section.
	// Default: 180.
	MinSectionSeconds int

	// ScrollThreshold is the scroll coverage (0..1) a section needs before
	// it can complete. Default: 0.8.
	ScrollThreshold float64

	// TickInterval is the dwell accumulation period. Default: 1s.
	TickInterval time.Duration

	// SaveEveryTicks batches writes of incomplete sections. Default: 5.
	SaveEveryTicks int

	// ScrollCoalesce is the window over which scroll events are merged
	// into one coverage update. Default: 100ms.
	ScrollCoalesce time.Duration

	// UnlockDebounce delays the day re-check after answered questions.
	// Default: 300ms.
	UnlockDebounce time.Duration

	// StoragePrefix is prepended to the course name to form the KV key.
	StoragePrefix string
}

// DefaultConfig returns the policy the course pages shipped with.
func DefaultConfig() Config {
	return Config{
		WordsPerMinute:    150,
		MinSectionSeconds: 180,
		ScrollThreshold:   0.8,
		TickInterval:      time.Second,
		SaveEveryTicks:    5,
		ScrollCoalesce:    100 * time.Millisecond,
		UnlockDebounce:    300 * time.Millisecond,
		StoragePrefix:     "hillway-reading-gates-",
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or malformed values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v, err := strconv.Atoi(os.Getenv("COURSEGATE_WORDS_PER_MINUTE")); err == nil {
		cfg.WordsPerMinute = v
	}
	if v, err := strconv.Atoi(os.Getenv("COURSEGATE_MIN_SECTION_SECONDS")); err == nil {
		cfg.MinSectionSeconds = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("COURSEGATE_SCROLL_THRESHOLD"), 64); err == nil {
		cfg.ScrollThreshold = v
	}
	if v, err := time.ParseDuration(os.Getenv("COURSEGATE_TICK_INTERVAL")); err == nil {
		cfg.TickInterval = v
	}
	if v, err := strconv.Atoi(os.Getenv("COURSEGATE_SAVE_EVERY_TICKS")); err == nil {
		cfg.SaveEveryTicks = v
	}

	return cfg
}

// Validate checks that the policy values are usable.
func (c Config) Validate() error {
	if c.WordsPerMinute <= 0 {
		return fmt.Errorf("words per minute must be positive, got %d", c.WordsPerMinute)
	}
	if c.MinSectionSeconds < 0 {
		return fmt.Errorf("minimum section seconds must not be negative, got %d", c.MinSectionSeconds)
	}
	if c.ScrollThreshold <= 0 || c.ScrollThreshold > 1 {
		return fmt.Errorf("scroll threshold must be in (0, 1], got %g", c.ScrollThreshold)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.SaveEveryTicks <= 0 {
		return fmt.Errorf("save interval must be positive, got %d ticks", c.SaveEveryTicks)
	}
	if c.ScrollCoalesce < 0 || c.UnlockDebounce < 0 {
		return fmt.Errorf("coalescing windows must not be negative")
	}
	return nil
}

// RequiredSeconds returns the dwell time for a section of the given length:
// ceil(words*60/wpm), floored at MinSectionSeconds.
func (c Config) RequiredSeconds(words int) int {
	req := (words*60 + c.WordsPerMinute - 1) / c.WordsPerMinute
	if req < c.MinSectionSeconds {
		return c.MinSectionSeconds
	}
	return req
}

// StorageKey returns the KV key holding a course's gate state.
func (c Config) StorageKey(courseName string) string {
	return c.StoragePrefix + courseName
}
