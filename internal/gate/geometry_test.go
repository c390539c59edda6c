package gate

import (
	"testing"
	"time"
)

func TestCoverage(t *testing.T) {
	vp := func(offset int) Viewport { return Viewport{Offset: offset, Height: 20} }

	tests := []struct {
		name string
		e    Extent
		v    Viewport
		want float64
	}{
		{"short, above midpoint", Extent{Top: 30, Height: 10}, vp(0), 0},
		{"short, at midpoint", Extent{Top: 15, Height: 10}, vp(0), 1},
		{"short, fully visible", Extent{Top: 0, Height: 10}, vp(0), 1},
		{"tall, not reached", Extent{Top: 25, Height: 40}, vp(0), 0},
		{"tall, viewport bottom at top", Extent{Top: 20, Height: 40}, vp(0), 0},
		{"tall, partly through", Extent{Top: 20, Height: 40}, vp(10), 0.25},
		{"tall, bottom reached", Extent{Top: 20, Height: 40}, vp(40), 1},
		{"tall, scrolled past", Extent{Top: 20, Height: 40}, vp(100), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coverage(tt.e, tt.v); got != tt.want {
				t.Errorf("Coverage = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestIntersects(t *testing.T) {
	v := Viewport{Offset: 10, Height: 20}
	tests := []struct {
		e    Extent
		want bool
	}{
		{Extent{Top: 0, Height: 10}, false},  // ends where the viewport starts
		{Extent{Top: 0, Height: 11}, true},   // one row inside
		{Extent{Top: 29, Height: 5}, true},   // starts on the last row
		{Extent{Top: 30, Height: 5}, false},  // starts below
		{Extent{Top: 0, Height: 100}, true},  // spans the viewport
	}
	for _, tt := range tests {
		if got := tt.e.Intersects(v); got != tt.want {
			t.Errorf("%+v.Intersects = %v, want %v", tt.e, got, tt.want)
		}
	}
}

func TestSectionDisplay(t *testing.T) {
	s := &Section{RequiredSeconds: 180}

	if got := s.Progress(0.8); got != 0 {
		t.Errorf("fresh progress = %g", got)
	}
	if got := s.TimerLabel(0.8); got != "3:00" {
		t.Errorf("fresh label = %q", got)
	}

	s.TimeSpent = 90
	s.MaxScrollPct = 0.4
	if got := s.Progress(0.8); got != 0.5 {
		t.Errorf("half progress = %g, want 0.5", got)
	}

	s.TimeSpent = 200
	if got := s.TimerLabel(0.8); got != "Keep scrolling" {
		t.Errorf("label = %q, want Keep scrolling", got)
	}
	s.MaxScrollPct = 0.9
	if got := s.TimerLabel(0.8); got != "Ready" {
		t.Errorf("label = %q, want Ready", got)
	}
	if got := s.Progress(0.8); got != 1 {
		t.Errorf("progress = %g, want 1", got)
	}
}

func TestFormatTime(t *testing.T) {
	tests := map[int]string{0: "0:00", 9: "0:09", 60: "1:00", 200: "3:20", 1200: "20:00", -4: "0:00"}
	for in, want := range tests {
		if got := FormatTime(in); got != want {
			t.Errorf("FormatTime(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCoalescer(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCoalescer(100 * time.Millisecond)

	if c.Fire(start) {
		t.Fatal("fired while idle")
	}
	if _, armed := c.Trigger(start); !armed {
		t.Fatal("first trigger did not arm")
	}
	if _, armed := c.Trigger(start.Add(90 * time.Millisecond)); armed {
		t.Fatal("trigger inside the window re-armed")
	}
	if c.Fire(start.Add(99 * time.Millisecond)) {
		t.Fatal("fired early")
	}
	if !c.Fire(start.Add(100 * time.Millisecond)) {
		t.Fatal("did not fire at the deadline")
	}
	if c.Pending() || c.Fire(start.Add(time.Second)) {
		t.Fatal("fired twice")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []func(*Config){
		func(c *Config) { c.WordsPerMinute = 0 },
		func(c *Config) { c.MinSectionSeconds = -1 },
		func(c *Config) { c.ScrollThreshold = 0 },
		func(c *Config) { c.TickInterval = 0 },
		func(c *Config) { c.SaveEveryTicks = 0 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if cfg.Validate() == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("COURSEGATE_MIN_SECTION_SECONDS", "60")
	t.Setenv("COURSEGATE_SCROLL_THRESHOLD", "0.9")
	t.Setenv("COURSEGATE_WORDS_PER_MINUTE", "not-a-number")

	cfg := ConfigFromEnv()
	if cfg.MinSectionSeconds != 60 || cfg.ScrollThreshold != 0.9 {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.WordsPerMinute != 150 {
		t.Errorf("malformed value should keep default, got %d", cfg.WordsPerMinute)
	}
	if cfg.StorageKey("ai") != "hillway-reading-gates-ai" {
		t.Errorf("storage key = %q", cfg.StorageKey("ai"))
	}
}
