package gate

import "time"

// Coalescer merges bursts of triggers into a single firing. The first
// trigger arms a fixed window; triggers inside the window are absorbed and
// the coalescer fires once when the window has elapsed.
type Coalescer struct {
	window   time.Duration
	deadline time.Time
	armed    bool
}

// NewCoalescer returns a Coalescer with the given window.
func NewCoalescer(window time.Duration) *Coalescer {
	return &Coalescer{window: window}
}

// Trigger records an event at now. It returns the wait until the window
// closes and true when this trigger armed the coalescer; the caller is then
// responsible for waking up after the wait.
func (c *Coalescer) Trigger(now time.Time) (time.Duration, bool) {
	if c.armed {
		return 0, false
	}
	c.armed = true
	c.deadline = now.Add(c.window)
	return c.window, true
}

// Pending reports whether a firing is outstanding.
func (c *Coalescer) Pending() bool { return c.armed }

// Fire disarms the coalescer and returns true if it is armed and its window
// has elapsed at now.
func (c *Coalescer) Fire(now time.Time) bool {
	if !c.armed || now.Before(c.deadline) {
		return false
	}
	c.armed = false
	return true
}
