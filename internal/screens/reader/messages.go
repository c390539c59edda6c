package reader

import "time"

// tickMsg drives the one-second reading tick.
type tickMsg time.Time

// flushMsg wakes the session when a coalesced scroll or a debounced day
// re-check comes due.
type flushMsg struct{}
