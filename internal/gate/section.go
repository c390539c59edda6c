package gate

import "fmt"

// Section tracks the reading progress of one content block.
type Section struct {
	ID              string
	Day             int
	Title           string
	Body            string
	WordCount       int
	RequiredSeconds int

	TimeSpent       int
	MaxScrollPct    float64
	ReadingComplete bool
}

// ready reports whether both the dwell and the scroll requirement are met.
func (s *Section) ready(threshold float64) bool {
	return s.TimeSpent >= s.RequiredSeconds && s.MaxScrollPct >= threshold
}

// observeScroll ratchets MaxScrollPct up to pct. It reports whether the
// value grew.
func (s *Section) observeScroll(pct float64) bool {
	if pct > s.MaxScrollPct {
		s.MaxScrollPct = pct
		return true
	}
	return false
}

// Remaining returns the dwell seconds still required.
func (s *Section) Remaining() int {
	return max(s.RequiredSeconds-s.TimeSpent, 0)
}

// Progress returns the combined dwell and scroll progress in [0, 1]; each
// requirement contributes half.
func (s *Section) Progress(threshold float64) float64 {
	if s.ReadingComplete {
		return 1
	}
	timePct := 1.0
	if s.RequiredSeconds > 0 {
		timePct = min(float64(s.TimeSpent)/float64(s.RequiredSeconds), 1)
	}
	scrollPct := min(s.MaxScrollPct/threshold, 1)
	return min((timePct+scrollPct)/2, 1)
}

// TimerLabel returns the remaining dwell time as m:ss, or once the dwell is
// satisfied, what is still needed.
func (s *Section) TimerLabel(threshold float64) string {
	if s.ReadingComplete {
		return "Complete"
	}
	if r := s.Remaining(); r > 0 {
		return FormatTime(r)
	}
	if s.MaxScrollPct >= threshold {
		return "Ready"
	}
	return "Keep scrolling"
}

func (s *Section) state() SectionState {
	return SectionState{
		TimeSpent:       s.TimeSpent,
		MaxScrollPct:    s.MaxScrollPct,
		ReadingComplete: s.ReadingComplete,
	}
}

func (s *Section) restore(st SectionState) {
	s.TimeSpent = st.TimeSpent
	s.MaxScrollPct = st.MaxScrollPct
	s.ReadingComplete = st.ReadingComplete
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
