package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hillway/coursegate/internal/course"
	"github.com/hillway/coursegate/internal/store"
)

// QuizStatus reports whether every question of a quiz is in a terminal
// state.
type QuizStatus interface {
	QuizComplete(quizID string) bool
}

// Reporter receives completed sections. Implementations must not block.
type Reporter interface {
	TrackSectionComplete(courseName, sectionID string)
}

// EventKind identifies a gate transition.
type EventKind int

const (
	SectionCompleted EventKind = iota
	QuizUnlocked
	DayUnlocked
)

func (k EventKind) String() string {
	switch k {
	case SectionCompleted:
		return store.KindSectionComplete
	case QuizUnlocked:
		return store.KindQuizUnlocked
	case DayUnlocked:
		return store.KindDayUnlocked
	}
	return "unknown"
}

// Event describes a one-way transition of the gate.
type Event struct {
	Kind      EventKind
	Day       int
	SectionID string // SectionCompleted only
	QuizID    string // QuizUnlocked only
}

// Day is one course unit as tracked by the session.
type Day struct {
	Number   int
	Title    string
	Sections []*Section
	QuizID   string

	quizLocked bool
	locked     bool
}

// Options configures a Session.
type Options struct {
	Config   Config
	Manifest *course.Manifest
	KV       store.KV
	Events   store.EventRepo // optional progress log
	Quizzes  QuizStatus      // optional; without it no quiz is complete
	Reporter Reporter        // optional
	Logger   *slog.Logger
	Admin    bool
	Now      func() time.Time
}

// Session owns the progress state machine of one course: section reading
// trackers, per-day quiz locks and the sequential day unlock. A Session is
// not safe for concurrent use; a single owner drives it through Tick,
// Scroll, NotifyAnswered and Flush.
type Session struct {
	cfg     Config
	course  string
	days    []*Day
	byID    map[string]*Section
	ordered []*Section

	state    *stateStore
	events   store.EventRepo
	quizzes  QuizStatus
	reporter Reporter
	logger   *slog.Logger
	now      func() time.Time

	admin     bool
	discarded bool
	ticks     int

	scroll    *Coalescer
	unlock    *Coalescer
	listeners []func(Event)
}

// NewSession builds the state machine for a course and restores its
// persisted progress.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gate config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	name := ""
	if opts.Manifest != nil {
		name = opts.Manifest.Course
	}

	s := &Session{
		cfg:      opts.Config,
		course:   name,
		byID:     make(map[string]*Section),
		events:   opts.Events,
		quizzes:  opts.Quizzes,
		reporter: opts.Reporter,
		logger:   logger.With("course", name),
		now:      now,
		admin:    opts.Admin,
		scroll:   NewCoalescer(opts.Config.ScrollCoalesce),
		unlock:   NewCoalescer(opts.Config.UnlockDebounce),
	}
	s.state = &stateStore{kv: opts.KV, key: opts.Config.StorageKey(name), logger: s.logger}

	if s.admin {
		s.logger.Info("admin mode, gates bypassed")
	}
	if opts.Manifest.Empty() {
		s.logger.Info("no day structure detected, gating skipped")
		return s, nil
	}

	saved := s.state.load(ctx)
	for _, md := range opts.Manifest.Days {
		d := &Day{Number: md.Day, Title: md.Title}
		if md.Quiz != nil {
			d.QuizID = md.Quiz.ID
		}
		for _, ms := range md.Sections {
			words := ms.WordCount()
			sec := &Section{
				ID:              ms.ID,
				Day:             md.Day,
				Title:           ms.Title,
				Body:            ms.Body,
				WordCount:       words,
				RequiredSeconds: s.cfg.RequiredSeconds(words),
			}
			if st, ok := saved.Sections[ms.ID]; ok {
				sec.restore(st)
			}
			d.Sections = append(d.Sections, sec)
			s.byID[sec.ID] = sec
			s.ordered = append(s.ordered, sec)
		}
		s.days = append(s.days, d)
	}

	if s.admin {
		return s, nil
	}

	for _, d := range s.days {
		d.quizLocked = d.QuizID != "" && !d.readingComplete()
	}
	for i := 1; i < len(s.days); i++ {
		s.days[i].locked = !s.quizComplete(s.days[i-1])
	}

	s.logger.Info("reading gates initialised", "days", len(s.days), "sections", len(s.ordered))
	return s, nil
}

// Course returns the course name.
func (s *Session) Course() string { return s.course }

// Config returns the policy the session runs with.
func (s *Session) Config() Config { return s.cfg }

// Admin reports whether gating is bypassed.
func (s *Session) Admin() bool { return s.admin }

// Days returns the tracked days in order.
func (s *Session) Days() []*Day { return s.days }

// Section returns the tracker for id.
func (s *Session) Section(id string) (*Section, bool) {
	sec, ok := s.byID[id]
	return sec, ok
}

// Subscribe registers fn to receive every transition.
func (s *Session) Subscribe(fn func(Event)) {
	s.listeners = append(s.listeners, fn)
}

// Tick is the body of the periodic driver: it accrues dwell time for every
// visible incomplete section, completes those that meet both requirements
// and periodically persists the rest. It also fires any coalesced work that
// has come due.
func (s *Session) Tick(ctx context.Context, layout Layout) {
	if !s.tracking() {
		return
	}

	visible := s.visibility(layout)
	for _, sec := range s.ordered {
		if sec.ReadingComplete {
			continue
		}
		if visible[sec.ID] {
			sec.TimeSpent++
		}
		if sec.ready(s.cfg.ScrollThreshold) {
			s.complete(ctx, sec)
		}
	}

	s.ticks++
	if s.ticks%s.cfg.SaveEveryTicks == 0 {
		var pending []*Section
		for _, sec := range s.ordered {
			if !sec.ReadingComplete {
				pending = append(pending, sec)
			}
		}
		s.state.save(ctx, pending...)
	}

	s.Flush(ctx, layout)
}

// Scroll records a scroll event. Coverage is recomputed once per coalescing
// window: when this call armed a new window, it returns the wait after which
// the host must call Flush.
func (s *Session) Scroll() (time.Duration, bool) {
	if !s.tracking() {
		return 0, false
	}
	return s.scroll.Trigger(s.now())
}

// NotifyAnswered records that a question reached a terminal state. The day
// locks are re-checked once per debounce window: when this call armed a new
// window, it returns the wait after which the host must call Flush.
func (s *Session) NotifyAnswered() (time.Duration, bool) {
	if !s.tracking() {
		return 0, false
	}
	return s.unlock.Trigger(s.now())
}

// Flush runs any coalesced scroll update or debounced day re-check whose
// window has elapsed.
func (s *Session) Flush(ctx context.Context, layout Layout) {
	if !s.tracking() {
		return
	}
	now := s.now()
	if s.scroll.Fire(now) {
		s.updateScrollProgress(layout)
		s.checkQuizUnlocks(ctx)
	}
	if s.unlock.Fire(now) {
		s.updateDayLocks(ctx)
	}
}

// Pending reports whether a coalesced update is waiting for Flush.
func (s *Session) Pending() bool {
	return s.scroll.Pending() || s.unlock.Pending()
}

// Refresh recomputes coverage and quiz locks immediately. Hosts call it once
// after the first layout is known.
func (s *Session) Refresh(ctx context.Context, layout Layout) {
	if !s.tracking() {
		return
	}
	s.updateScrollProgress(layout)
	s.checkQuizUnlocks(ctx)
}

// IsSectionComplete reports whether the section's reading is complete.
func (s *Session) IsSectionComplete(id string) bool {
	sec, ok := s.byID[id]
	return ok && sec.ReadingComplete
}

// IsDayReadingComplete reports whether every section of the day is complete.
func (s *Session) IsDayReadingComplete(day int) bool {
	d := s.day(day)
	return d != nil && d.readingComplete()
}

// IsDayQuizComplete reports whether the day has a quiz whose questions are
// all in a terminal state.
func (s *Session) IsDayQuizComplete(day int) bool {
	d := s.day(day)
	return d != nil && s.quizComplete(d)
}

// IsDayUnlocked reports whether the day's content is revealed. Unknown days
// are not locked.
func (s *Session) IsDayUnlocked(day int) bool {
	d := s.day(day)
	return d == nil || !d.locked
}

// IsQuizLocked reports whether the day's quiz is still behind its reading
// gate.
func (s *Session) IsQuizLocked(day int) bool {
	d := s.day(day)
	return d != nil && d.quizLocked
}

// QuizCountdown describes what is still needed before the day's quiz
// unlocks, e.g. "4:10 reading time remaining • scroll through content •
// 2 sections to complete". It is empty when nothing is outstanding.
func (s *Session) QuizCountdown(day int) string {
	d := s.day(day)
	if d == nil {
		return ""
	}

	var remaining, sections int
	needsScroll := false
	for _, sec := range d.Sections {
		if sec.ReadingComplete {
			continue
		}
		sections++
		remaining += sec.Remaining()
		if sec.MaxScrollPct < s.cfg.ScrollThreshold {
			needsScroll = true
		}
	}
	if sections == 0 {
		return ""
	}

	var parts []string
	if remaining > 0 {
		parts = append(parts, FormatTime(remaining)+" reading time remaining")
	}
	if needsScroll {
		parts = append(parts, "scroll through content")
	}
	noun := "section"
	if sections > 1 {
		noun = "sections"
	}
	parts = append(parts, fmt.Sprintf("%d %s to complete", sections, noun))
	return strings.Join(parts, " • ")
}

// Reset wipes the persisted progress of the course. The session stops
// tracking and must be rebuilt by the host.
func (s *Session) Reset(ctx context.Context) {
	s.state.clear(ctx)
	s.discarded = true
	s.appendEvent(ctx, store.ProgressEventData{Kind: store.KindReset, Subject: s.state.key})
	s.logger.Info("reading progress reset")
}

// Close writes the final state of every section.
func (s *Session) Close(ctx context.Context) {
	if !s.tracking() {
		return
	}
	s.state.save(ctx, s.ordered...)
}

func (s *Session) tracking() bool {
	return !s.admin && !s.discarded && len(s.days) > 0
}

func (s *Session) day(n int) *Day {
	for _, d := range s.days {
		if d.Number == n {
			return d
		}
	}
	return nil
}

func (d *Day) readingComplete() bool {
	for _, sec := range d.Sections {
		if !sec.ReadingComplete {
			return false
		}
	}
	return true
}

func (s *Session) quizComplete(d *Day) bool {
	if d.QuizID == "" || s.quizzes == nil {
		return false
	}
	return s.quizzes.QuizComplete(d.QuizID)
}

func (s *Session) visibility(layout Layout) map[string]bool {
	visible := make(map[string]bool, len(s.ordered))
	if layout == nil {
		return visible
	}
	vp := layout.Viewport()
	for _, d := range s.days {
		if d.locked {
			continue
		}
		for _, sec := range d.Sections {
			if e, ok := layout.Extent(sec.ID); ok && e.Intersects(vp) {
				visible[sec.ID] = true
			}
		}
	}
	return visible
}

func (s *Session) updateScrollProgress(layout Layout) {
	if layout == nil {
		return
	}
	vp := layout.Viewport()
	for _, d := range s.days {
		if d.locked {
			continue
		}
		for _, sec := range d.Sections {
			if sec.ReadingComplete {
				continue
			}
			if e, ok := layout.Extent(sec.ID); ok {
				sec.observeScroll(Coverage(e, vp))
			}
		}
	}
}

func (s *Session) complete(ctx context.Context, sec *Section) {
	sec.ReadingComplete = true
	s.state.save(ctx, sec)

	s.logger.Info("section complete", "section", sec.ID, "time_spent", sec.TimeSpent, "max_scroll", sec.MaxScrollPct)
	if s.reporter != nil {
		s.reporter.TrackSectionComplete(s.course, sec.ID)
	}
	s.appendEvent(ctx, store.ProgressEventData{
		Kind:    store.KindSectionComplete,
		Day:     sec.Day,
		Subject: sec.ID,
		Detail:  fmt.Sprintf("time_spent=%d max_scroll=%.2f", sec.TimeSpent, sec.MaxScrollPct),
	})
	s.emit(Event{Kind: SectionCompleted, Day: sec.Day, SectionID: sec.ID})

	s.checkQuizUnlocks(ctx)
}

func (s *Session) checkQuizUnlocks(ctx context.Context) {
	for _, d := range s.days {
		if !d.quizLocked || !d.readingComplete() {
			continue
		}
		d.quizLocked = false
		s.logger.Info("quiz unlocked", "day", d.Number, "quiz", d.QuizID)
		s.appendEvent(ctx, store.ProgressEventData{Kind: store.KindQuizUnlocked, Day: d.Number, Subject: d.QuizID})
		s.emit(Event{Kind: QuizUnlocked, Day: d.Number, QuizID: d.QuizID})
	}
}

func (s *Session) updateDayLocks(ctx context.Context) {
	for i := 1; i < len(s.days); i++ {
		d := s.days[i]
		if !d.locked || !s.quizComplete(s.days[i-1]) {
			continue
		}
		d.locked = false
		s.logger.Info("day unlocked", "day", d.Number)
		s.appendEvent(ctx, store.ProgressEventData{Kind: store.KindDayUnlocked, Day: d.Number})
		s.emit(Event{Kind: DayUnlocked, Day: d.Number})
	}
}

func (s *Session) appendEvent(ctx context.Context, data store.ProgressEventData) {
	if s.events == nil {
		return
	}
	data.Course = s.course
	if err := s.events.AppendProgressEvent(ctx, data); err != nil {
		s.logger.Warn("warning: failed to record progress event", "kind", data.Kind, "error", err)
	}
}

func (s *Session) emit(e Event) {
	for _, fn := range s.listeners {
		fn(e)
	}
}
