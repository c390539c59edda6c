package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hillway/coursegate/internal/course"
	"github.com/hillway/coursegate/internal/gate"
	"github.com/hillway/coursegate/internal/quiz"
	"github.com/hillway/coursegate/internal/router"
	"github.com/hillway/coursegate/internal/screen"
	"github.com/hillway/coursegate/internal/screens/progress"
	"github.com/hillway/coursegate/internal/store"
	"github.com/hillway/coursegate/internal/ui/layout"
	"github.com/hillway/coursegate/internal/ui/theme"
)

// Options configures a Reader.
type Options struct {
	Manifest *course.Manifest
	Engine   *quiz.Engine

	// NewSession builds the gate session. It is called once up front and
	// again after a reset.
	NewSession func(ctx context.Context) (*gate.Session, error)

	Events store.EventRepo // optional, listed on the progress screen
	Logger *slog.Logger
}

// Reader renders a gated course and drives its session: a tick every
// TickInterval, coalesced scroll updates and debounced day re-checks.
type Reader struct {
	manifest   *course.Manifest
	engine     *quiz.Engine
	session    *gate.Session
	newSession func(ctx context.Context) (*gate.Session, error)
	events     store.EventRepo
	logger     *slog.Logger

	doc      *document
	width    int
	height   int
	laidOut  bool
	focus    string
	notice   string
	confirm  bool
	answered bool
}

var _ screen.Screen = (*Reader)(nil)
var _ screen.KeyHintProvider = (*Reader)(nil)
var _ screen.StatusProvider = (*Reader)(nil)
var _ screen.Closer = (*Reader)(nil)
var _ screen.Background = (*Reader)(nil)

// New builds the session and returns a Reader for it.
func New(ctx context.Context, opts Options) (*Reader, error) {
	if opts.Engine == nil || opts.NewSession == nil {
		return nil, errors.New("reader needs a quiz engine and a session builder")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	manifest := opts.Manifest
	if manifest == nil {
		manifest = &course.Manifest{}
	}

	r := &Reader{
		manifest:   manifest,
		engine:     opts.Engine,
		newSession: opts.NewSession,
		events:     opts.Events,
		logger:     logger,
		doc:        newDocument(0),
	}
	if err := r.startSession(ctx); err != nil {
		return nil, err
	}
	r.engine.Subscribe(func(quiz.Answered) { r.answered = true })
	return r, nil
}

func (r *Reader) startSession(ctx context.Context) error {
	s, err := r.newSession(ctx)
	if err != nil {
		return fmt.Errorf("build session: %w", err)
	}
	s.Subscribe(r.onEvent)
	r.session = s
	return nil
}

func (r *Reader) onEvent(e gate.Event) {
	switch e.Kind {
	case gate.SectionCompleted:
		title := e.SectionID
		if sec, ok := r.session.Section(e.SectionID); ok && sec.Title != "" {
			title = sec.Title
		}
		r.notice = "✓ Section complete: " + title
	case gate.QuizUnlocked:
		r.notice = fmt.Sprintf("🔓 Day %d quiz unlocked", e.Day)
	case gate.DayUnlocked:
		r.notice = fmt.Sprintf("🔓 Day %d unlocked", e.Day)
	}
}

func (r *Reader) Init() tea.Cmd {
	return r.tick()
}

func (r *Reader) tick() tea.Cmd {
	return tea.Tick(r.session.Config().TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// WantsInBackground keeps the tick loop and pending flushes alive while
// another screen is shown.
func (r *Reader) WantsInBackground(msg tea.Msg) bool {
	switch msg.(type) {
	case tickMsg, flushMsg:
		return true
	}
	return false
}

func (r *Reader) Title() string {
	if r.manifest.Title != "" {
		return r.manifest.Title
	}
	return r.manifest.Course
}

// Status returns the course progress line.
func (r *Reader) Status() string {
	return r.engine.Progress()
}

func (r *Reader) KeyHints() []layout.KeyHint {
	if r.confirm {
		return []layout.KeyHint{
			{Key: "y", Description: "Reset progress"},
			{Key: "n", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓/PgUp/PgDn", Description: "Scroll"},
		{Key: "Tab", Description: "Next question"},
		{Key: "1-4", Description: "Answer"},
		{Key: "p", Description: "Progress"},
		{Key: "R", Description: "Reset"},
		{Key: "q", Description: "Quit"},
	}
}

func (r *Reader) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	ctx := context.Background()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = layout.ContentHeight(msg.Height) - 1 // notice line
		if r.height < 1 {
			r.height = 1
		}
		r.rebuild()
		if !r.laidOut {
			r.laidOut = true
			r.session.Refresh(ctx, r.doc)
			r.rebuild()
		}
		return r, nil

	case tickMsg:
		r.session.Tick(ctx, r.doc)
		r.rebuild()
		return r, r.tick()

	case flushMsg:
		r.session.Flush(ctx, r.doc)
		r.rebuild()
		return r, nil

	case progress.JumpMsg:
		if top, ok := r.doc.dayTops[msg.Day]; ok {
			return r, r.scrollTo(top)
		}
		return r, nil

	case tea.KeyPressMsg:
		return r, r.handleKey(ctx, msg)
	}
	return r, nil
}

func (r *Reader) handleKey(ctx context.Context, msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()

	if r.confirm {
		switch key {
		case "y", "Y":
			r.confirm = false
			return r.reset(ctx)
		case "n", "N", "esc":
			r.confirm = false
			r.notice = ""
		}
		return nil
	}

	switch key {
	case "q":
		return tea.Quit
	case "down", "j":
		return r.scrollTo(r.doc.offset + 1)
	case "up", "k":
		return r.scrollTo(r.doc.offset - 1)
	case "pgdown", "space", " ", "f":
		return r.scrollTo(r.doc.offset + r.doc.height - 1)
	case "pgup", "b":
		return r.scrollTo(r.doc.offset - r.doc.height + 1)
	case "home", "g":
		return r.scrollTo(0)
	case "end", "G":
		return r.scrollTo(r.doc.maxOffset())
	case "]":
		return r.jumpDay(1)
	case "[":
		return r.jumpDay(-1)
	case "tab":
		return r.moveFocus(1)
	case "shift+tab":
		return r.moveFocus(-1)
	case "p":
		return func() tea.Msg {
			return router.PushScreenMsg{Screen: progress.New(r.session, r.engine, r.events)}
		}
	case "R":
		r.confirm = true
		r.notice = "Reset all reading and quiz progress for this course? (y/n)"
		return nil
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return r.answer(ctx, int(key[0]-'1'))
	}
	return nil
}

// scrollTo moves the viewport and reports the scroll to the session. The
// returned command wakes the session when its coalescing window closes.
func (r *Reader) scrollTo(offset int) tea.Cmd {
	offset = r.doc.clamp(offset)
	if offset == r.doc.offset {
		return nil
	}
	r.doc.offset = offset
	wait, armed := r.session.Scroll()
	if !armed {
		return nil
	}
	return wake(wait)
}

func wake(wait time.Duration) tea.Cmd {
	return tea.Tick(wait, func(time.Time) tea.Msg { return flushMsg{} })
}

func (r *Reader) jumpDay(step int) tea.Cmd {
	days := r.session.Days()
	current := 0
	for i, d := range days {
		if top := r.doc.dayTops[d.Number]; top <= r.doc.offset {
			current = i
		}
	}
	next := current + step
	if next < 0 || next >= len(days) {
		return nil
	}
	return r.scrollTo(r.doc.dayTops[days[next].Number])
}

// moveFocus cycles the answering focus through the rendered questions and
// brings the focused one into view.
func (r *Reader) moveFocus(step int) tea.Cmd {
	qs := r.doc.questions
	if len(qs) == 0 {
		return nil
	}
	idx := -1
	for i, a := range qs {
		if a.number == r.focus {
			idx = i
		}
	}
	switch {
	case idx < 0 && step < 0:
		idx = len(qs) - 1
	case idx < 0:
		idx = 0
	default:
		idx = (idx + step + len(qs)) % len(qs)
	}
	r.focus = qs[idx].number
	r.rebuild()
	return r.reveal(qs[idx].line)
}

// reveal scrolls just enough to show line.
func (r *Reader) reveal(line int) tea.Cmd {
	switch {
	case line < r.doc.offset:
		return r.scrollTo(line)
	case line >= r.doc.offset+r.doc.height:
		return r.scrollTo(line - r.doc.height/2)
	}
	return nil
}

// answer submits the option at idx for the focused question.
func (r *Reader) answer(ctx context.Context, idx int) tea.Cmd {
	if _, ok := r.doc.question(r.focus); !ok {
		r.focus = r.visibleQuestion()
		if r.focus == "" {
			r.notice = "Press Tab to choose a question first."
			return nil
		}
	}
	q, ok := r.engine.Question(r.focus)
	if !ok || idx >= len(q.Options) {
		return nil
	}

	r.answered = false
	res, err := r.engine.Answer(ctx, q.Number, q.Options[idx].Value)
	switch {
	case errors.Is(err, quiz.ErrOptionUsed):
		r.notice = "You already tried that option."
		return nil
	case errors.Is(err, quiz.ErrQuestionLocked):
		r.notice = "This question has already been answered."
		return nil
	case err != nil:
		r.logger.Warn("warning: failed to record answer", "question", q.Number, "error", err)
		r.notice = "Could not record that answer."
		return nil
	}

	switch {
	case res.Correct:
		r.notice = "✓ Correct!"
	case res.Status == quiz.AnsweredLocked:
		r.notice = "The correct answer was: " + res.CorrectAnswer
	default:
		r.notice = res.Hint
	}
	r.rebuild()

	if !r.answered {
		return nil
	}
	r.answered = false
	wait, armed := r.session.NotifyAnswered()
	if !armed {
		return nil
	}
	return wake(wait)
}

// visibleQuestion returns the first open question inside the viewport.
func (r *Reader) visibleQuestion() string {
	v := r.doc.Viewport()
	for _, a := range r.doc.questions {
		if a.line >= v.Offset && a.line < v.Bottom() && !r.engine.Status(a.number).Terminal() {
			return a.number
		}
	}
	return ""
}

func (r *Reader) reset(ctx context.Context) tea.Cmd {
	r.session.Reset(ctx)
	r.engine.Reset(ctx)
	if err := r.startSession(ctx); err != nil {
		r.logger.Error("rebuild session after reset", "error", err)
		r.notice = "Progress was reset but the course could not be reloaded."
		return nil
	}
	r.focus = ""
	r.doc.offset = 0
	r.rebuild()
	r.session.Refresh(ctx, r.doc)
	r.rebuild()
	r.notice = "Progress reset."
	return nil
}

// rebuild re-renders the document, keeping the scroll position.
func (r *Reader) rebuild() {
	if r.width == 0 {
		return
	}
	offset := r.doc.offset
	r.doc = r.render(r.width, r.height)
	r.doc.offset = r.doc.clamp(offset)
}

func (r *Reader) View(width, height int) string {
	if r.width == 0 {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n  Loading course...")
	}

	notice := theme.Hint.Render("  " + r.notice)
	if r.confirm {
		notice = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("  " + r.notice)
	}
	return strings.Join(r.doc.visible(), "\n") + "\n" + notice
}

// Close writes the final reading state.
func (r *Reader) Close(ctx context.Context) {
	r.session.Close(ctx)
}

func (r *Reader) manifestDay(n int) *course.Day {
	for i := range r.manifest.Days {
		if r.manifest.Days[i].Day == n {
			return &r.manifest.Days[i]
		}
	}
	return nil
}
