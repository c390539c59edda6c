package progress

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hillway/coursegate/internal/gate"
	"github.com/hillway/coursegate/internal/quiz"
	"github.com/hillway/coursegate/internal/router"
	"github.com/hillway/coursegate/internal/screen"
	"github.com/hillway/coursegate/internal/store"
	"github.com/hillway/coursegate/internal/ui/components"
	"github.com/hillway/coursegate/internal/ui/layout"
	"github.com/hillway/coursegate/internal/ui/theme"
)

const recentEvents = 8

// JumpMsg asks the reader to scroll to the start of a day.
type JumpMsg struct {
	Day int
}

type eventsLoadedMsg struct {
	Events []store.ProgressEventRecord
	Err    error
}

// ProgressScreen summarizes each day of the course and the latest progress
// events. Selecting an unlocked day jumps the reader to it.
type ProgressScreen struct {
	session *gate.Session
	engine  *quiz.Engine
	events  store.EventRepo

	menu   components.Menu
	recent []store.ProgressEventRecord
	loaded bool
	errMsg string
}

var _ screen.Screen = (*ProgressScreen)(nil)
var _ screen.KeyHintProvider = (*ProgressScreen)(nil)

// New creates a ProgressScreen. events may be nil.
func New(session *gate.Session, engine *quiz.Engine, events store.EventRepo) *ProgressScreen {
	s := &ProgressScreen{session: session, engine: engine, events: events}
	s.menu = components.NewMenu(s.items())
	return s
}

func (s *ProgressScreen) items() []components.MenuItem {
	days := s.session.Days()
	items := make([]components.MenuItem, 0, len(days))
	for _, d := range days {
		day := d.Number
		label := fmt.Sprintf("Day %d", day)
		if d.Title != "" {
			label += " · " + d.Title
		}
		items = append(items, components.MenuItem{
			Label:    label,
			Detail:   s.dayDetail(d),
			Disabled: !s.session.IsDayUnlocked(day),
			Action: func() tea.Cmd {
				return tea.Sequence(
					func() tea.Msg { return router.PopScreenMsg{} },
					func() tea.Msg { return JumpMsg{Day: day} },
				)
			},
		})
	}
	return items
}

// dayDetail is the one-line summary of a day, e.g.
// "2/3 sections · quiz 1/4 answered".
func (s *ProgressScreen) dayDetail(d *gate.Day) string {
	if !s.session.IsDayUnlocked(d.Number) {
		return "locked"
	}
	done := 0
	for _, sec := range d.Sections {
		if sec.ReadingComplete {
			done++
		}
	}
	parts := []string{fmt.Sprintf("%d/%d sections", done, len(d.Sections))}

	switch {
	case d.QuizID == "":
	case s.session.IsQuizLocked(d.Number):
		parts = append(parts, "quiz locked")
	case s.engine.ModuleDone(d.Number):
		correct, _, total := s.engine.ModuleScore(d.Number)
		parts = append(parts, fmt.Sprintf("quiz %d/%d correct", correct, total))
	default:
		_, answered, total := s.engine.ModuleScore(d.Number)
		parts = append(parts, fmt.Sprintf("quiz %d/%d answered", answered, total))
	}
	return strings.Join(parts, " · ")
}

func (s *ProgressScreen) Init() tea.Cmd {
	if s.events == nil {
		s.loaded = true
		return nil
	}
	events, course := s.events, s.session.Course()
	return func() tea.Msg {
		recs, err := events.QueryProgressEvents(context.Background(), store.QueryOpts{Course: course, Limit: recentEvents})
		return eventsLoadedMsg{Events: recs, Err: err}
	}
}

func (s *ProgressScreen) Title() string {
	return "Progress"
}

func (s *ProgressScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Go to day"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ProgressScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case eventsLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.recent = msg.Events
		}
		s.loaded = true
		return s, nil

	case tea.KeyPressMsg:
		if msg.String() == "esc" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *ProgressScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")

	answered, correct, total := s.engine.Totals()
	summary := fmt.Sprintf("  %s · %d correct", s.engine.Progress(), correct)
	if total > 0 {
		bar := components.NewProgressBar("Quiz", float64(answered)/float64(total), "", width-8)
		b.WriteString("  " + bar.View() + "\n")
	}
	b.WriteString(theme.Hint.Render(summary) + "\n\n")

	if len(s.menu.Items) == 0 {
		b.WriteString(theme.Hint.Render("  This course has no days.") + "\n")
	} else {
		b.WriteString(s.menu.View())
	}

	b.WriteString("\n" + theme.Heading.Render("  Recent activity") + "\n")
	switch {
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("  Error: "+s.errMsg) + "\n")
	case !s.loaded:
		b.WriteString(theme.Hint.Render("  Loading...") + "\n")
	case len(s.recent) == 0:
		b.WriteString(theme.Hint.Render("  Nothing yet. Start reading!") + "\n")
	default:
		for _, e := range s.recent {
			line := fmt.Sprintf("  %s  %-16s  %s", e.Timestamp.Local().Format("Jan 02 15:04"), e.Kind, describe(e))
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(line) + "\n")
		}
	}
	return b.String()
}

// describe renders the subject of an event for humans.
func describe(e store.ProgressEventRecord) string {
	switch e.Kind {
	case store.KindSectionComplete:
		return e.Subject
	case store.KindQuizUnlocked, store.KindDayUnlocked:
		return fmt.Sprintf("day %d", e.Day)
	case store.KindAnswer:
		return fmt.Sprintf("question %s (%s)", e.Subject, e.Detail)
	}
	return e.Subject
}
