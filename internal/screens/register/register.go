package register

import (
	"context"
	"net/mail"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hillway/coursegate/internal/backend"
	"github.com/hillway/coursegate/internal/router"
	"github.com/hillway/coursegate/internal/screen"
	"github.com/hillway/coursegate/internal/ui/components"
	"github.com/hillway/coursegate/internal/ui/layout"
	"github.com/hillway/coursegate/internal/ui/theme"
)

// RegisterFunc resolves a learner by name and email.
type RegisterFunc func(ctx context.Context, name, email string) (backend.Identity, error)

// NextFunc builds the screen that follows registration. A zero identity
// means the learner skipped registration.
type NextFunc func(id backend.Identity) (screen.Screen, error)

type registeredMsg struct {
	Identity backend.Identity
	Err      error
}

type nextFailedMsg struct {
	Err error
}

// RegisterScreen asks for the learner's name and email before the course
// opens, so progress can be reported.
type RegisterScreen struct {
	register RegisterFunc
	next     NextFunc

	fields  []components.TextInput
	focused int
	busy    bool
	errMsg  string
}

var _ screen.Screen = (*RegisterScreen)(nil)
var _ screen.KeyHintProvider = (*RegisterScreen)(nil)

// New creates a RegisterScreen.
func New(register RegisterFunc, next NextFunc) *RegisterScreen {
	name := components.NewTextInput("Name", "Ada Lovelace", 80)
	name.Validate = func(v string) string {
		if v == "" {
			return "Please enter your name."
		}
		return ""
	}
	email := components.NewTextInput("Email", "ada@example.com", 120)
	email.Validate = validEmail

	return &RegisterScreen{
		register: register,
		next:     next,
		fields:   []components.TextInput{name, email},
	}
}

func validEmail(v string) string {
	if v == "" {
		return "Please enter your email."
	}
	if _, err := mail.ParseAddress(v); err != nil || !strings.Contains(v, "@") {
		return "That does not look like an email address."
	}
	return ""
}

func (s *RegisterScreen) Init() tea.Cmd {
	return s.fields[0].Focus()
}

func (s *RegisterScreen) Title() string {
	return "Welcome"
}

func (s *RegisterScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Skip"},
	}
}

func (s *RegisterScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case registeredMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, s.advance(msg.Identity)

	case nextFailedMsg:
		s.busy = false
		s.errMsg = msg.Err.Error()
		return s, nil

	case tea.KeyPressMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, s.advance(backend.Identity{})
		case "tab", "down":
			return s, s.focus(s.focused + 1)
		case "shift+tab", "up":
			return s, s.focus(s.focused - 1)
		case "enter":
			if s.focused < len(s.fields)-1 {
				return s, s.focus(s.focused + 1)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.fields[s.focused], cmd = s.fields[s.focused].Update(msg)
	return s, cmd
}

func (s *RegisterScreen) focus(i int) tea.Cmd {
	i = (i + len(s.fields)) % len(s.fields)
	s.fields[s.focused].Blur()
	s.focused = i
	return s.fields[i].Focus()
}

func (s *RegisterScreen) submit() tea.Cmd {
	valid := true
	for i := range s.fields {
		if !s.fields[i].Valid() {
			valid = false
		}
	}
	if !valid {
		return nil
	}
	s.busy = true
	s.errMsg = ""
	name, email := s.fields[0].Value(), s.fields[1].Value()
	register := s.register
	return func() tea.Msg {
		id, err := register(context.Background(), name, email)
		return registeredMsg{Identity: id, Err: err}
	}
}

func (s *RegisterScreen) advance(id backend.Identity) tea.Cmd {
	next, err := s.next(id)
	if err != nil {
		return func() tea.Msg { return nextFailedMsg{Err: err} }
	}
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *RegisterScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Render("Before you start") + "\n")
	b.WriteString(theme.Hint.Render("Register so your course progress is saved with the training team.") + "\n\n")

	for _, f := range s.fields {
		b.WriteString(f.View() + "\n\n")
	}

	switch {
	case s.busy:
		b.WriteString(theme.Hint.Render("Registering..."))
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Card.Width(min(64, width-4)).Render(b.String()))
}
