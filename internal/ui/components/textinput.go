package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hillway/coursegate/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with a label and an inline validation
// message.
type TextInput struct {
	Label    string
	Model    textinput.Model
	Validate func(string) string // returns a problem, or "" when valid
	Problem  string
}

// NewTextInput creates a new labelled text input. It starts blurred.
func NewTextInput(label, placeholder string, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	return TextInput{Label: label, Model: ti}
}

// Focus focuses the input.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur removes focus from the input.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	if t.Problem != "" {
		t.Problem = t.check()
	}
	return t, cmd
}

// View renders the label, the input and any validation problem.
func (t TextInput) View() string {
	label := lipgloss.NewStyle().Foreground(theme.TextDim).Render(t.Label)
	if t.Model.Focused() {
		label = theme.Selected.Render(t.Label)
	}
	view := label + "\n" + t.Model.View()
	if t.Problem != "" {
		view += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(t.Problem)
	}
	return view
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// Valid runs the validator and remembers its verdict for View.
func (t *TextInput) Valid() bool {
	t.Problem = t.check()
	return t.Problem == ""
}

func (t TextInput) check() string {
	if t.Validate == nil {
		return ""
	}
	return t.Validate(t.Value())
}
