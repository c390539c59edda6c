package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/hillway/coursegate/internal/ui/theme"
)

// OptionState is how a single answer option is drawn.
type OptionState int

const (
	OptionOpen OptionState = iota
	OptionTried
	OptionCorrect
	OptionMissed // the right answer, revealed after the question locked
	OptionClosed // the question is over and this option was not chosen
)

// OptionList renders the numbered options of a multiple-choice question.
type OptionList struct {
	Texts   []string
	States  []OptionState
	Focused bool
}

// View renders the options, one per line.
func (o OptionList) View() string {
	var b strings.Builder
	for i, text := range o.Texts {
		state := OptionOpen
		if i < len(o.States) {
			state = o.States[i]
		}
		line := fmt.Sprintf("  %d) %s", i+1, text)

		var style lipgloss.Style
		switch state {
		case OptionTried:
			style = theme.Disabled
			line += "  ✗"
		case OptionCorrect:
			style = theme.Correct
			line += "  ✓"
		case OptionMissed:
			style = lipgloss.NewStyle().Foreground(theme.Success)
			line += "  ← correct answer"
		case OptionClosed:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		default:
			style = theme.Unselected
			if o.Focused {
				style = lipgloss.NewStyle().Foreground(theme.Primary)
			}
		}

		b.WriteString(style.Render(line))
		if i < len(o.Texts)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
