package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/hillway/coursegate/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar with an optional caption
// after it, e.g. a section's reading timer.
type ProgressBar struct {
	Label   string
	Percent float64
	Caption string
	Width   int
	Fill    color.Color
}

// NewProgressBar creates a new progress bar filled with the secondary color.
func NewProgressBar(label string, percent float64, caption string, width int) ProgressBar {
	return ProgressBar{
		Label:   label,
		Percent: percent,
		Caption: caption,
		Width:   width,
		Fill:    theme.Secondary,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(p.Label) + "  ")
	}

	caption := fmt.Sprintf("  %3d%%", int(clamp01(p.Percent)*100))
	if p.Caption != "" {
		caption = "  " + p.Caption
	}

	barWidth := p.Width - lipgloss.Width(b.String()) - lipgloss.Width(caption)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * clamp01(p.Percent))
	fill := p.Fill
	if fill == nil {
		fill = theme.Secondary
	}

	b.WriteString(lipgloss.NewStyle().Background(fill).Render(strings.Repeat(" ", filled)))
	b.WriteString(lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled)))
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(caption))

	return b.String()
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
