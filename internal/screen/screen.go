package screen

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/hillway/coursegate/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is an optional interface for screens that show a status
// line on the right of the header.
type StatusProvider interface {
	Status() string
}

// Background is implemented by screens that must keep receiving some
// messages, such as their own timers, while another screen is on top.
type Background interface {
	WantsInBackground(msg tea.Msg) bool
}

// Closer is implemented by screens holding state that must be flushed when
// the program exits.
type Closer interface {
	Close(ctx context.Context)
}
