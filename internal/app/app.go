package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hillway/coursegate/internal/router"
	"github.com/hillway/coursegate/internal/screen"
	"github.com/hillway/coursegate/internal/ui/layout"
)

// Options configures the terminal host.
type Options struct {
	// Initial is the first screen, the reader or the registration screen.
	Initial screen.Screen

	// Course is shown on the left of the header.
	Course string

	// Admin shows the gates-bypassed badge in the header.
	Admin bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	course string
	admin  bool
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	return AppModel{
		router: router.New(opts.Initial),
		course: opts.Course,
		admin:  opts.Admin,
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.router.Broadcast(msg)

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
		}

	case router.PushScreenMsg, router.ReplaceScreenMsg:
		// Screens entering the stack have not seen the window size yet.
		cmd := m.router.Update(msg)
		if m.width == 0 {
			return m, cmd
		}
		size := tea.WindowSizeMsg{Width: m.width, Height: m.height}
		return m, tea.Batch(cmd, func() tea.Msg { return size })
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	h := layout.Header{Course: m.course, Admin: m.admin}
	if active != nil {
		h.Title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			h.Status = sp.Status()
		}
	}
	header := layout.RenderHeader(h, m.width)

	footerHints := []layout.KeyHint{
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if kp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = kp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = append([]layout.KeyHint{{Key: "Esc", Description: "Back"}}, footerHints...)
	}
	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and closes every open screen when it
// exits, so the final reading state is written.
func Run(ctx context.Context, opts Options) error {
	if opts.Initial == nil {
		return fmt.Errorf("no initial screen")
	}
	m := newAppModel(opts)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	m.router.Close(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}
