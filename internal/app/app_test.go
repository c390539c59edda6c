package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/hillway/coursegate/internal/router"
	"github.com/hillway/coursegate/internal/screen"
)

type sizedScreen struct {
	title string
	sizes []tea.WindowSizeMsg
}

func (s *sizedScreen) Init() tea.Cmd { return nil }
func (s *sizedScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		s.sizes = append(s.sizes, size)
	}
	return s, nil
}
func (s *sizedScreen) View(int, int) string { return s.title }
func (s *sizedScreen) Title() string        { return s.title }

// drain runs cmd and feeds every resulting message back into the model.
func drain(t *testing.T, m AppModel, cmd tea.Cmd) AppModel {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = drain(t, m, c)
		}
		return m
	}
	if msg == nil {
		return m
	}
	next, cmd := m.Update(msg)
	return drain(t, next.(AppModel), cmd)
}

func TestReplacedScreenReceivesWindowSize(t *testing.T) {
	register := &sizedScreen{title: "register"}
	m := newAppModel(Options{Initial: register, Course: "intro"})

	next, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = drain(t, next.(AppModel), cmd)
	if len(register.sizes) != 1 {
		t.Fatalf("initial screen saw %d sizes, want 1", len(register.sizes))
	}

	reader := &sizedScreen{title: "reader"}
	next, cmd = m.Update(router.ReplaceScreenMsg{Screen: reader})
	m = drain(t, next.(AppModel), cmd)

	if m.router.Active() != reader {
		t.Fatal("reader is not the active screen")
	}
	if len(reader.sizes) == 0 || reader.sizes[0].Width != 100 || reader.sizes[0].Height != 40 {
		t.Errorf("reader sizes = %v, want 100x40", reader.sizes)
	}
}

func TestEscPopsOnlyPushedScreens(t *testing.T) {
	base := &sizedScreen{title: "reader"}
	m := newAppModel(Options{Initial: base})

	next, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	m = drain(t, next.(AppModel), cmd)
	if m.router.Depth() != 1 {
		t.Fatalf("depth = %d after esc on the base screen", m.router.Depth())
	}

	next, cmd = m.Update(router.PushScreenMsg{Screen: &sizedScreen{title: "progress"}})
	m = drain(t, next.(AppModel), cmd)
	if m.router.Depth() != 2 {
		t.Fatalf("depth = %d after push, want 2", m.router.Depth())
	}

	next, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	m = drain(t, next.(AppModel), cmd)
	if m.router.Depth() != 1 || m.router.Active() != base {
		t.Errorf("esc did not return to the base screen")
	}
}
