package router

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/hillway/coursegate/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title   string
	initRan bool
	closed  int
	seen    []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.seen = append(s.seen, msg)
	return s, nil
}
func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

// closingScreen also flushes state on Close.
type closingScreen struct{ stubScreen }

func (s *closingScreen) Close(context.Context) { s.closed++ }

func TestPushPop(t *testing.T) {
	first := &stubScreen{title: "reader"}
	r := New(first)

	second := &closingScreen{stubScreen{title: "progress"}}
	r.Update(PushScreenMsg{Screen: second})
	if r.Depth() != 2 || r.Active().Title() != "progress" {
		t.Fatalf("expected progress on top at depth 2, got %q at %d", r.Active().Title(), r.Depth())
	}
	if !second.initRan {
		t.Error("expected Init() to run on pushed screen")
	}

	r.Update(PopScreenMsg{})
	if r.Active().Title() != "reader" {
		t.Errorf("expected active 'reader', got %q", r.Active().Title())
	}
	if second.closed != 1 {
		t.Errorf("expected popped screen closed once, got %d", second.closed)
	}

	r.Pop()
	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after pop at bottom, got %d", r.Depth())
	}
}

func TestReplaceClosesPrevious(t *testing.T) {
	register := &closingScreen{stubScreen{title: "register"}}
	r := New(register)

	reader := &stubScreen{title: "reader"}
	r.Update(ReplaceScreenMsg{Screen: reader})

	if r.Depth() != 1 || r.Active().Title() != "reader" {
		t.Fatalf("expected reader alone on the stack, got %q at %d", r.Active().Title(), r.Depth())
	}
	if !reader.initRan {
		t.Error("expected Init() to run on replacement")
	}
	if register.closed != 1 {
		t.Errorf("expected replaced screen closed once, got %d", register.closed)
	}
}

func TestUpdateForwardsToActive(t *testing.T) {
	bottom := &stubScreen{title: "reader"}
	top := &stubScreen{title: "progress"}
	r := New(bottom)
	r.Push(top)

	r.Update("hello")
	if len(top.seen) != 1 || len(bottom.seen) != 0 {
		t.Errorf("expected only the top screen to see the message, got top=%d bottom=%d", len(top.seen), len(bottom.seen))
	}

	r.Broadcast(tea.WindowSizeMsg{Width: 80, Height: 24})
	if len(top.seen) != 2 || len(bottom.seen) != 1 {
		t.Errorf("expected broadcast to reach both screens, got top=%d bottom=%d", len(top.seen), len(bottom.seen))
	}
}

// timerScreen keeps receiving its own timer messages from below the top.
type timerScreen struct{ stubScreen }

type timerMsg struct{}

func (s *timerScreen) WantsInBackground(msg tea.Msg) bool {
	_, ok := msg.(timerMsg)
	return ok
}

func TestUpdateReachesBackgroundScreens(t *testing.T) {
	bottom := &timerScreen{stubScreen{title: "reader"}}
	top := &stubScreen{title: "progress"}
	r := New(bottom)
	r.Push(top)

	r.Update("hello")
	if len(bottom.seen) != 0 {
		t.Errorf("background screen should not see unrelated messages, got %d", len(bottom.seen))
	}

	r.Update(timerMsg{})
	if len(bottom.seen) != 1 || len(top.seen) != 2 {
		t.Errorf("expected timer message at both screens, got bottom=%d top=%d", len(bottom.seen), len(top.seen))
	}
}

func TestCloseAll(t *testing.T) {
	bottom := &closingScreen{stubScreen{title: "reader"}}
	r := New(bottom)
	r.Push(&stubScreen{title: "progress"})

	r.Close(context.Background())
	if bottom.closed != 1 {
		t.Errorf("expected reader closed once, got %d", bottom.closed)
	}
}
