package register

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/hillway/coursegate/internal/backend"
	"github.com/hillway/coursegate/internal/router"
	"github.com/hillway/coursegate/internal/screen"
)

type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "reader" }
func (s *stubScreen) Title() string                           { return "Reader" }

func typeText(s *RegisterScreen, text string) {
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func TestRegisterFlow(t *testing.T) {
	var gotName, gotEmail string
	var nextID backend.Identity
	s := New(
		func(_ context.Context, name, email string) (backend.Identity, error) {
			gotName, gotEmail = name, email
			return backend.Identity{ID: "abc", Name: name}, nil
		},
		func(id backend.Identity) (screen.Screen, error) {
			nextID = id
			return &stubScreen{}, nil
		},
	)
	s.Init()

	typeText(s, "Ada")
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if s.focused != 1 {
		t.Fatalf("expected enter on the name to move to email, focused=%d", s.focused)
	}
	typeText(s, "ada@example.com")

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil || !s.busy {
		t.Fatal("expected a registration command")
	}
	_, cmd = s.Update(cmd())
	if gotName != "Ada" || gotEmail != "ada@example.com" {
		t.Errorf("unexpected registration %q %q", gotName, gotEmail)
	}
	if nextID.ID != "abc" {
		t.Errorf("expected the identity to be handed on, got %+v", nextID)
	}
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Error("expected the registration screen to be replaced")
	}
}

func TestRegisterValidates(t *testing.T) {
	called := false
	s := New(
		func(context.Context, string, string) (backend.Identity, error) {
			called = true
			return backend.Identity{}, nil
		},
		func(backend.Identity) (screen.Screen, error) { return &stubScreen{}, nil },
	)
	s.Init()
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	typeText(s, "not-an-email")

	if _, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); cmd != nil || called {
		t.Fatal("expected invalid input to be refused")
	}
	if s.fields[0].Problem == "" || s.fields[1].Problem == "" {
		t.Error("expected both fields to report a problem")
	}
}

func TestSkipAndNextFailure(t *testing.T) {
	s := New(
		func(context.Context, string, string) (backend.Identity, error) { return backend.Identity{}, nil },
		func(id backend.Identity) (screen.Screen, error) {
			if id.ID != "" {
				t.Errorf("skip should hand on an empty identity, got %+v", id)
			}
			return nil, errors.New("course missing")
		},
	)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	s.Update(cmd())
	if s.errMsg != "course missing" {
		t.Errorf("expected the failure to be shown, got %q", s.errMsg)
	}
}
