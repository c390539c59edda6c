package progress

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/hillway/coursegate/internal/course"
	"github.com/hillway/coursegate/internal/gate"
	"github.com/hillway/coursegate/internal/quiz"
	"github.com/hillway/coursegate/internal/store"
)

func newTestScreen(t *testing.T, events store.EventRepo) *ProgressScreen {
	t.Helper()
	ctx := context.Background()
	m := &course.Manifest{
		Course: "demo",
		Days: []course.Day{
			{Day: 1, Title: "Basics", Sections: []course.Section{{ID: "d1-a", Words: 10}, {ID: "d1-b", Words: 10}}, Quiz: &course.Quiz{ID: "quiz-1", Questions: []course.Question{
				{Number: "1", Text: "Q", Answer: "a", Options: []course.Option{{Value: "a", Text: "A"}}},
			}}},
			{Day: 2, Title: "More", Sections: []course.Section{{ID: "d2-a", Words: 10}}},
		},
	}
	kv := store.NewMemoryKV()
	engine, err := quiz.NewEngine(ctx, quiz.Options{Config: quiz.DefaultConfig(), Manifest: m, KV: kv})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	session, err := gate.NewSession(ctx, gate.Options{Config: gate.DefaultConfig(), Manifest: m, KV: kv, Quizzes: engine, Events: events})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return New(session, engine, events)
}

func TestDaySummaries(t *testing.T) {
	s := newTestScreen(t, nil)
	s.Init()

	view := s.View(100, 30)
	for _, want := range []string{"Day 1 · Basics", "0/2 sections · quiz locked", "Day 2 · More", "0 of 1 questions", "Nothing yet"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
	if !s.menu.Items[1].Disabled {
		t.Error("expected the locked day to be disabled")
	}
}

func TestSelectDayJumps(t *testing.T) {
	s := newTestScreen(t, nil)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected selecting an unlocked day to produce a command")
	}
}

func TestRecentEventsLoaded(t *testing.T) {
	st, err := store.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	events := st.EventRepo()
	ctx := context.Background()
	if err := events.AppendProgressEvent(ctx, store.ProgressEventData{Course: "demo", Kind: store.KindSectionComplete, Day: 1, Subject: "d1-a"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	s := newTestScreen(t, events)
	s.Update(s.Init()())

	view := s.View(100, 30)
	if !strings.Contains(view, "section-complete") || !strings.Contains(view, "d1-a") {
		t.Errorf("expected the recorded event in the view, got:\n%s", view)
	}
}
