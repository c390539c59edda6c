package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
	if s.Dialect() != "sqlite3" {
		t.Errorf("dialect = %q, want sqlite3", s.Dialect())
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("oracle", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestKVRoundTrip(t *testing.T) {
	kv := openTestStore(t).KV()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Fatal("expected missing key to report ok=false")
	}

	if err := kv.Set(ctx, "hillway-reading-gates-demo", []byte(`{"sections":{}}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := kv.Get(ctx, "hillway-reading-gates-demo")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"sections":{}}` {
		t.Errorf("value = %s", got)
	}

	// Overwrite replaces the value.
	if err := kv.Set(ctx, "hillway-reading-gates-demo", []byte(`{"sections":{"a":{}}}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, _ = kv.Get(ctx, "hillway-reading-gates-demo")
	if string(got) != `{"sections":{"a":{}}}` {
		t.Errorf("value after overwrite = %s", got)
	}

	if err := kv.Delete(ctx, "hillway-reading-gates-demo"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, _ = kv.Get(ctx, "hillway-reading-gates-demo")
	if ok {
		t.Error("expected key to be gone after delete")
	}

	// Deleting again is a no-op.
	if err := kv.Delete(ctx, "hillway-reading-gates-demo"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestMemoryKVCopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	buf := []byte("abc")
	_ = kv.Set(ctx, "k", buf)
	buf[0] = 'x'

	got, ok, _ := kv.Get(ctx, "k")
	if !ok || string(got) != "abc" {
		t.Fatalf("got %q ok=%v, want abc", got, ok)
	}
	got[1] = 'y'
	again, _, _ := kv.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
	if kv.Keys() != 1 {
		t.Errorf("keys = %d, want 1", kv.Keys())
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if seq <= last {
			t.Fatalf("sequence not increasing: %d after %d", seq, last)
		}
		last = seq
	}
	if last != 5 {
		t.Errorf("last sequence = %d, want 5", last)
	}
}

func TestProgressEventsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []ProgressEventData{
		{Course: "demo", Kind: KindSectionComplete, Day: 1, Subject: "d1-intro"},
		{Course: "demo", Kind: KindQuizUnlocked, Day: 1, Subject: "quiz1"},
		{Course: "other", Kind: KindSectionComplete, Day: 1, Subject: "day1-a"},
		{Course: "demo", Kind: KindDayUnlocked, Day: 2},
	}
	for _, e := range events {
		if err := repo.AppendProgressEvent(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.QueryProgressEvents(ctx, QueryOpts{Course: "demo"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if got[0].Kind != KindDayUnlocked || got[2].Subject != "d1-intro" {
		t.Errorf("unexpected order: %+v", got)
	}
	if got[0].Sequence <= got[1].Sequence {
		t.Errorf("expected descending sequence, got %d then %d", got[0].Sequence, got[1].Sequence)
	}

	limited, err := repo.QueryProgressEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: got %d events, want 2", len(limited))
	}

	after, err := repo.QueryProgressEvents(ctx, QueryOpts{After: got[1].Sequence, Course: "demo"})
	if err != nil {
		t.Fatalf("query after: %v", err)
	}
	if len(after) != 1 || after[0].Kind != KindDayUnlocked {
		t.Errorf("after: got %+v", after)
	}
}

func TestCountByKind(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = repo.AppendProgressEvent(ctx, ProgressEventData{Course: "demo", Kind: KindAnswer, Subject: fmt.Sprint(i + 1)})
	}
	_ = repo.AppendProgressEvent(ctx, ProgressEventData{Course: "demo", Kind: KindSectionComplete, Subject: "d1-a"})
	_ = repo.AppendProgressEvent(ctx, ProgressEventData{Course: "other", Kind: KindAnswer, Subject: "1"})

	counts, err := repo.CountByKind(ctx, "demo")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[KindAnswer] != 3 || counts[KindSectionComplete] != 1 {
		t.Errorf("counts = %v", counts)
	}

	all, err := repo.CountByKind(ctx, "")
	if err != nil {
		t.Fatalf("count all: %v", err)
	}
	if all[KindAnswer] != 4 {
		t.Errorf("all answers = %d, want 4", all[KindAnswer])
	}
}
