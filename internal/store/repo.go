package store

import (
	"context"
	"time"
)

// KV is a string-keyed blob store. It plays the role the browser's local
// storage played for the course pages: one JSON document per key.
type KV interface {
	// Get returns the value stored under key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	Course string    // exact course match ("" = all courses)
	Kind   string    // exact kind match ("" = all kinds)
}

// Progress event kinds.
const (
	KindSectionComplete = "section-complete"
	KindQuizUnlocked    = "quiz-unlocked"
	KindDayUnlocked     = "day-unlocked"
	KindAnswer          = "answer"
	KindReset           = "reset"
)

// ProgressEventData captures a single course-progress transition.
type ProgressEventData struct {
	Course  string
	Kind    string
	Day     int
	Subject string // section id, quiz id or question number
	Detail  string
}

// ProgressEventRecord is a stored progress event.
type ProgressEventRecord struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	ProgressEventData
}

// EventRepo provides append and query access to progress events.
type EventRepo interface {
	// AppendProgressEvent records a progress transition.
	AppendProgressEvent(ctx context.Context, data ProgressEventData) error

	// QueryProgressEvents returns events newest first.
	QueryProgressEvents(ctx context.Context, opts QueryOpts) ([]ProgressEventRecord, error)

	// CountByKind returns event counts per kind for a course ("" = all).
	CountByKind(ctx context.Context, course string) (map[string]int, error)
}
