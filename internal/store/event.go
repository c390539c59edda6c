package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const (
	eventsTable   = "progress_events"
	sequenceTable = "global_sequence"
)

// sequenceCounter hands out the global monotonic sequence number for progress
// events. Auto-increment ids are per-connection and per-dialect; the shared
// counter gives every event a single increasing order that survives restores
// and lets queries page with After/Before.
//
// The mutex serializes within the process; the transaction makes the
// increment atomic at the database level on all three dialects (MySQL has no
// UPDATE ... RETURNING).
type sequenceCounter struct {
	mu      sync.Mutex
	db      *sql.DB
	dialect string
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB, dialect string) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY,
		next_val BIGINT NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	query, args := entsql.Dialect(dialect).
		Insert(sequenceTable).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithIgnore(),
		).
		Query()
	if _, err := db.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db, dialect: dialect}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	tx, err := sc.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer tx.Rollback()

	sel, selArgs := entsql.Dialect(sc.dialect).
		Select("next_val").
		From(entsql.Table(sequenceTable)).
		Where(entsql.EQ("id", 1)).
		Query()
	var seq int64
	if err := tx.QueryRowContext(ctx, sel, selArgs...).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	upd, updArgs := entsql.Dialect(sc.dialect).
		Update(sequenceTable).
		Set("next_val", seq+1).
		Where(entsql.EQ("id", 1)).
		Query()
	if _, err := tx.ExecContext(ctx, upd, updArgs...); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo on the progress_events table.
type eventRepo struct {
	db      *sql.DB
	dialect string
	seq     *sequenceCounter
}

func (r *eventRepo) AppendProgressEvent(ctx context.Context, data ProgressEventData) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	query, args := entsql.Dialect(r.dialect).
		Insert(eventsTable).
		Columns("sequence", "recorded_at", "course", "kind", "day", "subject", "detail").
		Values(seq, time.Now().UnixMilli(), data.Course, data.Kind, data.Day, data.Subject, data.Detail).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append progress event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryProgressEvents(ctx context.Context, opts QueryOpts) ([]ProgressEventRecord, error) {
	sel := entsql.Dialect(r.dialect).
		Select("id", "sequence", "recorded_at", "course", "kind", "day", "subject", "detail").
		From(entsql.Table(eventsTable))

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("recorded_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("recorded_at", opts.To.UnixMilli()))
	}
	if opts.Course != "" {
		preds = append(preds, entsql.EQ("course", opts.Course))
	}
	if opts.Kind != "" {
		preds = append(preds, entsql.EQ("kind", opts.Kind))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query progress events: %w", err)
	}
	defer rows.Close()

	var out []ProgressEventRecord
	for rows.Next() {
		var (
			rec        ProgressEventRecord
			recordedAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &recordedAt, &rec.Course, &rec.Kind, &rec.Day, &rec.Subject, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan progress event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(recordedAt).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query progress events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) CountByKind(ctx context.Context, course string) (map[string]int, error) {
	sel := entsql.Dialect(r.dialect).
		Select("kind", entsql.Count("*")).
		From(entsql.Table(eventsTable))
	if course != "" {
		sel.Where(entsql.EQ("course", course))
	}
	sel.GroupBy("kind")

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count progress events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
