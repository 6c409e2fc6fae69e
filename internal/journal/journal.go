// Package journal keeps an append-only SQLite history of alarm phase
// transitions. It is diagnostic only; nothing reads it back into the
// scheduler.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/oscalarm/oscalarm/pkg/logger"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

// DefaultRecordTimeout bounds a single insert done by Observer.
const DefaultRecordTimeout = 2 * time.Second

// ErrClosed is returned after Close.
var ErrClosed = errors.New("journal is closed")

const schema = `
CREATE TABLE IF NOT EXISTS transitions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id     TEXT    NOT NULL DEFAULT '',
    at_unix_ms   INTEGER NOT NULL,
    from_phase   TEXT    NOT NULL,
    to_phase     TEXT    NOT NULL,
    event        TEXT    NOT NULL,
    cause        TEXT    NOT NULL,
    snooze_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS transitions_at ON transitions(at_unix_ms);
`

// Entry is one recorded transition. CycleID groups the entries of one ring
// cycle, from the first fire to its stop or exhaustion, and is empty
// outside a cycle.
type Entry struct {
	ID          int64
	CycleID     string
	At          time.Time
	From        string
	To          string
	Event       string
	Cause       string
	SnoozeCount int
}

// Journal is safe for concurrent use.
type Journal struct {
	db  *sql.DB
	log logger.Logger

	mu     sync.Mutex
	cycle  string
	closed bool
}

// Open opens or creates the journal database at path.
func Open(path string, l logger.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error: cannot open journal database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes
	// writers on file databases.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error: cannot create journal schema: %w", err)
	}
	return &Journal{db: db, log: logger.OrNop(l)}, nil
}

// Record appends tr.
func (j *Journal) Record(ctx context.Context, tr alarm.Transition) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}

	if tr.From == alarm.PhaseWaiting && tr.To == alarm.PhaseRinging {
		j.cycle = uuid.NewString()
	}
	_, err := j.db.ExecContext(ctx, `
        INSERT INTO transitions (cycle_id, at_unix_ms, from_phase, to_phase, event, cause, snooze_count)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, j.cycle, tr.At.UnixMilli(), tr.From.String(), tr.To.String(), tr.Event.String(), tr.Cause, tr.SnoozeCount)
	if tr.To == alarm.PhaseWaiting || tr.To == alarm.PhaseIdle {
		j.cycle = ""
	}
	if err != nil {
		return fmt.Errorf("error: failed to record transition: %w", err)
	}
	return nil
}

// Observer returns a transition hook for alarm.Options that records every
// transition and logs failures.
func (j *Journal) Observer() func(alarm.Transition) {
	return func(tr alarm.Transition) {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultRecordTimeout)
		defer cancel()
		if err := j.Record(ctx, tr); err != nil && !errors.Is(err, ErrClosed) {
			j.log.Warning("record transition: %v", err)
		}
	}
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	j.mu.Lock()
	closed := j.closed
	j.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	rows, err := j.db.QueryContext(ctx, `
        SELECT id, cycle_id, at_unix_ms, from_phase, to_phase, event, cause, snooze_count
        FROM transitions
        ORDER BY id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.CycleID, &ms, &e.From, &e.To, &e.Event, &e.Cause, &e.SnoozeCount); err != nil {
			return nil, fmt.Errorf("error: failed to scan journal row: %w", err)
		}
		e.At = time.UnixMilli(ms)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error: failed to iterate journal rows: %w", err)
	}
	return out, nil
}

// Prune deletes entries older than before and reports how many went.
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return 0, ErrClosed
	}
	res, err := j.db.ExecContext(ctx, `DELETE FROM transitions WHERE at_unix_ms < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("error: failed to prune journal: %w", err)
	}
	return res.RowsAffected()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}
