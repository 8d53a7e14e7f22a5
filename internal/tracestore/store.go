// Package tracestore persists a record of each committed turn to
// PostgreSQL for later inspection, grounded on the teacher's
// trace.Store (services/gateway/internal/trace/store.go) but narrowed to
// this domain's single table and made fire-and-forget: RecordTurn never
// blocks the turn pipeline, matching the ambient "no session may block on
// shared-resource I/O" rule.
package tracestore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

const queueCapacity = 256

// TurnRecord is one committed turn, as written to the turns table.
type TurnRecord struct {
	SessionID       string
	TurnSeq         uint64
	Transcript      string
	ReplyBG         string
	CorrectionCount int
	DurationMs      float64
	Provider        string
	StartedAt       time.Time
}

// Store asynchronously persists TurnRecords. The zero value is not
// usable; construct with Open.
type Store struct {
	db     *sql.DB
	queue  chan TurnRecord
	done   chan struct{}
	closed chan struct{}
}

// Open connects to connStr, creates the turns table if missing, and
// starts the background writer goroutine. Callers must call Close on
// shutdown to drain the queue and release the connection.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("tracestore open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracestore ping: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracestore migrate: %w", err)
	}

	s := &Store{
		db:     db,
		queue:  make(chan TurnRecord, queueCapacity),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go s.writeLoop()
	return s, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			id               BIGSERIAL PRIMARY KEY,
			session_id       TEXT NOT NULL,
			turn_seq         BIGINT NOT NULL,
			transcript       TEXT NOT NULL,
			reply_bg         TEXT NOT NULL,
			correction_count INTEGER NOT NULL,
			duration_ms      DOUBLE PRECISION NOT NULL,
			provider         TEXT NOT NULL,
			started_at       TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// RecordTurn enqueues rec for asynchronous insertion. If the queue is
// full the record is dropped and logged rather than blocking the caller
// — trace data is diagnostic, not authoritative.
func (s *Store) RecordTurn(rec TurnRecord) {
	select {
	case s.queue <- rec:
	default:
		slog.Warn("tracestore queue full, dropping turn record",
			"session_id", rec.SessionID, "turn_seq", rec.TurnSeq)
	}
}

func (s *Store) writeLoop() {
	defer close(s.closed)
	for {
		select {
		case rec := <-s.queue:
			s.insert(rec)
		case <-s.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case rec := <-s.queue:
					s.insert(rec)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) insert(rec TurnRecord) {
	_, err := s.db.Exec(
		`INSERT INTO turns (session_id, turn_seq, transcript, reply_bg, correction_count, duration_ms, provider, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.SessionID, rec.TurnSeq, rec.Transcript, rec.ReplyBG, rec.CorrectionCount, rec.DurationMs, rec.Provider, rec.StartedAt.UTC(),
	)
	if err != nil {
		slog.Warn("tracestore insert failed", "session_id", rec.SessionID, "turn_seq", rec.TurnSeq, "error", err)
	}
}

// Close stops the writer goroutine after draining its queue and closes
// the database connection.
func (s *Store) Close() error {
	close(s.done)
	<-s.closed
	return s.db.Close()
}
