package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/applytrack/applytrack/internal/tracker"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by single-row getters when the row does not exist
var ErrNotFound = tracker.ErrNotFound

var _ tracker.Repository = (*Store)(nil)

// Timestamps are stored as fixed-width UTC text so they sort lexically and
// the first ten characters are the calendar date.
const timeLayout = "2006-01-02T15:04:05.000Z"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_name TEXT NOT NULL,
		position_title TEXT NOT NULL,
		job_url TEXT,
		location TEXT,
		salary_min INTEGER,
		salary_max INTEGER,
		status TEXT NOT NULL DEFAULT 'applied',
		rejected_at_stage TEXT,
		applied_date TEXT,
		last_contact_date TEXT,
		next_action_date TEXT,
		recruiter_name TEXT,
		recruiter_email TEXT,
		job_description TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_app_company ON applications(company_name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_app_status ON applications(status);
	CREATE INDEX IF NOT EXISTS idx_app_applied ON applications(applied_date);

	-- Inbound mail and what the classifier made of it
	CREATE TABLE IF NOT EXISTS emails (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_id TEXT NOT NULL UNIQUE,
		thread_id TEXT,
		sender TEXT,
		sender_email TEXT,
		subject TEXT,
		snippet TEXT,
		body_preview TEXT,
		received_date TEXT,
		detected_company TEXT,
		detected_position TEXT,
		detected_status TEXT,
		rejected_at_stage TEXT,
		confidence REAL DEFAULT 0,
		is_job_related INTEGER DEFAULT 1,
		is_processed INTEGER DEFAULT 0,
		application_id INTEGER REFERENCES applications(id),
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_email_app ON emails(application_id);
	CREATE INDEX IF NOT EXISTS idx_email_pending ON emails(is_job_related, is_processed);

	CREATE TABLE IF NOT EXISTS reminders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		application_id INTEGER NOT NULL REFERENCES applications(id),
		reminder_date TEXT NOT NULL,
		message TEXT,
		is_completed INTEGER DEFAULT 0,
		is_dismissed INTEGER DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reminder_app ON reminders(application_id);
	CREATE INDEX IF NOT EXISTS idx_reminder_date ON reminders(reminder_date);

	-- Key/value settings such as the last mailbox sync
	CREATE TABLE IF NOT EXISTS sync_state (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, ns.String)
	if err != nil {
		// Rows written by hand or older builds
		t, _ = time.Parse(time.RFC3339Nano, ns.String)
	}
	return t
}

func parseTimePtr(ns sql.NullString) *time.Time {
	t := parseTime(ns)
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SetLastSync records when the mailbox was last scanned
func (s *Store) SetLastSync(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_state (key, value) VALUES ('last_sync', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, formatTime(t))
	if err != nil {
		return fmt.Errorf("failed to record sync time: %w", err)
	}
	return nil
}

// LastSync returns the zero time when no scan has run
func (s *Store) LastSync(ctx context.Context) (time.Time, error) {
	var v sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = 'last_sync'`).Scan(&v)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read sync time: %w", err)
	}
	return parseTime(v), nil
}
