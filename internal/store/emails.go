package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/applytrack/applytrack/internal/classifier"
	"github.com/applytrack/applytrack/internal/tracker"
)

const emailColumns = `id, provider_id, thread_id, sender, sender_email, subject, snippet, body_preview,
	received_date, detected_company, detected_position, detected_status, rejected_at_stage,
	confidence, is_job_related, is_processed, application_id, created_at`

func scanEmail(scanner interface{ Scan(...any) error }) (*tracker.Email, error) {
	var e tracker.Email
	var threadID, sender, senderEmail, subject, snippet, body sql.NullString
	var company, position, status, stage sql.NullString
	var received, createdAt sql.NullString
	var confidence sql.NullFloat64
	var related, processed int
	var appID sql.NullInt64

	err := scanner.Scan(&e.ID, &e.ProviderID, &threadID, &sender, &senderEmail, &subject, &snippet, &body,
		&received, &company, &position, &status, &stage,
		&confidence, &related, &processed, &appID, &createdAt)
	if err != nil {
		return nil, err
	}

	e.ThreadID = threadID.String
	e.Sender = sender.String
	e.SenderEmail = senderEmail.String
	e.Subject = subject.String
	e.Snippet = snippet.String
	e.BodyPreview = body.String
	e.ReceivedDate = parseTime(received)
	e.DetectedCompany = company.String
	e.DetectedPosition = position.String
	e.DetectedStatus = classifier.Signal(status.String)
	e.RejectedAtStage = stage.String
	e.Confidence = confidence.Float64
	e.IsJobRelated = related != 0
	e.IsProcessed = processed != 0
	e.CreatedAt = parseTime(createdAt)
	if appID.Valid {
		id := appID.Int64
		e.ApplicationID = &id
	}
	return &e, nil
}

func (s *Store) queryEmails(ctx context.Context, query string, args ...any) ([]*tracker.Email, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()

	var emails []*tracker.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

func (s *Store) GetEmail(ctx context.Context, id int64) (*tracker.Email, error) {
	e, err := scanEmail(s.db.QueryRowContext(ctx, `SELECT `+emailColumns+` FROM emails WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("email %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	return e, nil
}

// FindEmailByProviderID returns nil when the message has never been stored
func (s *Store) FindEmailByProviderID(ctx context.Context, providerID string) (*tracker.Email, error) {
	e, err := scanEmail(s.db.QueryRowContext(ctx, `SELECT `+emailColumns+` FROM emails WHERE provider_id = ?`, providerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find email: %w", err)
	}
	return e, nil
}

func (s *Store) CreateEmail(ctx context.Context, e *tracker.Email) error {
	e.CreatedAt = s.now()

	result, err := s.db.ExecContext(ctx, `
	INSERT INTO emails (provider_id, thread_id, sender, sender_email, subject, snippet, body_preview,
		received_date, detected_company, detected_position, detected_status, rejected_at_stage,
		confidence, is_job_related, is_processed, application_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ProviderID, nullString(e.ThreadID), e.Sender, e.SenderEmail, e.Subject,
		nullString(e.Snippet), nullString(e.BodyPreview), formatTime(e.ReceivedDate),
		nullString(e.DetectedCompany), nullString(e.DetectedPosition), nullString(string(e.DetectedStatus)),
		nullString(e.RejectedAtStage), e.Confidence, boolInt(e.IsJobRelated), boolInt(e.IsProcessed),
		nullID(e.ApplicationID), formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert email: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// UpdateEmail saves the review state of an email. The message itself never changes.
func (s *Store) UpdateEmail(ctx context.Context, e *tracker.Email) error {
	result, err := s.db.ExecContext(ctx, `
	UPDATE emails SET detected_company = ?, detected_position = ?, detected_status = ?,
		rejected_at_stage = ?, confidence = ?, is_job_related = ?, is_processed = ?, application_id = ?
	WHERE id = ?`,
		nullString(e.DetectedCompany), nullString(e.DetectedPosition), nullString(string(e.DetectedStatus)),
		nullString(e.RejectedAtStage), e.Confidence, boolInt(e.IsJobRelated), boolInt(e.IsProcessed),
		nullID(e.ApplicationID), e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("email %d: %w", e.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) ListPendingEmails(ctx context.Context) ([]*tracker.Email, error) {
	return s.queryEmails(ctx, `SELECT `+emailColumns+` FROM emails
		WHERE is_job_related = 1 AND is_processed = 0 AND application_id IS NULL
		ORDER BY received_date DESC, id DESC`)
}

// EmailsForApplication returns the mail linked to an application, newest first
func (s *Store) EmailsForApplication(ctx context.Context, appID int64) ([]*tracker.Email, error) {
	return s.queryEmails(ctx, `SELECT `+emailColumns+` FROM emails
		WHERE application_id = ? ORDER BY received_date DESC, id DESC`, appID)
}

// RecentEmails returns the latest job-related emails regardless of review state
func (s *Store) RecentEmails(ctx context.Context, limit int) ([]*tracker.Email, error) {
	return s.queryEmails(ctx, `SELECT `+emailColumns+` FROM emails
		WHERE is_job_related = 1 ORDER BY received_date DESC, id DESC LIMIT ?`, limit)
}

func nullID(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
