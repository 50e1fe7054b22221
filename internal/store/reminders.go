package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/applytrack/applytrack/internal/tracker"
)

const reminderSelect = `SELECT r.id, r.application_id, r.reminder_date, r.message, r.is_completed,
	r.is_dismissed, r.created_at, a.company_name, a.position_title
	FROM reminders r JOIN applications a ON a.id = r.application_id`

func scanReminder(scanner interface{ Scan(...any) error }) (*tracker.Reminder, error) {
	var r tracker.Reminder
	var date, createdAt, message sql.NullString
	var completed, dismissed int

	err := scanner.Scan(&r.ID, &r.ApplicationID, &date, &message, &completed,
		&dismissed, &createdAt, &r.CompanyName, &r.PositionTitle)
	if err != nil {
		return nil, err
	}
	r.ReminderDate = parseTime(date)
	r.Message = message.String
	r.IsCompleted = completed != 0
	r.IsDismissed = dismissed != 0
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

func (s *Store) queryReminders(ctx context.Context, query string, args ...any) ([]*tracker.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*tracker.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (s *Store) CreateReminder(ctx context.Context, r *tracker.Reminder) error {
	r.CreatedAt = s.now()

	result, err := s.db.ExecContext(ctx, `
	INSERT INTO reminders (application_id, reminder_date, message, is_completed, is_dismissed, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		r.ApplicationID, formatTime(r.ReminderDate), r.Message,
		boolInt(r.IsCompleted), boolInt(r.IsDismissed), formatTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	return nil
}

func (s *Store) GetReminder(ctx context.Context, id int64) (*tracker.Reminder, error) {
	r, err := scanReminder(s.db.QueryRowContext(ctx, reminderSelect+` WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reminder %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return r, nil
}

func (s *Store) UpdateReminder(ctx context.Context, r *tracker.Reminder) error {
	result, err := s.db.ExecContext(ctx, `
	UPDATE reminders SET reminder_date = ?, message = ?, is_completed = ?, is_dismissed = ?
	WHERE id = ?`,
		formatTime(r.ReminderDate), r.Message, boolInt(r.IsCompleted), boolInt(r.IsDismissed), r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("reminder %d: %w", r.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteReminder(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("reminder %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListReminders returns reminders ordered by date. Completed and dismissed
// ones are only included when includeDone is set.
func (s *Store) ListReminders(ctx context.Context, includeDone bool) ([]*tracker.Reminder, error) {
	query := reminderSelect
	if !includeDone {
		query += ` WHERE r.is_completed = 0 AND r.is_dismissed = 0`
	}
	return s.queryReminders(ctx, query+` ORDER BY r.reminder_date, r.id`)
}

// DueReminders returns pending reminders dated before the given instant
func (s *Store) DueReminders(ctx context.Context, before time.Time) ([]*tracker.Reminder, error) {
	return s.queryReminders(ctx, reminderSelect+`
		WHERE r.is_completed = 0 AND r.is_dismissed = 0 AND r.reminder_date < ?
		ORDER BY r.reminder_date, r.id`, formatTime(before))
}

func (s *Store) RemindersForApplication(ctx context.Context, appID int64) ([]*tracker.Reminder, error) {
	return s.queryReminders(ctx, reminderSelect+` WHERE r.application_id = ? ORDER BY r.reminder_date, r.id`, appID)
}

// HasPendingReminder reports whether an application has a reminder that is
// neither completed nor dismissed.
func (s *Store) HasPendingReminder(ctx context.Context, appID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reminders
		WHERE application_id = ? AND is_completed = 0 AND is_dismissed = 0`, appID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count reminders: %w", err)
	}
	return n > 0, nil
}
