package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/applytrack/applytrack/internal/tracker"
)

const applicationColumns = `id, company_name, position_title, job_url, location, salary_min, salary_max,
	status, rejected_at_stage, applied_date, last_contact_date, next_action_date,
	recruiter_name, recruiter_email, job_description, notes, created_at, updated_at`

// Columns callers may sort listings by
var sortColumns = map[string]bool{
	"company_name":      true,
	"position_title":    true,
	"status":            true,
	"applied_date":      true,
	"last_contact_date": true,
	"next_action_date":  true,
	"created_at":        true,
	"updated_at":        true,
}

// scanApplication handles nullable columns when scanning a row
func scanApplication(scanner interface{ Scan(...any) error }) (*tracker.Application, error) {
	var a tracker.Application
	var jobURL, location, stage, recruiterName, recruiterEmail, description, notes sql.NullString
	var applied, lastContact, nextAction, createdAt, updatedAt sql.NullString
	var salaryMin, salaryMax sql.NullInt64
	var status string

	err := scanner.Scan(&a.ID, &a.CompanyName, &a.PositionTitle, &jobURL, &location, &salaryMin, &salaryMax,
		&status, &stage, &applied, &lastContact, &nextAction,
		&recruiterName, &recruiterEmail, &description, &notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.Status = tracker.Status(status)
	a.JobURL = jobURL.String
	a.Location = location.String
	a.RejectedAtStage = stage.String
	a.RecruiterName = recruiterName.String
	a.RecruiterEmail = recruiterEmail.String
	a.JobDescription = description.String
	a.Notes = notes.String
	a.AppliedDate = parseTime(applied)
	a.LastContactDate = parseTimePtr(lastContact)
	a.NextActionDate = parseTimePtr(nextAction)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	if salaryMin.Valid {
		v := int(salaryMin.Int64)
		a.SalaryMin = &v
	}
	if salaryMax.Valid {
		v := int(salaryMax.Int64)
		a.SalaryMax = &v
	}
	return &a, nil
}

func (s *Store) queryApplication(ctx context.Context, query string, args ...any) (*tracker.Application, error) {
	app, err := scanApplication(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query application: %w", err)
	}
	return app, nil
}

func (s *Store) queryApplications(ctx context.Context, query string, args ...any) ([]*tracker.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []*tracker.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (s *Store) GetApplication(ctx context.Context, id int64) (*tracker.Application, error) {
	app, err := s.queryApplication(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return app, nil
}

func (s *Store) FindByCompanyOnDate(ctx context.Context, company string, day time.Time) (*tracker.Application, error) {
	return s.queryApplication(ctx, `SELECT `+applicationColumns+` FROM applications
		WHERE lower(company_name) = lower(?) AND substr(applied_date, 1, 10) = ?
		ORDER BY id LIMIT 1`, company, day.UTC().Format("2006-01-02"))
}

func (s *Store) FindByCompanyAndPosition(ctx context.Context, company, position string, excludeID int64) (*tracker.Application, error) {
	return s.queryApplication(ctx, `SELECT `+applicationColumns+` FROM applications
		WHERE id != ? AND lower(company_name) = lower(?) AND lower(position_title) = lower(?)
		ORDER BY id LIMIT 1`, excludeID, company, position)
}

func (s *Store) FindLatestByCompany(ctx context.Context, company string) (*tracker.Application, error) {
	return s.queryApplication(ctx, `SELECT `+applicationColumns+` FROM applications
		WHERE lower(company_name) = lower(?)
		ORDER BY applied_date DESC, id DESC LIMIT 1`, company)
}

func (s *Store) CreateApplication(ctx context.Context, app *tracker.Application) error {
	now := s.now()
	app.CreatedAt, app.UpdatedAt = now, now

	result, err := s.db.ExecContext(ctx, `
	INSERT INTO applications (company_name, position_title, job_url, location, salary_min, salary_max,
		status, rejected_at_stage, applied_date, last_contact_date, next_action_date,
		recruiter_name, recruiter_email, job_description, notes, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.CompanyName, app.PositionTitle, nullString(app.JobURL), nullString(app.Location),
		nullInt(app.SalaryMin), nullInt(app.SalaryMax),
		string(app.Status), nullString(app.RejectedAtStage), formatTime(app.AppliedDate),
		formatTimePtr(app.LastContactDate), formatTimePtr(app.NextActionDate),
		nullString(app.RecruiterName), nullString(app.RecruiterEmail), nullString(app.JobDescription),
		nullString(app.Notes), formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	app.ID = id
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) updateApplication(ctx context.Context, db execer, app *tracker.Application) error {
	app.UpdatedAt = s.now()

	result, err := db.ExecContext(ctx, `
	UPDATE applications SET company_name = ?, position_title = ?, job_url = ?, location = ?,
		salary_min = ?, salary_max = ?, status = ?, rejected_at_stage = ?, applied_date = ?,
		last_contact_date = ?, next_action_date = ?, recruiter_name = ?, recruiter_email = ?,
		job_description = ?, notes = ?, updated_at = ?
	WHERE id = ?`,
		app.CompanyName, app.PositionTitle, nullString(app.JobURL), nullString(app.Location),
		nullInt(app.SalaryMin), nullInt(app.SalaryMax), string(app.Status), nullString(app.RejectedAtStage),
		formatTime(app.AppliedDate), formatTimePtr(app.LastContactDate), formatTimePtr(app.NextActionDate),
		nullString(app.RecruiterName), nullString(app.RecruiterEmail), nullString(app.JobDescription),
		nullString(app.Notes), formatTime(app.UpdatedAt), app.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("application %d: %w", app.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateApplication(ctx context.Context, app *tracker.Application) error {
	return s.updateApplication(ctx, s.db, app)
}

// DeleteApplication removes an application with its reminders and unlinks its emails
func (s *Store) DeleteApplication(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE emails SET application_id = NULL WHERE application_id = ?`, id); err != nil {
		return fmt.Errorf("failed to unlink emails: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE application_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete reminders: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// MergeApplications saves kept, hands every email and reminder of deletedID
// over to it and deletes deletedID in one transaction.
func (s *Store) MergeApplications(ctx context.Context, kept *tracker.Application, deletedID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.updateApplication(ctx, tx, kept); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE emails SET application_id = ? WHERE application_id = ?`, kept.ID, deletedID); err != nil {
		return fmt.Errorf("failed to move emails: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE reminders SET application_id = ? WHERE application_id = ?`, kept.ID, deletedID); err != nil {
		return fmt.Errorf("failed to move reminders: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, deletedID); err != nil {
		return fmt.Errorf("failed to delete duplicate: %w", err)
	}
	return tx.Commit()
}

// ListQuery filters and pages the application list
type ListQuery struct {
	Status  string
	Search  string
	Sort    string // One of the sortable columns; applied_date by default
	Order   string // "asc" or "desc" (default)
	Page    int
	PerPage int
}

type ApplicationPage struct {
	Applications []*tracker.Application `json:"applications"`
	Total        int                    `json:"total"`
	Page         int                    `json:"page"`
	PerPage      int                    `json:"per_page"`
	Pages        int                    `json:"pages"`
}

func (s *Store) ListApplications(ctx context.Context, q ListQuery) (*ApplicationPage, error) {
	var where []string
	var args []any

	if q.Status != "" {
		st, err := tracker.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		where = append(where, "status = ?")
		args = append(args, string(st))
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		like := "%" + term + "%"
		where = append(where, "(company_name LIKE ? OR position_title LIKE ? OR notes LIKE ?)")
		args = append(args, like, like, like)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	sortCol := q.Sort
	if !sortColumns[sortCol] {
		sortCol = "applied_date"
	}
	order := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		order = "ASC"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 50
	}

	page := &ApplicationPage{Page: q.Page, PerPage: q.PerPage}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`+clause, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}
	page.Pages = (page.Total + q.PerPage - 1) / q.PerPage

	query := fmt.Sprintf(`SELECT %s FROM applications%s ORDER BY %s %s, id %s LIMIT ? OFFSET ?`,
		applicationColumns, clause, sortCol, order, order)
	apps, err := s.queryApplications(ctx, query, append(args, q.PerPage, (q.Page-1)*q.PerPage)...)
	if err != nil {
		return nil, err
	}
	page.Applications = apps
	if page.Applications == nil {
		page.Applications = []*tracker.Application{}
	}
	return page, nil
}

// AllApplications returns every application, newest first
func (s *Store) AllApplications(ctx context.Context) ([]*tracker.Application, error) {
	return s.queryApplications(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY applied_date DESC, id DESC`)
}

// StaleApplications returns applications in an active, pre-offer status that
// have not been touched since before cutoff.
func (s *Store) StaleApplications(ctx context.Context, cutoff time.Time) ([]*tracker.Application, error) {
	return s.queryApplications(ctx, `SELECT `+applicationColumns+` FROM applications
		WHERE status IN (?, ?, ?, ?, ?) AND updated_at < ?
		ORDER BY updated_at`,
		string(tracker.StatusApplied), string(tracker.StatusPhoneScreen), string(tracker.StatusFirstInterview),
		string(tracker.StatusSecondInterview), string(tracker.StatusThirdInterview), formatTime(cutoff))
}
