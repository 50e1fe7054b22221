package reminder

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/applytrack/applytrack/internal/tracker"
)

// Store is the persistence the reminder service needs
type Store interface {
	GetApplication(ctx context.Context, id int64) (*tracker.Application, error)
	UpdateApplication(ctx context.Context, app *tracker.Application) error
	StaleApplications(ctx context.Context, cutoff time.Time) ([]*tracker.Application, error)

	CreateReminder(ctx context.Context, r *tracker.Reminder) error
	GetReminder(ctx context.Context, id int64) (*tracker.Reminder, error)
	UpdateReminder(ctx context.Context, r *tracker.Reminder) error
	DeleteReminder(ctx context.Context, id int64) error
	ListReminders(ctx context.Context, includeDone bool) ([]*tracker.Reminder, error)
	DueReminders(ctx context.Context, before time.Time) ([]*tracker.Reminder, error)
	HasPendingReminder(ctx context.Context, appID int64) (bool, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// ListOptions filters List
type ListOptions struct {
	IncludeDone  bool // Include completed and dismissed reminders
	UpcomingOnly bool // Only reminders dated from now on
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]*tracker.Reminder, error) {
	reminders, err := s.store.ListReminders(ctx, opts.IncludeDone)
	if err != nil {
		return nil, err
	}
	if !opts.UpcomingOnly {
		return reminders, nil
	}

	now := s.now()
	upcoming := reminders[:0]
	for _, r := range reminders {
		if !r.ReminderDate.Before(now) {
			upcoming = append(upcoming, r)
		}
	}
	return upcoming, nil
}

// Due returns pending reminders dated today or earlier
func (s *Service) Due(ctx context.Context) ([]*tracker.Reminder, error) {
	return s.store.DueReminders(ctx, endOfDay(s.now()))
}

// Create adds a reminder for an application and makes its date the
// application's next action.
func (s *Service) Create(ctx context.Context, appID int64, date time.Time, message string) (*tracker.Reminder, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: reminder date is required", tracker.ErrInvalidInput)
	}
	app, err := s.store.GetApplication(ctx, appID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(message) == "" {
		message = "Follow up with " + app.CompanyName
	}
	r := &tracker.Reminder{
		ApplicationID: app.ID,
		ReminderDate:  date,
		Message:       message,
		CompanyName:   app.CompanyName,
		PositionTitle: app.PositionTitle,
	}
	if err := s.store.CreateReminder(ctx, r); err != nil {
		return nil, err
	}
	if err := s.setNextAction(ctx, app, date); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Complete(ctx context.Context, id int64) (*tracker.Reminder, error) {
	return s.mark(ctx, id, func(r *tracker.Reminder) { r.IsCompleted = true })
}

func (s *Service) Dismiss(ctx context.Context, id int64) (*tracker.Reminder, error) {
	return s.mark(ctx, id, func(r *tracker.Reminder) { r.IsDismissed = true })
}

// Snooze moves a reminder to days from now (at least one) and carries the new
// date over to the application.
func (s *Service) Snooze(ctx context.Context, id int64, days int) (*tracker.Reminder, error) {
	if days < 1 {
		days = 1
	}
	date := s.now().AddDate(0, 0, days)
	r, err := s.mark(ctx, id, func(r *tracker.Reminder) { r.ReminderDate = date })
	if err != nil {
		return nil, err
	}

	app, err := s.store.GetApplication(ctx, r.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := s.setNextAction(ctx, app, date); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteReminder(ctx, id)
}

func (s *Service) mark(ctx context.Context, id int64, change func(*tracker.Reminder)) (*tracker.Reminder, error) {
	r, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	change(r)
	if err := s.store.UpdateReminder(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) setNextAction(ctx context.Context, app *tracker.Application, date time.Time) error {
	app.NextActionDate = &date
	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return fmt.Errorf("failed to set next action date: %w", err)
	}
	return nil
}

// AutoCreate adds a follow-up for tomorrow to every in-progress application
// that has been quiet for daysInactive days and has nothing pending.
func (s *Service) AutoCreate(ctx context.Context, daysInactive int) ([]*tracker.Reminder, error) {
	if daysInactive < 1 {
		daysInactive = 7
	}
	now := s.now()
	stale, err := s.store.StaleApplications(ctx, now.AddDate(0, 0, -daysInactive))
	if err != nil {
		return nil, err
	}

	tomorrow := now.AddDate(0, 0, 1)
	var created []*tracker.Reminder
	for _, app := range stale {
		pending, err := s.store.HasPendingReminder(ctx, app.ID)
		if err != nil {
			return created, err
		}
		if pending {
			continue
		}

		msg := fmt.Sprintf("Follow up with %s - no response in %d+ days", app.CompanyName, daysInactive)
		r, err := s.Create(ctx, app.ID, tomorrow, msg)
		if err != nil {
			return created, fmt.Errorf("failed to create reminder for application %d: %w", app.ID, err)
		}
		created = append(created, r)
	}

	if len(created) > 0 {
		log.Printf("Created %d follow-up reminders", len(created))
	}
	return created, nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
