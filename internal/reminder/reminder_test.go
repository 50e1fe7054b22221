package reminder

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/applytrack/applytrack/internal/tracker"
)

type fakeStore struct {
	apps      map[int64]*tracker.Application
	reminders map[int64]*tracker.Reminder
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{apps: map[int64]*tracker.Application{}, reminders: map[int64]*tracker.Reminder{}}
}

func (f *fakeStore) addApp(app tracker.Application) *tracker.Application {
	f.nextID++
	app.ID = f.nextID
	f.apps[app.ID] = &app
	return &app
}

func (f *fakeStore) GetApplication(_ context.Context, id int64) (*tracker.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, tracker.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (f *fakeStore) UpdateApplication(_ context.Context, app *tracker.Application) error {
	cp := *app
	f.apps[app.ID] = &cp
	return nil
}

func (f *fakeStore) StaleApplications(_ context.Context, cutoff time.Time) ([]*tracker.Application, error) {
	var out []*tracker.Application
	for _, app := range f.apps {
		rank := app.Status.Rank()
		if rank >= 0 && rank < tracker.StatusOfferReceived.Rank() && app.UpdatedAt.Before(cutoff) {
			cp := *app
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateReminder(_ context.Context, r *tracker.Reminder) error {
	f.nextID++
	r.ID = f.nextID
	cp := *r
	f.reminders[r.ID] = &cp
	return nil
}

func (f *fakeStore) GetReminder(_ context.Context, id int64) (*tracker.Reminder, error) {
	r, ok := f.reminders[id]
	if !ok {
		return nil, tracker.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) UpdateReminder(_ context.Context, r *tracker.Reminder) error {
	cp := *r
	f.reminders[r.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteReminder(_ context.Context, id int64) error {
	if _, ok := f.reminders[id]; !ok {
		return tracker.ErrNotFound
	}
	delete(f.reminders, id)
	return nil
}

func (f *fakeStore) ListReminders(_ context.Context, includeDone bool) ([]*tracker.Reminder, error) {
	var out []*tracker.Reminder
	for _, r := range f.reminders {
		if includeDone || (!r.IsCompleted && !r.IsDismissed) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderDate.Before(out[j].ReminderDate) })
	return out, nil
}

func (f *fakeStore) DueReminders(ctx context.Context, before time.Time) ([]*tracker.Reminder, error) {
	pending, _ := f.ListReminders(ctx, false)
	var out []*tracker.Reminder
	for _, r := range pending {
		if r.ReminderDate.Before(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) HasPendingReminder(_ context.Context, appID int64) (bool, error) {
	for _, r := range f.reminders {
		if r.ApplicationID == appID && !r.IsCompleted && !r.IsDismissed {
			return true, nil
		}
	}
	return false, nil
}

var now = time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore) *Service {
	s := NewService(store)
	s.now = func() time.Time { return now }
	return s
}

func TestCreateDefaultsMessageAndSetsNextAction(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	app := store.addApp(tracker.Application{CompanyName: "Acme", PositionTitle: "SWE", Status: tracker.StatusApplied})
	svc := newTestService(store)

	date := now.AddDate(0, 0, 3)
	r, err := svc.Create(ctx, app.ID, date, "  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Message != "Follow up with Acme" {
		t.Errorf("message = %q", r.Message)
	}
	if got := store.apps[app.ID].NextActionDate; got == nil || !got.Equal(date) {
		t.Errorf("next action = %v, want %v", got, date)
	}

	if _, err := svc.Create(ctx, 999, date, ""); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("Create for missing application error = %v", err)
	}
}

func TestDueAndUpcoming(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	app := store.addApp(tracker.Application{CompanyName: "Acme"})
	svc := newTestService(store)

	overdue, _ := svc.Create(ctx, app.ID, now.AddDate(0, 0, -2), "overdue")
	later, _ := svc.Create(ctx, app.ID, now.Add(6*time.Hour), "tonight")
	next, _ := svc.Create(ctx, app.ID, now.AddDate(0, 0, 2), "next")

	due, err := svc.Due(ctx)
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if len(due) != 2 || due[0].ID != overdue.ID || due[1].ID != later.ID {
		t.Errorf("due = %v, want overdue and tonight", due)
	}

	upcoming, _ := svc.List(ctx, ListOptions{UpcomingOnly: true})
	if len(upcoming) != 2 || upcoming[1].ID != next.ID {
		t.Errorf("upcoming = %v", upcoming)
	}
}

func TestCompleteDismissDelete(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	app := store.addApp(tracker.Application{CompanyName: "Acme"})
	svc := newTestService(store)

	a, _ := svc.Create(ctx, app.ID, now, "")
	b, _ := svc.Create(ctx, app.ID, now, "")
	c, _ := svc.Create(ctx, app.ID, now, "")

	if r, err := svc.Complete(ctx, a.ID); err != nil || !r.IsCompleted {
		t.Errorf("Complete = %v, %v", r, err)
	}
	if r, err := svc.Dismiss(ctx, b.ID); err != nil || !r.IsDismissed {
		t.Errorf("Dismiss = %v, %v", r, err)
	}
	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	pending, _ := svc.List(ctx, ListOptions{})
	all, _ := svc.List(ctx, ListOptions{IncludeDone: true})
	if len(pending) != 0 || len(all) != 2 {
		t.Errorf("pending %d all %d, want 0 and 2", len(pending), len(all))
	}
	if _, err := svc.Complete(ctx, 999); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("Complete(999) error = %v", err)
	}
}

func TestSnooze(t *testing.T) {
	tests := []struct {
		days     int
		wantDays int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{5, 5},
	}
	for _, tt := range tests {
		ctx := context.Background()
		store := newFakeStore()
		app := store.addApp(tracker.Application{CompanyName: "Acme"})
		svc := newTestService(store)
		r, _ := svc.Create(ctx, app.ID, now.AddDate(0, 0, -1), "")

		got, err := svc.Snooze(ctx, r.ID, tt.days)
		if err != nil {
			t.Fatalf("Snooze: %v", err)
		}
		want := now.AddDate(0, 0, tt.wantDays)
		if !got.ReminderDate.Equal(want) {
			t.Errorf("Snooze(%d) date = %v, want %v", tt.days, got.ReminderDate, want)
		}
		if next := store.apps[app.ID].NextActionDate; next == nil || !next.Equal(want) {
			t.Errorf("Snooze(%d) next action = %v", tt.days, next)
		}
	}
}

func TestAutoCreate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	old := now.AddDate(0, 0, -10)
	quiet := store.addApp(tracker.Application{CompanyName: "Acme", Status: tracker.StatusPhoneScreen, UpdatedAt: old})
	covered := store.addApp(tracker.Application{CompanyName: "Globex", Status: tracker.StatusApplied, UpdatedAt: old})
	store.addApp(tracker.Application{CompanyName: "Initech", Status: tracker.StatusApplied, UpdatedAt: now.AddDate(0, 0, -2)})
	store.addApp(tracker.Application{CompanyName: "Umbrella", Status: tracker.StatusRejected, UpdatedAt: old})
	svc := newTestService(store)

	if _, err := svc.Create(ctx, covered.ID, now.AddDate(0, 0, 4), ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	created, err := svc.AutoCreate(ctx, 7)
	if err != nil {
		t.Fatalf("AutoCreate: %v", err)
	}
	if len(created) != 1 || created[0].ApplicationID != quiet.ID {
		t.Fatalf("created = %v, want one reminder for %d", created, quiet.ID)
	}
	if want := "Follow up with Acme - no response in 7+ days"; created[0].Message != want {
		t.Errorf("message = %q, want %q", created[0].Message, want)
	}
	if !created[0].ReminderDate.Equal(now.AddDate(0, 0, 1)) {
		t.Errorf("date = %v, want tomorrow", created[0].ReminderDate)
	}

	again, _ := svc.AutoCreate(ctx, 7)
	if len(again) != 0 {
		t.Errorf("second run created %d reminders, want 0", len(again))
	}
}
