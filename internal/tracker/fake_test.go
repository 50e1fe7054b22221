package tracker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/applytrack/applytrack/internal/classifier"
)

// fakeRepo is an in-memory Repository. Records are copied in and out so
// callers cannot mutate stored state by accident.
type fakeRepo struct {
	apps      map[int64]Application
	emails    map[int64]Email
	reminders map[int64]int64 // reminder ID -> application ID
	nextID    int64
	clock     time.Time
	lastSync  time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		apps:      make(map[int64]Application),
		emails:    make(map[int64]Email),
		reminders: make(map[int64]int64),
		clock:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick hands out strictly increasing timestamps
func (r *fakeRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *fakeRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *fakeRepo) sortedApps() []Application {
	out := make([]Application, 0, len(r.apps))
	for _, a := range r.apps {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format("2006-01-02") == b.UTC().Format("2006-01-02")
}

func (r *fakeRepo) FindByCompanyOnDate(_ context.Context, company string, day time.Time) (*Application, error) {
	for _, a := range r.sortedApps() {
		if strings.EqualFold(a.CompanyName, company) && sameDay(a.AppliedDate, day) {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindByCompanyAndPosition(_ context.Context, company, position string, excludeID int64) (*Application, error) {
	for _, a := range r.sortedApps() {
		if a.ID != excludeID && strings.EqualFold(a.CompanyName, company) && strings.EqualFold(a.PositionTitle, position) {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindLatestByCompany(_ context.Context, company string) (*Application, error) {
	var best *Application
	for _, a := range r.sortedApps() {
		if !strings.EqualFold(a.CompanyName, company) {
			continue
		}
		if best == nil || a.AppliedDate.After(best.AppliedDate) {
			a := a
			best = &a
		}
	}
	return best, nil
}

func (r *fakeRepo) GetApplication(_ context.Context, id int64) (*Application, error) {
	a, ok := r.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *fakeRepo) CreateApplication(_ context.Context, app *Application) error {
	app.ID = r.id()
	app.CreatedAt = r.tick()
	app.UpdatedAt = app.CreatedAt
	r.apps[app.ID] = *app
	return nil
}

func (r *fakeRepo) UpdateApplication(_ context.Context, app *Application) error {
	if _, ok := r.apps[app.ID]; !ok {
		return ErrNotFound
	}
	app.UpdatedAt = r.tick()
	r.apps[app.ID] = *app
	return nil
}

func (r *fakeRepo) DeleteApplication(_ context.Context, id int64) error {
	if _, ok := r.apps[id]; !ok {
		return ErrNotFound
	}
	delete(r.apps, id)
	return nil
}

func (r *fakeRepo) MergeApplications(ctx context.Context, kept *Application, deletedID int64) error {
	for id, e := range r.emails {
		if e.ApplicationID != nil && *e.ApplicationID == deletedID {
			keptID := kept.ID
			e.ApplicationID = &keptID
			r.emails[id] = e
		}
	}
	for id, appID := range r.reminders {
		if appID == deletedID {
			r.reminders[id] = kept.ID
		}
	}
	if err := r.UpdateApplication(ctx, kept); err != nil {
		return err
	}
	return r.DeleteApplication(ctx, deletedID)
}

func (r *fakeRepo) GetEmail(_ context.Context, id int64) (*Email, error) {
	e, ok := r.emails[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (r *fakeRepo) FindEmailByProviderID(_ context.Context, providerID string) (*Email, error) {
	for _, e := range r.emails {
		if e.ProviderID == providerID {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) CreateEmail(_ context.Context, e *Email) error {
	e.ID = r.id()
	e.CreatedAt = r.tick()
	r.emails[e.ID] = *e
	return nil
}

func (r *fakeRepo) UpdateEmail(_ context.Context, e *Email) error {
	if _, ok := r.emails[e.ID]; !ok {
		return ErrNotFound
	}
	r.emails[e.ID] = *e
	return nil
}

func (r *fakeRepo) ListPendingEmails(_ context.Context) ([]*Email, error) {
	var out []*Email
	for _, e := range r.emails {
		if e.IsJobRelated && !e.IsProcessed && e.ApplicationID == nil {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedDate.After(out[j].ReceivedDate) })
	return out, nil
}

func (r *fakeRepo) SetLastSync(_ context.Context, t time.Time) error {
	r.lastSync = t
	return nil
}

// addApp stores an application with a fixed updated_at
func (r *fakeRepo) addApp(app Application) *Application {
	app.ID = r.id()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = r.tick()
	}
	if app.UpdatedAt.IsZero() {
		app.UpdatedAt = app.CreatedAt
	}
	r.apps[app.ID] = app
	return &app
}

func (r *fakeRepo) addEmail(e Email) *Email {
	e.ID = r.id()
	r.emails[e.ID] = e
	return &e
}

// fakeFetcher returns a fixed batch of messages
type fakeFetcher struct {
	msgs []classifier.Message
	err  error
}

func (f *fakeFetcher) Fetch(context.Context, time.Time, int) ([]classifier.Message, error) {
	return f.msgs, f.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}
