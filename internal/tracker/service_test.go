package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/applytrack/applytrack/internal/classifier"
)

func newTestService(repo *fakeRepo) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return day(2024, 5, 1) }
	return s
}

func TestUpdateApplicationMergesDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	older := repo.addApp(Application{CompanyName: "Google", PositionTitle: "SWE", Status: StatusApplied,
		AppliedDate: day(2024, 1, 1), Notes: "a", UpdatedAt: day(2024, 1, 1)})
	newer := repo.addApp(Application{CompanyName: "Google", PositionTitle: "SWE", Status: StatusPhoneScreen,
		AppliedDate: day(2024, 1, 9), Notes: "b", UpdatedAt: day(2024, 2, 1)})
	linked := repo.addEmail(Email{ProviderID: "x", ApplicationID: &older.ID, IsJobRelated: true, IsProcessed: true})
	repo.reminders[99] = older.ID

	res, err := newTestService(repo).UpdateApplication(ctx, older.ID, Edit{Notes: strPtr("new note")})
	if err != nil {
		t.Fatalf("UpdateApplication: %v", err)
	}
	if !res.Merged || res.Application.ID != newer.ID || res.DeletedID != older.ID {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Application.Notes != "new note" {
		t.Errorf("notes = %q", res.Application.Notes)
	}
	if !res.Application.AppliedDate.Equal(day(2024, 1, 1)) {
		t.Errorf("applied date = %v, want the earlier one", res.Application.AppliedDate)
	}

	if _, err := repo.GetApplication(ctx, older.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted application still present: %v", err)
	}
	if e, _ := repo.GetEmail(ctx, linked.ID); e.ApplicationID == nil || *e.ApplicationID != newer.ID {
		t.Errorf("email not re-pointed: %v", e.ApplicationID)
	}
	if repo.reminders[99] != newer.ID {
		t.Errorf("reminder not re-pointed: %d", repo.reminders[99])
	}
}

func TestUpdateApplicationPlain(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	app := repo.addApp(Application{CompanyName: "Initech", PositionTitle: "QA Engineer", Status: StatusApplied, AppliedDate: day(2024, 1, 1)})

	res, err := newTestService(repo).UpdateApplication(ctx, app.ID, Edit{Location: strPtr("Austin"), Status: strPtr("phone_screen")})
	if err != nil {
		t.Fatalf("UpdateApplication: %v", err)
	}
	if res.Merged {
		t.Error("no duplicate exists, should not merge")
	}
	stored, _ := repo.GetApplication(ctx, app.ID)
	if stored.Location != "Austin" || stored.Status != StatusPhoneScreen {
		t.Errorf("update not stored: %+v", stored)
	}
}

func TestUpdateApplicationInvalidStatus(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	app := repo.addApp(Application{CompanyName: "Initech", PositionTitle: "QA", Status: StatusApplied})

	_, err := newTestService(repo).UpdateApplication(ctx, app.ID, Edit{Status: strPtr("hired"), Notes: strPtr("x")})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("error = %v, want ErrInvalidStatus", err)
	}
	stored, _ := repo.GetApplication(ctx, app.ID)
	if stored.Notes != "" || stored.Status != StatusApplied {
		t.Errorf("invalid edit mutated the application: %+v", stored)
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	app := repo.addApp(Application{CompanyName: "Hooli", PositionTitle: "PM", Status: StatusRejected, RejectedAtStage: StageResume})
	svc := newTestService(repo)

	got, err := svc.SetStatus(ctx, app.ID, "withdrawn")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.Status != StatusWithdrawn || got.RejectedAtStage != "" {
		t.Errorf("got %+v", got)
	}
	if got.LastContactDate == nil || !got.LastContactDate.Equal(day(2024, 5, 1)) {
		t.Errorf("last contact = %v", got.LastContactDate)
	}

	if _, err := svc.SetStatus(ctx, app.ID, "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("error = %v, want ErrInvalidStatus", err)
	}
	if _, err := svc.SetStatus(ctx, 12345, "applied"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestBulkCreateDefaults(t *testing.T) {
	repo := newFakeRepo()
	created, err := newTestService(repo).BulkCreate(context.Background(), []BulkItem{{}, {CompanyName: "Acme", PositionTitle: "Dev"}})
	if err != nil {
		t.Fatalf("BulkCreate: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d, want 2", len(created))
	}
	if created[0].CompanyName != UnknownCompany || created[0].PositionTitle != UnknownPosition {
		t.Errorf("defaults not applied: %+v", created[0])
	}
	if !created[0].AppliedDate.Equal(day(2024, 5, 1)) || created[1].Status != StatusApplied {
		t.Errorf("unexpected application: %+v", created[1])
	}
}

func TestScanSkipsKnownMessages(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	repo.addEmail(Email{ProviderID: "dismissed", IsJobRelated: false})
	repo.addEmail(Email{ProviderID: "done", IsJobRelated: true, IsProcessed: true})
	repo.addEmail(Email{ProviderID: "waiting", IsJobRelated: true})

	src := &fakeFetcher{msgs: []classifier.Message{
		{ID: "dismissed"}, {ID: "done"}, {ID: "waiting"},
		{ID: "new-job", SenderAddress: "careers@acmecorp.com", Subject: "Thank you for applying to Software Engineer at Acme Corp", ReceivedAt: day(2024, 4, 2)},
		{ID: "new-other", SenderAddress: "friend@example.com", Subject: "Lunch?", ReceivedAt: day(2024, 4, 2)},
	}}

	var progress []int
	res, err := newTestService(repo).Scan(ctx, src, ScanOptions{MaxResults: 10, Progress: func(done, _ int) { progress = append(progress, done) }})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Scanned != 5 || res.New != 2 || res.JobRelated != 1 {
		t.Errorf("counts = %+v", res)
	}
	if res.Skipped != (SkipCounts{Dismissed: 1, AlreadyProcessed: 1, Pending: 1}) {
		t.Errorf("skipped = %+v", res.Skipped)
	}
	if len(res.Emails) != 1 || res.Emails[0].DetectedPosition != "Software Engineer" {
		t.Errorf("emails = %+v", res.Emails)
	}
	if other, _ := repo.FindEmailByProviderID(ctx, "new-other"); other == nil || !other.IsProcessed || other.IsJobRelated {
		t.Errorf("unrelated mail should be stored as dismissed: %+v", other)
	}
	if !repo.lastSync.Equal(day(2024, 5, 1)) {
		t.Errorf("last sync = %v", repo.lastSync)
	}
	if len(progress) == 0 || progress[len(progress)-1] != 5 {
		t.Errorf("progress = %v", progress)
	}

	// A second scan of the same batch adds nothing
	res, err = newTestService(repo).Scan(ctx, src, ScanOptions{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.New != 0 {
		t.Errorf("rescan stored %d new emails", res.New)
	}
}

func TestCreateFromEmailNew(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	email := repo.addEmail(Email{
		SenderEmail: "careers@acmecorp.com", Subject: "Thanks for applying",
		ReceivedDate: day(2024, 4, 2), DetectedCompany: "Acmecorp",
		DetectedStatus: classifier.SignalApplicationReceived, IsJobRelated: true,
	})

	out, err := newTestService(repo).CreateFromEmail(ctx, email.ID, "", "")
	if err != nil {
		t.Fatalf("CreateFromEmail: %v", err)
	}
	if out.Kind != OutcomeCreated {
		t.Fatalf("kind = %s, want created", out.Kind)
	}
	app := out.Application
	if app.CompanyName != "Acmecorp" || app.PositionTitle != UnknownPosition || app.Status != StatusApplied {
		t.Errorf("application = %+v", app)
	}
	if app.Notes != "Created from email: Thanks for applying" || app.RecruiterEmail != "careers@acmecorp.com" {
		t.Errorf("notes %q recruiter %q", app.Notes, app.RecruiterEmail)
	}
	if !app.AppliedDate.Equal(day(2024, 4, 2)) {
		t.Errorf("applied date = %v", app.AppliedDate)
	}
	stored, _ := repo.GetEmail(ctx, email.ID)
	if !stored.IsProcessed || stored.ApplicationID == nil || *stored.ApplicationID != app.ID {
		t.Errorf("email not linked: %+v", stored)
	}
}

func TestCreateFromEmailRejectsExisting(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	app := repo.addApp(Application{CompanyName: "Globex", PositionTitle: "SRE", Status: StatusFirstInterview, AppliedDate: day(2024, 3, 1)})
	email := repo.addEmail(Email{
		Subject: "Update", ReceivedDate: day(2024, 4, 2), DetectedCompany: "globex",
		DetectedStatus: classifier.SignalRejected, IsJobRelated: true,
	})

	out, err := newTestService(repo).CreateFromEmail(ctx, email.ID, "", "")
	if err != nil {
		t.Fatalf("CreateFromEmail: %v", err)
	}
	if out.Kind != OutcomeUpdated || out.Message != "Updated existing application: Rejected at After First Interview" {
		t.Errorf("outcome = %+v", out)
	}
	stored, _ := repo.GetApplication(ctx, app.ID)
	if stored.Status != StatusRejected || stored.RejectedAtStage != StageAfterFirst {
		t.Errorf("stored = %+v", stored)
	}
}

func TestCreateFromEmailTerminalLock(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	app := repo.addApp(Application{CompanyName: "Umbrella", PositionTitle: "Dev", Status: StatusRejected, RejectedAtStage: StageResume, AppliedDate: day(2024, 3, 1)})
	email := repo.addEmail(Email{
		Subject: "Interview", ReceivedDate: day(2024, 4, 2), DetectedCompany: "Umbrella",
		DetectedStatus: classifier.SignalInterviewScheduled, IsJobRelated: true,
	})

	out, err := newTestService(repo).CreateFromEmail(ctx, email.ID, "", "")
	if err != nil {
		t.Fatalf("CreateFromEmail: %v", err)
	}
	if out.Kind != OutcomeLinked {
		t.Errorf("kind = %s, want linked", out.Kind)
	}
	stored, _ := repo.GetApplication(ctx, app.ID)
	if stored.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", stored.Status)
	}
}

func TestAutoProcessInMessageOrder(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	// Later rejection is listed first; it must see the application the earlier mail creates
	repo.addEmail(Email{
		Subject: "Unfortunately", ReceivedDate: day(2024, 4, 9), DetectedCompany: "Vandelay",
		DetectedPosition: "Importer", DetectedStatus: classifier.SignalRejected, Confidence: 0.9, IsJobRelated: true,
	})
	repo.addEmail(Email{
		Subject: "Application received", ReceivedDate: day(2024, 4, 1), DetectedCompany: "Vandelay",
		DetectedPosition: "Importer", DetectedStatus: classifier.SignalApplicationReceived, Confidence: 0.91, IsJobRelated: true,
	})
	repo.addEmail(Email{Subject: "low", DetectedCompany: "Kramerica", Confidence: 0.4, IsJobRelated: true})
	repo.addEmail(Email{Subject: "no company", Confidence: 0.95, IsJobRelated: true})

	res, err := newTestService(repo).AutoProcess(ctx, 0.7)
	if err != nil {
		t.Fatalf("AutoProcess: %v", err)
	}
	if res.Processed != 2 || res.Created != 1 || res.StatusUpdated != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(repo.apps) != 1 {
		t.Fatalf("applications = %d, want 1", len(repo.apps))
	}
	for _, app := range repo.apps {
		if app.Status != StatusRejected || app.RejectedAtStage != StageResume {
			t.Errorf("application = %+v", app)
		}
		if app.Notes != "Auto-created from email: Application received" {
			t.Errorf("notes = %q", app.Notes)
		}
	}
}

func TestLinkAndDismissEmail(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	app := repo.addApp(Application{CompanyName: "Acme", PositionTitle: "Dev"})
	e1 := repo.addEmail(Email{IsJobRelated: true})
	e2 := repo.addEmail(Email{IsJobRelated: true})
	svc := newTestService(repo)

	linked, err := svc.LinkEmail(ctx, e1.ID, app.ID)
	if err != nil {
		t.Fatalf("LinkEmail: %v", err)
	}
	if !linked.IsProcessed || *linked.ApplicationID != app.ID {
		t.Errorf("linked = %+v", linked)
	}
	if _, err := svc.LinkEmail(ctx, e1.ID, 4242); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	if err := svc.DismissEmail(ctx, e2.ID); err != nil {
		t.Fatalf("DismissEmail: %v", err)
	}
	pending, _ := repo.ListPendingEmails(ctx)
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}
