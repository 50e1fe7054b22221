package stats

import (
	"testing"
	"time"

	"github.com/applytrack/applytrack/internal/tracker"
)

var now = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func app(status tracker.Status, stage string, applied time.Time) *tracker.Application {
	return &tracker.Application{Status: status, RejectedAtStage: stage, AppliedDate: applied, UpdatedAt: applied}
}

func sample() []*tracker.Application {
	old := now.AddDate(0, 0, -20)
	return []*tracker.Application{
		app(tracker.StatusApplied, "", now.AddDate(0, 0, -1)),
		app(tracker.StatusApplied, "", old),
		app(tracker.StatusPhoneScreen, "", now.AddDate(0, 0, -3)),
		app(tracker.StatusSecondInterview, "", old),
		app(tracker.StatusOfferReceived, "", old),
		app(tracker.StatusRejected, tracker.StageAfterPhone, old),
		app(tracker.StatusRejected, tracker.StageAfterPhone, old),
		app(tracker.StatusRejected, "", old),
		app(tracker.StatusWithdrawn, "", old),
		app(tracker.StatusNoResponse, "", old),
	}
}

func TestComputeOverview(t *testing.T) {
	got := ComputeOverview(sample(), now)
	want := Overview{Total: 10, Active: 6, ThisWeek: 2, Interviews: 2, Offers: 1, Rejected: 3, Withdrawn: 1}
	if got != want {
		t.Errorf("ComputeOverview() = %+v, want %+v", got, want)
	}
}

func TestComputeStatusBreakdown(t *testing.T) {
	got := ComputeStatusBreakdown(sample())
	if len(got) != len(tracker.AllStatuses) {
		t.Fatalf("got %d statuses, want every status", len(got))
	}

	byStatus := map[tracker.Status]StatusCount{}
	for _, sc := range got {
		byStatus[sc.Status] = sc
	}
	if c := byStatus[tracker.StatusRejected]; c.Count != 3 || c.Color != "#EF4444" || c.Label != "Rejected" {
		t.Errorf("rejected = %+v", c)
	}
	if c := byStatus[tracker.StatusThirdInterview]; c.Count != 0 || c.Label != "3rd Interview" {
		t.Errorf("third interview = %+v", c)
	}
}

func TestComputeRejectionBreakdown(t *testing.T) {
	got := ComputeRejectionBreakdown(sample())
	if got.TotalRejected != 3 || len(got.ByStage) != 2 {
		t.Fatalf("breakdown = %+v", got)
	}
	first, second := got.ByStage[0], got.ByStage[1]
	if first.Stage != tracker.StageAfterPhone || first.Count != 2 || first.Percentage != 66.7 {
		t.Errorf("first = %+v", first)
	}
	if second.Stage != "Not specified" || second.Percentage != 33.3 {
		t.Errorf("second = %+v", second)
	}
}

func TestComputeFunnel(t *testing.T) {
	got := ComputeFunnel(sample())
	tests := []struct {
		stage        string
		reached      int
		current      int
		rejectedHere int
	}{
		{"Applied", 8, 3, 0},
		{"Phone Screen", 5, 1, 2},
		{"First Interview", 2, 0, 0},
		{"Second Interview", 2, 1, 0},
		{"Third Interview", 1, 0, 0},
		{"Offer", 1, 1, 0},
	}
	if len(got) != len(tests) {
		t.Fatalf("got %d stages", len(got))
	}
	for i, tt := range tests {
		g := got[i]
		if g.Stage != tt.stage || g.Reached != tt.reached || g.Current != tt.current || g.RejectedHere != tt.rejectedHere {
			t.Errorf("stage %d = %+v, want %+v", i, g, tt)
		}
	}
	if got[0].PercentTotal != 80 {
		t.Errorf("applied percentage = %v, want 80", got[0].PercentTotal)
	}

	if empty := ComputeFunnel(nil); len(empty) != 0 {
		t.Errorf("empty funnel = %v", empty)
	}
}

func TestComputeTimeline(t *testing.T) {
	got := ComputeTimeline(sample(), now)
	if len(got) != timelineDays+1 {
		t.Fatalf("timeline has %d days, want %d", len(got), timelineDays+1)
	}
	if got[0].Date != "2024-03-01" || got[len(got)-1].Date != "2024-03-31" {
		t.Errorf("range %s..%s", got[0].Date, got[len(got)-1].Date)
	}

	counts := map[string]int{}
	for _, d := range got {
		counts[d.Date] = d.Count
	}
	if counts["2024-03-11"] != 8 || counts["2024-03-30"] != 1 || counts["2024-03-28"] != 1 || counts["2024-03-15"] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestComputeResponseRates(t *testing.T) {
	apps := sample()
	contact := apps[2].AppliedDate.Add(60 * time.Hour)
	apps[2].LastContactDate = &contact

	got := ComputeResponseRates(apps)
	if got.ResponseRate != 70 || got.InterviewRate != 30 || got.OfferRate != 10 {
		t.Errorf("rates = %+v", got)
	}
	if got.AvgResponseDays == nil || *got.AvgResponseDays != 2 {
		t.Errorf("avg days = %v, want 2", got.AvgResponseDays)
	}

	if empty := ComputeResponseRates(nil); empty.AvgResponseDays != nil || empty.ResponseRate != 0 {
		t.Errorf("empty rates = %+v", empty)
	}
}

func TestRecentActivity(t *testing.T) {
	var apps []*tracker.Application
	for i := 0; i < 15; i++ {
		a := app(tracker.StatusApplied, "", now)
		a.ID = int64(i + 1)
		a.UpdatedAt = now.Add(time.Duration(i) * time.Hour)
		apps = append(apps, a)
	}

	got := RecentActivity(apps)
	if len(got) != 10 || got[0].ID != 15 || got[9].ID != 6 {
		t.Errorf("recent = %d items, first %d", len(got), got[0].ID)
	}
	if apps[0].ID != 1 {
		t.Error("RecentActivity reordered its input")
	}
}
