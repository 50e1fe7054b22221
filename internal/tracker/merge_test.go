package tracker

import (
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestMergeExplicitNotesWin(t *testing.T) {
	t1 := day(2024, 1, 1)
	t2 := day(2024, 1, 2)
	older := &Application{ID: 1, CompanyName: "Google", PositionTitle: "SWE", Notes: "old a", UpdatedAt: t1, AppliedDate: t1}
	newer := &Application{ID: 2, CompanyName: "Google", PositionTitle: "SWE", Notes: "old b", UpdatedAt: t2, AppliedDate: t2}

	res, err := Merge(older, newer, Edit{Notes: strPtr("new note")})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Kept.ID != 2 || res.DeletedID != 1 {
		t.Errorf("kept %d deleted %d, want kept 2 deleted 1", res.Kept.ID, res.DeletedID)
	}
	if res.Kept.Notes != "new note" {
		t.Errorf("notes = %q, want exactly %q", res.Kept.Notes, "new note")
	}
	if res.Message != "Merged duplicate applications for Google - SWE" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestMergeKeepsEarliestAppliedDate(t *testing.T) {
	dates := []struct{ a, b time.Time }{
		{day(2024, 1, 5), day(2024, 1, 3)},
		{day(2024, 1, 3), day(2024, 1, 5)},
		{day(2024, 1, 3), day(2024, 1, 3)},
	}
	override := day(2025, 6, 1)

	for _, d := range dates {
		for _, edit := range []Edit{{}, {AppliedDate: &override}} {
			a := &Application{ID: 1, CompanyName: "Acme", AppliedDate: d.a, UpdatedAt: day(2024, 2, 1)}
			b := &Application{ID: 2, CompanyName: "Acme", AppliedDate: d.b, UpdatedAt: day(2024, 2, 2)}

			res, err := Merge(a, b, edit)
			if err != nil {
				t.Fatalf("Merge: %v", err)
			}
			want := d.a
			if d.b.Before(d.a) {
				want = d.b
			}
			if !res.Kept.AppliedDate.Equal(want) {
				t.Errorf("applied date = %v, want %v", res.Kept.AppliedDate, want)
			}
		}
	}
}

func TestMergeFillsEmptyFields(t *testing.T) {
	salary := 120000
	kept := &Application{ID: 1, CompanyName: "Acme", PositionTitle: "Engineer", UpdatedAt: day(2024, 1, 2)}
	other := &Application{
		ID: 2, CompanyName: "ACME", PositionTitle: "engineer",
		JobURL: "https://acme.example/jobs/1", Location: "Remote", SalaryMin: &salary,
		RecruiterName: "Pat", Notes: "from the other one", UpdatedAt: day(2024, 1, 1),
	}

	res, err := Merge(kept, other, Edit{Location: strPtr("Berlin")})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	k := res.Kept
	if k.CompanyName != "Acme" || k.JobURL != "https://acme.example/jobs/1" || k.RecruiterName != "Pat" {
		t.Errorf("fields not filled: %+v", k)
	}
	if k.Location != "Berlin" {
		t.Errorf("location = %q, want edit value", k.Location)
	}
	if k.SalaryMin == nil || *k.SalaryMin != salary {
		t.Errorf("salary_min = %v", k.SalaryMin)
	}
	if k.Notes != "from the other one" {
		t.Errorf("notes = %q", k.Notes)
	}
	if kept.JobURL != "" || kept.Notes != "" {
		t.Error("Merge modified its input")
	}
}

func TestMergeConcatenatesNotes(t *testing.T) {
	a := &Application{ID: 1, Notes: "first", UpdatedAt: day(2024, 1, 2)}
	b := &Application{ID: 2, Notes: "second", UpdatedAt: day(2024, 1, 1)}

	res, _ := Merge(a, b, Edit{})
	if want := "first\n\n--- Merged from duplicate ---\nsecond"; res.Kept.Notes != want {
		t.Errorf("notes = %q, want %q", res.Kept.Notes, want)
	}

	b.Notes = "first"
	res, _ = Merge(a, b, Edit{})
	if strings.Contains(res.Kept.Notes, "Merged from duplicate") {
		t.Errorf("identical notes should not be concatenated: %q", res.Kept.Notes)
	}
}

func TestMergeRejectionStage(t *testing.T) {
	a := &Application{ID: 1, Status: StatusRejected, UpdatedAt: day(2024, 1, 2)}
	b := &Application{ID: 2, Status: StatusRejected, RejectedAtStage: "After Phone Screen", UpdatedAt: day(2024, 1, 1)}

	res, _ := Merge(a, b, Edit{})
	if res.Kept.RejectedAtStage != "After Phone Screen" {
		t.Errorf("stage = %q, want copied from duplicate", res.Kept.RejectedAtStage)
	}

	res, _ = Merge(a, b, Edit{Status: strPtr("phone_screen")})
	if res.Kept.Status != StatusPhoneScreen || res.Kept.RejectedAtStage != "" {
		t.Errorf("status %s stage %q, want phone_screen with no stage", res.Kept.Status, res.Kept.RejectedAtStage)
	}
}

func TestMergeRejectsInvalidStatus(t *testing.T) {
	a := &Application{ID: 1}
	b := &Application{ID: 2}
	if _, err := Merge(a, b, Edit{Status: strPtr("hired")}); err == nil {
		t.Error("expected invalid status to fail the merge")
	}
}

func TestMergeTieKeepsFirst(t *testing.T) {
	ts := day(2024, 1, 1)
	res, _ := Merge(&Application{ID: 1, UpdatedAt: ts}, &Application{ID: 2, UpdatedAt: ts}, Edit{})
	if res.Kept.ID != 1 {
		t.Errorf("kept %d, want the edited record on equal timestamps", res.Kept.ID)
	}
}

func TestEditApplyClearsStage(t *testing.T) {
	app := &Application{Status: StatusRejected, RejectedAtStage: "After Phone Screen"}
	edit := Edit{Status: strPtr("first_interview")}
	if err := edit.Apply(app); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.RejectedAtStage != "" {
		t.Errorf("stage = %q, want cleared", app.RejectedAtStage)
	}
}

func TestEditApplyContactDates(t *testing.T) {
	last := day(2024, 2, 1)
	next := day(2024, 2, 8)
	var zero time.Time

	tests := []struct {
		name     string
		edit     Edit
		wantLast *time.Time
		wantNext *time.Time
	}{
		{"copies supplied dates", Edit{LastContactDate: &last, NextActionDate: &next}, &last, &next},
		{"zero date clears", Edit{LastContactDate: &zero, NextActionDate: &zero}, nil, nil},
		{"nil leaves alone", Edit{}, &last, &next},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, n := last, next
			app := &Application{LastContactDate: &l, NextActionDate: &n}
			if err := tt.edit.Apply(app); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !sameDate(app.LastContactDate, tt.wantLast) {
				t.Errorf("last contact = %v, want %v", app.LastContactDate, tt.wantLast)
			}
			if !sameDate(app.NextActionDate, tt.wantNext) {
				t.Errorf("next action = %v, want %v", app.NextActionDate, tt.wantNext)
			}
		})
	}
}

func sameDate(got, want *time.Time) bool {
	if got == nil || want == nil {
		return got == want
	}
	return got.Equal(*want)
}
