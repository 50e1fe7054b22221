package tracker

import (
	"fmt"
	"time"
)

const mergedNotesSeparator = "\n\n--- Merged from duplicate ---\n"

// Editable fields shared by plain updates and merges. Notes are handled
// separately because merged notes are concatenated.
var textFields = []struct {
	edit func(*Edit) *string
	app  func(*Application) *string
}{
	{func(e *Edit) *string { return e.CompanyName }, func(a *Application) *string { return &a.CompanyName }},
	{func(e *Edit) *string { return e.PositionTitle }, func(a *Application) *string { return &a.PositionTitle }},
	{func(e *Edit) *string { return e.JobURL }, func(a *Application) *string { return &a.JobURL }},
	{func(e *Edit) *string { return e.Location }, func(a *Application) *string { return &a.Location }},
	{func(e *Edit) *string { return e.RecruiterName }, func(a *Application) *string { return &a.RecruiterName }},
	{func(e *Edit) *string { return e.RecruiterEmail }, func(a *Application) *string { return &a.RecruiterEmail }},
	{func(e *Edit) *string { return e.JobDescription }, func(a *Application) *string { return &a.JobDescription }},
}

var intFields = []struct {
	edit func(*Edit) *int
	app  func(*Application) **int
}{
	{func(e *Edit) *int { return e.SalaryMin }, func(a *Application) **int { return &a.SalaryMin }},
	{func(e *Edit) *int { return e.SalaryMax }, func(a *Application) **int { return &a.SalaryMax }},
}

// Validate checks the edit without touching any record
func (e *Edit) Validate() error {
	if e.Status != nil {
		if _, err := ParseStatus(*e.Status); err != nil {
			return err
		}
	}
	if e.CompanyName != nil && *e.CompanyName == "" {
		return fmt.Errorf("%w: company_name must not be empty", ErrInvalidInput)
	}
	if e.PositionTitle != nil && *e.PositionTitle == "" {
		return fmt.Errorf("%w: position_title must not be empty", ErrInvalidInput)
	}
	return nil
}

// Apply writes every supplied field onto app
func (e *Edit) Apply(app *Application) error {
	if err := e.Validate(); err != nil {
		return err
	}

	for _, f := range textFields {
		if v := f.edit(e); v != nil {
			*f.app(app) = *v
		}
	}
	for _, f := range intFields {
		if v := f.edit(e); v != nil {
			*f.app(app) = intPtr(*v)
		}
	}
	if e.Notes != nil {
		app.Notes = *e.Notes
	}

	e.applyStatus(app)

	if e.AppliedDate != nil {
		app.AppliedDate = *e.AppliedDate
	}
	e.applyContactDates(app)
	return nil
}

func (e *Edit) applyStatus(app *Application) {
	if e.Status != nil {
		app.Status, _ = ParseStatus(*e.Status)
	}
	if e.RejectedAtStage != nil {
		app.RejectedAtStage = *e.RejectedAtStage
	}
	if app.Status != StatusRejected {
		app.RejectedAtStage = ""
	}
}

// applyContactDates copies the supplied dates. A zero date clears the field.
func (e *Edit) applyContactDates(app *Application) {
	if e.LastContactDate != nil {
		app.LastContactDate = copyDate(*e.LastContactDate)
	}
	if e.NextActionDate != nil {
		app.NextActionDate = copyDate(*e.NextActionDate)
	}
}

func copyDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// MergeResult is the outcome of folding two duplicate applications into one
type MergeResult struct {
	Kept      *Application
	DeletedID int64
	Message   string
}

// Merge folds a and b into a single record. The more recently updated one
// survives; the edit overrides its fields and empty fields are filled from
// the other record. The surviving applied date is always the earlier one.
// Neither input is modified.
func Merge(a, b *Application, edit Edit) (MergeResult, error) {
	if err := edit.Validate(); err != nil {
		return MergeResult{}, err
	}

	keep, drop := *a, *b
	if a.UpdatedAt.Before(b.UpdatedAt) {
		keep, drop = *b, *a
	}

	for _, f := range textFields {
		dst := f.app(&keep)
		if v := f.edit(&edit); v != nil {
			*dst = *v
		} else if *dst == "" {
			*dst = *f.app(&drop)
		}
	}
	for _, f := range intFields {
		dst := f.app(&keep)
		if v := f.edit(&edit); v != nil {
			*dst = intPtr(*v)
		} else if *dst == nil && *f.app(&drop) != nil {
			*dst = intPtr(**f.app(&drop))
		}
	}

	if edit.Notes != nil {
		keep.Notes = *edit.Notes
	} else {
		keep.Notes = mergeNotes(keep.Notes, drop.Notes)
	}

	if edit.RejectedAtStage == nil && keep.RejectedAtStage == "" {
		keep.RejectedAtStage = drop.RejectedAtStage
	}
	edit.applyStatus(&keep)

	keep.AppliedDate = earliest(keep.AppliedDate, drop.AppliedDate)
	edit.applyContactDates(&keep)

	return MergeResult{
		Kept:      &keep,
		DeletedID: drop.ID,
		Message:   fmt.Sprintf("Merged duplicate applications for %s - %s", keep.CompanyName, keep.PositionTitle),
	}, nil
}

func mergeNotes(kept, dropped string) string {
	switch {
	case dropped == "" || kept == dropped:
		return kept
	case kept == "":
		return dropped
	}
	return kept + mergedNotesSeparator + dropped
}

func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	}
	return a
}

func intPtr(v int) *int {
	return &v
}
