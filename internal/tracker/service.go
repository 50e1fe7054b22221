package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Repository is the persistence the tracker works against
type Repository interface {
	Finder

	GetApplication(ctx context.Context, id int64) (*Application, error)
	CreateApplication(ctx context.Context, app *Application) error
	UpdateApplication(ctx context.Context, app *Application) error
	DeleteApplication(ctx context.Context, id int64) error
	// MergeApplications saves kept, moves every email and reminder of
	// deletedID onto it and deletes deletedID, atomically.
	MergeApplications(ctx context.Context, kept *Application, deletedID int64) error

	GetEmail(ctx context.Context, id int64) (*Email, error)
	FindEmailByProviderID(ctx context.Context, providerID string) (*Email, error)
	CreateEmail(ctx context.Context, e *Email) error
	UpdateEmail(ctx context.Context, e *Email) error
	// ListPendingEmails returns job-related emails that are neither processed
	// nor linked, newest first.
	ListPendingEmails(ctx context.Context) ([]*Email, error)
	SetLastSync(ctx context.Context, t time.Time) error
}

// Service implements the application and email workflows
type Service struct {
	repo    Repository
	matcher *Matcher
	now     func() time.Time
}

func NewService(repo Repository, rules ...MatchRule) *Service {
	return &Service{
		repo:    repo,
		matcher: NewMatcher(repo, rules...),
		now:     time.Now,
	}
}

// UpdateResult reports a plain update or a merge with a duplicate
type UpdateResult struct {
	Application *Application `json:"application"`
	Merged      bool         `json:"merged"`
	DeletedID   int64        `json:"deleted_id,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// CreateApplication validates and stores a new application
func (s *Service) CreateApplication(ctx context.Context, app *Application) error {
	app.CompanyName = strings.TrimSpace(app.CompanyName)
	app.PositionTitle = strings.TrimSpace(app.PositionTitle)
	if app.CompanyName == "" || app.PositionTitle == "" {
		return fmt.Errorf("%w: company_name and position_title are required", ErrInvalidInput)
	}

	if app.Status == "" {
		app.Status = StatusApplied
	}
	if _, err := ParseStatus(string(app.Status)); err != nil {
		return err
	}
	if app.Status != StatusRejected {
		app.RejectedAtStage = ""
	}
	if app.AppliedDate.IsZero() {
		app.AppliedDate = s.now()
	}

	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// UpdateApplication applies an edit. When the edited company and position
// collide with another application the two are merged instead.
func (s *Service) UpdateApplication(ctx context.Context, id int64, edit Edit) (*UpdateResult, error) {
	if err := edit.Validate(); err != nil {
		return nil, err
	}

	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	company, position := app.CompanyName, app.PositionTitle
	if edit.CompanyName != nil {
		company = *edit.CompanyName
	}
	if edit.PositionTitle != nil {
		position = *edit.PositionTitle
	}

	dup, err := s.repo.FindByCompanyAndPosition(ctx, company, position, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}

	if dup != nil {
		res, err := Merge(app, dup, edit)
		if err != nil {
			return nil, err
		}
		if err := s.repo.MergeApplications(ctx, res.Kept, res.DeletedID); err != nil {
			return nil, fmt.Errorf("failed to merge applications: %w", err)
		}
		return &UpdateResult{Application: res.Kept, Merged: true, DeletedID: res.DeletedID, Message: res.Message}, nil
	}

	if err := edit.Apply(app); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	return &UpdateResult{Application: app}, nil
}

// SetStatus is the quick status change; it also stamps the last contact date
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (*Application, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	app.Status = st
	if st != StatusRejected {
		app.RejectedAtStage = ""
	}
	now := s.now()
	app.LastContactDate = &now

	if err := s.repo.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	return app, nil
}

// BulkItem is one row of a bulk import
type BulkItem struct {
	CompanyName   string     `json:"company_name"`
	PositionTitle string     `json:"position_title"`
	AppliedDate   *time.Time `json:"applied_date"`
	Notes         string     `json:"notes"`
}

// BulkCreate stores every item as a new applied application
func (s *Service) BulkCreate(ctx context.Context, items []BulkItem) ([]*Application, error) {
	created := make([]*Application, 0, len(items))
	for _, item := range items {
		app := &Application{
			CompanyName:   orDefault(item.CompanyName, UnknownCompany),
			PositionTitle: orDefault(item.PositionTitle, UnknownPosition),
			Status:        StatusApplied,
			Notes:         item.Notes,
		}
		if item.AppliedDate != nil {
			app.AppliedDate = *item.AppliedDate
		}
		if err := s.CreateApplication(ctx, app); err != nil {
			return created, err
		}
		created = append(created, app)
	}
	return created, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
