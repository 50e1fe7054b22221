package tracker

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/applytrack/applytrack/internal/classifier"
)

// Fetcher is a mail source
type Fetcher interface {
	Fetch(ctx context.Context, since time.Time, max int) ([]classifier.Message, error)
}

// ScanOptions controls one scan
type ScanOptions struct {
	Since      time.Time
	MaxResults int
	Progress   func(done, total int) // Optional
}

// SkipCounts explains why already-known messages were skipped
type SkipCounts struct {
	Dismissed        int `json:"dismissed"`
	AlreadyProcessed int `json:"already_processed"`
	Pending          int `json:"pending"`
}

type ScanResult struct {
	Scanned    int        `json:"scanned"`
	New        int        `json:"new_emails"`
	JobRelated int        `json:"job_related"`
	Skipped    SkipCounts `json:"skipped"`
	Emails     []*Email   `json:"emails"`
}

// Scan pulls messages from the source, classifies the ones not seen before
// and stores them for review.
func (s *Service) Scan(ctx context.Context, src Fetcher, opts ScanOptions) (*ScanResult, error) {
	msgs, err := src.Fetch(ctx, opts.Since, opts.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	result := &ScanResult{Scanned: len(msgs)}
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if opts.Progress != nil {
			opts.Progress(i, len(msgs))
		}

		existing, err := s.repo.FindEmailByProviderID(ctx, msg.ID)
		if err != nil {
			return result, fmt.Errorf("failed to look up message %s: %w", msg.ID, err)
		}
		if existing != nil {
			switch {
			case !existing.IsJobRelated:
				result.Skipped.Dismissed++
			case existing.IsProcessed:
				result.Skipped.AlreadyProcessed++
			default:
				result.Skipped.Pending++
			}
			continue
		}

		email := NewEmail(msg, classifier.Classify(msg))
		if err := s.repo.CreateEmail(ctx, email); err != nil {
			return result, fmt.Errorf("failed to store message %s: %w", msg.ID, err)
		}
		result.New++
		if email.IsJobRelated {
			result.JobRelated++
			result.Emails = append(result.Emails, email)
		}
	}

	if opts.Progress != nil {
		opts.Progress(len(msgs), len(msgs))
	}
	if err := s.repo.SetLastSync(ctx, s.now()); err != nil {
		log.Printf("Warning: failed to record sync time: %v", err)
	}

	log.Printf("Scan complete: %d scanned, %d new, %d job related", result.Scanned, result.New, result.JobRelated)
	return result, nil
}

// LinkEmail attaches an email to an application and marks it processed.
// appID 0 only marks it processed.
func (s *Service) LinkEmail(ctx context.Context, emailID, appID int64) (*Email, error) {
	email, err := s.repo.GetEmail(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if appID != 0 {
		if _, err := s.repo.GetApplication(ctx, appID); err != nil {
			return nil, err
		}
		email.ApplicationID = &appID
	}
	email.IsProcessed = true

	if err := s.repo.UpdateEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to link email: %w", err)
	}
	return email, nil
}

// DismissEmail marks an email as not job related
func (s *Service) DismissEmail(ctx context.Context, emailID int64) error {
	email, err := s.repo.GetEmail(ctx, emailID)
	if err != nil {
		return err
	}
	email.IsJobRelated = false
	email.IsProcessed = true
	if err := s.repo.UpdateEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to dismiss email: %w", err)
	}
	return nil
}

// OutcomeKind says what filing an email did
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeLinked  OutcomeKind = "linked"
	OutcomeUpdated OutcomeKind = "status_updated"
)

// EmailOutcome is the decision taken for one email
type EmailOutcome struct {
	Kind        OutcomeKind  `json:"kind"`
	EmailID     int64        `json:"email_id"`
	Application *Application `json:"application"`
	OldStatus   Status       `json:"old_status,omitempty"`
	NewStatus   Status       `json:"new_status,omitempty"`
	Message     string       `json:"message"`
}

// CreateFromEmail files one email: it joins a matching application (applying
// the advancement policy) or starts a new one. Empty overrides fall back to
// what the classifier detected.
func (s *Service) CreateFromEmail(ctx context.Context, emailID int64, company, position string) (*EmailOutcome, error) {
	email, err := s.repo.GetEmail(ctx, emailID)
	if err != nil {
		return nil, err
	}

	company = orDefault(orDefault(company, email.DetectedCompany), UnknownCompany)
	position = orDefault(orDefault(position, email.DetectedPosition), UnknownPosition)
	return s.file(ctx, email, company, position, "Created from email: ")
}

// AutoProcessResult summarises an unattended run
type AutoProcessResult struct {
	Processed     int             `json:"processed"`
	Created       int             `json:"created"`
	Linked        int             `json:"linked_to_existing"`
	StatusUpdated int             `json:"status_updated"`
	Outcomes      []*EmailOutcome `json:"outcomes"`
}

// AutoProcess files every pending email confident enough to act on. Emails
// are handled oldest first so one created by an earlier message is matched
// by later ones.
func (s *Service) AutoProcess(ctx context.Context, minConfidence float64) (*AutoProcessResult, error) {
	pending, err := s.repo.ListPendingEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending emails: %w", err)
	}

	var eligible []*Email
	for _, e := range pending {
		if e.DetectedCompany != "" && e.Confidence >= minConfidence {
			eligible = append(eligible, e)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].ReceivedDate.Before(eligible[j].ReceivedDate)
	})

	result := &AutoProcessResult{Processed: len(eligible)}
	for _, email := range eligible {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		position := orDefault(email.DetectedPosition, UnknownPosition)
		out, err := s.file(ctx, email, email.DetectedCompany, position, "Auto-created from email: ")
		if err != nil {
			return result, err
		}

		switch out.Kind {
		case OutcomeCreated:
			result.Created++
		case OutcomeLinked:
			result.Linked++
		case OutcomeUpdated:
			result.StatusUpdated++
		}
		result.Outcomes = append(result.Outcomes, out)
	}
	return result, nil
}

func (s *Service) file(ctx context.Context, email *Email, company, position, notesPrefix string) (*EmailOutcome, error) {
	existing, rule, err := s.matcher.Match(ctx, MatchQuery{Company: company, Position: position, Date: email.ReceivedDate})
	if err != nil {
		return nil, fmt.Errorf("failed to match application: %w", err)
	}

	if existing != nil {
		t := Advance(existing, email.DetectedStatus, email.RejectedAtStage, email.ReceivedDate)
		if t.Updated {
			if err := s.repo.UpdateApplication(ctx, existing); err != nil {
				return nil, fmt.Errorf("failed to update application: %w", err)
			}
		}
		if err := s.attach(ctx, email, existing.ID); err != nil {
			return nil, err
		}

		out := &EmailOutcome{
			Kind:        OutcomeLinked,
			EmailID:     email.ID,
			Application: existing,
			OldStatus:   t.OldStatus,
			NewStatus:   t.NewStatus,
			Message:     fmt.Sprintf("Linked to existing application for %s - %s", existing.CompanyName, existing.PositionTitle),
		}
		if t.Updated {
			out.Kind = OutcomeUpdated
			out.Message = "Updated existing application: " + t.Message
		}
		log.Printf("Email %d matched application %d by %s: %s", email.ID, existing.ID, rule, out.Message)
		return out, nil
	}

	status := StatusForSignal(email.DetectedStatus)
	app := &Application{
		CompanyName:    company,
		PositionTitle:  position,
		Status:         status,
		AppliedDate:    email.ReceivedDate,
		RecruiterEmail: email.SenderEmail,
		Notes:          notesPrefix + email.Subject,
	}
	if status == StatusRejected {
		app.RejectedAtStage = orDefault(email.RejectedAtStage, InferRejectionStage(StatusApplied))
	}
	if err := s.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	if err := s.attach(ctx, email, app.ID); err != nil {
		return nil, err
	}

	return &EmailOutcome{
		Kind:        OutcomeCreated,
		EmailID:     email.ID,
		Application: app,
		NewStatus:   status,
		Message:     fmt.Sprintf("Created application for %s - %s", app.CompanyName, app.PositionTitle),
	}, nil
}

func (s *Service) attach(ctx context.Context, email *Email, appID int64) error {
	email.ApplicationID = &appID
	email.IsProcessed = true
	if err := s.repo.UpdateEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to link email: %w", err)
	}
	return nil
}
