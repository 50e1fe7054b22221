package tracker

import (
	"time"

	"github.com/applytrack/applytrack/internal/classifier"
)

// Application is one job pursuit and its lifecycle state
type Application struct {
	ID              int64      `json:"id"`
	CompanyName     string     `json:"company_name"`
	PositionTitle   string     `json:"position_title"`
	JobURL          string     `json:"job_url,omitempty"`
	Location        string     `json:"location,omitempty"`
	SalaryMin       *int       `json:"salary_min,omitempty"`
	SalaryMax       *int       `json:"salary_max,omitempty"`
	Status          Status     `json:"status"`
	RejectedAtStage string     `json:"rejected_at_stage,omitempty"` // Only meaningful when rejected
	AppliedDate     time.Time  `json:"applied_date"`
	LastContactDate *time.Time `json:"last_contact_date,omitempty"`
	NextActionDate  *time.Time `json:"next_action_date,omitempty"`
	RecruiterName   string     `json:"recruiter_name,omitempty"`
	RecruiterEmail  string     `json:"recruiter_email,omitempty"`
	JobDescription  string     `json:"job_description,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Email is a stored inbound message and what the classifier made of it
type Email struct {
	ID               int64             `json:"id"`
	ProviderID       string            `json:"provider_id"` // Gmail message ID or IMAP Message-ID
	ThreadID         string            `json:"thread_id,omitempty"`
	Sender           string            `json:"sender"`
	SenderEmail      string            `json:"sender_email"`
	Subject          string            `json:"subject"`
	Snippet          string            `json:"snippet,omitempty"`
	BodyPreview      string            `json:"body_preview,omitempty"`
	ReceivedDate     time.Time         `json:"received_date"`
	DetectedCompany  string            `json:"detected_company,omitempty"`
	DetectedPosition string            `json:"detected_position,omitempty"`
	DetectedStatus   classifier.Signal `json:"detected_status,omitempty"`
	RejectedAtStage  string            `json:"rejected_at_stage,omitempty"`
	Confidence       float64           `json:"confidence_score"`
	IsJobRelated     bool              `json:"is_job_related"`
	IsProcessed      bool              `json:"is_processed"`
	ApplicationID    *int64            `json:"application_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Reminder is a follow-up nudge attached to an application
type Reminder struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	ReminderDate  time.Time `json:"reminder_date"`
	Message       string    `json:"message"`
	IsCompleted   bool      `json:"is_completed"`
	IsDismissed   bool      `json:"is_dismissed"`
	CreatedAt     time.Time `json:"created_at"`

	// Filled on reads for display
	CompanyName   string `json:"company_name,omitempty"`
	PositionTitle string `json:"position_title,omitempty"`
}

// Edit carries the fields a caller wants changed. Nil means "leave alone".
type Edit struct {
	CompanyName     *string    `json:"company_name"`
	PositionTitle   *string    `json:"position_title"`
	JobURL          *string    `json:"job_url"`
	Location        *string    `json:"location"`
	SalaryMin       *int       `json:"salary_min"`
	SalaryMax       *int       `json:"salary_max"`
	RecruiterName   *string    `json:"recruiter_name"`
	RecruiterEmail  *string    `json:"recruiter_email"`
	JobDescription  *string    `json:"job_description"`
	Notes           *string    `json:"notes"`
	Status          *string    `json:"status"`
	RejectedAtStage *string    `json:"rejected_at_stage"`
	AppliedDate     *time.Time `json:"applied_date"`
	LastContactDate *time.Time `json:"last_contact_date"`
	NextActionDate  *time.Time `json:"next_action_date"`
}

// NewEmail builds the stored form of a classified message
func NewEmail(msg classifier.Message, c classifier.Classification) *Email {
	return &Email{
		ProviderID:       msg.ID,
		ThreadID:         msg.ThreadID,
		Sender:           msg.SenderName,
		SenderEmail:      msg.SenderAddress,
		Subject:          msg.Subject,
		Snippet:          msg.Snippet,
		BodyPreview:      msg.Body,
		ReceivedDate:     msg.ReceivedAt,
		DetectedCompany:  c.Company,
		DetectedPosition: c.Position,
		DetectedStatus:   c.Signal,
		RejectedAtStage:  c.RejectionStage,
		Confidence:       c.Confidence,
		IsJobRelated:     c.IsJobRelated,
		// Unrelated mail never needs review
		IsProcessed: !c.IsJobRelated,
	}
}
