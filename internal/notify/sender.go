package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/applytrack/applytrack/internal/config"
)

type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

type Result struct {
	Success   bool
	MessageID string
	Error     error
}

type Sender interface {
	Send(ctx context.Context, msg Message) Result
	Name() string
}

// NewSender picks the delivery provider named in the config
func NewSender(cfg config.NotifyConfig) (Sender, error) {
	switch cfg.Provider {
	case "", "smtp":
		return NewSMTPSender(cfg.SMTP), nil
	case "sendgrid":
		return NewSendGridSender(cfg.APIKey), nil
	case "resend":
		return NewResendSender(cfg.APIKey), nil
	}
	return nil, fmt.Errorf("unknown notify provider: %s (smtp, sendgrid or resend)", cfg.Provider)
}

// ValidateEmail checks for injection characters and RFC 5322 compliance
func ValidateEmail(email string) error {
	if strings.ContainsAny(email, "\r\n,;") {
		return fmt.Errorf("email contains invalid characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

func validateMessage(msg Message) error {
	if err := ValidateEmail(msg.From); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := ValidateEmail(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject contains invalid characters")
	}
	return nil
}

func failed(err error) Result {
	return Result{Success: false, Error: err}
}
