package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridSender struct {
	client *sendgrid.Client
}

func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey)}
}

func (s *SendGridSender) Name() string { return "sendgrid" }

func (s *SendGridSender) Send(ctx context.Context, msg Message) Result {
	if err := validateMessage(msg); err != nil {
		return failed(err)
	}

	m := mail.NewSingleEmail(mail.NewEmail("", msg.From), msg.Subject, mail.NewEmail("", msg.To), msg.Body, "")
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return failed(fmt.Errorf("sendgrid request failed: %w", err))
	}
	if resp.StatusCode >= 300 {
		return failed(fmt.Errorf("sendgrid rejected message: status %d", resp.StatusCode))
	}

	var id string
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		id = ids[0]
	}
	return Result{Success: true, MessageID: id}
}

type ResendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

func (s *ResendSender) Name() string { return "resend" }

func (s *ResendSender) Send(ctx context.Context, msg Message) Result {
	if err := validateMessage(msg); err != nil {
		return failed(err)
	}

	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return failed(fmt.Errorf("resend request failed: %w", err))
	}
	return Result{Success: true, MessageID: sent.Id}
}
