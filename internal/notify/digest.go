package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/applytrack/applytrack/internal/tracker"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

var digestTemplate = template.Must(template.ParseFS(embeddedTemplates, "templates/digest.tmpl"))

// DigestData is what the digest template sees
type DigestData struct {
	Date      string
	Reminders []*tracker.Reminder
}

// RenderDigest builds the follow-up digest for the given due reminders
func RenderDigest(reminders []*tracker.Reminder, now time.Time) (Message, error) {
	var buf bytes.Buffer
	data := DigestData{Date: now.Format("January 2, 2006"), Reminders: reminders}
	if err := digestTemplate.ExecuteTemplate(&buf, "digest.tmpl", data); err != nil {
		return Message{}, fmt.Errorf("failed to render digest: %w", err)
	}

	subject := fmt.Sprintf("%d job application follow-ups due", len(reminders))
	if len(reminders) == 1 {
		subject = "1 job application follow-up due"
	}
	return Message{Subject: subject, Body: buf.String()}, nil
}

// SendDigest mails the due reminders to the configured recipient. Nothing is
// sent when there are no reminders.
func SendDigest(ctx context.Context, sender Sender, from, to string, reminders []*tracker.Reminder) (Result, error) {
	if len(reminders) == 0 {
		return Result{}, nil
	}
	msg, err := RenderDigest(reminders, time.Now())
	if err != nil {
		return Result{}, err
	}
	msg.From, msg.To = from, to

	res := sender.Send(ctx, msg)
	if !res.Success {
		return res, fmt.Errorf("failed to send digest via %s: %w", sender.Name(), res.Error)
	}
	return res, nil
}
