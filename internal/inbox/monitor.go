package inbox

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/applytrack/applytrack/internal/classifier"
	"github.com/applytrack/applytrack/internal/config"
)

// Monitor reads job-search mail from an IMAP mailbox
type Monitor struct {
	config config.InboxConfig
	client *client.Client
}

func NewMonitor(cfg config.InboxConfig) *Monitor {
	return &Monitor{config: cfg}
}

// Connect establishes IMAP connection
func (m *Monitor) Connect(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)

	log.Printf("Connecting to IMAP server %s...", addr)

	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(m.config.Email, m.config.Password); err != nil {
		c.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}

	m.client = c
	log.Printf("Logged in as %s", m.config.Email)
	return nil
}

// Disconnect closes the IMAP connection
func (m *Monitor) Disconnect() error {
	if m.client == nil {
		return nil
	}
	err := m.client.Logout()
	m.client = nil
	return err
}

// Fetch returns up to max of the newest messages received since the given
// time. It connects on demand and logs out when done.
func (m *Monitor) Fetch(ctx context.Context, since time.Time, max int) ([]classifier.Message, error) {
	if m.client == nil {
		if err := m.Connect(ctx); err != nil {
			return nil, err
		}
		defer m.Disconnect()
	}

	mbox, err := m.client.Select(m.config.Folder, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", m.config.Folder, err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	uids, err := m.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}

	log.Printf("Found %d emails since %s in %s", len(uids), since.Format("2006-01-02"), m.config.Folder)

	uids = newestUIDs(uids, max)
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	// Peek so scanning never marks mail as read
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- m.client.UidFetch(seqSet, items, messages)
	}()

	var out []classifier.Message
	for msg := range messages {
		if parsed := parseMessage(msg, section); parsed != nil {
			out = append(out, *parsed)
		}
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// newestUIDs keeps the max highest UIDs. UIDs grow with arrival order.
func newestUIDs(uids []uint32, max int) []uint32 {
	if max <= 0 || len(uids) <= max {
		return uids
	}
	return uids[len(uids)-max:]
}

// parseMessage converts an IMAP message into a classifier message
func parseMessage(msg *imap.Message, section *imap.BodySectionName) *classifier.Message {
	if msg == nil || msg.Envelope == nil {
		return nil
	}

	out := &classifier.Message{
		ID:         msg.Envelope.MessageId,
		Subject:    msg.Envelope.Subject,
		ReceivedAt: msg.Envelope.Date,
	}
	if out.ID == "" {
		// Servers omit Message-ID on some drafts and bounces
		out.ID = fmt.Sprintf("uid-%d", msg.Uid)
	}
	if len(msg.Envelope.From) > 0 {
		from := msg.Envelope.From[0]
		out.SenderName = from.PersonalName
		out.SenderAddress = strings.ToLower(from.Address())
	}
	if len(msg.Envelope.InReplyTo) > 0 {
		out.ThreadID = msg.Envelope.InReplyTo
	}

	r := msg.GetBody(section)
	if r == nil {
		return out
	}
	plain, html := readBodies(r)
	out.Body = Excerpt(plain, html)
	out.Snippet = truncate(out.Body, 200)
	return out
}

// readBodies returns the first text/plain and text/html parts of a message
func readBodies(r io.Reader) (plain, html string) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", ""
	}

	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		body, _ := io.ReadAll(p.Body)

		if strings.HasPrefix(ct, "text/plain") && plain == "" {
			plain = string(body)
		} else if strings.HasPrefix(ct, "text/html") && html == "" {
			html = string(body)
		}
	}
	return plain, html
}
