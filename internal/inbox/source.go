package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/applytrack/applytrack/internal/classifier"
	"github.com/applytrack/applytrack/internal/config"
)

// MaxBodyChars is how much of a body is kept for classification and storage
const MaxBodyChars = 1000

// Source pulls recent messages from a mailbox
type Source interface {
	Fetch(ctx context.Context, since time.Time, max int) ([]classifier.Message, error)
}

// NewSource returns the Gmail API source when it is enabled and the IMAP
// monitor otherwise.
func NewSource(ctx context.Context, cfg *config.Config) (Source, error) {
	if cfg.Gmail.Enabled {
		if err := cfg.ValidateGmail(); err != nil {
			return nil, err
		}
		return NewGmailSource(ctx, cfg.Gmail)
	}
	if err := cfg.ValidateInbox(); err != nil {
		return nil, fmt.Errorf("no mail source configured: %w", err)
	}
	return NewMonitor(cfg.Inbox), nil
}
