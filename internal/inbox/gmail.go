package inbox

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/applytrack/applytrack/internal/classifier"
	"github.com/applytrack/applytrack/internal/config"
)

const gmailUser = "me"

// GmailSource reads mail through the Gmail API
type GmailSource struct {
	srv *gmail.Service
}

func oauthConfig(cfg config.GmailConfig) (*oauth2.Config, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	oc, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	return oc, nil
}

// NewGmailSource builds a Gmail client from the stored OAuth token. Run
// AuthorizeGmail once first to create the token.
func NewGmailSource(ctx context.Context, cfg config.GmailConfig) (*GmailSource, error) {
	oc, err := oauthConfig(cfg)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("no Gmail token at %s (run 'applytrack auth gmail'): %w", cfg.TokenFile, err)
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(oc.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &GmailSource{srv: srv}, nil
}

// AuthorizeGmail runs the copy-paste OAuth flow and saves the token
func AuthorizeGmail(ctx context.Context, cfg config.GmailConfig, in io.Reader, out io.Writer) error {
	oc, err := oauthConfig(cfg)
	if err != nil {
		return err
	}

	authURL := oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser then type the authorization code:\n%v\n\n> ", authURL)

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && code == "" {
		return fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := oc.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return saveToken(cfg.TokenFile, tok)
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to save oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// Fetch lists messages matching the job keyword query since the given day
// and loads each one in full.
func (g *GmailSource) Fetch(ctx context.Context, since time.Time, max int) ([]classifier.Message, error) {
	call := g.srv.Users.Messages.List(gmailUser).Q(searchQuery(since)).Context(ctx)
	if max > 0 {
		call = call.MaxResults(int64(max))
	}
	list, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %w", err)
	}

	log.Printf("Gmail returned %d candidate messages", len(list.Messages))

	out := make([]classifier.Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := g.srv.Users.Messages.Get(gmailUser, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Warning: unable to retrieve message %s: %v", ref.Id, err)
			continue
		}
		out = append(out, parseGmailMessage(msg))
	}
	return out, nil
}

// searchQuery ORs the leading job keywords and restricts to mail after since
func searchQuery(since time.Time) string {
	n := 10
	if len(classifier.JobKeywords) < n {
		n = len(classifier.JobKeywords)
	}
	quoted := make([]string, n)
	for i, kw := range classifier.JobKeywords[:n] {
		quoted[i] = `"` + kw + `"`
	}

	q := "(" + strings.Join(quoted, " OR ") + ")"
	if !since.IsZero() {
		q += " after:" + since.Format("2006/01/02")
	}
	return q
}

func parseGmailMessage(msg *gmail.Message) classifier.Message {
	out := classifier.Message{
		ID:         msg.Id,
		ThreadID:   msg.ThreadId,
		Snippet:    msg.Snippet,
		ReceivedAt: time.UnixMilli(msg.InternalDate).UTC(),
	}
	if msg.Payload == nil {
		return out
	}

	for _, header := range msg.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "subject":
			out.Subject = header.Value
		case "from":
			out.SenderName, out.SenderAddress = ParseSender(header.Value)
			out.SenderAddress = strings.ToLower(out.SenderAddress)
		}
	}

	plain := partText(msg.Payload, "text/plain")
	html := ""
	if plain == "" {
		html = partText(msg.Payload, "text/html")
	}
	out.Body = Excerpt(plain, html)
	return out
}

// partText walks the MIME tree for the first part of the given type
func partText(part *gmail.MessagePart, mimeType string) string {
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		data, err := decodeBase64URL(part.Body.Data)
		if err == nil {
			return string(data)
		}
		log.Printf("Warning: failed to decode %s body: %v", mimeType, err)
	}
	for _, p := range part.Parts {
		if text := partText(p, mimeType); text != "" {
			return text
		}
	}
	return ""
}

// decodeBase64URL accepts both padded and unpadded URL-safe base64
func decodeBase64URL(s string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
