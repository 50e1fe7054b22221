// Package scrape pulls job descriptions out of posting pages
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/applytrack/applytrack/internal/config"
)

const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxPageBytes = 5 << 20
	maxRedirects = 10
)

var errTooManyRedirects = errors.New("too many redirects")

// Result is what a scrape found. Error holds a message fit to show the
// user when Success is false.
type Result struct {
	Success     bool   `json:"success"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Error       string `json:"error,omitempty"`
}

type Scraper struct {
	client   *http.Client
	renderer Renderer // Optional
}

// New builds a scraper from config. With render_javascript on, pages that
// yield nothing over plain HTTP are retried in headless Chrome. Call Close
// when done.
func New(cfg config.ScraperConfig) *Scraper {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	s := NewWithClient(&http.Client{Timeout: timeout})
	if cfg.RenderJavaScript {
		s.renderer = NewBrowser(timeout * 4)
	}
	return s
}

// NewWithClient uses the given HTTP client and no renderer
func NewWithClient(client *http.Client) *Scraper {
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errTooManyRedirects
		}
		return nil
	}
	return &Scraper{client: &c}
}

func (s *Scraper) Close() {
	if b, ok := s.renderer.(*Browser); ok {
		b.Close()
	}
}

// NormalizeURL trims the input and adds https:// when no scheme is given
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

// Scrape fetches a posting and extracts its description, title and company
func (s *Scraper) Scrape(ctx context.Context, rawURL string) Result {
	target := NormalizeURL(rawURL)
	result := Result{URL: target}
	if target == "" {
		result.Error = "No URL provided"
		return result
	}
	domain := domainOf(target)

	html, err := s.fetch(ctx, target)
	if err == nil {
		if found := Extract(html, domain); found.Success {
			found.URL = target
			return found
		}
		result.Error = "Could not find job description on this page. You can paste it manually."
	} else {
		result.Error = fetchErrorMessage(err)
	}

	if s.renderer == nil {
		return result
	}

	log.Printf("Plain fetch of %s found nothing, rendering in headless Chrome", target)
	rendered, rerr := s.renderer.Render(ctx, target)
	if rerr != nil {
		log.Printf("Warning: render failed: %v", rerr)
		return result
	}
	if found := Extract(rendered, domain); found.Success {
		found.URL = target
		return found
	}
	return result
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("HTTP error: %d", e.code) }

func (s *Scraper) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// fetchErrorMessage turns a fetch failure into advice for the user
func fetchErrorMessage(err error) string {
	var se *statusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusForbidden:
			return "Access denied. This website blocks automated access."
		case http.StatusNotFound:
			return "Page not found. The job posting may have been removed."
		}
		return se.Error()
	}
	if errors.Is(err, errTooManyRedirects) {
		return "Too many redirects. The URL may be invalid."
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Request timed out. The website took too long to respond."
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return "Could not connect to the website."
	}
	return fmt.Sprintf("Failed to fetch job description: %v", err)
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
