package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var longText = strings.Repeat("We are looking for an engineer to build reliable services. ", 12)

func postingPage(title string) string {
	return fmt.Sprintf(`<html><head><title>%s</title><script>var x = 1;</script></head>
<body>
<nav>Home Jobs About</nav>
<h1>%s</h1>
<div class="company-name">Acme Corp</div>
<div class="job-description"><p>%s</p></div>
<footer>Copyright</footer>
</body></html>`, title, title, longText)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  ", ""},
		{"example.com/jobs/1", "https://example.com/jobs/1"},
		{"http://example.com", "http://example.com"},
		{" https://example.com ", "https://example.com"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	got := Extract(postingPage("Backend Engineer - LinkedIn"), "")
	if !got.Success {
		t.Fatalf("Extract failed: %s", got.Error)
	}
	if got.Title != "Backend Engineer" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Company != "Acme Corp" {
		t.Errorf("company = %q", got.Company)
	}
	if !strings.HasPrefix(got.Description, "We are looking for") {
		t.Errorf("description = %.40q", got.Description)
	}
	if strings.Contains(got.Description, "var x") || strings.Contains(got.Description, "Copyright") {
		t.Error("description kept page chrome")
	}
}

func TestExtractSiteSelectors(t *testing.T) {
	html := fmt.Sprintf(`<html><body>
<div id="jobDescriptionText">%s</div>
<div class="other">%s %s</div>
</body></html>`, strings.Repeat("Indeed specific text. ", 12), longText, longText)

	got := Extract(html, "indeed.com")
	if !got.Success || !strings.HasPrefix(got.Description, "Indeed specific") {
		t.Errorf("indeed selector not used: %.40q", got.Description)
	}
}

func TestExtractLargestBlock(t *testing.T) {
	html := fmt.Sprintf(`<html><body><section>%s</section><div>short</div></body></html>`, longText)
	got := Extract(html, "")
	if !got.Success || got.Title != "" {
		t.Errorf("Extract = %+v", got)
	}
}

func TestExtractNothing(t *testing.T) {
	got := Extract(`<html><body><p>Apply now</p></body></html>`, "")
	if got.Success || !strings.Contains(got.Error, "paste it manually") {
		t.Errorf("Extract = %+v", got)
	}
}

func TestScrapeStatuses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("User-Agent"), "Mozilla") {
			t.Errorf("missing browser user agent")
		}
		fmt.Fprint(w, postingPage("Data Engineer"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>nothing</body></html>")
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/gone", http.NotFound)
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewWithClient(srv.Client())
	tests := []struct {
		path    string
		success bool
		errPart string
	}{
		{"/ok", true, ""},
		{"/empty", false, "paste it manually"},
		{"/forbidden", false, "Access denied"},
		{"/gone", false, "Page not found"},
		{"/broken", false, "HTTP error: 502"},
		{"/loop", false, "Too many redirects"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := s.Scrape(context.Background(), srv.URL+tt.path)
			if got.Success != tt.success {
				t.Fatalf("success = %v (%s)", got.Success, got.Error)
			}
			if !strings.Contains(got.Error, tt.errPart) {
				t.Errorf("error = %q, want it to contain %q", got.Error, tt.errPart)
			}
			if got.URL != srv.URL+tt.path {
				t.Errorf("url = %q", got.URL)
			}
		})
	}
}

func TestScrapeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := NewWithClient(&http.Client{Timeout: 50 * time.Millisecond})
	got := s.Scrape(context.Background(), srv.URL)
	if got.Success || !strings.Contains(got.Error, "timed out") {
		t.Errorf("Scrape = %+v", got)
	}
}

type stubRenderer struct {
	html  string
	err   error
	calls int
}

func (r *stubRenderer) Render(ctx context.Context, url string) (string, error) {
	r.calls++
	return r.html, r.err
}

func TestScrapeFallsBackToRenderer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	r := &stubRenderer{html: postingPage("SRE")}
	s := NewWithClient(srv.Client())
	s.renderer = r

	got := s.Scrape(context.Background(), srv.URL)
	if !got.Success || got.Title != "SRE" || r.calls != 1 {
		t.Errorf("Scrape = %+v, renders = %d", got, r.calls)
	}

	r.err = errors.New("chrome missing")
	got = s.Scrape(context.Background(), srv.URL)
	if got.Success || !strings.Contains(got.Error, "Access denied") {
		t.Errorf("Scrape after render failure = %+v", got)
	}
}

func TestScrapeNoURL(t *testing.T) {
	got := NewWithClient(http.DefaultClient).Scrape(context.Background(), " ")
	if got.Success || got.Error != "No URL provided" {
		t.Errorf("Scrape = %+v", got)
	}
}
