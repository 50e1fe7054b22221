// Package web serves the tracker over a JSON API
package web

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"

	"github.com/applytrack/applytrack/internal/config"
	"github.com/applytrack/applytrack/internal/inbox"
	"github.com/applytrack/applytrack/internal/reminder"
	"github.com/applytrack/applytrack/internal/scrape"
	"github.com/applytrack/applytrack/internal/store"
	"github.com/applytrack/applytrack/internal/tracker"
)

const (
	defaultRateLimit  = 30
	defaultRateWindow = time.Minute
	defaultSessionTTL = 12 * time.Hour
	jobRetention      = time.Hour
	maxBodyBytes      = 1 << 20
)

type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) filterRecent(times []time.Time, windowStart time.Time) []time.Time {
	n := 0
	for _, t := range times {
		if t.After(windowStart) {
			times[n] = t
			n++
		}
	}
	return times[:n]
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := rl.filterRecent(rl.requests[key], now.Add(-rl.window))

	if len(recent) >= rl.limit {
		rl.requests[key] = recent
		return false
	}
	rl.requests[key] = append(recent, now)
	return true
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		windowStart := time.Now().Add(-rl.window)
		for key, times := range rl.requests {
			recent := rl.filterRecent(times, windowStart)
			if len(recent) == 0 {
				delete(rl.requests, key)
			} else {
				rl.requests[key] = recent
			}
		}
		rl.mu.Unlock()
	}
}

// SourceFunc opens the mailbox a scan reads from
type SourceFunc func(ctx context.Context) (tracker.Fetcher, error)

// JobScraper fetches job descriptions from posting URLs
type JobScraper interface {
	Scrape(ctx context.Context, url string) scrape.Result
}

// Options overrides collaborators; zero fields use the configured defaults
type Options struct {
	Source  SourceFunc
	Scraper JobScraper
}

type Server struct {
	config      *config.Config
	store       *store.Store
	tracker     *tracker.Service
	reminders   *reminder.Service
	source      SourceFunc
	scraper     JobScraper
	httpServer  *http.Server
	csrfKey     []byte
	sessions    *SessionStore
	rateLimiter *RateLimiter
	jobManager  *JobManager
}

func NewServer(cfg *config.Config, st *store.Store, opts Options) (*Server, error) {
	csrfKey := make([]byte, 32)
	if _, err := rand.Read(csrfKey); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
	}

	s := &Server{
		config:      cfg,
		store:       st,
		tracker:     tracker.NewService(st, tracker.DefaultRules(cfg.Classifier.UseCompanyOnlyFallback())...),
		reminders:   reminder.NewService(st),
		source:      opts.Source,
		scraper:     opts.Scraper,
		csrfKey:     csrfKey,
		sessions:    NewSessionStore(defaultSessionTTL),
		rateLimiter: NewRateLimiter(defaultRateLimit, defaultRateWindow),
		jobManager:  NewJobManager(),
	}
	if s.source == nil {
		s.source = func(ctx context.Context) (tracker.Fetcher, error) {
			return inbox.NewSource(ctx, cfg)
		}
	}
	if s.scraper == nil {
		s.scraper = scrape.New(cfg.Scraper)
	}
	return s, nil
}

// Start serves the API on localhost until Shutdown
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.config.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // Rendered scrapes are slow
		IdleTimeout:  60 * time.Second,
	}

	fmt.Printf("Starting applytrack API at http://localhost:%d\n", s.config.Server.Port)
	if s.authRequired() {
		fmt.Println("App password is set; log in via POST /auth/login")
	}
	fmt.Println("Press Ctrl+C to stop")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and cancels a running scan
func (s *Server) Shutdown(ctx context.Context) error {
	if job := s.jobManager.GetActive(); job != nil {
		job.Cancel()
	}
	s.sessions.Close()
	if closer, ok := s.scraper.(interface{ Close() }); ok {
		closer.Close()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler builds the router with every route and middleware
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(securityHeaders)
	r.Use(plaintextHTTP)

	// CSRF protection - localhost over plain HTTP
	r.Use(csrf.Protect(
		s.csrfKey,
		csrf.Secure(false),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.TrustedOrigins([]string{"localhost", "127.0.0.1", fmt.Sprintf("localhost:%d", s.config.Server.Port), fmt.Sprintf("127.0.0.1:%d", s.config.Server.Port)}),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			msg := "CSRF check failed"
			if reason := csrf.FailureReason(r); reason != nil {
				msg += ": " + reason.Error()
			}
			writeError(w, http.StatusForbidden, msg)
		})),
	))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/status", s.handleAuthStatus)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/csrf", s.handleCSRFToken)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/applications", func(r chi.Router) {
				r.Get("/", s.handleListApplications)
				r.Post("/", s.handleCreateApplication)
				r.Post("/bulk", s.handleBulkCreate)
				r.Post("/scrape-job", s.handleScrapeJob)
				r.Get("/export", s.handleExportApplications)
				r.Get("/{id}", s.handleGetApplication)
				r.Put("/{id}", s.handleUpdateApplication)
				r.Delete("/{id}", s.handleDeleteApplication)
				r.Patch("/{id}/status", s.handleSetStatus)
			})

			r.Route("/emails", func(r chi.Router) {
				r.Post("/scan", s.handleScan)
				r.Get("/unprocessed", s.handleUnprocessedEmails)
				r.Post("/auto-process", s.handleAutoProcess)
				r.Post("/{id}/link", s.handleLinkEmail)
				r.Post("/{id}/create-application", s.handleCreateFromEmail)
				r.Post("/{id}/dismiss", s.handleDismissEmail)
			})

			r.Route("/reminders", func(r chi.Router) {
				r.Get("/", s.handleListReminders)
				r.Post("/", s.handleCreateReminder)
				r.Get("/due", s.handleDueReminders)
				r.Post("/auto-create", s.handleAutoCreateReminders)
				r.Post("/{id}/complete", s.handleCompleteReminder)
				r.Post("/{id}/dismiss", s.handleDismissReminder)
				r.Post("/{id}/snooze", s.handleSnoozeReminder)
				r.Delete("/{id}", s.handleDeleteReminder)
			})

			r.Get("/stats", s.handleStats)

			r.Get("/jobs/active", s.handleJobActive)
			r.Get("/jobs/{jobID}", s.handleJobStatus)
			r.Post("/jobs/{jobID}/cancel", s.handleJobCancel)
		})
	})

	return r
}

// securityHeaders adds security headers to all responses
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// plaintextHTTP tells the CSRF middleware the request came over plain HTTP,
// so it checks tokens without demanding a Referer
func plaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": csrf.Token(r)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrInvalidStatus), errors.Is(err, tracker.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Error: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON reads the request body into v. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return def
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
