package web

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/applytrack/applytrack/internal/export"
	"github.com/applytrack/applytrack/internal/store"
	"github.com/applytrack/applytrack/internal/tracker"
)

// applicationDetail is an application with everything attached to it
type applicationDetail struct {
	*tracker.Application
	Emails    []*tracker.Email    `json:"emails"`
	Reminders []*tracker.Reminder `json:"reminders"`
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.store.ListApplications(r.Context(), store.ListQuery{
		Status:  q.Get("status"),
		Search:  q.Get("search"),
		Sort:    q.Get("sort"),
		Order:   q.Get("order"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 50),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var app tracker.Application
	if !decodeJSON(w, r, &app) {
		return
	}
	app.ID = 0

	if err := s.tracker.CreateApplication(r.Context(), &app); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	emails, err := s.store.EmailsForApplication(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	reminders, err := s.store.RemindersForApplication(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	detail := applicationDetail{Application: app, Emails: emails, Reminders: reminders}
	if detail.Emails == nil {
		detail.Emails = []*tracker.Email{}
	}
	if detail.Reminders == nil {
		detail.Reminders = []*tracker.Reminder{}
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var edit tracker.Edit
	if !decodeJSON(w, r, &edit) {
		return
	}

	result, err := s.tracker.UpdateApplication(r.Context(), id, edit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteApplication(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Application deleted"})
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	app, err := s.tracker.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Applications []tracker.BulkItem `json:"applications"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Applications) == 0 {
		writeError(w, http.StatusBadRequest, "applications must not be empty")
		return
	}

	created, err := s.tracker.BulkCreate(r.Context(), req.Applications)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"created":      len(created),
		"applications": created,
	})
}

func (s *Server) handleScrapeJob(w http.ResponseWriter, r *http.Request) {
	if !s.rateLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "too many requests, try again later")
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	result := s.scraper.Scrape(r.Context(), req.URL)
	if !result.Success {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExportApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.AllApplications(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="applications-%s.csv"`, time.Now().Format("20060102")))
	if err := export.WriteCSV(w, apps); err != nil {
		log.Printf("Warning: CSV export failed: %v", err)
	}
}
