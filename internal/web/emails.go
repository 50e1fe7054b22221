package web

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/applytrack/applytrack/internal/tracker"
)

// handleScan starts a mailbox scan in the background. Poll /api/jobs/{id}.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Days       int `json:"days"`
		MaxResults int `json:"max_results"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Days < 1 {
		req.Days = s.config.Classifier.ScanDays
	}
	if req.MaxResults < 1 {
		req.MaxResults = s.config.Classifier.MaxMessages
	}

	s.jobManager.Cleanup(jobRetention)
	job, active := s.jobManager.Start()
	if active != nil {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  "a scan is already running",
			"job_id": active.ID,
		})
		return
	}

	opts := tracker.ScanOptions{
		Since:      time.Now().AddDate(0, 0, -req.Days),
		MaxResults: req.MaxResults,
		Progress:   job.Update,
	}
	go s.runScan(job, opts)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": JobStatusRunning,
	})
}

func (s *Server) runScan(job *Job, opts tracker.ScanOptions) {
	ctx := job.Context()

	src, err := s.source(ctx)
	if err != nil {
		log.Printf("Scan %s: %v", job.ID, err)
		job.Fail(err)
		return
	}
	if d, ok := src.(interface{ Disconnect() error }); ok {
		defer d.Disconnect()
	}

	result, err := s.tracker.Scan(ctx, src, opts)
	if err != nil {
		log.Printf("Scan %s: %v", job.ID, err)
		job.Fail(err)
		return
	}
	job.Complete(result)
}

func (s *Server) handleUnprocessedEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := s.store.ListPendingEmails(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if emails == nil {
		emails = []*tracker.Email{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"emails": emails,
		"count":  len(emails),
	})
}

func (s *Server) handleLinkEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		ApplicationID int64 `json:"application_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email, err := s.tracker.LinkEmail(r.Context(), id, req.ApplicationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, email)
}

func (s *Server) handleCreateFromEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		CompanyName   string `json:"company_name"`
		PositionTitle string `json:"position_title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	outcome, err := s.tracker.CreateFromEmail(r.Context(), id, req.CompanyName, req.PositionTitle)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if outcome.Kind == tracker.OutcomeCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, outcome)
}

func (s *Server) handleDismissEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.tracker.DismissEmail(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email dismissed"})
}

func (s *Server) handleAutoProcess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MinConfidence *float64 `json:"min_confidence"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	threshold := s.config.Classifier.AutoProcessThreshold
	if req.MinConfidence != nil {
		threshold = *req.MinConfidence
	}

	result, err := s.tracker.AutoProcess(r.Context(), threshold)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleJobActive(w http.ResponseWriter, r *http.Request) {
	job := s.jobManager.GetActive()
	if job == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"job": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"job": job.ToJSON()})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobManager.Get(chi.URLParam(r, "jobID"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job.ToJSON())
}

func (s *Server) handleJobCancel(w http.ResponseWriter, r *http.Request) {
	job := s.jobManager.Get(chi.URLParam(r, "jobID"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	job.Cancel()
	writeJSON(w, http.StatusOK, job.ToJSON())
}
