package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/applytrack/applytrack/internal/reminder"
	"github.com/applytrack/applytrack/internal/stats"
	"github.com/applytrack/applytrack/internal/tracker"
)

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.reminders.List(r.Context(), reminder.ListOptions{
		IncludeDone:  queryBool(r, "include_completed"),
		UpcomingOnly: queryBool(r, "upcoming"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(reminders))
}

func (s *Server) handleDueReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.reminders.Due(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(reminders))
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ApplicationID int64  `json:"application_id"`
		ReminderDate  string `json:"reminder_date"`
		Message       string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDate(req.ReminderDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.reminders.Create(r.Context(), req.ApplicationID, date, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCompleteReminder(w http.ResponseWriter, r *http.Request) {
	s.updateReminder(w, r, s.reminders.Complete)
}

func (s *Server) handleDismissReminder(w http.ResponseWriter, r *http.Request) {
	s.updateReminder(w, r, s.reminders.Dismiss)
}

func (s *Server) handleSnoozeReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Days int `json:"days"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.updateReminder(w, r, func(ctx context.Context, id int64) (*tracker.Reminder, error) {
		return s.reminders.Snooze(ctx, id, req.Days)
	})
}

func (s *Server) updateReminder(w http.ResponseWriter, r *http.Request, change func(context.Context, int64) (*tracker.Reminder, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	updated, err := change(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.reminders.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reminder deleted"})
}

func (s *Server) handleAutoCreateReminders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DaysInactive int `json:"days_inactive"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DaysInactive < 1 {
		req.DaysInactive = s.config.Reminders.FollowUpDays
	}

	created, err := s.reminders.AutoCreate(r.Context(), req.DaysInactive)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"created":   len(created),
		"reminders": nonNil(created),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.AllApplications(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Compute(apps, time.Now()))
}

// parseDate accepts RFC 3339 timestamps and plain dates
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("reminder_date is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reminder_date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func nonNil(reminders []*tracker.Reminder) []*tracker.Reminder {
	if reminders == nil {
		return []*tracker.Reminder{}
	}
	return reminders
}
