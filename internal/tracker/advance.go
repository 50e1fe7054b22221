package tracker

import (
	"fmt"
	"time"

	"github.com/applytrack/applytrack/internal/classifier"
)

// Transition describes what a message did to a matched application
type Transition struct {
	Updated   bool
	OldStatus Status
	NewStatus Status
	Message   string
}

// Advance applies a message signal to an existing application. Terminal
// applications never move. A rejection ends any other status, an offer only
// moves forward, and every other signal moves one interview step.
func Advance(app *Application, sig classifier.Signal, detectedStage string, received time.Time) Transition {
	old := app.Status
	t := Transition{OldStatus: old, NewStatus: old}

	if old.IsTerminal() {
		return t
	}

	switch sig {
	case classifier.SignalRejected:
		stage := detectedStage
		if stage == "" {
			stage = InferRejectionStage(old)
		}
		app.Status = StatusRejected
		app.RejectedAtStage = stage
		app.LastContactDate = timePtr(received)
		t.Updated = true
		t.NewStatus = StatusRejected
		t.Message = "Rejected at " + stage

	case classifier.SignalOfferReceived:
		if StatusOfferReceived.Rank() <= old.Rank() {
			return t
		}
		app.Status = StatusOfferReceived
		app.LastContactDate = timePtr(received)
		t.Updated = true
		t.NewStatus = StatusOfferReceived
		t.Message = fmt.Sprintf("Advanced from %s → %s", old.Title(), StatusOfferReceived.Title())

	case classifier.SignalInterviewScheduled, classifier.SignalPhoneScreen,
		classifier.SignalApplicationReceived, classifier.SignalApplied:
		next, ok := NextStage(old)
		if !ok || next.Rank() <= old.Rank() {
			return t
		}
		app.Status = next
		app.LastContactDate = timePtr(received)
		t.Updated = true
		t.NewStatus = next
		t.Message = fmt.Sprintf("Auto-advanced from %s → %s", old.Title(), next.Title())
	}

	return t
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return &t
}
