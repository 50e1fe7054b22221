package tracker

import (
	"testing"
	"time"

	"github.com/applytrack/applytrack/internal/classifier"
)

var allSignals = []classifier.Signal{
	classifier.SignalRejected,
	classifier.SignalInterviewScheduled,
	classifier.SignalPhoneScreen,
	classifier.SignalOfferReceived,
	classifier.SignalApplicationReceived,
	classifier.SignalApplied,
}

func TestAdvanceRejectionInfersStage(t *testing.T) {
	received := day(2024, 3, 10)
	app := &Application{Status: StatusFirstInterview}

	tr := Advance(app, classifier.SignalRejected, "", received)
	if !tr.Updated {
		t.Fatal("rejection should update the application")
	}
	if app.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", app.Status)
	}
	if app.RejectedAtStage != "After First Interview" {
		t.Errorf("stage = %q, want After First Interview", app.RejectedAtStage)
	}
	if app.LastContactDate == nil || !app.LastContactDate.Equal(received) {
		t.Errorf("last contact = %v, want %v", app.LastContactDate, received)
	}
	if tr.Message != "Rejected at After First Interview" {
		t.Errorf("message = %q", tr.Message)
	}
}

func TestAdvanceRejectionAfterPhoneScreen(t *testing.T) {
	body := "Thank you for your time. Unfortunately we will not be moving forward."
	c := classifier.Classify(classifier.Message{
		SenderAddress: "hr@initech.com",
		Subject:       "Your application",
		Body:          body,
	})
	if c.Signal != classifier.SignalRejected || c.RejectionStage != "" {
		t.Fatalf("unexpected classification: %+v", c)
	}

	app := &Application{Status: StatusPhoneScreen}
	Advance(app, c.Signal, c.RejectionStage, time.Now())
	if app.RejectedAtStage != "After Phone Screen" {
		t.Errorf("stage = %q, want After Phone Screen", app.RejectedAtStage)
	}
}

func TestAdvanceRejectionUsesDetectedStage(t *testing.T) {
	app := &Application{Status: StatusSecondInterview}
	Advance(app, classifier.SignalRejected, classifier.StageTechnicalInterview, time.Now())
	if app.RejectedAtStage != classifier.StageTechnicalInterview {
		t.Errorf("stage = %q, want %q", app.RejectedAtStage, classifier.StageTechnicalInterview)
	}
}

func TestAdvanceTerminalLock(t *testing.T) {
	for _, status := range []Status{StatusRejected, StatusWithdrawn, StatusOfferDeclined} {
		for _, sig := range allSignals {
			app := &Application{Status: status, RejectedAtStage: "kept"}
			tr := Advance(app, sig, "", time.Now())
			if tr.Updated || app.Status != status || app.LastContactDate != nil {
				t.Errorf("%s + %s changed the application: %+v", status, sig, app)
			}
			if app.RejectedAtStage != "kept" {
				t.Errorf("%s + %s touched the rejection stage", status, sig)
			}
		}
	}
}

func TestAdvanceRejectedIgnoresInterview(t *testing.T) {
	app := &Application{Status: StatusRejected}
	if tr := Advance(app, classifier.SignalInterviewScheduled, "", time.Now()); tr.Updated {
		t.Errorf("rejected application moved to %s", app.Status)
	}
}

func TestAdvanceNeverMovesBackward(t *testing.T) {
	for _, status := range progression {
		for _, sig := range allSignals {
			if sig == classifier.SignalRejected {
				continue
			}
			app := &Application{Status: status}
			Advance(app, sig, "", time.Now())
			if app.Status.Rank() < status.Rank() {
				t.Errorf("%s + %s moved backward to %s", status, sig, app.Status)
			}
		}
	}
}

func TestAdvanceOneStep(t *testing.T) {
	tests := []struct {
		from    Status
		signal  classifier.Signal
		want    Status
		message string
	}{
		{StatusApplied, classifier.SignalInterviewScheduled, StatusPhoneScreen, "Auto-advanced from Applied → Phone Screen"},
		{StatusPhoneScreen, classifier.SignalPhoneScreen, StatusFirstInterview, "Auto-advanced from Phone Screen → First Interview"},
		{StatusNoResponse, classifier.SignalApplicationReceived, StatusPhoneScreen, "Auto-advanced from No Response → Phone Screen"},
		{StatusThirdInterview, classifier.SignalInterviewScheduled, StatusOfferReceived, "Auto-advanced from Third Interview → Offer Received"},
		{StatusOfferReceived, classifier.SignalInterviewScheduled, StatusOfferReceived, ""},
		{StatusOfferAccepted, classifier.SignalApplied, StatusOfferAccepted, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.signal), func(t *testing.T) {
			app := &Application{Status: tt.from}
			tr := Advance(app, tt.signal, "", time.Now())
			if app.Status != tt.want {
				t.Errorf("status = %s, want %s", app.Status, tt.want)
			}
			if tr.Message != tt.message {
				t.Errorf("message = %q, want %q", tr.Message, tt.message)
			}
			if tr.Updated != (tt.message != "") {
				t.Errorf("updated = %v", tr.Updated)
			}
		})
	}
}

func TestAdvanceOffer(t *testing.T) {
	app := &Application{Status: StatusSecondInterview}
	tr := Advance(app, classifier.SignalOfferReceived, "", time.Now())
	if app.Status != StatusOfferReceived {
		t.Errorf("status = %s, want offer_received", app.Status)
	}
	if tr.Message != "Advanced from Second Interview → Offer Received" {
		t.Errorf("message = %q", tr.Message)
	}

	for _, status := range []Status{StatusOfferReceived, StatusOfferAccepted} {
		app := &Application{Status: status}
		if tr := Advance(app, classifier.SignalOfferReceived, "", time.Now()); tr.Updated {
			t.Errorf("offer at %s should be a no-op", status)
		}
	}
}
