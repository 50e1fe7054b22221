package tracker

import (
	"errors"
	"testing"

	"github.com/applytrack/applytrack/internal/classifier"
)

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses {
		got, err := ParseStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}

	for _, bad := range []string{"", "interviewing", "REJECTED", "profile_viewed"} {
		if _, err := ParseStatus(bad); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ParseStatus(%q) error = %v, want ErrInvalidStatus", bad, err)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[Status]bool{StatusRejected: true, StatusWithdrawn: true, StatusOfferDeclined: true}
	for _, s := range AllStatuses {
		if s.IsTerminal() != terminal[s] {
			t.Errorf("%s.IsTerminal() = %v", s, s.IsTerminal())
		}
		if terminal[s] && s.Rank() != -1 {
			t.Errorf("terminal status %s should be outside the progression", s)
		}
	}
}

func TestNextStage(t *testing.T) {
	tests := []struct {
		from Status
		want Status
		ok   bool
	}{
		{StatusApplied, StatusPhoneScreen, true},
		{StatusNoResponse, StatusPhoneScreen, true},
		{StatusPhoneScreen, StatusFirstInterview, true},
		{StatusFirstInterview, StatusSecondInterview, true},
		{StatusSecondInterview, StatusThirdInterview, true},
		{StatusThirdInterview, StatusOfferReceived, true},
		{StatusOfferReceived, StatusOfferReceived, false},
		{StatusRejected, StatusRejected, false},
	}
	for _, tt := range tests {
		got, ok := NextStage(tt.from)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NextStage(%s) = %s, %v; want %s, %v", tt.from, got, ok, tt.want, tt.ok)
		}
	}
}

func TestInferRejectionStage(t *testing.T) {
	tests := map[Status]string{
		StatusApplied:         StageResume,
		StatusNoResponse:      StageResume,
		StatusPhoneScreen:     "After Phone Screen",
		StatusFirstInterview:  "After First Interview",
		StatusSecondInterview: "After Second Interview",
		StatusThirdInterview:  "After Third Interview",
		StatusOfferReceived:   StageResume,
	}
	for status, want := range tests {
		if got := InferRejectionStage(status); got != want {
			t.Errorf("InferRejectionStage(%s) = %q, want %q", status, got, want)
		}
	}
}

func TestStatusForSignal(t *testing.T) {
	tests := map[classifier.Signal]Status{
		classifier.SignalRejected:            StatusRejected,
		classifier.SignalOfferReceived:       StatusOfferReceived,
		classifier.SignalInterviewScheduled:  StatusPhoneScreen,
		classifier.SignalPhoneScreen:         StatusPhoneScreen,
		classifier.SignalApplicationReceived: StatusApplied,
		classifier.SignalApplied:             StatusApplied,
	}
	for sig, want := range tests {
		if got := StatusForSignal(sig); got != want {
			t.Errorf("StatusForSignal(%s) = %s, want %s", sig, got, want)
		}
	}
}

func TestStatusLabels(t *testing.T) {
	if got := StatusOfferReceived.Title(); got != "Offer Received" {
		t.Errorf("Title() = %q", got)
	}
	if got := StatusSecondInterview.Label(); got != "2nd Interview" {
		t.Errorf("Label() = %q", got)
	}
	if got := StatusRejected.Color(); got != "#EF4444" {
		t.Errorf("Color() = %q", got)
	}
}
