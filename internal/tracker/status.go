package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/applytrack/applytrack/internal/classifier"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidInput  = errors.New("invalid input")
)

// Status is where an application sits in the hiring pipeline
type Status string

const (
	StatusApplied         Status = "applied"
	StatusNoResponse      Status = "no_response"
	StatusPhoneScreen     Status = "phone_screen"
	StatusFirstInterview  Status = "first_interview"
	StatusSecondInterview Status = "second_interview"
	StatusThirdInterview  Status = "third_interview"
	StatusOfferReceived   Status = "offer_received"
	StatusOfferAccepted   Status = "offer_accepted"
	StatusOfferDeclined   Status = "offer_declined" // terminal
	StatusRejected        Status = "rejected"       // terminal
	StatusWithdrawn       Status = "withdrawn"      // terminal
)

// AllStatuses lists every status in display order
var AllStatuses = []Status{
	StatusApplied,
	StatusPhoneScreen,
	StatusFirstInterview,
	StatusSecondInterview,
	StatusThirdInterview,
	StatusOfferReceived,
	StatusOfferAccepted,
	StatusOfferDeclined,
	StatusRejected,
	StatusWithdrawn,
	StatusNoResponse,
}

// progression is the forward order used for advancement checks
var progression = []Status{
	StatusApplied,
	StatusNoResponse,
	StatusPhoneScreen,
	StatusFirstInterview,
	StatusSecondInterview,
	StatusThirdInterview,
	StatusOfferReceived,
	StatusOfferAccepted,
}

// Rejection stages inferred from the status held before the rejection
const (
	StageResume      = "Application/Resume Stage"
	StageAfterPhone  = "After Phone Screen"
	StageAfterFirst  = "After First Interview"
	StageAfterSecond = "After Second Interview"
	StageAfterThird  = "After Third Interview"
)

// Placeholders for details a message did not reveal
const (
	UnknownCompany  = "Unknown Company"
	UnknownPosition = "Unknown Position"
)

// ParseStatus validates a caller-supplied status string
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusNoResponse, StatusPhoneScreen,
		StatusFirstInterview, StatusSecondInterview, StatusThirdInterview,
		StatusOfferReceived, StatusOfferAccepted, StatusOfferDeclined,
		StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// IsTerminal reports whether automated transitions are frozen for s
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusWithdrawn, StatusOfferDeclined:
		return true
	}
	return false
}

// Rank is the position of s in the forward progression, or -1 for
// statuses outside it (terminal ones).
func (s Status) Rank() int {
	for i, p := range progression {
		if p == s {
			return i
		}
	}
	return -1
}

// NextStage is the status one interview step beyond s. ok is false when
// there is no automatic next step.
func NextStage(s Status) (next Status, ok bool) {
	switch s {
	case StatusApplied, StatusNoResponse:
		return StatusPhoneScreen, true
	case StatusPhoneScreen:
		return StatusFirstInterview, true
	case StatusFirstInterview:
		return StatusSecondInterview, true
	case StatusSecondInterview:
		return StatusThirdInterview, true
	case StatusThirdInterview:
		return StatusOfferReceived, true
	}
	return s, false
}

// InferRejectionStage names the stage a rejection happened at when the
// message itself does not say.
func InferRejectionStage(before Status) string {
	switch before {
	case StatusPhoneScreen:
		return StageAfterPhone
	case StatusFirstInterview:
		return StageAfterFirst
	case StatusSecondInterview:
		return StageAfterSecond
	case StatusThirdInterview:
		return StageAfterThird
	}
	return StageResume
}

// StatusForSignal is the status a brand new application gets from a message signal
func StatusForSignal(sig classifier.Signal) Status {
	switch sig {
	case classifier.SignalRejected:
		return StatusRejected
	case classifier.SignalOfferReceived:
		return StatusOfferReceived
	case classifier.SignalInterviewScheduled, classifier.SignalPhoneScreen:
		return StatusPhoneScreen
	}
	return StatusApplied
}

// Title is the status name in title case, e.g. "First Interview"
func (s Status) Title() string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Label is the short display name used in listings and charts
func (s Status) Label() string {
	switch s {
	case StatusFirstInterview:
		return "1st Interview"
	case StatusSecondInterview:
		return "2nd Interview"
	case StatusThirdInterview:
		return "3rd Interview"
	}
	return s.Title()
}

// Color is the chart colour for s
func (s Status) Color() string {
	switch s {
	case StatusApplied:
		return "#3B82F6"
	case StatusPhoneScreen:
		return "#6366F1"
	case StatusFirstInterview:
		return "#8B5CF6"
	case StatusSecondInterview:
		return "#A855F7"
	case StatusThirdInterview:
		return "#EC4899"
	case StatusOfferReceived:
		return "#22C55E"
	case StatusOfferAccepted:
		return "#10B981"
	case StatusOfferDeclined:
		return "#6B7280"
	case StatusRejected:
		return "#EF4444"
	case StatusWithdrawn:
		return "#9CA3AF"
	case StatusNoResponse:
		return "#F59E0B"
	}
	return "#6B7280"
}
