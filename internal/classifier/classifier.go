package classifier

import (
	"strings"
	"time"
)

// Signal is the kind of hiring event a message announces
type Signal string

const (
	SignalRejected            Signal = "rejected"             // Candidate turned down
	SignalInterviewScheduled  Signal = "interview_scheduled"  // Interview invite or next round
	SignalPhoneScreen         Signal = "phone_screen"         // Recruiter call
	SignalOfferReceived       Signal = "offer_received"       // Offer extended
	SignalApplicationReceived Signal = "application_received" // Submission acknowledged
	SignalApplied             Signal = "applied"              // Nothing specific detected
)

// Detected reports whether the signal came from a pattern match rather than the default
func (s Signal) Detected() bool {
	return s != "" && s != SignalApplied
}

// Rejection stages recognised in message text
const (
	StageApplicationReview  = "After Application Review"
	StagePhoneScreen        = "After Phone Screen"
	StageTechnicalInterview = "After Technical Interview"
	StageOnsiteInterview    = "After Onsite Interview"
	StageFinalInterview     = "After Final Interview"
)

// Message is one inbound email, already decoded to plain text
type Message struct {
	ID            string // Provider message ID
	ThreadID      string
	SenderName    string
	SenderAddress string
	Subject       string
	Snippet       string
	Body          string
	ReceivedAt    time.Time
}

// Text joins the searchable parts of the message
func (m Message) Text() string {
	return m.Subject + "\n" + m.Snippet + "\n" + m.Body
}

// Classification is what the classifier derives from a single message
type Classification struct {
	IsJobRelated   bool
	Company        string
	Position       string
	Signal         Signal
	RejectionStage string // Only set for rejections, and only when the text names a stage
	Confidence     float64
	Keywords       []string // Distinct keywords found, in table order
}

// Classify runs relevance, extraction, signal detection and scoring.
// Unrelated messages come back with only IsJobRelated=false.
func Classify(msg Message) Classification {
	text := msg.Text()
	lower := strings.ToLower(text)

	keywords := matchedKeywords(lower)
	if !isRelated(strings.ToLower(msg.SenderAddress), lower, len(keywords)) {
		return Classification{}
	}

	c := Classification{
		IsJobRelated: true,
		Company:      ExtractCompany(msg.SenderName, msg.SenderAddress, msg.Subject, msg.Body),
		Position:     ExtractPosition(msg.Subject, msg.Body),
		Signal:       DetectSignal(text),
		Keywords:     keywords,
	}
	if c.Signal == SignalRejected {
		c.RejectionStage = DetectRejectionStage(text)
	}
	c.Confidence = Confidence(c.Company, c.Position, c.Signal, len(keywords))
	return c
}

// ShouldAutoProcess reports whether a classification is trustworthy enough to
// act on without review.
func (c Classification) ShouldAutoProcess(threshold float64) bool {
	return c.IsJobRelated && c.Company != "" && c.Confidence >= threshold
}

// Summary counts classifications by signal
type Summary struct {
	Total     int
	Related   int
	AutoReady int
	BySignal  map[Signal]int
	Unrelated int
	NoCompany int
}

// ClassifyBatch classifies messages in order and summarises the results
func ClassifyBatch(msgs []Message, threshold float64) ([]Classification, Summary) {
	results := make([]Classification, len(msgs))
	summary := Summary{Total: len(msgs), BySignal: make(map[Signal]int)}

	for i, msg := range msgs {
		c := Classify(msg)
		results[i] = c
		if !c.IsJobRelated {
			summary.Unrelated++
			continue
		}
		summary.Related++
		summary.BySignal[c.Signal]++
		if c.Company == "" {
			summary.NoCompany++
		}
		if c.ShouldAutoProcess(threshold) {
			summary.AutoReady++
		}
	}
	return results, summary
}
