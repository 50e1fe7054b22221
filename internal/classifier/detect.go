package classifier

import (
	"math"
	"regexp"
	"strings"
)

const (
	weightCompany   = 0.35
	weightPosition  = 0.30
	weightSignal    = 0.20
	weightKeyword   = 0.03
	maxKeywordBonus = 0.15
)

func matchedKeywords(lower string) []string {
	var found []string
	for _, kw := range JobKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// IsJobRelated decides whether a message belongs to a job search.
// Mail from job boards and automated senders is dropped unless it mentions an
// application, interview or position; everything else needs two keywords.
func IsJobRelated(msg Message) bool {
	lower := strings.ToLower(msg.Text())
	return isRelated(strings.ToLower(msg.SenderAddress), lower, len(matchedKeywords(lower)))
}

func isRelated(senderLower, textLower string, keywordCount int) bool {
	if isIgnoredSender(senderLower) && !containsAny(textLower, anchorTerms) {
		return false
	}
	return keywordCount >= 2
}

func isIgnoredSender(senderLower string) bool {
	return containsAny(senderLower, IgnoreDomains)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// DetectSignal scores every signal by its number of matching patterns and
// returns the highest. Ties go to the earlier signal in priority order and a
// message with no matches is SignalApplied.
func DetectSignal(text string) Signal {
	best, bestScore := SignalApplied, 0
	for _, rule := range signalRules {
		if score := countMatches(rule.patterns, text); score > bestScore {
			best, bestScore = rule.signal, score
		}
	}
	return best
}

func countMatches(patterns []regexp.Regexp, text string) int {
	n := 0
	for i := range patterns {
		if patterns[i].MatchString(text) {
			n++
		}
	}
	return n
}

// DetectRejectionStage returns the stage with the most matching patterns.
// Ties go to the earlier stage in the pipeline; no matches gives "".
func DetectRejectionStage(text string) string {
	best, bestScore := "", 0
	for _, rule := range stageRules {
		if score := countMatches(rule.patterns, text); score > bestScore {
			best, bestScore = rule.stage, score
		}
	}
	return best
}

// Confidence scores how much of a classification is backed by evidence
func Confidence(company, position string, signal Signal, keywordCount int) float64 {
	score := 0.0
	if company != "" {
		score += weightCompany
	}
	if position != "" {
		score += weightPosition
	}
	if signal.Detected() {
		score += weightSignal
	}
	score += math.Min(float64(keywordCount)*weightKeyword, maxKeywordBonus)
	return math.Min(score, 1.0)
}
