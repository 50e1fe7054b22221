package classifier

import "regexp"

// Status signal patterns. Each match adds one to the signal's score.
var (
	// Rejection indicators
	rejectedPatterns = []regexp.Regexp{
		*regexp.MustCompile(`(?i)unfortunately`),
		*regexp.MustCompile(`(?i)regret\s+to\s+inform`),
		*regexp.MustCompile(`(?i)not\s+(?:be\s+)?mov(?:ing|ed)\s+forward`),
		*regexp.MustCompile(`(?i)decided\s+(?:to\s+)?(?:not\s+)?(?:proceed|continue)`),
		*regexp.MustCompile(`(?i)we\s+have\s+decided\s+not\s+to\s+proceed`),
		*regexp.MustCompile(`(?i)not\s+to\s+proceed\s+with\s+your\s+application`),
		*regexp.MustCompile(`(?i)position\s+has\s+been\s+filled`),
		*regexp.MustCompile(`(?i)other\s+candidates`),
		*regexp.MustCompile(`(?i)not\s+selected`),
		*regexp.MustCompile(`(?i)will\s+not\s+be\s+(?:proceeding|continuing)`),
		*regexp.MustCompile(`(?i)we\s+(?:will\s+)?not\s+be\s+(?:moving|going)\s+forward`),
		*regexp.MustCompile(`(?i)after\s+careful\s+(?:review|consideration)`),
		*regexp.MustCompile(`(?i)(?:has|have)\s+been\s+filled`),
		*regexp.MustCompile(`(?i)pursue\s+other\s+candidates`),
		*regexp.MustCompile(`(?i)won'?t\s+be\s+(?:moving|proceeding)`),
		*regexp.MustCompile(`(?i)no\s+longer\s+(?:being\s+)?consider`),
		*regexp.MustCompile(`(?i)not\s+a\s+(?:good\s+)?(?:fit|match)`),
		*regexp.MustCompile(`(?i)decided\s+to\s+go\s+(?:in\s+)?a(?:nother)?\s+(?:different\s+)?direction`),
		*regexp.MustCompile(`(?i)your\s+application\s+(?:was|has\s+been)\s+(?:unsuccessful|rejected)`),
		*regexp.MustCompile(`(?i)unable\s+to\s+offer\s+you`),
		*regexp.MustCompile(`(?i)not\s+be\s+able\s+to\s+offer`),
	}

	// Interview invitations
	interviewPatterns = []regexp.Regexp{
		*regexp.MustCompile(`(?i)schedule\s+(?:a|an|your)?\s*(?:phone|video|virtual|in-person|onsite|on-site)?\s*(?:screen|interview|call)`),
		*regexp.MustCompile(`(?i)interview\s+(?:is\s+)?(?:scheduled|confirmed)`),
		*regexp.MustCompile(`(?i)invite\s+you\s+(?:to|for)\s+(?:a|an)?\s*interview`),
		*regexp.MustCompile(`(?i)like\s+to\s+(?:schedule|set\s+up)\s+(?:a|an)?\s*(?:time|call|interview)`),
		*regexp.MustCompile(`(?i)next\s+(?:step|round|stage)`),
		*regexp.MustCompile(`(?i)move\s+(?:you\s+)?forward`),
		*regexp.MustCompile(`(?i)proceed\s+(?:with|to)`),
	}

	// Recruiter phone screens
	phoneScreenPatterns = []regexp.Regexp{
		*regexp.MustCompile(`(?i)phone\s+(?:screen|call|interview)`),
		*regexp.MustCompile(`(?i)initial\s+(?:screen|call|conversation)`),
		*regexp.MustCompile(`(?i)recruiter\s+(?:screen|call)`),
		*regexp.MustCompile(`(?i)(?:15|20|30)\s*(?:-|–)?\s*minute\s+(?:call|chat|conversation)`),
	}

	// Offers
	offerPatterns = []regexp.Regexp{
		*regexp.MustCompile(`(?i)pleased\s+to\s+(?:offer|extend)`),
		*regexp.MustCompile(`(?i)offer\s+(?:letter|of\s+employment)`),
		*regexp.MustCompile(`(?i)job\s+offer`),
		*regexp.MustCompile(`(?i)would\s+like\s+to\s+offer\s+you`),
		*regexp.MustCompile(`(?i)congratulations.*(?:offer|position)`),
		*regexp.MustCompile(`(?i)we(?:'d|\s+would)\s+like\s+(?:to\s+)?(?:have|bring)\s+you`),
	}

	// Application confirmations
	receivedPatterns = []regexp.Regexp{
		*regexp.MustCompile(`(?i)application\s+(?:has\s+been\s+)?received`),
		*regexp.MustCompile(`(?i)thank\s+you\s+for\s+(?:your\s+)?(?:interest|applying|application)`),
		*regexp.MustCompile(`(?i)confirm(?:ing|ation)?\s+(?:that\s+)?(?:we\s+)?(?:have\s+)?received`),
		*regexp.MustCompile(`(?i)successfully\s+(?:submitted|received)`),
	}
)

// signalRules is scanned in order; on equal scores the earlier rule wins.
var signalRules = []struct {
	signal   Signal
	patterns []regexp.Regexp
}{
	{SignalRejected, rejectedPatterns},
	{SignalInterviewScheduled, interviewPatterns},
	{SignalPhoneScreen, phoneScreenPatterns},
	{SignalOfferReceived, offerPatterns},
	{SignalApplicationReceived, receivedPatterns},
}

// Rejection stage patterns, checked in pipeline order
var stageRules = []struct {
	stage    string
	patterns []regexp.Regexp
}{
	{StageApplicationReview, []regexp.Regexp{
		*regexp.MustCompile(`(?i)after\s+(?:reviewing|review\s+of)\s+your\s+(?:application|resume|cv)`),
		*regexp.MustCompile(`(?i)initial\s+(?:review|screening)`),
		*regexp.MustCompile(`(?i)application\s+(?:review|screening)`),
		*regexp.MustCompile(`(?i)resume\s+(?:review|screening)`),
		*regexp.MustCompile(`(?i)reviewed\s+your\s+(?:application|resume|background)`),
	}},
	{StagePhoneScreen, []regexp.Regexp{
		*regexp.MustCompile(`(?i)after\s+(?:your|the|our)\s+(?:phone|initial)\s+(?:screen|call|interview|conversation)`),
		*regexp.MustCompile(`(?i)following\s+(?:your|the|our)\s+(?:phone|initial)\s+(?:screen|call|interview)`),
		*regexp.MustCompile(`(?i)phone\s+(?:screen|interview)`),
		*regexp.MustCompile(`(?i)initial\s+(?:call|conversation|chat)`),
		*regexp.MustCompile(`(?i)recruiter\s+(?:call|screen|conversation)`),
	}},
	{StageTechnicalInterview, []regexp.Regexp{
		*regexp.MustCompile(`(?i)after\s+(?:your|the)\s+technical\s+(?:interview|assessment|screen)`),
		*regexp.MustCompile(`(?i)following\s+(?:your|the)\s+technical`),
		*regexp.MustCompile(`(?i)technical\s+(?:interview|round|assessment)`),
		*regexp.MustCompile(`(?i)coding\s+(?:interview|challenge|assessment)`),
		*regexp.MustCompile(`(?i)take[\s-]?home\s+(?:assignment|test|project)`),
	}},
	{StageOnsiteInterview, []regexp.Regexp{
		*regexp.MustCompile(`(?i)after\s+(?:your|the)\s+(?:onsite|on-site|in-person|virtual\s+onsite)`),
		*regexp.MustCompile(`(?i)following\s+(?:your|the)\s+(?:onsite|on-site|in-person)`),
		*regexp.MustCompile(`(?i)onsite\s+(?:interview|round)`),
		*regexp.MustCompile(`(?i)on-site\s+(?:interview|round)`),
		*regexp.MustCompile(`(?i)final\s+round`),
		*regexp.MustCompile(`(?i)team\s+interview`),
	}},
	{StageFinalInterview, []regexp.Regexp{
		*regexp.MustCompile(`(?i)after\s+(?:your|the)\s+final\s+(?:interview|round)`),
		*regexp.MustCompile(`(?i)following\s+(?:your|the)\s+final`),
		*regexp.MustCompile(`(?i)final\s+(?:interview|round|stage)`),
		*regexp.MustCompile(`(?i)(?:executive|leadership|hiring\s+manager)\s+interview`),
	}},
}

// Entity extraction patterns. The captured names must start with a capital
// letter, so only the lead-in words are case-insensitive.
var (
	// "Jane Doe from Acme Recruiting <jane@acme.com>"
	senderCompanyPattern = regexp.MustCompile(`(?:\b(?:from|at)|@)\s+([A-Z][A-Za-z0-9\s&]+?)(?:\s+(?:Recruiting|HR|Careers|Talent|Team))?(?:\s*<|$)`)

	senderDomainPattern = regexp.MustCompile(`@([A-Za-z0-9\-]+)\.[a-z]+`)

	bodyCompanyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?i:at|from|with)\s+([A-Z][A-Za-z0-9&]*(?:\s+[A-Z][A-Za-z0-9&]*){0,3})(?:\s+(?i:Inc|LLC|Ltd|Corp|Corporation|Company|Co|Group|Technologies|Labs)\.?)?(?:[\s,.!]|$)`),
		regexp.MustCompile(`(?:^|\s)([A-Z][A-Za-z0-9]+(?:\s+[A-Z][A-Za-z0-9]+){0,3})\s+(?i:is\s+)?(?i:hiring|recruiting|looking)`),
		regexp.MustCompile(`\b(?i:team|company|organization)\s+at\s+([A-Z][A-Za-z0-9&]*(?:\s+[A-Z][A-Za-z0-9&]*){0,3})`),
		regexp.MustCompile(`(?i)\b(?:careers?|jobs?|talent)\s*@\s*([A-Za-z0-9]+)`),
	}

	legalSuffixPattern = regexp.MustCompile(`(?i)[\s,]+(?:Inc|LLC|Ltd|Corp|Corporation|Company|Co)\.?\s*$`)

	jobTitlePatterns = []*regexp.Regexp{
		// "position of Senior Data Engineer"
		regexp.MustCompile(`\b(?i:position|role|job|opening)\s*(?i:of|for|as|:)?\s*["']?([A-Z][A-Za-z\s\-/]+(?:Engineer|Developer|Manager|Designer|Analyst|Director|Lead|Architect|Specialist|Coordinator|Associate|Intern))\b`),
		// Seniority or discipline prefix followed by a role noun
		regexp.MustCompile(`\b(?:Software|Senior|Junior|Staff|Principal|Lead|Full[\s-]?Stack|Front[\s-]?End|Back[\s-]?End|Data|ML|Machine Learning|AI|DevOps|Cloud|Platform|Product|Project|Program|QA|Test|Security|Network|Systems?|IT|Web|Mobile|iOS|Android|UX|UI)\s*[A-Za-z\s\-]*(?:Engineer|Developer|Manager|Designer|Analyst|Architect|Specialist|Lead)\b`),
		// "applied for the position of X"
		regexp.MustCompile(`\b(?i:applying|applied|application)\s+(?i:for|to)\s+(?i:the\s+)?(?i:position\s+(?:of\s+)?)?["']?([A-Z][A-Za-z\s\-/]+)`),
	}

	whitespacePattern = regexp.MustCompile(`\s+`)
)
