package classifier

// JobKeywords is the vocabulary used for relevance and keyword density.
// Matching is case-insensitive substring containment; each entry counts once.
var JobKeywords = []string{
	// Application confirmations
	"application received",
	"thank you for applying",
	"thanks for applying",
	"application status",
	"application submitted",
	"successfully applied",
	"your application",
	"application for",
	"regarding your application",
	"confirm your application",
	"application confirmation",

	// Interviews
	"interview invitation",
	"phone screen",
	"phone interview",
	"video interview",
	"interview scheduled",
	"schedule an interview",
	"schedule a call",
	"interview request",
	"technical interview",
	"coding interview",
	"onsite interview",
	"on-site interview",
	"virtual onsite",
	"final round",
	"next round",
	"assessment",
	"take-home",
	"coding challenge",
	"technical assessment",

	// Status updates
	"moved forward",
	"moving forward",
	"move forward",
	"next steps",
	"update on your",
	"status update",
	"candidacy",
	"your candidacy",
	"under review",
	"being reviewed",
	"shortlisted",

	// Rejections
	"we regret to inform",
	"unfortunately",
	"not moving forward",
	"decided not to proceed",
	"other candidates",
	"not selected",
	"position has been filled",
	"filled the position",
	"went with another",
	"pursue other candidates",

	// Offers
	"offer letter",
	"job offer",
	"offer of employment",
	"congratulations",
	"pleased to offer",
	"extend an offer",

	// Position mentions
	"position at",
	"role at",
	"opportunity at",
	"position of",
	"role of",
	"job at",
	"career at",
	"opening at",
	"vacancy",

	// Recruiters and HR
	"hiring manager",
	"recruiter",
	"recruiting",
	"recruitment",
	"talent acquisition",
	"talent team",
	"people team",
	"hr team",
	"human resources",
	"career",
	"careers",

	// Outreach
	"we reviewed",
	"reviewed your",
	"your profile",
	"your resume",
	"your cv",
	"your background",
	"your experience",
	"your qualifications",
	"impressed by",
	"excited to",
	"like to connect",
	"reach out",

	// Job titles
	"software engineer",
	"software developer",
	"backend engineer",
	"frontend engineer",
	"full stack",
	"fullstack",
	"senior engineer",
	"staff engineer",
	"engineering manager",
	"tech lead",
	"developer",
	"programmer",

	// Applicant tracking systems
	"workday",
	"greenhouse",
	"lever",
	"ashby",
	"bamboohr",
	"icims",
	"taleo",
	"smartrecruiters",
	"jobvite",
	"breezy",
	"comeet",

	// Common phrases
	"join our team",
	"join the team",
	"great fit",
	"good fit",
	"right fit",
	"team would love",
	"speak with you",
	"chat with you",
	"learn more about you",
	"discuss the opportunity",
	"discuss the role",
	"discuss the position",
}

// IgnoreDomains are sender address fragments that belong to job boards and
// automated senders rather than employers.
var IgnoreDomains = []string{
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"monster.com",
	"careerbuilder.com",
	"dice.com",
	"noreply",
	"no-reply",
	"mailer-daemon",
}

// anchorTerms keep a message from an ignored sender in play
var anchorTerms = []string{"application", "interview", "position"}

// Domain labels that never name an employer
var genericMailDomains = map[string]bool{
	"gmail":   true,
	"yahoo":   true,
	"outlook": true,
	"hotmail": true,
	"aol":     true,
	"icloud":  true,
	"mail":    true,
	"email":   true,
}

// Applicant tracking systems send on behalf of employers
var atsMailDomains = map[string]bool{
	"greenhouse":      true,
	"greenhouse-mail": true,
	"lever":           true,
	"hire":            true,
	"myworkday":       true,
	"workday":         true,
	"ashbyhq":         true,
	"smartrecruiters": true,
	"icims":           true,
	"jobvite":         true,
	"bamboohr":        true,
	"taleo":           true,
}

var commonWords = map[string]bool{
	"the": true, "team": true, "company": true, "position": true, "role": true,
	"job": true, "opportunity": true, "application": true, "interview": true,
	"regarding": true, "update": true, "status": true, "your": true, "our": true,
	"this": true, "that": true, "with": true, "from": true, "for": true,
	"about": true, "thank": true, "thanks": true, "hello": true, "hi": true,
	"dear": true, "please": true, "kindly": true, "you": true, "us": true,
}
