package classifier

import (
	"strings"
	"unicode"
)

const (
	minPositionLen = 5
	maxPositionLen = 100
)

// ExtractCompany finds the employer name. The sender's display name is tried
// first, then the sender's mail domain, then phrases in the subject and body.
func ExtractCompany(senderName, senderAddress, subject, body string) string {
	if m := senderCompanyPattern.FindStringSubmatch(strings.TrimSpace(senderName)); m != nil {
		if name := CleanCompany(m[1]); name != "" && !commonWords[strings.ToLower(name)] {
			return name
		}
	}

	if m := senderDomainPattern.FindStringSubmatch(senderAddress); m != nil {
		label := strings.ToLower(m[1])
		if !genericMailDomains[label] && !atsMailDomains[label] {
			return titleCase(strings.ReplaceAll(label, "-", " "))
		}
	}

	for _, text := range []string{subject, body} {
		if name := companyFromText(text); name != "" {
			return name
		}
	}
	return ""
}

func companyFromText(text string) string {
	for _, re := range bodyCompanyPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			raw := strings.TrimSpace(m[1])
			if len(raw) < 2 || commonWords[strings.ToLower(raw)] {
				continue
			}
			if name := CleanCompany(raw); name != "" {
				return name
			}
		}
	}
	return ""
}

// CleanCompany drops a trailing legal suffix, collapses whitespace and title-cases
func CleanCompany(name string) string {
	name = legalSuffixPattern.ReplaceAllString(strings.TrimSpace(name), "")
	name = whitespacePattern.ReplaceAllString(strings.TrimSpace(name), " ")
	return titleCase(name)
}

// ExtractPosition finds a job title, preferring the subject line
func ExtractPosition(subject, body string) string {
	for _, text := range []string{subject, body} {
		if title := positionFromText(text); title != "" {
			return title
		}
	}
	return ""
}

func positionFromText(text string) string {
	for _, re := range jobTitlePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		title := m[0]
		if len(m) > 1 && m[1] != "" {
			title = m[1]
		}
		title = strings.TrimSpace(title)
		if len(title) < minPositionLen || len(title) > maxPositionLen {
			continue
		}
		return whitespacePattern.ReplaceAllString(title, " ")
	}
	return ""
}

// titleCase upper-cases the first letter of every word and lower-cases the rest
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if prevLetter {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
