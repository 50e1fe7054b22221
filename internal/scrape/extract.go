package scrape

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	minSiteChars    = 200
	minGenericChars = 500
	maxBlockChars   = 50000
)

// Selectors known to hold the description on the big job boards, checked
// in order when the page's domain contains the site name.
var siteSelectors = []struct {
	site      string
	selectors []string
}{
	{"linkedin.com", []string{".description__text", ".show-more-less-html__markup", `[class*="description"]`}},
	{"indeed.com", []string{"#jobDescriptionText", ".jobsearch-jobDescriptionText", `[class*="jobDescription"]`}},
	{"greenhouse.io", []string{"#content", ".content", `[class*="job-description"]`}},
	{"lever.co", []string{".content", `[class*="description"]`, ".posting-page"}},
	{"workday.com", []string{`[data-automation-id="jobPostingDescription"]`, ".job-description"}},
	{"glassdoor.com", []string{".desc", `[class*="JobDesc"]`, ".jobDescriptionContent"}},
	{"monster.com", []string{"#JobDescription", ".job-description"}},
	{"ziprecruiter.com", []string{".job_description", `[class*="description"]`}},
}

var genericSelectors = []string{
	`[class*="job-description"]`,
	`[class*="jobDescription"]`,
	`[class*="job_description"]`,
	`[id*="job-description"]`,
	`[id*="jobDescription"]`,
	`[class*="description"]`,
	`[class*="posting-description"]`,
	`[class*="content"]`,
	"article",
	"main",
	".job-details",
	".posting-content",
}

var titleSelectors = []string{"h1", `[class*="job-title"]`, `[class*="jobTitle"]`, `[class*="posting-title"]`, "title"}

var companySelectors = []string{`[class*="company-name"]`, `[class*="companyName"]`, `[class*="employer"]`, `[class*="organization"]`}

var (
	whitespacePattern  = regexp.MustCompile(`\s+`)
	boardSuffixPattern = regexp.MustCompile(`(?i)\s*[-|]\s*(LinkedIn|Indeed|Glassdoor|Careers).*$`)
)

// Extract finds the job description, title and company in a page. domain
// selects site-specific selectors and may be empty.
func Extract(html, domain string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{Error: "Could not parse the page."}
	}
	doc.Find("script, style, nav, header, footer, aside").Remove()

	description := findDescription(doc, domain)
	if description == "" {
		return Result{Error: "Could not find job description on this page. You can paste it manually."}
	}
	return Result{
		Success:     true,
		Description: description,
		Title:       findTitle(doc),
		Company:     findCompany(doc),
	}
}

func findDescription(doc *goquery.Document, domain string) string {
	for _, site := range siteSelectors {
		if !strings.Contains(domain, site.site) {
			continue
		}
		for _, sel := range site.selectors {
			if text := cleanText(doc.Find(sel).First().Text()); runeLen(text) > minSiteChars {
				return text
			}
		}
	}

	for _, sel := range genericSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if text := cleanText(s.Text()); runeLen(text) > minGenericChars {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	return largestBlock(doc)
}

// largestBlock is the longest reasonably sized div, section or article text
func largestBlock(doc *goquery.Document) string {
	var best string
	bestLen := 0
	doc.Find("div, section, article").Each(func(i int, s *goquery.Selection) {
		text := cleanText(s.Text())
		n := runeLen(text)
		if n > minGenericChars && n < maxBlockChars && n > bestLen {
			best, bestLen = text, n
		}
	})
	return best
}

func findTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(s.Text())
		if text != "" && runeLen(text) < 200 {
			return strings.TrimSpace(boardSuffixPattern.ReplaceAllString(text, ""))
		}
		return ""
	}
	return ""
}

func findCompany(doc *goquery.Document) string {
	for _, sel := range companySelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(s.Text())
		if text != "" && runeLen(text) < 100 {
			return text
		}
		return ""
	}
	return ""
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
