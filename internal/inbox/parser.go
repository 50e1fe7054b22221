package inbox

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespacePattern   = regexp.MustCompile(`\s+`)
	angleAddressPattern = regexp.MustCompile(`<([^<>\s]+@[^<>\s]+)>`)
)

// HTMLToText returns the visible text of an HTML body
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, head").Remove()
	// Keep words in adjacent cells and paragraphs apart
	doc.Find("br, p, div, td, li, tr, h1, h2, h3").Each(func(i int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return collapse(doc.Text())
}

// Excerpt picks the plain-text body when there is one, falls back to the
// text of the HTML body and trims the result to MaxBodyChars.
func Excerpt(plain, html string) string {
	text := collapse(plain)
	if text == "" && html != "" {
		text = HTMLToText(html)
	}
	return truncate(text, MaxBodyChars)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// ParseSender splits a From header into display name and address
func ParseSender(from string) (name, address string) {
	from = strings.TrimSpace(from)
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Name, addr.Address
	}
	if m := angleAddressPattern.FindStringSubmatchIndex(from); m != nil {
		name = strings.Trim(strings.TrimSpace(from[:m[0]]), `"`)
		return name, from[m[2]:m[3]]
	}
	if strings.Contains(from, "@") {
		return "", from
	}
	return from, ""
}
