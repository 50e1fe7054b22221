package tracker

import (
	"context"
	"strings"
	"time"
)

// Finder is the lookup side of the application repository the matcher needs.
// Company and position comparisons are case-insensitive. Each method returns
// nil and no error when nothing matches.
type Finder interface {
	FindByCompanyOnDate(ctx context.Context, company string, day time.Time) (*Application, error)
	FindByCompanyAndPosition(ctx context.Context, company, position string, excludeID int64) (*Application, error)
	FindLatestByCompany(ctx context.Context, company string) (*Application, error)
}

// MatchQuery is what a message tells us about the application it belongs to
type MatchQuery struct {
	Company  string
	Position string
	Date     time.Time
}

// MatchRule is one way of pairing a message with an existing application
type MatchRule struct {
	Name string
	Find func(ctx context.Context, f Finder, q MatchQuery) (*Application, error)
}

var (
	// SameCompanySameDay matches an application to the same company made on the message's date
	SameCompanySameDay = MatchRule{
		Name: "company+date",
		Find: func(ctx context.Context, f Finder, q MatchQuery) (*Application, error) {
			if q.Date.IsZero() {
				return nil, nil
			}
			return f.FindByCompanyOnDate(ctx, q.Company, q.Date)
		},
	}

	// SameCompanyAndPosition ignores dates but needs a real position
	SameCompanyAndPosition = MatchRule{
		Name: "company+position",
		Find: func(ctx context.Context, f Finder, q MatchQuery) (*Application, error) {
			if !knownPosition(q.Position) {
				return nil, nil
			}
			return f.FindByCompanyAndPosition(ctx, q.Company, q.Position, 0)
		},
	}

	// LatestForCompany falls back to the most recent application to the company
	LatestForCompany = MatchRule{
		Name: "company",
		Find: func(ctx context.Context, f Finder, q MatchQuery) (*Application, error) {
			return f.FindLatestByCompany(ctx, q.Company)
		},
	}
)

// DefaultRules returns the rule chain in priority order. The company-only
// fallback is loose and can be switched off.
func DefaultRules(companyOnlyFallback bool) []MatchRule {
	rules := []MatchRule{SameCompanySameDay, SameCompanyAndPosition}
	if companyOnlyFallback {
		rules = append(rules, LatestForCompany)
	}
	return rules
}

// Matcher pairs incoming messages with existing applications
type Matcher struct {
	finder Finder
	rules  []MatchRule
}

func NewMatcher(finder Finder, rules ...MatchRule) *Matcher {
	if len(rules) == 0 {
		rules = DefaultRules(true)
	}
	return &Matcher{finder: finder, rules: rules}
}

// Match returns the first application any rule finds, the name of that rule,
// or nil when the message starts a new application.
func (m *Matcher) Match(ctx context.Context, q MatchQuery) (*Application, string, error) {
	q.Company = strings.TrimSpace(q.Company)
	q.Position = strings.TrimSpace(q.Position)
	if q.Company == "" {
		return nil, "", nil
	}

	for _, rule := range m.rules {
		app, err := rule.Find(ctx, m.finder, q)
		if err != nil {
			return nil, "", err
		}
		if app != nil {
			return app, rule.Name, nil
		}
	}
	return nil, "", nil
}

func knownPosition(p string) bool {
	return p != "" && !strings.EqualFold(p, UnknownPosition)
}
