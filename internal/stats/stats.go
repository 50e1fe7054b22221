package stats

import (
	"math"
	"sort"
	"time"

	"github.com/applytrack/applytrack/internal/tracker"
)

const (
	timelineDays   = 30
	recentActivity = 10
	notSpecified   = "Not specified"
)

type Dashboard struct {
	Overview           Overview               `json:"overview"`
	StatusBreakdown    []StatusCount          `json:"status_breakdown"`
	RejectionBreakdown RejectionBreakdown     `json:"rejection_breakdown"`
	InterviewFunnel    []FunnelStage          `json:"interview_funnel"`
	Timeline           []DayCount             `json:"timeline"`
	ResponseRates      ResponseRates          `json:"response_rates"`
	RecentActivity     []*tracker.Application `json:"recent_activity"`
}

type Overview struct {
	Total      int `json:"total_applications"`
	Active     int `json:"active_applications"`
	ThisWeek   int `json:"this_week"`
	Interviews int `json:"interviews"`
	Offers     int `json:"offers"`
	Rejected   int `json:"rejected"`
	Withdrawn  int `json:"withdrawn"`
}

type StatusCount struct {
	Status tracker.Status `json:"status"`
	Label  string         `json:"label"`
	Count  int            `json:"count"`
	Color  string         `json:"color"`
}

type RejectionBreakdown struct {
	TotalRejected int          `json:"total_rejected"`
	ByStage       []StageCount `json:"by_stage"`
}

type StageCount struct {
	Stage      string  `json:"stage"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type FunnelStage struct {
	Stage        string  `json:"stage"`
	Reached      int     `json:"reached"`
	Current      int     `json:"current"`
	RejectedHere int     `json:"rejected_here"`
	PercentTotal float64 `json:"percentage_of_total"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type ResponseRates struct {
	ResponseRate    float64  `json:"response_rate"`
	InterviewRate   float64  `json:"interview_rate"`
	OfferRate       float64  `json:"offer_rate"`
	AvgResponseDays *float64 `json:"avg_response_days"`
}

var (
	inactiveStatuses  = statusSet(tracker.StatusRejected, tracker.StatusWithdrawn, tracker.StatusOfferDeclined, tracker.StatusOfferAccepted)
	interviewStatuses = statusSet(tracker.StatusPhoneScreen, tracker.StatusFirstInterview, tracker.StatusSecondInterview, tracker.StatusThirdInterview)
	offerStatuses     = statusSet(tracker.StatusOfferReceived, tracker.StatusOfferAccepted, tracker.StatusOfferDeclined)
	silentStatuses    = statusSet(tracker.StatusApplied, tracker.StatusNoResponse)
)

// funnelStages are the steps of the interview funnel in order, each with
// the statuses that sit on it and the rejection stage that ends there.
var funnelStages = []struct {
	name      string
	statuses  map[tracker.Status]bool
	rejection string
}{
	{"Applied", statusSet(tracker.StatusApplied, tracker.StatusNoResponse), tracker.StageResume},
	{"Phone Screen", statusSet(tracker.StatusPhoneScreen), tracker.StageAfterPhone},
	{"First Interview", statusSet(tracker.StatusFirstInterview), tracker.StageAfterFirst},
	{"Second Interview", statusSet(tracker.StatusSecondInterview), tracker.StageAfterSecond},
	{"Third Interview", statusSet(tracker.StatusThirdInterview), tracker.StageAfterThird},
	{"Offer", offerStatuses, "After Offer Negotiation"},
}

func statusSet(statuses ...tracker.Status) map[tracker.Status]bool {
	set := make(map[tracker.Status]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

// Compute builds every dashboard section from the full application list
func Compute(apps []*tracker.Application, now time.Time) Dashboard {
	return Dashboard{
		Overview:           ComputeOverview(apps, now),
		StatusBreakdown:    ComputeStatusBreakdown(apps),
		RejectionBreakdown: ComputeRejectionBreakdown(apps),
		InterviewFunnel:    ComputeFunnel(apps),
		Timeline:           ComputeTimeline(apps, now),
		ResponseRates:      ComputeResponseRates(apps),
		RecentActivity:     RecentActivity(apps),
	}
}

func ComputeOverview(apps []*tracker.Application, now time.Time) Overview {
	weekAgo := now.AddDate(0, 0, -7)
	o := Overview{Total: len(apps)}
	for _, app := range apps {
		if !inactiveStatuses[app.Status] {
			o.Active++
		}
		if !app.AppliedDate.Before(weekAgo) {
			o.ThisWeek++
		}
		if interviewStatuses[app.Status] {
			o.Interviews++
		}
		if offerStatuses[app.Status] {
			o.Offers++
		}
		switch app.Status {
		case tracker.StatusRejected:
			o.Rejected++
		case tracker.StatusWithdrawn:
			o.Withdrawn++
		}
	}
	return o
}

// ComputeStatusBreakdown counts every known status, including empty ones
func ComputeStatusBreakdown(apps []*tracker.Application) []StatusCount {
	counts := make(map[tracker.Status]int)
	for _, app := range apps {
		counts[app.Status]++
	}

	out := make([]StatusCount, 0, len(tracker.AllStatuses))
	for _, s := range tracker.AllStatuses {
		out = append(out, StatusCount{Status: s, Label: s.Label(), Count: counts[s], Color: s.Color()})
	}
	return out
}

func ComputeRejectionBreakdown(apps []*tracker.Application) RejectionBreakdown {
	counts := make(map[string]int)
	var order []string
	total := 0
	for _, app := range apps {
		if app.Status != tracker.StatusRejected {
			continue
		}
		total++
		stage := app.RejectedAtStage
		if stage == "" {
			stage = notSpecified
		}
		if counts[stage] == 0 {
			order = append(order, stage)
		}
		counts[stage]++
	}

	stages := make([]StageCount, 0, len(order))
	for _, stage := range order {
		stages = append(stages, StageCount{Stage: stage, Count: counts[stage], Percentage: percent(counts[stage], total)})
	}
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].Count > stages[j].Count })
	return RejectionBreakdown{TotalRejected: total, ByStage: stages}
}

// ComputeFunnel reports, per stage, how many applications got at least
// that far. An application counts toward every stage up to the one it is
// on now, or the one it was rejected at.
func ComputeFunnel(apps []*tracker.Application) []FunnelStage {
	if len(apps) == 0 {
		return []FunnelStage{}
	}

	current := make([]int, len(funnelStages))
	rejected := make([]int, len(funnelStages))
	for _, app := range apps {
		if app.Status == tracker.StatusRejected {
			if app.RejectedAtStage != "" {
				rejected[rejectionStep(app.RejectedAtStage)]++
			}
			continue
		}
		for i, stage := range funnelStages {
			if stage.statuses[app.Status] {
				current[i]++
				break
			}
		}
	}

	out := make([]FunnelStage, len(funnelStages))
	reached := 0
	for i := len(funnelStages) - 1; i >= 0; i-- {
		reached += current[i] + rejected[i]
		out[i] = FunnelStage{
			Stage:        funnelStages[i].name,
			Reached:      reached,
			Current:      current[i],
			RejectedHere: rejected[i],
			PercentTotal: percent(reached, len(apps)),
		}
	}
	return out
}

// rejectionStep maps a rejection stage onto its funnel step. Unrecognised
// stages count as rejected at the application step.
func rejectionStep(stage string) int {
	for i, s := range funnelStages {
		if s.rejection == stage {
			return i
		}
	}
	return 0
}

// ComputeTimeline counts applications per day over the last thirty days,
// with empty days included.
func ComputeTimeline(apps []*tracker.Application, now time.Time) []DayCount {
	now = now.UTC()
	start := now.AddDate(0, 0, -timelineDays)

	counts := make(map[string]int)
	for _, app := range apps {
		if !app.AppliedDate.IsZero() && !app.AppliedDate.Before(start) {
			counts[app.AppliedDate.UTC().Format("2006-01-02")]++
		}
	}

	var out []DayCount
	last := now.Format("2006-01-02")
	for d := start; ; d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out = append(out, DayCount{Date: key, Count: counts[key]})
		if key == last {
			break
		}
	}
	return out
}

func ComputeResponseRates(apps []*tracker.Application) ResponseRates {
	if len(apps) == 0 {
		return ResponseRates{}
	}

	var responded, interviews, offers, withContact, totalDays int
	for _, app := range apps {
		if !silentStatuses[app.Status] {
			responded++
		}
		if interviewStatuses[app.Status] || offerStatuses[app.Status] {
			interviews++
		}
		if offerStatuses[app.Status] {
			offers++
		}
		if app.LastContactDate != nil && !app.AppliedDate.IsZero() {
			withContact++
			totalDays += wholeDays(app.LastContactDate.Sub(app.AppliedDate))
		}
	}

	rates := ResponseRates{
		ResponseRate:  percent(responded, len(apps)),
		InterviewRate: percent(interviews, len(apps)),
		OfferRate:     percent(offers, len(apps)),
	}
	if withContact > 0 {
		avg := round1(float64(totalDays) / float64(withContact))
		rates.AvgResponseDays = &avg
	}
	return rates
}

// RecentActivity returns the most recently updated applications
func RecentActivity(apps []*tracker.Application) []*tracker.Application {
	sorted := make([]*tracker.Application, len(apps))
	copy(sorted, apps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt) })
	if len(sorted) > recentActivity {
		sorted = sorted[:recentActivity]
	}
	return sorted
}

// wholeDays floors a duration to days, rounding negative spans down
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(n) / float64(total) * 100)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
