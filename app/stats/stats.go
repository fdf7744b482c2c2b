// Package stats derives the aggregate job-search report for one user.
//
// Compute is a pure function of its inputs: the caller passes the user's
// applications and the current time, and gets back a fresh Report. It never
// fails; an empty input yields a zeroed report.
package stats

import (
	"sort"
	"strconv"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
)

const (
	// NoActiveDay is reported as the most active day when there are no applications.
	NoActiveDay = "N/A"

	topCompaniesLimit = 5
	trendMonths       = 3
	trendStepDays     = 30
	weekWindowDays    = 7
)

type Report struct {
	Total           int            `json:"total"`
	ResponseRate    float64        `json:"response_rate"`
	InterviewRate   float64        `json:"interview_rate"`
	SuccessRate     float64        `json:"success_rate"`
	StatusBreakdown []StatusCount  `json:"status_breakdown"`
	TopCompanies    []CompanyCount `json:"top_companies"`
	MonthlyTrend    []MonthTrend   `json:"monthly_trend"`
	ThisWeekCount   int            `json:"this_week_count"`
	ThisMonthCount  int            `json:"this_month_count"`
	MostActiveDay   string         `json:"most_active_day"`
}

type StatusCount struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type CompanyCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type MonthTrend struct {
	Name             string  `json:"name"`
	Applications     int     `json:"applications"`
	Interviews       int     `json:"interviews"`
	Offers           int     `json:"offers"`
	Pending          int     `json:"pending"`
	PendingPercent   float64 `json:"pending_percent"`
	InterviewPercent float64 `json:"interview_percent"`
	OfferPercent     float64 `json:"offer_percent"`
}

// Compute builds the report for apps as seen at now. All dates are compared
// in now's location.
func Compute(apps []*entity.Application, now time.Time) *Report {
	total := len(apps)
	loc := now.Location()

	var responded, interviews, accepted int
	statuses := newOrderedCounter()
	companies := newOrderedCounter()
	weekdays := newOrderedCounter()

	weekStart := midnight(now).AddDate(0, 0, -weekWindowDays)
	var thisWeek, thisMonth int

	for _, app := range apps {
		switch app.Status {
		case entity.StatusInterview:
			interviews++
		case entity.StatusAccepted:
			accepted++
		}
		if app.Status != entity.StatusPending {
			responded++
		}

		statuses.add(app.Status)
		companies.add(app.CompanyName)

		applied := app.DateApplied.In(loc)
		weekdays.add(applied.Weekday().String())

		if !applied.Before(weekStart) {
			thisWeek++
		}
		// Year is not compared: the same month of an earlier year counts too.
		if applied.Month() == now.Month() {
			thisMonth++
		}
	}

	report := &Report{
		Total:           total,
		ResponseRate:    percent(responded, total),
		InterviewRate:   percent(interviews, total),
		SuccessRate:     percent(accepted, total),
		StatusBreakdown: make([]StatusCount, 0, len(statuses.keys)),
		TopCompanies:    make([]CompanyCount, 0, topCompaniesLimit),
		MonthlyTrend:    monthlyTrend(apps, now),
		ThisWeekCount:   thisWeek,
		ThisMonthCount:  thisMonth,
		MostActiveDay:   NoActiveDay,
	}

	for _, name := range statuses.keys {
		count := statuses.counts[name]
		report.StatusBreakdown = append(report.StatusBreakdown, StatusCount{
			Name:       name,
			Count:      count,
			Percentage: percent(count, total),
		})
	}

	for _, name := range companies.mostCommon(topCompaniesLimit) {
		report.TopCompanies = append(report.TopCompanies, CompanyCount{
			Name:  name,
			Count: companies.counts[name],
		})
	}

	if top := weekdays.mostCommon(1); len(top) == 1 {
		report.MostActiveDay = top[0]
	}

	return report
}

// monthlyTrend steps back from the first of the current month in 30 day
// strides, so a month can be skipped or repeated around short and long
// months. Entries are ordered oldest first.
func monthlyTrend(apps []*entity.Application, now time.Time) []MonthTrend {
	loc := now.Location()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), loc)

	trend := make([]MonthTrend, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		anchor := firstOfMonth.AddDate(0, 0, -trendStepDays*i)

		var total, interviews, offers, pending int
		for _, app := range apps {
			applied := app.DateApplied.In(loc)
			if applied.Month() != anchor.Month() || applied.Year() != anchor.Year() {
				continue
			}
			total++
			switch app.Status {
			case entity.StatusInterview:
				interviews++
			case entity.StatusAccepted:
				offers++
			case entity.StatusPending:
				pending++
			}
		}

		trend = append(trend, MonthTrend{
			Name:             anchor.Format("January 2006"),
			Applications:     total,
			Interviews:       interviews,
			Offers:           offers,
			Pending:          pending,
			PendingPercent:   percent(pending, total),
			InterviewPercent: percent(interviews, total),
			OfferPercent:     percent(offers, total),
		})
	}

	return trend
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(count) / float64(total) * 100)
}

// round1 rounds to one decimal, halves to even, on the exact binary value
// of v. 6.25 becomes 6.2 and 31.25 becomes 31.2.
func round1(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// orderedCounter counts string keys and remembers first-seen order for ties.
type orderedCounter struct {
	keys   []string
	counts map[string]int
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{counts: make(map[string]int)}
}

func (c *orderedCounter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

func (c *orderedCounter) mostCommon(n int) []string {
	ranked := make([]string, len(c.keys))
	copy(ranked, c.keys)
	sort.SliceStable(ranked, func(i, j int) bool {
		return c.counts[ranked[i]] > c.counts[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
