package stats

import "time"

// DateLayout is the calendar-date format used throughout the persisted
// documents and the analytics API.
const DateLayout = "2006-01-02"

// Plan is an inclusive date range still missing from an article's history.
type Plan struct {
	Start string
	End   string
}

// PlanFetch decides what range to request for one article.
//
// With no recorded days the range starts at the publication date. Otherwise
// it starts the day after the most recent recorded date, or, when
// refreshWindow > 0, refreshWindow days before it; in that case every
// recorded date after the new start is evicted from the returned base
// breakdown so the re-fetch replaces it even if the response omits the date.
// A start past today means nothing is needed.
//
// Returns the plan, the breakdown to merge new data into, and whether a
// fetch is needed at all.
func PlanFetch(publishedAt string, breakdown []DailyMetric, today string, refreshWindow int) (Plan, []DailyMetric, bool) {
	if len(breakdown) == 0 {
		if publishedAt > today {
			return Plan{}, breakdown, false
		}
		return Plan{Start: publishedAt, End: today}, breakdown, true
	}

	last := breakdown[0].Date
	for _, d := range breakdown[1:] {
		if d.Date > last {
			last = d.Date
		}
	}

	var start string
	base := breakdown
	if refreshWindow > 0 {
		start = addDays(last, -refreshWindow)
		base = evictAfter(breakdown, start)
	} else {
		start = addDays(last, 1)
	}

	if start > today {
		return Plan{}, breakdown, false
	}
	return Plan{Start: start, End: today}, base, true
}

// evictAfter drops every entry dated strictly after cutoff.
func evictAfter(breakdown []DailyMetric, cutoff string) []DailyMetric {
	kept := make([]DailyMetric, 0, len(breakdown))
	for _, d := range breakdown {
		if d.Date <= cutoff {
			kept = append(kept, d)
		}
	}
	return kept
}

// addDays shifts an ISO date by n days. A date that does not parse is
// returned unchanged; the caller's range comparison then degrades to a
// no-fetch rather than a crash.
func addDays(date string, n int) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}
