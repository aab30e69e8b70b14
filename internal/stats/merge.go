package stats

import "sort"

// Merge folds freshly fetched days into an existing breakdown. Dates are the
// dedup key: the fetched side wins on collisions, so re-merging the same
// range is idempotent. The result is sorted ascending by date and never nil.
func Merge(base, fetched []DailyMetric) []DailyMetric {
	byDate := make(map[string]DailyMetric, len(base)+len(fetched))
	for _, d := range base {
		byDate[d.Date] = d
	}
	for _, d := range fetched {
		byDate[d.Date] = d
	}

	merged := make([]DailyMetric, 0, len(byDate))
	for _, d := range byDate {
		merged = append(merged, d)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})
	return merged
}

// Totals returns the field-wise sums over a breakdown.
func Totals(breakdown []DailyMetric) (views, comments, reactions int) {
	for _, d := range breakdown {
		views += d.Views
		comments += d.Comments
		reactions += d.Reactions
	}
	return views, comments, reactions
}
