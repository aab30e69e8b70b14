package stats

import "sort"

// Aggregate rolls a set of article documents up into the account summary.
//
// Unlike the per-article merge this is a pure reduction: entries from
// different articles that share a date are summed into one bucket, so the
// result is independent of record order. articleCount is the size of the
// authoritative fetched set, not the number of readable files.
func Aggregate(records []*ArticleHistory, articleCount int, username *string) *AccountSummary {
	acct := &AccountSummary{
		Articles: articleCount,
		Username: username,
	}

	byDate := make(map[string]DailyMetric)
	for _, rec := range records {
		acct.Views += rec.Views
		acct.Comments += rec.Comments
		acct.Reactions += rec.Reactions

		for _, d := range rec.Breakdown {
			bucket := byDate[d.Date]
			bucket.Date = d.Date
			bucket.Views += d.Views
			bucket.Comments += d.Comments
			bucket.Reactions += d.Reactions
			byDate[d.Date] = bucket
		}
	}

	acct.Breakdown = make([]DailyMetric, 0, len(byDate))
	for _, d := range byDate {
		acct.Breakdown = append(acct.Breakdown, d)
	}
	sort.Slice(acct.Breakdown, func(i, j int) bool {
		return acct.Breakdown[i].Date < acct.Breakdown[j].Date
	})
	return acct
}
