package stats

// DailyMetric is one calendar day of counters for a single article. Date is
// an ISO date (YYYY-MM-DD), so lexicographic order is chronological order.
// A breakdown never contains two entries for the same date.
type DailyMetric struct {
	Date      string `json:"date"`
	Views     int    `json:"views"`
	Comments  int    `json:"comments"`
	Reactions int    `json:"reactions"`
}

// Referrer is one traffic-source domain attached to an article document by
// the backfill pass. A nil domain means direct traffic.
type Referrer struct {
	Domain *string `json:"domain"`
	Count  int     `json:"count"`
}

// ArticleHistory is the persisted per-article document. The totals are always
// the field-wise sums over Breakdown; they are recomputed on every merge and
// never mutated independently.
type ArticleHistory struct {
	Title       string        `json:"title"`
	Views       int           `json:"views"`
	Comments    int           `json:"comments"`
	Reactions   int           `json:"reactions"`
	OrgUsername *string       `json:"org_username"`
	Breakdown   []DailyMetric `json:"breakdown"`
	Referrers   []Referrer    `json:"referrers,omitempty"`
}

// AccountSummary is the account-wide document, recomputed wholesale from the
// set of article documents on every run.
type AccountSummary struct {
	Articles  int           `json:"articles"`
	Views     int           `json:"views"`
	Comments  int           `json:"comments"`
	Reactions int           `json:"reactions"`
	Username  *string       `json:"username"`
	Breakdown []DailyMetric `json:"breakdown"`
}

// RankedByReactions is one row of the reactions ranking.
type RankedByReactions struct {
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Reactions   int     `json:"reactions"`
	OrgUsername *string `json:"org_username"`
}

// RankedByViews is one row of the views ranking.
type RankedByViews struct {
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Views       int     `json:"views"`
	OrgUsername *string `json:"org_username"`
}

// TopArticles is the rankings document, recomputed wholesale on every run.
type TopArticles struct {
	ByReaction []RankedByReactions `json:"by_reaction"`
	ByViews    []RankedByViews     `json:"by_views"`
}
