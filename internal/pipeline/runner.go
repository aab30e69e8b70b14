package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pders01/devstats/internal/config"
	"github.com/pders01/devstats/internal/debuglog"
	"github.com/pders01/devstats/internal/devto"
	"github.com/pders01/devstats/internal/stats"
	"github.com/pders01/devstats/internal/storage"
)

// Runner drives one end-to-end collection pass: list the published articles,
// bring each article document up to date, then rebuild the account and
// ranking documents from the stored set.
type Runner struct {
	store   *storage.Store
	client  *devto.Client
	journal *storage.Journal
	cfg     *config.Config
	refresh bool
	now     func() time.Time
	out     io.Writer
}

// Summary reports the outcome of a bulk operation.
type Summary struct {
	Mode     string
	Articles int
	Updated  int
	Skipped  int
	Failed   int
}

type articleResult int

const (
	resultUpdated articleResult = iota
	resultSkipped
	resultFailed
)

func NewRunner(store *storage.Store, client *devto.Client, cfg *config.Config) *Runner {
	return &Runner{
		store:  store,
		client: client,
		cfg:    cfg,
		now:    time.Now,
		out:    os.Stdout,
	}
}

// SetRefreshLastDay switches the next Sync into refresh mode: the most
// recently recorded days (per the configured window) are treated as possibly
// incomplete and re-fetched.
func (r *Runner) SetRefreshLastDay(refresh bool) {
	r.refresh = refresh
}

// SetJournal attaches a run journal; without one, runs are not recorded.
func (r *Runner) SetJournal(journal *storage.Journal) {
	r.journal = journal
}

// SetOutput redirects per-article progress reporting.
func (r *Runner) SetOutput(w io.Writer) {
	r.out = w
}

// Sync performs a full incremental collection run. Per-article failures are
// logged and skipped; only a failure to list the published articles, or to
// write the derived documents at the end, aborts the run.
func (r *Runner) Sync() (*Summary, error) {
	started := r.now()

	articles, err := r.client.ListPublished()
	if err != nil {
		return nil, err
	}

	mode := "sync"
	if r.refresh {
		mode = "sync-refresh"
	}
	sum := &Summary{Mode: mode, Articles: len(articles)}

	username := accountUsername(articles)

	for i, article := range articles {
		fmt.Fprintf(r.out, "[%d/%d] %s\n", i+1, len(articles), article.Slug)
		switch r.processArticle(&article) {
		case resultUpdated:
			sum.Updated++
		case resultSkipped:
			sum.Skipped++
		case resultFailed:
			sum.Failed++
		}
	}

	if err := r.rebuildAccount(len(articles), username); err != nil {
		return nil, err
	}
	if err := r.RebuildRankings(); err != nil {
		return nil, err
	}

	r.recordRun(sum, started)
	return sum, nil
}

// processArticle brings one article document up to date. The document is
// rewritten even when no fetch is needed so title and ownership changes on
// the platform propagate to the record.
func (r *Runner) processArticle(article *devto.Article) articleResult {
	key := storage.ArticleKey(article.ID, article.Slug)

	hist, status := r.store.ReadArticle(key)
	switch status {
	case storage.ReadCorrupt:
		debuglog.Warnf("unreadable record %s, refetching from publication date", key)
		hist = &stats.ArticleHistory{}
	case storage.ReadAbsent:
		hist = &stats.ArticleHistory{}
	}

	window := 0
	if r.refresh {
		window = r.cfg.Refresh.WindowDays
	}
	today := r.now().Format(stats.DateLayout)

	plan, base, needed := stats.PlanFetch(article.PublishedDate(), hist.Breakdown, today, window)

	result := resultSkipped
	var fetched []stats.DailyMetric
	if needed {
		raw := r.client.FetchAnalytics(article.ID, plan.Start, plan.End)
		if len(raw) == 0 {
			debuglog.Infof("no analytics data for article %d", article.ID)
			result = resultFailed
		} else {
			fetched = toDailyMetrics(raw)
			result = resultUpdated
		}
	} else {
		debuglog.Debugf("article %d already up to date", article.ID)
	}

	merged := stats.Merge(base, fetched)
	hist.Title = article.Title
	hist.OrgUsername = article.OrgOrUsername()
	hist.Breakdown = merged
	hist.Views, hist.Comments, hist.Reactions = stats.Totals(merged)

	if err := r.store.WriteArticle(key, hist); err != nil {
		debuglog.Errorf("writing record %s: %v", key, err)
		return resultFailed
	}
	return result
}

// BackfillReferrers attaches referrer domains to every stored article
// document that does not have them yet.
func (r *Runner) BackfillReferrers() (*Summary, error) {
	started := r.now()

	keys, err := r.store.ListArticleKeys()
	if err != nil {
		return nil, err
	}

	sum := &Summary{Mode: "referrers", Articles: len(keys)}

	for i, key := range keys {
		fmt.Fprintf(r.out, "[%d/%d] %s\n", i+1, len(keys), key)

		id, ok := stats.IDFromFilename(key)
		if !ok {
			debuglog.Warnf("record %s has no article id prefix, skipping", key)
			sum.Failed++
			continue
		}

		hist, status := r.store.ReadArticle(key)
		if status != storage.ReadOK {
			debuglog.Warnf("unreadable record %s, skipping", key)
			sum.Failed++
			continue
		}

		if hist.Referrers != nil {
			sum.Skipped++
			continue
		}

		refs, err := r.client.FetchReferrers(id)
		if err != nil {
			debuglog.Warnf("referrer fetch failed for %s: %v", key, err)
			sum.Failed++
			continue
		}

		hist.Referrers = toStatsReferrers(refs)
		if err := r.store.WriteArticle(key, hist); err != nil {
			debuglog.Errorf("writing record %s: %v", key, err)
			sum.Failed++
			continue
		}
		sum.Updated++

		// Be polite to the API between consecutive calls.
		if r.cfg.API.ReferrerDelay > 0 && i < len(keys)-1 {
			time.Sleep(r.cfg.API.ReferrerDelay)
		}
	}

	r.recordRun(sum, started)
	return sum, nil
}

// RebuildAccount recomputes the account document from the stored records
// alone, without touching the network. The article count degrades to the
// number of readable records, and the username is carried over from the
// previous account document; a Sync is authoritative for both.
func (r *Runner) RebuildAccount() error {
	records, _, err := r.readAllRecords()
	if err != nil {
		return err
	}

	var username *string
	if prev, status := r.store.ReadAccount(); status == storage.ReadOK {
		username = prev.Username
	}

	return r.writeAccount(records, len(records), username)
}

// RebuildRankings recomputes the rankings document from the stored records.
func (r *Runner) RebuildRankings() error {
	records, keys, err := r.readAllRecords()
	if err != nil {
		return err
	}

	articles := make([]stats.ArticleStats, 0, len(records))
	for i, rec := range records {
		articles = append(articles, stats.ArticleStats{
			Slug:        stats.SlugFromFilename(keys[i]),
			Title:       rec.Title,
			Views:       rec.Views,
			Reactions:   rec.Reactions,
			OrgUsername: rec.OrgUsername,
		})
	}

	if err := r.store.WriteTopArticles(stats.Rank(articles)); err != nil {
		return fmt.Errorf("writing rankings: %w", err)
	}
	return nil
}

func (r *Runner) rebuildAccount(articleCount int, username *string) error {
	records, _, err := r.readAllRecords()
	if err != nil {
		return err
	}
	return r.writeAccount(records, articleCount, username)
}

func (r *Runner) writeAccount(records []*stats.ArticleHistory, articleCount int, username *string) error {
	acct := stats.Aggregate(records, articleCount, username)
	if err := r.store.WriteAccount(acct); err != nil {
		return fmt.Errorf("writing account summary: %w", err)
	}
	return nil
}

// readAllRecords loads every readable article document, skipping and logging
// the corrupt ones. keys[i] is the record filename of records[i].
func (r *Runner) readAllRecords() (records []*stats.ArticleHistory, keys []string, err error) {
	all, err := r.store.ListArticleKeys()
	if err != nil {
		return nil, nil, err
	}

	for _, key := range all {
		rec, status := r.store.ReadArticle(key)
		switch status {
		case storage.ReadOK:
			records = append(records, rec)
			keys = append(keys, key)
		case storage.ReadCorrupt:
			debuglog.Warnf("skipping invalid record %s", key)
		}
	}
	return records, keys, nil
}

func (r *Runner) recordRun(sum *Summary, started time.Time) {
	if r.journal == nil {
		return
	}
	rec := &storage.RunRecord{
		Mode:       sum.Mode,
		StartedAt:  started,
		FinishedAt: r.now(),
		Articles:   sum.Articles,
		Updated:    sum.Updated,
		Skipped:    sum.Skipped,
		Failed:     sum.Failed,
	}
	if err := r.journal.Record(rec); err != nil {
		debuglog.Warnf("recording run summary: %v", err)
	}
}

// accountUsername is taken from the first listed article's author.
func accountUsername(articles []devto.Article) *string {
	for _, a := range articles {
		if a.User != nil && a.User.Username != "" {
			s := a.User.Username
			return &s
		}
	}
	return nil
}

func toDailyMetrics(raw map[string]devto.Daily) []stats.DailyMetric {
	metrics := make([]stats.DailyMetric, 0, len(raw))
	for date, day := range raw {
		metrics = append(metrics, stats.DailyMetric{
			Date:      date,
			Views:     day.Views,
			Comments:  day.Comments,
			Reactions: day.Reactions,
		})
	}
	return metrics
}

func toStatsReferrers(refs []devto.Referrer) []stats.Referrer {
	out := make([]stats.Referrer, 0, len(refs))
	for _, ref := range refs {
		out = append(out, stats.Referrer{Domain: ref.Domain, Count: ref.Count})
	}
	return out
}
