package pipeline

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/devstats/internal/config"
	"github.com/pders01/devstats/internal/devto"
	"github.com/pders01/devstats/internal/stats"
	"github.com/pders01/devstats/internal/storage"
)

// fakeAPI serves canned listing and analytics responses and records the
// analytics ranges it was asked for.
type fakeAPI struct {
	articles  string
	analytics map[int]string // article id -> historical response body
	referrers map[int]string
	requested []string // "id:start:end" per analytics call
}

func (f *fakeAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/articles/me/published":
			if r.URL.Query().Get("page") == "1" {
				fmt.Fprint(w, f.articles)
			} else {
				fmt.Fprint(w, `[]`)
			}
		case "/analytics/historical":
			id, _ := strconv.Atoi(r.URL.Query().Get("article_id"))
			f.requested = append(f.requested, fmt.Sprintf("%d:%s:%s",
				id, r.URL.Query().Get("start"), r.URL.Query().Get("end")))
			body, ok := f.analytics[id]
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, body)
		case "/analytics/referrers":
			id, _ := strconv.Atoi(r.URL.Query().Get("article_id"))
			body, ok := f.referrers[id]
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func setupRunner(t *testing.T, api *fakeAPI, today string) (*Runner, *storage.Store) {
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	cfg := config.TestConfig()
	cfg.API.BaseURL = server.URL
	cfg.Data.Dir = t.TempDir()

	store, err := storage.NewStore(cfg.Data.Dir)
	require.NoError(t, err)

	runner := NewRunner(store, devto.NewClient(cfg, "test-key"), cfg)
	runner.SetOutput(&bytes.Buffer{})
	runner.now = func() time.Time {
		ts, parseErr := time.Parse(stats.DateLayout, today)
		require.NoError(t, parseErr)
		return ts
	}
	return runner, store
}

func TestSync_NewArticle(t *testing.T) {
	api := &fakeAPI{
		articles: `[{"id":101,"slug":"first-post","title":"First Post","published_at":"2024-01-01T09:00:00Z","user":{"username":"alice"}}]`,
		analytics: map[int]string{
			101: `{"2024-01-01":{"page_views":{"total":10},"comments":{"total":1},"reactions":{"total":2}},
			       "2024-01-02":{"page_views":{"total":5}}}`,
		},
	}
	runner, store := setupRunner(t, api, "2024-01-02")

	sum, err := runner.Sync()
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Articles)
	assert.Equal(t, 1, sum.Updated)
	assert.Zero(t, sum.Failed)
	require.Equal(t, []string{"101:2024-01-01:2024-01-02"}, api.requested)

	hist, status := store.ReadArticle("101-first-post.json")
	require.Equal(t, storage.ReadOK, status)
	assert.Equal(t, "First Post", hist.Title)
	assert.Equal(t, 15, hist.Views)
	assert.Equal(t, 1, hist.Comments)
	assert.Equal(t, 2, hist.Reactions)
	require.Len(t, hist.Breakdown, 2)
	assert.Equal(t, "2024-01-01", hist.Breakdown[0].Date)
	require.NotNil(t, hist.OrgUsername)
	assert.Equal(t, "alice", *hist.OrgUsername)

	acct, status := store.ReadAccount()
	require.Equal(t, storage.ReadOK, status)
	assert.Equal(t, 1, acct.Articles)
	assert.Equal(t, 15, acct.Views)
	require.NotNil(t, acct.Username)
	assert.Equal(t, "alice", *acct.Username)

	top, status := store.ReadTopArticles()
	require.Equal(t, storage.ReadOK, status)
	require.Len(t, top.ByViews, 1)
	assert.Equal(t, "first-post", top.ByViews[0].Slug)
	assert.Equal(t, 15, top.ByViews[0].Views)
}

func TestSync_UpToDateArticlePlansNoFetch(t *testing.T) {
	api := &fakeAPI{
		articles: `[{"id":101,"slug":"first-post","title":"First Post","published_at":"2024-01-01T09:00:00Z","user":{"username":"alice"}}]`,
	}
	runner, store := setupRunner(t, api, "2024-01-02")

	existing := &stats.ArticleHistory{
		Title: "First Post", Views: 15,
		Breakdown: []stats.DailyMetric{
			{Date: "2024-01-01", Views: 10},
			{Date: "2024-01-02", Views: 5},
		},
	}
	require.NoError(t, store.WriteArticle("101-first-post.json", existing))

	sum, err := runner.Sync()
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Updated)
	assert.Empty(t, api.requested, "no analytics call expected")

	hist, _ := store.ReadArticle("101-first-post.json")
	assert.Len(t, hist.Breakdown, 2)
	assert.Equal(t, 15, hist.Views)
}

func TestSync_RefreshModeReplacesLastDay(t *testing.T) {
	api := &fakeAPI{
		articles: `[{"id":101,"slug":"first-post","title":"First Post","published_at":"2024-01-01T09:00:00Z","user":{"username":"alice"}}]`,
		analytics: map[int]string{
			101: `{"2024-01-02":{"page_views":{"total":8}}}`,
		},
	}
	runner, store := setupRunner(t, api, "2024-01-02")
	runner.SetRefreshLastDay(true)

	existing := &stats.ArticleHistory{
		Title: "First Post", Views: 15,
		Breakdown: []stats.DailyMetric{
			{Date: "2024-01-01", Views: 10},
			{Date: "2024-01-02", Views: 5},
		},
	}
	require.NoError(t, store.WriteArticle("101-first-post.json", existing))

	sum, err := runner.Sync()
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Updated)
	require.Equal(t, []string{"101:2024-01-01:2024-01-02"}, api.requested)

	hist, _ := store.ReadArticle("101-first-post.json")
	require.Len(t, hist.Breakdown, 2)
	assert.Equal(t, 10, hist.Breakdown[0].Views, "day before last kept")
	assert.Equal(t, 8, hist.Breakdown[1].Views, "last day replaced by re-fetch")
	assert.Equal(t, 18, hist.Views)
}

func TestSync_CorruptRecordRefetchedFromPublication(t *testing.T) {
	api := &fakeAPI{
		articles: `[{"id":101,"slug":"first-post","title":"First Post","published_at":"2024-01-01T09:00:00Z","user":{"username":"alice"}}]`,
		analytics: map[int]string{
			101: `{"2024-01-01":{"page_views":{"total":10}}}`,
		},
	}
	runner, store := setupRunner(t, api, "2024-01-01")

	path := filepath.Join(store.DataDir(), "articles", "101-first-post.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	sum, err := runner.Sync()
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Updated)
	require.Equal(t, []string{"101:2024-01-01:2024-01-01"}, api.requested)

	hist, status := store.ReadArticle("101-first-post.json")
	require.Equal(t, storage.ReadOK, status)
	assert.Equal(t, 10, hist.Views)
}

func TestSync_FetchFailureDegradesToSkip(t *testing.T) {
	api := &fakeAPI{
		articles: `[
			{"id":101,"slug":"works","title":"Works","published_at":"2024-01-01T09:00:00Z","user":{"username":"alice"}},
			{"id":102,"slug":"broken","title":"Broken","published_at":"2024-01-01T09:00:00Z","user":{"username":"alice"}}
		]`,
		analytics: map[int]string{
			101: `{"2024-01-01":{"page_views":{"total":3}}}`,
			// 102 has no canned response; the fake returns 500.
		},
	}
	runner, store := setupRunner(t, api, "2024-01-01")

	sum, err := runner.Sync()
	require.NoError(t, err, "one failing article must not abort the run")

	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 1, sum.Failed)

	hist, status := store.ReadArticle("101-works.json")
	require.Equal(t, storage.ReadOK, status)
	assert.Equal(t, 3, hist.Views)
}

func TestSync_ListingFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	cfg := config.TestConfig()
	cfg.API.BaseURL = server.URL
	cfg.Data.Dir = t.TempDir()

	store, err := storage.NewStore(cfg.Data.Dir)
	require.NoError(t, err)

	runner := NewRunner(store, devto.NewClient(cfg, "test-key"), cfg)
	runner.SetOutput(&bytes.Buffer{})

	_, err = runner.Sync()
	require.Error(t, err)
}

func TestSync_RecordsRunInJournal(t *testing.T) {
	api := &fakeAPI{
		articles: `[{"id":101,"slug":"first-post","title":"First Post","published_at":"2024-01-01T09:00:00Z","user":{"username":"alice"}}]`,
		analytics: map[int]string{
			101: `{"2024-01-01":{"page_views":{"total":10}}}`,
		},
	}
	runner, _ := setupRunner(t, api, "2024-01-01")

	journal, err := storage.OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer journal.Close()
	runner.SetJournal(journal)

	_, err = runner.Sync()
	require.NoError(t, err)

	runs, err := journal.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "sync", runs[0].Mode)
	assert.Equal(t, 1, runs[0].Articles)
	assert.Equal(t, 1, runs[0].Updated)
}

func TestBackfillReferrers(t *testing.T) {
	api := &fakeAPI{
		referrers: map[int]string{
			101: `{"domains":[{"domain":"news.ycombinator.com","count":42}]}`,
		},
	}
	runner, store := setupRunner(t, api, "2024-01-05")

	// One plain record, one already enriched.
	require.NoError(t, store.WriteArticle("101-plain.json", &stats.ArticleHistory{
		Title: "Plain", Breakdown: []stats.DailyMetric{},
	}))
	domain := "google.com"
	require.NoError(t, store.WriteArticle("102-enriched.json", &stats.ArticleHistory{
		Title:     "Enriched",
		Breakdown: []stats.DailyMetric{},
		Referrers: []stats.Referrer{{Domain: &domain, Count: 1}},
	}))

	sum, err := runner.BackfillReferrers()
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Articles)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 1, sum.Skipped)

	hist, _ := store.ReadArticle("101-plain.json")
	require.Len(t, hist.Referrers, 1)
	assert.Equal(t, "news.ycombinator.com", *hist.Referrers[0].Domain)

	// The enriched record keeps its original referrers.
	enriched, _ := store.ReadArticle("102-enriched.json")
	require.Len(t, enriched.Referrers, 1)
	assert.Equal(t, "google.com", *enriched.Referrers[0].Domain)
}

func TestRebuildRankings_SkipsCorruptRecords(t *testing.T) {
	api := &fakeAPI{}
	runner, store := setupRunner(t, api, "2024-01-05")

	require.NoError(t, store.WriteArticle("101-good.json", &stats.ArticleHistory{
		Title: "Good", Views: 10, Reactions: 2, Breakdown: []stats.DailyMetric{},
	}))
	path := filepath.Join(store.DataDir(), "articles", "102-bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	require.NoError(t, runner.RebuildRankings())

	top, status := store.ReadTopArticles()
	require.Equal(t, storage.ReadOK, status)
	require.Len(t, top.ByViews, 1)
	assert.Equal(t, "good", top.ByViews[0].Slug)
}

func TestRebuildAccount_Local(t *testing.T) {
	api := &fakeAPI{}
	runner, store := setupRunner(t, api, "2024-01-05")

	username := "alice"
	require.NoError(t, store.WriteAccount(&stats.AccountSummary{
		Username: &username, Breakdown: []stats.DailyMetric{},
	}))
	require.NoError(t, store.WriteArticle("101-a.json", &stats.ArticleHistory{
		Title: "A", Views: 10,
		Breakdown: []stats.DailyMetric{{Date: "2024-01-01", Views: 10}},
	}))
	require.NoError(t, store.WriteArticle("102-b.json", &stats.ArticleHistory{
		Title: "B", Views: 4,
		Breakdown: []stats.DailyMetric{{Date: "2024-01-01", Views: 4}},
	}))

	require.NoError(t, runner.RebuildAccount())

	acct, status := store.ReadAccount()
	require.Equal(t, storage.ReadOK, status)
	assert.Equal(t, 2, acct.Articles)
	assert.Equal(t, 14, acct.Views)
	require.NotNil(t, acct.Username)
	assert.Equal(t, "alice", *acct.Username, "username carried over from previous account document")
	require.Len(t, acct.Breakdown, 1)
	assert.Equal(t, 14, acct.Breakdown[0].Views)
}
