package devto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pders01/devstats/internal/config"
	"github.com/pders01/devstats/internal/debuglog"
)

const apiKeyHeader = "api-key"

// Client talks to the analytics platform's REST API. It covers the three
// endpoints the pipeline consumes: the published-article listing, historical
// per-date analytics, and referrer domains.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	perPage   int
	client    *http.Client
}

func NewClient(cfg *config.Config, apiKey string) *Client {
	return &Client{
		baseURL:   cfg.API.BaseURL,
		apiKey:    apiKey,
		userAgent: cfg.API.UserAgent,
		perPage:   cfg.API.PerPage,
		client: &http.Client{
			Timeout: cfg.API.Timeout,
		},
	}
}

// ListPublished pages through the account's published articles until an
// empty page. The API signals rejected credentials with an error object in
// place of the array; that, like any transport failure here, is terminal —
// without the article list no per-article work can proceed.
func (c *Client) ListPublished() ([]Article, error) {
	var all []Article
	for page := 1; ; page++ {
		query := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(c.perPage)},
		}

		raw, err := c.get("/articles/me/published", query)
		if err != nil {
			return nil, fmt.Errorf("listing published articles: %w", err)
		}

		if len(raw) > 0 && raw[0] == '{' {
			var apiErr apiError
			if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
				return nil, fmt.Errorf("API error: %s (status %d)", apiErr.Error, apiErr.Status)
			}
			return nil, fmt.Errorf("unexpected response listing articles")
		}

		var articles []Article
		if err := json.Unmarshal(raw, &articles); err != nil {
			return nil, fmt.Errorf("decoding article list: %w", err)
		}
		if len(articles) == 0 {
			return all, nil
		}
		all = append(all, articles...)
	}
}

// FetchAnalytics returns per-date raw counters for the inclusive range
// [start, end]. Transport and decode failures degrade to an empty result;
// the caller treats that as "no new data" for this run and retries naturally
// on the next one.
func (c *Client) FetchAnalytics(articleID int, start, end string) map[string]Daily {
	debuglog.Debugf("fetching analytics for article %d from %s to %s", articleID, start, end)

	query := url.Values{
		"start":      {start},
		"end":        {end},
		"article_id": {strconv.Itoa(articleID)},
	}

	raw, err := c.get("/analytics/historical", query)
	if err != nil {
		debuglog.Warnf("analytics fetch failed for article %d: %v", articleID, err)
		return nil
	}

	var days map[string]historicalDay
	if err := json.Unmarshal(raw, &days); err != nil {
		debuglog.Warnf("invalid analytics response for article %d: %v", articleID, err)
		return nil
	}

	out := make(map[string]Daily, len(days))
	for date, day := range days {
		out[date] = Daily{
			Views:     day.PageViews.Total,
			Comments:  day.Comments.Total,
			Reactions: day.Reactions.Total,
		}
	}
	return out
}

// FetchReferrers returns the traffic-source domains recorded for an article.
func (c *Client) FetchReferrers(articleID int) ([]Referrer, error) {
	query := url.Values{
		"article_id": {strconv.Itoa(articleID)},
	}

	raw, err := c.get("/analytics/referrers", query)
	if err != nil {
		return nil, fmt.Errorf("fetching referrers for article %d: %w", articleID, err)
	}

	var list referrerList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decoding referrers for article %d: %w", articleID, err)
	}
	return list.Domains, nil
}

func (c *Client) get(path string, query url.Values) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return bytes.TrimSpace(body), nil
}
