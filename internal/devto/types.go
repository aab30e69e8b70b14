package devto

import "strings"

// Article is one entry from the published-articles listing.
type Article struct {
	ID           int           `json:"id"`
	Title        string        `json:"title"`
	Slug         string        `json:"slug"`
	PublishedAt  string        `json:"published_at"`
	User         *User         `json:"user"`
	Organization *Organization `json:"organization"`
}

type User struct {
	Username string `json:"username"`
}

type Organization struct {
	Slug string `json:"slug"`
}

// PublishedDate returns the calendar-date portion of the publication
// timestamp.
func (a *Article) PublishedDate() string {
	if i := strings.IndexByte(a.PublishedAt, 'T'); i >= 0 {
		return a.PublishedAt[:i]
	}
	return a.PublishedAt
}

// OrgOrUsername is the path segment an article is served under: the owning
// organization when present, otherwise the author. Nil when neither is known.
func (a *Article) OrgOrUsername() *string {
	if a.Organization != nil && a.Organization.Slug != "" {
		s := a.Organization.Slug
		return &s
	}
	if a.User != nil && a.User.Username != "" {
		s := a.User.Username
		return &s
	}
	return nil
}

// Daily is one day of raw analytics counters, flattened from the API's
// nested {total} wrappers. Missing sub-fields decode to zero.
type Daily struct {
	Views     int
	Comments  int
	Reactions int
}

// Referrer is one traffic-source domain. Domain is nil for direct traffic.
type Referrer struct {
	Domain *string `json:"domain"`
	Count  int     `json:"count"`
}

type metricTotal struct {
	Total int `json:"total"`
}

// historicalDay mirrors one date's entry in the analytics/historical
// response.
type historicalDay struct {
	PageViews metricTotal `json:"page_views"`
	Comments  metricTotal `json:"comments"`
	Reactions metricTotal `json:"reactions"`
}

// referrerList mirrors the analytics/referrers response body.
type referrerList struct {
	Domains []Referrer `json:"domains"`
}

// apiError is the error object the API returns in place of a payload when
// credentials are rejected.
type apiError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}
