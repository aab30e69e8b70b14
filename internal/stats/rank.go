package stats

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ArticleStats is the ranking projection of one stored article document.
type ArticleStats struct {
	Slug        string
	Title       string
	Views       int
	Reactions   int
	OrgUsername *string
}

var titleCaser = cases.Title(language.English)

// SlugFromFilename strips the numeric id prefix and extension from a record
// filename: "12345-my-post.json" -> "my-post".
func SlugFromFilename(name string) string {
	stem := strings.TrimSuffix(name, ".json")
	if i := strings.IndexByte(stem, '-'); i >= 0 {
		return stem[i+1:]
	}
	return stem
}

// IDFromFilename extracts the numeric article id prefix from a record
// filename. ok is false when the filename does not follow the
// "{id}-{slug}.json" convention.
func IDFromFilename(name string) (id int, ok bool) {
	stem := strings.TrimSuffix(name, ".json")
	prefix, _, found := strings.Cut(stem, "-")
	if !found {
		prefix = stem
	}
	id, err := strconv.Atoi(prefix)
	return id, err == nil
}

// TitleFromSlug is the display fallback for records without a title:
// separators become spaces and each word is title-cased.
func TitleFromSlug(slug string) string {
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}

// Rank produces both orderings over the given articles. Each sort is
// descending by its metric with ascending slug as tie-break, so the output
// is reproducible regardless of the enumeration order of the input.
func Rank(articles []ArticleStats) *TopArticles {
	top := &TopArticles{
		ByReaction: make([]RankedByReactions, 0, len(articles)),
		ByViews:    make([]RankedByViews, 0, len(articles)),
	}

	for _, a := range articles {
		title := a.Title
		if title == "" {
			title = TitleFromSlug(a.Slug)
		}
		top.ByReaction = append(top.ByReaction, RankedByReactions{
			Slug:        a.Slug,
			Title:       title,
			Reactions:   a.Reactions,
			OrgUsername: a.OrgUsername,
		})
		top.ByViews = append(top.ByViews, RankedByViews{
			Slug:        a.Slug,
			Title:       title,
			Views:       a.Views,
			OrgUsername: a.OrgUsername,
		})
	}

	sort.Slice(top.ByReaction, func(i, j int) bool {
		if top.ByReaction[i].Reactions != top.ByReaction[j].Reactions {
			return top.ByReaction[i].Reactions > top.ByReaction[j].Reactions
		}
		return top.ByReaction[i].Slug < top.ByReaction[j].Slug
	})
	sort.Slice(top.ByViews, func(i, j int) bool {
		if top.ByViews[i].Views != top.ByViews[j].Views {
			return top.ByViews[i].Views > top.ByViews[j].Views
		}
		return top.ByViews[i].Slug < top.ByViews[j].Slug
	})
	return top
}
