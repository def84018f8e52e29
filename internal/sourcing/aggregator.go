package sourcing

import (
	"strings"

	"github.com/sharphuman/hr-passive-cv/internal/websearch"

	"go.uber.org/zap"
)

// DefaultDenylist marks hits that are portal or job-posting pages rather
// than individual profiles.
var DefaultDenylist = []string{
	"log in", "sign up", "login", "signup",
	"job", "career", "hiring", "directory", "articles", "pulse",
}

const defaultResultsPerQuery = 10

// Searcher is the search oracle consumed by the aggregator.
type Searcher interface {
	Search(params *websearch.SearchParams) ([]*websearch.Result, error)
}

type AggregatorConfig struct {
	// ResultsPerQuery bounds how many hits one query may contribute.
	ResultsPerQuery int
	// Denylist overrides DefaultDenylist when non-empty.
	Denylist []string
}

// Aggregator fans a strategy's queries out to the search oracle, merges the
// hits, deduplicates them by link and applies the shape filters.
type Aggregator struct {
	searcher Searcher
	perQuery int
	denylist []string
	logger   *zap.Logger
}

func NewAggregator(searcher Searcher, cfg *AggregatorConfig, logger *zap.Logger) *Aggregator {
	perQuery := defaultResultsPerQuery
	denylist := DefaultDenylist

	if cfg != nil {
		if cfg.ResultsPerQuery > 0 {
			perQuery = cfg.ResultsPerQuery
		}
		if len(cfg.Denylist) > 0 {
			denylist = cfg.Denylist
		}
	}

	lowered := make([]string, 0, len(denylist))
	for _, word := range denylist {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			lowered = append(lowered, word)
		}
	}

	return &Aggregator{
		searcher: searcher,
		perQuery: perQuery,
		denylist: lowered,
		logger:   logger,
	}
}

// Collect runs every query and returns the deduplicated, filtered candidate
// set in first-seen order. A failing query contributes zero results and
// never aborts the batch.
func (a *Aggregator) Collect(queries []string) *Candidates {
	seen := make(map[string]struct{})
	candidates := &Candidates{}

	for _, query := range queries {
		results, err := a.searcher.Search(&websearch.SearchParams{
			Query: query,
			Num:   a.perQuery,
		})
		if err != nil {
			a.logger.Warn("search query failed",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}

		accepted := 0
		for _, result := range results {
			link := strings.TrimSpace(result.Link)
			if link == "" {
				continue
			}

			if _, ok := seen[link]; ok {
				continue
			}

			// A rejected hit does not mark its link as seen: a cleaner
			// duplicate from a later query may still be accepted.
			if !looksLikeProfile(link) {
				continue
			}

			if a.isJunk(result.Title, link) {
				continue
			}

			seen[link] = struct{}{}
			candidates.Items = append(candidates.Items, &Candidate{
				Name:    NameFromTitle(result.Title),
				Title:   result.Title,
				Link:    link,
				Snippet: result.Snippet,
				Query:   query,
			})
			accepted++
		}

		a.logger.Debug("query aggregated",
			zap.String("query", query),
			zap.Int("returned", len(results)),
			zap.Int("accepted", accepted),
		)
	}

	return candidates
}

// looksLikeProfile rejects professional-network links that lack the
// canonical profile path segment.
func looksLikeProfile(link string) bool {
	lower := strings.ToLower(link)
	if strings.Contains(lower, "linkedin.com") && !strings.Contains(lower, "/in/") {
		return false
	}
	return true
}

func (a *Aggregator) isJunk(title, link string) bool {
	lowerTitle := strings.ToLower(title)
	lowerLink := strings.ToLower(link)
	for _, word := range a.denylist {
		if strings.Contains(lowerTitle, word) || strings.Contains(lowerLink, word) {
			return true
		}
	}
	return false
}

// NameFromTitle derives a display name from a search hit title: the text
// before the first pipe, then before the first hyphen, trimmed.
func NameFromTitle(title string) string {
	name := title
	if idx := strings.Index(name, "|"); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.Index(name, "-"); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownName
	}
	return name
}
