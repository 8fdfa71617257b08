// Package fetch turns planned queries into RawResults: it issues the search
// requests, deduplicates hits within the run, retrieves each article page
// and extracts its main text. All network activity is paced by a shared
// rate limiter; no single query or page failure aborts the run.
package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/inmind-gr/office-radar/internal/model"
	"github.com/inmind-gr/office-radar/internal/search"
)

// QueryLogger records each issued query; the planner reads this history
// back for re-ranking. Implemented by the store.
type QueryLogger interface {
	LogQuery(ctx context.Context, query string, language model.Language, at time.Time, resultCount int) error
}

// Stats summarizes one collection pass.
type Stats struct {
	QueriesIssued int
	ResultsFound  int
	Duration      time.Duration
}

// Collector drives the search-and-fetch loop for a run.
type Collector struct {
	search  search.Client
	pages   *PageFetcher
	queries QueryLogger
	limiter *rate.Limiter
}

// NewCollector creates a Collector. queries may be nil when no history
// should be recorded. pause is the mandatory gap between outbound calls.
func NewCollector(sc search.Client, pf *PageFetcher, queries QueryLogger, pause time.Duration) *Collector {
	if pause <= 0 {
		pause = 2 * time.Second
	}
	return &Collector{
		search:  sc,
		pages:   pf,
		queries: queries,
		limiter: rate.NewLimiter(rate.Every(pause), 1),
	}
}

// Collect processes the queries sequentially in priority order. A failed
// search is logged and skipped; a failed page fetch falls back to the
// snippet. Results whose content hash already appeared this run are dropped
// before any page fetch so no bandwidth is spent on duplicates.
func (c *Collector) Collect(ctx context.Context, queries []model.SearchQuery) ([]model.RawResult, Stats) {
	start := time.Now()
	var results []model.RawResult
	seen := make(map[string]struct{})
	stats := Stats{}

	for _, q := range queries {
		if err := c.limiter.Wait(ctx); err != nil {
			zap.L().Warn("fetch: run interrupted", zap.Error(err))
			break
		}

		items, err := c.search.Search(ctx, q.Text)
		stats.QueriesIssued++
		if err != nil {
			zap.L().Warn("fetch: search failed",
				zap.String("query", q.Text),
				zap.Error(err),
			)
			continue
		}

		c.logQuery(ctx, q, len(items))

		for _, item := range items {
			hash := model.ContentHash(item.Title, item.Snippet)
			if _, dup := seen[hash]; dup {
				continue
			}
			seen[hash] = struct{}{}

			result := model.RawResult{
				Title:         item.Title,
				Link:          item.Link,
				Snippet:       item.Snippet,
				Query:         q.Text,
				QueryLanguage: q.Language,
				ContentHash:   hash,
			}

			content, pubDate, fetchErr := c.pages.Fetch(ctx, item.Link)
			if fetchErr != nil {
				zap.L().Warn("fetch: page fetch failed, using snippet",
					zap.String("url", item.Link),
					zap.Error(fetchErr),
				)
				content = item.Snippet
			}
			result.Content = content
			result.PublishedDate = pubDate

			results = append(results, result)
			stats.ResultsFound++
		}
	}

	stats.Duration = time.Since(start)
	zap.L().Info("fetch: collection complete",
		zap.Int("queries_issued", stats.QueriesIssued),
		zap.Int("results_found", stats.ResultsFound),
		zap.Duration("duration", stats.Duration),
	)
	return results, stats
}

func (c *Collector) logQuery(ctx context.Context, q model.SearchQuery, count int) {
	if c.queries == nil {
		return
	}
	if err := c.queries.LogQuery(ctx, q.Text, q.Language, time.Now(), count); err != nil {
		zap.L().Warn("fetch: query log failed", zap.String("query", q.Text), zap.Error(err))
	}
}
