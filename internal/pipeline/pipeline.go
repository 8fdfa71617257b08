// Package pipeline orchestrates one tracking run end to end: plan queries,
// collect results, extract entities, score, deduplicate, persist and notify.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inmind-gr/office-radar/internal/config"
	"github.com/inmind-gr/office-radar/internal/dedup"
	"github.com/inmind-gr/office-radar/internal/extract"
	"github.com/inmind-gr/office-radar/internal/fetch"
	"github.com/inmind-gr/office-radar/internal/lang"
	"github.com/inmind-gr/office-radar/internal/model"
	"github.com/inmind-gr/office-radar/internal/query"
	"github.com/inmind-gr/office-radar/internal/score"
	"github.com/inmind-gr/office-radar/internal/search"
	"github.com/inmind-gr/office-radar/internal/store"
)

// Notifier sends the end-of-run digest. Implemented by notify.Mailer.
type Notifier interface {
	Configured() bool
	SendDigest(ctx context.Context, projects []model.Project) error
}

// Runner executes tracking runs.
type Runner struct {
	cfg       *config.Config
	store     store.Store
	planner   *query.Planner
	collector *fetch.Collector
	extractor *extract.Extractor
	scorer    *score.Scorer
	gate      *dedup.Gate
	notifier  Notifier
}

// New wires a Runner from configuration. searchClient and notifier are
// injected so tests can substitute them; notifier may be nil.
func New(cfg *config.Config, st store.Store, searchClient search.Client, notifier Notifier) *Runner {
	pages := fetch.NewPageFetcher(
		time.Duration(cfg.Fetch.PageTimeoutSecs)*time.Second,
		cfg.Fetch.MaxContainerChars,
		cfg.Fetch.MaxBodyChars,
	)
	pause := time.Duration(cfg.Fetch.PauseSecs * float64(time.Second))

	return &Runner{
		cfg:       cfg,
		store:     st,
		planner:   query.NewPlanner(st, nil, cfg.Search.MaxQueries),
		collector: fetch.NewCollector(searchClient, pages, st, pause),
		extractor: extract.New(nil),
		scorer:    score.NewScorer(cfg.Score, st),
		gate:      dedup.NewGate(st),
		notifier:  notifier,
	}
}

// Run executes one full tracking pass and always returns a summary, even
// when individual stages degrade. Per-item failures are logged and skipped;
// nothing short of context cancellation stops the run.
func (r *Runner) Run(ctx context.Context) *model.RunSummary {
	runID := uuid.New().String()
	start := time.Now()
	zap.L().Info("pipeline: run started", zap.String("run_id", runID))

	queries := r.planner.Plan(ctx)
	results, stats := r.collector.Collect(ctx, queries)

	r.recordMetrics(ctx, runID, stats)

	accepted := r.evaluate(ctx, results)
	score.Rank(accepted)

	if err := r.store.UpdateRelevantCount(ctx, runID, len(accepted)); err != nil {
		zap.L().Warn("pipeline: relevant count update failed", zap.Error(err))
	}

	newProjects := 0
	for _, sp := range accepted {
		inserted, err := r.gate.Admit(ctx, sp)
		if err != nil {
			zap.L().Warn("pipeline: admit failed",
				zap.String("url", sp.Result.Link),
				zap.Error(err),
			)
			continue
		}
		if inserted {
			newProjects++
		}
	}

	sent := false
	if newProjects > 0 {
		sent = r.notify(ctx)
	} else {
		zap.L().Info("pipeline: no new projects to notify about")
	}

	summary := &model.RunSummary{
		RunID:            runID,
		QueriesIssued:    stats.QueriesIssued,
		ResultsFound:     stats.ResultsFound,
		RelevantResults:  len(accepted),
		NewProjects:      newProjects,
		NotificationSent: sent,
		DurationMillis:   time.Since(start).Milliseconds(),
	}
	zap.L().Info("pipeline: run complete",
		zap.String("run_id", runID),
		zap.Int("queries_issued", summary.QueriesIssued),
		zap.Int("results_found", summary.ResultsFound),
		zap.Int("relevant_results", summary.RelevantResults),
		zap.Int("new_projects", summary.NewProjects),
		zap.Bool("notification_sent", summary.NotificationSent),
	)
	return summary
}

// evaluate runs extraction and scoring over the collected results and keeps
// the ones that clear the threshold.
func (r *Runner) evaluate(ctx context.Context, results []model.RawResult) []model.ScoredProject {
	var accepted []model.ScoredProject
	for _, result := range results {
		text := result.Title + " " + result.Snippet + " " + result.Content
		ents := r.extractor.Extract(text, lang.Detect(text))

		sp, ok := r.scorer.Score(ctx, result, ents)
		if ok {
			accepted = append(accepted, sp)
		}
	}
	return accepted
}

func (r *Runner) recordMetrics(ctx context.Context, runID string, stats fetch.Stats) {
	m := model.RunMetrics{
		RunID:         runID,
		QueriesIssued: stats.QueriesIssued,
		ResultsFound:  stats.ResultsFound,
		Duration:      stats.Duration,
	}
	if stats.QueriesIssued > 0 {
		m.AvgPerQuery = stats.Duration.Seconds() / float64(stats.QueriesIssued)
		m.ResultsPerQuery = float64(stats.ResultsFound) / float64(stats.QueriesIssued)
	}
	if err := r.store.RecordRunMetrics(ctx, m); err != nil {
		zap.L().Warn("pipeline: metrics record failed", zap.Error(err))
	}
}

// notify emails everything still unsent and marks the batch sent only after
// delivery succeeded, so a failed send retries on the next run.
func (r *Runner) notify(ctx context.Context) bool {
	if r.notifier == nil || !r.notifier.Configured() {
		zap.L().Info("pipeline: notification not configured, skipping")
		return false
	}

	unsent, err := r.store.UnsentProjects(ctx)
	if err != nil {
		zap.L().Warn("pipeline: unsent lookup failed", zap.Error(err))
		return false
	}
	if len(unsent) == 0 {
		return false
	}

	if err := r.notifier.SendDigest(ctx, unsent); err != nil {
		zap.L().Warn("pipeline: digest send failed", zap.Error(err))
		return false
	}

	ids := make([]int64, len(unsent))
	for i, p := range unsent {
		ids[i] = p.ID
	}
	if err := r.store.MarkProjectsSent(ctx, ids); err != nil {
		zap.L().Warn("pipeline: mark sent failed", zap.Error(err))
	}
	return true
}
