package store

import (
	"context"
	"time"

	"github.com/inmind-gr/office-radar/internal/model"
)

// Summary holds the aggregate project statistics for analytics reporting.
type Summary struct {
	TotalProjects   int     `json:"total_projects"`
	UniqueCompanies int     `json:"unique_companies"`
	UniqueLocations int     `json:"unique_locations"`
	AvgRelevance    float64 `json:"avg_relevance"`
	LatestProject   string  `json:"latest_project"`
}

// Store defines the persistence interface for the tracking pipeline. The
// pipeline components depend only on this interface, never on a storage
// engine, so tests can substitute an in-memory implementation.
type Store interface {
	// Mention statistics
	UpsertCompanyMention(ctx context.Context, name string, seen time.Time) error
	UpsertLocationMention(ctx context.Context, name string, seen time.Time) error

	// Projects
	ProjectExistsByURL(ctx context.Context, url string) (bool, error)
	ProjectExistsByHash(ctx context.Context, hash string) (bool, error)
	ProjectExistsByDescription(ctx context.Context, fragment string) (bool, error)
	InsertProject(ctx context.Context, p model.Project) error
	UnsentProjects(ctx context.Context) ([]model.Project, error)
	MarkProjectsSent(ctx context.Context, ids []int64) error

	// Query history
	LogQuery(ctx context.Context, query string, language model.Language, at time.Time, resultCount int) error
	TopQueries(ctx context.Context, since time.Time, limit int) ([]model.QueryStat, error)

	// Run metrics
	RecordRunMetrics(ctx context.Context, m model.RunMetrics) error
	UpdateRelevantCount(ctx context.Context, runID string, relevant int) error

	// Maintenance
	PurgeQueryLog(ctx context.Context, olderThan time.Duration) (int64, error)
	RecomputeCompanyScores(ctx context.Context) error

	// Analytics
	Summary(ctx context.Context) (*Summary, error)
	TopCompanies(ctx context.Context, limit int) ([]model.CompanyRecord, error)
	TopLocations(ctx context.Context, limit int) ([]model.LocationRecord, error)
	ProjectTypeCounts(ctx context.Context) (map[string]int, error)
	RecentTrend(ctx context.Context, days int) (map[string]int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
