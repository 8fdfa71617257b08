// Package report assembles the analytics snapshot: aggregate project
// statistics, the most-mentioned companies and locations, the project type
// distribution and the recent addition trend.
package report

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/inmind-gr/office-radar/internal/model"
	"github.com/inmind-gr/office-radar/internal/store"
)

const (
	topCompanyLimit  = 15
	topLocationLimit = 10
	trendDays        = 30
)

// Report is one analytics snapshot.
type Report struct {
	GeneratedAt  string                `json:"generated_at"`
	Summary      store.Summary         `json:"summary"`
	TopCompanies []model.CompanyRecord `json:"top_companies"`
	TopLocations []model.LocationRecord `json:"top_locations"`
	ProjectTypes map[string]int        `json:"project_types"`
	RecentTrend  map[string]int        `json:"recent_trends"`
}

// Source is the subset of persistence the generator reads from.
type Source interface {
	Summary(ctx context.Context) (*store.Summary, error)
	TopCompanies(ctx context.Context, limit int) ([]model.CompanyRecord, error)
	TopLocations(ctx context.Context, limit int) ([]model.LocationRecord, error)
	ProjectTypeCounts(ctx context.Context) (map[string]int, error)
	RecentTrend(ctx context.Context, days int) (map[string]int, error)
}

// Generator builds reports from stored data.
type Generator struct {
	source Source
}

// NewGenerator creates a Generator over the given source.
func NewGenerator(source Source) *Generator {
	return &Generator{source: source}
}

// Generate reads all analytics queries and assembles a Report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	summary, err := g.source.Summary(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: summary")
	}
	companies, err := g.source.TopCompanies(ctx, topCompanyLimit)
	if err != nil {
		return nil, eris.Wrap(err, "report: top companies")
	}
	locations, err := g.source.TopLocations(ctx, topLocationLimit)
	if err != nil {
		return nil, eris.Wrap(err, "report: top locations")
	}
	types, err := g.source.ProjectTypeCounts(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: project types")
	}
	trend, err := g.source.RecentTrend(ctx, trendDays)
	if err != nil {
		return nil, eris.Wrap(err, "report: recent trend")
	}

	return &Report{
		GeneratedAt:  time.Now().Format("2006-01-02 15:04:05"),
		Summary:      *summary,
		TopCompanies: companies,
		TopLocations: locations,
		ProjectTypes: types,
		RecentTrend:  trend,
	}, nil
}
