// Package query builds the bilingual search query set for one run,
// re-prioritized by which queries produced results in the recent past.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inmind-gr/office-radar/internal/lang"
	"github.com/inmind-gr/office-radar/internal/model"
)

// historyWindow is how far back the planner looks for successful queries.
const historyWindow = 7 * 24 * time.Hour

// historyLimit caps how many past winners are promoted to the front.
const historyLimit = 5

// History provides the query success log. Implemented by the store.
type History interface {
	TopQueries(ctx context.Context, since time.Time, limit int) ([]model.QueryStat, error)
}

// englishSeeds are the generic English phrases about office projects.
var englishSeeds = []string{
	"office projects",
	"new office development",
	"commercial real estate acquisition",
	"office relocation",
	"office building purchase",
	"new headquarters",
	"corporate office move",
	"office space leasing",
	"business district development",
}

// greekSeeds are the Greek counterparts.
var greekSeeds = []string{
	"γραφεία έργα",
	"νέα γραφεία",
	"επαγγελματικά ακίνητα",
	"ανάπτυξη γραφείων",
	"αγορά κτιρίου γραφείων",
	"μετεγκατάσταση γραφείων",
	"επαγγελματική στέγη",
	"νέα έδρα εταιρείας",
	"επένδυση ακινήτων γραφείων",
	"εμπορικό ακίνητο",
}

// cityNames pairs the English spellings (first half) with the Greek ones.
var cityNames = []string{
	"Athens", "Thessaloniki", "Patras", "Heraklion", "Piraeus",
	"Αθήνα", "Θεσσαλονίκη", "Πάτρα", "Ηράκλειο", "Πειραιάς",
}

// projectTypePhrases are appended with a "Greece" suffix.
var projectTypePhrases = []string{
	"office renovation", "office expansion", "office campus",
	"tech hub", "corporate campus", "innovation center",
	"ανακαίνιση γραφείων", "επέκταση γραφείων", "κέντρο καινοτομίας",
}

// Planner produces the ordered, deduplicated query list for a run.
type Planner struct {
	history    History
	watchlist  []string
	maxQueries int
}

// NewPlanner creates a Planner. history may be nil, in which case no
// re-ranking happens. A non-positive maxQueries falls back to 30.
func NewPlanner(history History, watchlist []string, maxQueries int) *Planner {
	if watchlist == nil {
		watchlist = lang.WatchlistCompanies
	}
	if maxQueries <= 0 {
		maxQueries = 30
	}
	return &Planner{history: history, watchlist: watchlist, maxQueries: maxQueries}
}

// Plan assembles the query list: seeds, city cross products, project-type
// phrases, watch-list queries, then history winners moved to the front and
// the whole list truncated to the configured maximum. A history lookup
// failure only costs the re-ranking, never the run.
func (p *Planner) Plan(ctx context.Context) []model.SearchQuery {
	queries := make([]string, 0, 64)
	queries = append(queries, englishSeeds...)
	queries = append(queries, greekSeeds...)

	// English seeds crossed with the English city spellings.
	for _, seed := range englishSeeds[:6] {
		for _, city := range cityNames[:5] {
			if !strings.Contains(seed, "Greece") {
				queries = append(queries, fmt.Sprintf("%s in %s, Greece", seed, city))
			}
		}
	}

	// Greek seeds crossed with the Greek city spellings.
	for _, seed := range greekSeeds[:6] {
		for _, city := range cityNames[5:] {
			queries = append(queries, fmt.Sprintf("%s %s", seed, city))
		}
	}

	for _, phrase := range projectTypePhrases {
		queries = append(queries, phrase+" Greece")
	}

	for _, company := range p.watchlist {
		queries = append(queries, fmt.Sprintf("%s new office Greece", company))
	}

	queries = p.rerank(ctx, queries)

	if len(queries) > p.maxQueries {
		queries = queries[:p.maxQueries]
	}

	planned := make([]model.SearchQuery, len(queries))
	for i, q := range queries {
		planned[i] = model.SearchQuery{
			Text:     q,
			Language: lang.Detect(q),
			Rank:     i,
		}
	}
	return planned
}

// rerank moves queries that recently produced results to the front,
// removing their duplicates from the remainder. Order of the rest is kept.
func (p *Planner) rerank(ctx context.Context, queries []string) []string {
	if p.history == nil {
		return dedupe(queries)
	}

	stats, err := p.history.TopQueries(ctx, time.Now().Add(-historyWindow), historyLimit)
	if err != nil {
		zap.L().Warn("query: history lookup failed, skipping re-rank", zap.Error(err))
		return dedupe(queries)
	}

	front := make([]string, 0, len(stats))
	for _, s := range stats {
		if s.ResultCount > 0 {
			front = append(front, s.Query)
		}
	}

	return dedupe(append(front, queries...))
}

func dedupe(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := queries[:0:0]
	for _, q := range queries {
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
