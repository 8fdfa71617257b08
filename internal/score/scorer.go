// Package score assigns each result an additive relevance score and decides
// whether it clears the retention threshold. Scoring also feeds the
// company/location mention statistics: every extracted entity is counted,
// accepted or not, because mention history tracks what was observed, not
// what was kept.
package score

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/inmind-gr/office-radar/internal/config"
	"github.com/inmind-gr/office-radar/internal/lang"
	"github.com/inmind-gr/office-radar/internal/model"
)

// MentionStore records entity observations. Implemented by the store.
type MentionStore interface {
	UpsertCompanyMention(ctx context.Context, name string, seen time.Time) error
	UpsertLocationMention(ctx context.Context, name string, seen time.Time) error
}

// Scorer evaluates results against the configured weights.
type Scorer struct {
	cfg      config.ScoreConfig
	mentions MentionStore
	stops    map[string]struct{}
}

// NewScorer creates a Scorer. mentions may be nil (scoring still works, the
// statistics side effect is skipped).
func NewScorer(cfg config.ScoreConfig, mentions MentionStore) *Scorer {
	// Stop words from both languages; content is frequently mixed.
	stops := make(map[string]struct{})
	for _, l := range []model.Language{model.LanguageEnglish, model.LanguageGreek} {
		for w := range lang.Resources(l).StopWords {
			stops[w] = struct{}{}
		}
	}
	return &Scorer{cfg: cfg, mentions: mentions, stops: stops}
}

// Score computes the relevance score for one result and reports whether it
// meets the acceptance threshold. Signals are independent and additive, so
// the score is monotone in the number of matched signals.
func (s *Scorer) Score(ctx context.Context, r model.RawResult, ents model.ExtractedEntities) (model.ScoredProject, bool) {
	total := 0

	if len(ents.Companies) > 0 {
		total += s.cfg.CompanyBonus
	}
	if len(ents.Locations) > 0 {
		total += s.cfg.LocationBonus
	}

	text := strings.ToLower(r.Title + " " + r.Snippet + " " + r.Content)

	keywordHits := 0
	for _, kw := range lang.OfficeKeywords() {
		if strings.Contains(text, kw) {
			keywordHits++
		}
	}
	total += capped(keywordHits*s.cfg.KeywordBonus, s.cfg.KeywordCap)

	total += capped(s.keywordTokens(text)*s.cfg.TokenBonus, s.cfg.TokenCap)

	if ents.Language == model.LanguageGreek && r.QueryLanguage == model.LanguageGreek {
		total += s.cfg.LanguageBonus
	}

	if ents.EstimatedSize != "" {
		total += s.cfg.SizeBonus
	}

	s.recordMentions(ctx, ents)

	project := model.ScoredProject{
		Result:   r,
		Entities: ents,
		Score:    total,
		Company:  firstOr(ents.Companies, "Unknown"),
		Location: firstOr(ents.Locations, "Greece"),
	}

	accepted := total >= s.cfg.AcceptThreshold
	zap.L().Debug("score: evaluated result",
		zap.String("url", r.Link),
		zap.Int("score", total),
		zap.Bool("accepted", accepted),
	)
	return project, accepted
}

// keywordTokens counts tokens that survive stop-word filtering and contain
// an office keyword.
func (s *Scorer) keywordTokens(text string) int {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	count := 0
	for _, tok := range tokens {
		if _, stop := s.stops[tok]; stop {
			continue
		}
		for _, kw := range lang.OfficeKeywords() {
			if strings.Contains(tok, kw) {
				count++
				break
			}
		}
	}
	return count
}

// recordMentions upserts a mention record for every extracted company and
// location. Failures only cost the statistic.
func (s *Scorer) recordMentions(ctx context.Context, ents model.ExtractedEntities) {
	if s.mentions == nil {
		return
	}
	now := time.Now()
	for _, company := range ents.Companies {
		if err := s.mentions.UpsertCompanyMention(ctx, company, now); err != nil {
			zap.L().Warn("score: company mention upsert failed", zap.String("company", company), zap.Error(err))
		}
	}
	for _, location := range ents.Locations {
		if err := s.mentions.UpsertLocationMention(ctx, location, now); err != nil {
			zap.L().Warn("score: location mention upsert failed", zap.String("location", location), zap.Error(err))
		}
	}
}

// Rank orders projects by score descending; equal scores keep their
// discovery order.
func Rank(projects []model.ScoredProject) {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Score > projects[j].Score
	})
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
