// Package dedup decides whether a scored project is genuinely new relative
// to everything already persisted.
package dedup

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/inmind-gr/office-radar/internal/model"
)

// snippetWindowWords is how many leading words of a substantial snippet are
// compared against stored descriptions for near-duplicate detection.
const snippetWindowWords = 20

// minSnippetWords gates the near-duplicate check; short snippets produce too
// many false positives.
const minSnippetWords = 10

// Store is the subset of persistence the gate needs.
type Store interface {
	ProjectExistsByURL(ctx context.Context, url string) (bool, error)
	ProjectExistsByHash(ctx context.Context, hash string) (bool, error)
	ProjectExistsByDescription(ctx context.Context, fragment string) (bool, error)
	InsertProject(ctx context.Context, p model.Project) error
}

// Gate applies the duplicate rules in order and inserts what survives.
type Gate struct {
	store Store
}

// NewGate creates a Gate over the given store.
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Admit checks the project against stored history and persists it when new.
// Returns true when a row was inserted. The rules run in order and the
// first match rejects: exact URL, exact content hash, then near-duplicate
// snippet text. A duplicate is a control-flow outcome, not an error.
func (g *Gate) Admit(ctx context.Context, sp model.ScoredProject) (bool, error) {
	exists, err := g.store.ProjectExistsByURL(ctx, sp.Result.Link)
	if err != nil {
		return false, eris.Wrap(err, "dedup: url lookup")
	}
	if exists {
		zap.L().Info("dedup: skipping duplicate url", zap.String("url", sp.Result.Link))
		return false, nil
	}

	exists, err = g.store.ProjectExistsByHash(ctx, sp.Result.ContentHash)
	if err != nil {
		return false, eris.Wrap(err, "dedup: hash lookup")
	}
	if exists {
		zap.L().Info("dedup: skipping duplicate content", zap.String("url", sp.Result.Link))
		return false, nil
	}

	if fragment := snippetWindow(sp.Result.Snippet); fragment != "" {
		exists, err = g.store.ProjectExistsByDescription(ctx, fragment)
		if err != nil {
			return false, eris.Wrap(err, "dedup: description lookup")
		}
		if exists {
			zap.L().Info("dedup: skipping near-duplicate content", zap.String("url", sp.Result.Link))
			return false, nil
		}
	}

	if err := g.store.InsertProject(ctx, buildProject(sp)); err != nil {
		return false, eris.Wrap(err, "dedup: insert project")
	}
	return true, nil
}

// snippetWindow returns the lower-cased first 20 words of a snippet, or ""
// when the snippet is too short to compare reliably.
func snippetWindow(snippet string) string {
	words := strings.Fields(strings.ToLower(snippet))
	if len(words) <= minSnippetWords {
		return ""
	}
	if len(words) > snippetWindowWords {
		words = words[:snippetWindowWords]
	}
	return strings.Join(words, " ")
}

func buildProject(sp model.ScoredProject) model.Project {
	reported := sp.Entities.ReportedDate
	if reported == "" {
		reported = sp.Result.PublishedDate
	}
	if reported == "" {
		reported = time.Now().Format("2006-01-02")
	}
	return model.Project{
		CompanyName:    sp.Company,
		Location:       sp.Location,
		Description:    sp.Result.Snippet,
		SourceURL:      sp.Result.Link,
		SourceTitle:    sp.Result.Title,
		RelevanceScore: sp.Score,
		ProjectType:    sp.Entities.ProjectType,
		EstimatedSize:  sp.Entities.EstimatedSize,
		DateReported:   reported,
		DateAdded:      time.Now(),
		ContentHash:    sp.Result.ContentHash,
	}
}
