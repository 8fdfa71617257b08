package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inmind-gr/office-radar/internal/config"
	"github.com/inmind-gr/office-radar/internal/model"
	"github.com/inmind-gr/office-radar/internal/search"
	"github.com/inmind-gr/office-radar/internal/store"
)

type fakeNotifier struct {
	configured bool
	sent       [][]model.Project
	fail       bool
}

func (f *fakeNotifier) Configured() bool { return f.configured }

func (f *fakeNotifier) SendDigest(_ context.Context, projects []model.Project) error {
	if f.fail {
		return fmt.Errorf("smtp unreachable")
	}
	f.sent = append(f.sent, projects)
	return nil
}

const articleHTML = `<html><head>
<meta property="article:published_time" content="2026-08-28T10:00:00Z">
</head><body>
<article>KPMG announced a new office in Athens, Greece, covering 1200 sq.m of
modern workspace in the city center. The office building will host the
company's growing consulting practice.</article>
</body></html>`

// newTestServer serves both the search API and the article pages it links to.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"items": []search.Item{
				{
					Title:   "KPMG opens Athens office",
					Link:    srv.URL + "/article",
					Snippet: "KPMG announced a new office in Athens, Greece, covering 1200 sq.m of modern workspace in the city center",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articleHTML)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRunner(t *testing.T, notifier Notifier) (*Runner, store.Store) {
	t.Helper()

	srv := newTestServer(t)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	cfg := &config.Config{
		Search: config.SearchConfig{
			APIKey:     "test-key",
			CSEID:      "test-cse",
			MaxQueries: 2,
		},
		Fetch: config.FetchConfig{
			PageTimeoutSecs: 5,
			PauseSecs:       0.001,
		},
		Score: config.ScoreConfig{
			CompanyBonus:    25,
			LocationBonus:   15,
			KeywordBonus:    5,
			KeywordCap:      25,
			TokenBonus:      1,
			TokenCap:        20,
			LanguageBonus:   5,
			SizeBonus:       10,
			AcceptThreshold: 30,
		},
	}

	sc := search.NewClient("test-key", "test-cse", search.WithBaseURL(srv.URL+"/search"))
	return New(cfg, st, sc, notifier), st
}

func TestRunner_Run_EndToEnd(t *testing.T) {
	notifier := &fakeNotifier{configured: true}
	runner, st := newTestRunner(t, notifier)
	ctx := context.Background()

	summary := runner.Run(ctx)
	require.NotNil(t, summary)

	assert.Equal(t, 2, summary.QueriesIssued)
	// Both queries return the same item; the hash dedup keeps one.
	assert.Equal(t, 1, summary.ResultsFound)
	assert.Equal(t, 1, summary.RelevantResults)
	assert.Equal(t, 1, summary.NewProjects)
	assert.True(t, summary.NotificationSent)

	require.Len(t, notifier.sent, 1)
	require.Len(t, notifier.sent[0], 1)
	sent := notifier.sent[0][0]
	assert.Equal(t, "KPMG", sent.CompanyName)
	assert.Equal(t, "Athens", sent.Location)
	assert.Equal(t, model.ProjectTypeNewOffice, sent.ProjectType)
	assert.Equal(t, "1200 sq.m", sent.EstimatedSize)

	// The digest batch is marked sent.
	unsent, err := st.UnsentProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsent)

	// Mention statistics were recorded during scoring.
	companies, err := st.TopCompanies(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, companies)
	assert.Equal(t, "KPMG", companies[0].Name)
}

func TestRunner_Run_SecondRunFindsNoNewProjects(t *testing.T) {
	notifier := &fakeNotifier{configured: true}
	runner, _ := newTestRunner(t, notifier)
	ctx := context.Background()

	first := runner.Run(ctx)
	require.Equal(t, 1, first.NewProjects)

	second := runner.Run(ctx)
	assert.Equal(t, 0, second.NewProjects)
	assert.False(t, second.NotificationSent)
	// Only the first run produced a digest.
	assert.Len(t, notifier.sent, 1)
}

func TestRunner_Run_NotifierNotConfigured(t *testing.T) {
	notifier := &fakeNotifier{configured: false}
	runner, st := newTestRunner(t, notifier)
	ctx := context.Background()

	summary := runner.Run(ctx)
	assert.Equal(t, 1, summary.NewProjects)
	assert.False(t, summary.NotificationSent)
	assert.Empty(t, notifier.sent)

	// Unsent projects stay queued for a later notify pass.
	unsent, err := st.UnsentProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, unsent, 1)
}

func TestRunner_Run_FailedSendKeepsProjectsUnsent(t *testing.T) {
	notifier := &fakeNotifier{configured: true, fail: true}
	runner, st := newTestRunner(t, notifier)
	ctx := context.Background()

	summary := runner.Run(ctx)
	assert.Equal(t, 1, summary.NewProjects)
	assert.False(t, summary.NotificationSent)

	unsent, err := st.UnsentProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, unsent, 1)
}

func TestRunner_Run_NilNotifier(t *testing.T) {
	runner, _ := newTestRunner(t, nil)

	summary := runner.Run(context.Background())
	assert.Equal(t, 1, summary.NewProjects)
	assert.False(t, summary.NotificationSent)
}
