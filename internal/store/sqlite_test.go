package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inmind-gr/office-radar/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testProject(url, hash string) model.Project {
	return model.Project{
		CompanyName:    "PwC",
		Location:       "Athens",
		Description:    "PwC announced a new office in Athens covering 1200 sq.m of space in the city center near Syntagma square this autumn",
		SourceURL:      url,
		SourceTitle:    "PwC opens Athens office",
		RelevanceScore: 55,
		ProjectType:    model.ProjectTypeNewOffice,
		EstimatedSize:  "1200 sq.m",
		DateReported:   "2026-08-20",
		DateAdded:      time.Now(),
		ContentHash:    hash,
	}
}

// --- Mentions ---

func TestSQLite_CompanyMention_Upsert(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.UpsertCompanyMention(ctx, "PwC", now))
	require.NoError(t, st.UpsertCompanyMention(ctx, "PwC", now))
	require.NoError(t, st.UpsertCompanyMention(ctx, "KPMG", now))

	companies, err := st.TopCompanies(ctx, 10)
	require.NoError(t, err)
	require.Len(t, companies, 2)

	byName := make(map[string]model.CompanyRecord)
	for _, c := range companies {
		byName[c.Name] = c
	}
	assert.Equal(t, 2, byName["PwC"].MentionCount)
	assert.Equal(t, 1, byName["KPMG"].MentionCount)
}

func TestSQLite_LocationMention_Upsert(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.UpsertLocationMention(ctx, "Athens", now))
	require.NoError(t, st.UpsertLocationMention(ctx, "Athens", now))
	require.NoError(t, st.UpsertLocationMention(ctx, "Thessaloniki", now))

	locations, err := st.TopLocations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "Athens", locations[0].Name)
	assert.Equal(t, 2, locations[0].MentionCount)
}

func TestSQLite_RecomputeCompanyScores_Decay(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// Seed companies at the three recency tiers directly; the upsert path
	// always writes today's date.
	seed := func(name, lastSeen string, mentions int) {
		_, err := st.db.ExecContext(ctx,
			`INSERT INTO companies (name, mention_count, last_seen_date) VALUES (?, ?, ?)`,
			name, mentions, lastSeen,
		)
		require.NoError(t, err)
	}
	now := time.Now().UTC()
	seed("Recent", now.AddDate(0, 0, -5).Format("2006-01-02"), 4)
	seed("Middle", now.AddDate(0, 0, -60).Format("2006-01-02"), 4)
	seed("Stale", now.AddDate(0, 0, -200).Format("2006-01-02"), 4)

	require.NoError(t, st.RecomputeCompanyScores(ctx))

	companies, err := st.TopCompanies(ctx, 10)
	require.NoError(t, err)
	require.Len(t, companies, 3)

	byName := make(map[string]float64)
	for _, c := range companies {
		byName[c.Name] = c.RelevanceScore
	}
	assert.Equal(t, 8.0, byName["Recent"])
	assert.Equal(t, 4.0, byName["Middle"])
	assert.Equal(t, 2.0, byName["Stale"])
}

// --- Projects ---

func TestSQLite_InsertProject_And_ExistenceChecks(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := testProject("https://news.example.gr/pwc", "abc123")
	require.NoError(t, st.InsertProject(ctx, p))

	exists, err := st.ProjectExistsByURL(ctx, p.SourceURL)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = st.ProjectExistsByURL(ctx, "https://news.example.gr/other")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = st.ProjectExistsByHash(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = st.ProjectExistsByHash(ctx, "zzz999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLite_ProjectExistsByDescription(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.InsertProject(ctx, testProject("https://a.example.gr", "h1")))

	// Fragment is a lower-cased prefix of the stored description.
	exists, err := st.ProjectExistsByDescription(ctx, "pwc announced a new office in athens")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = st.ProjectExistsByDescription(ctx, "completely unrelated story about shipping")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLite_ProjectExistsByDescription_GreekCase(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := testProject("https://a.example.gr", "h1")
	p.Description = "Η ΕΤΑΙΡΕΙΑ ΜΙΣΘΩΣΕ ΝΕΑ ΓΡΑΦΕΙΑ ΣΤΗΝ ΑΘΗΝΑ"
	require.NoError(t, st.InsertProject(ctx, p))

	// Uppercase Greek must fold too; SQLite's own lower() only folds ASCII.
	exists, err := st.ProjectExistsByDescription(ctx, "η εταιρεια μισθωσε νεα γραφεια")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSQLite_UnsentProjects_OrderAndMarkSent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	low := testProject("https://a.example.gr", "h1")
	low.RelevanceScore = 35
	high := testProject("https://b.example.gr", "h2")
	high.RelevanceScore = 70
	require.NoError(t, st.InsertProject(ctx, low))
	require.NoError(t, st.InsertProject(ctx, high))

	unsent, err := st.UnsentProjects(ctx)
	require.NoError(t, err)
	require.Len(t, unsent, 2)
	assert.Equal(t, "https://b.example.gr", unsent[0].SourceURL)
	assert.Equal(t, 70, unsent[0].RelevanceScore)

	ids := []int64{unsent[0].ID, unsent[1].ID}
	require.NoError(t, st.MarkProjectsSent(ctx, ids))

	unsent, err = st.UnsentProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsent)
}

func TestSQLite_MarkProjectsSent_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.MarkProjectsSent(context.Background(), nil))
}

// --- Query log ---

func TestSQLite_TopQueries_AggregatesAndFilters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.LogQuery(ctx, "new office Greece", model.LanguageEnglish, now, 5))
	require.NoError(t, st.LogQuery(ctx, "new office Greece", model.LanguageEnglish, now, 3))
	require.NoError(t, st.LogQuery(ctx, "γραφεία Αθήνα", model.LanguageGreek, now, 4))
	// Zero-result queries never surface.
	require.NoError(t, st.LogQuery(ctx, "empty query", model.LanguageEnglish, now, 0))
	// Outside the window.
	require.NoError(t, st.LogQuery(ctx, "old query", model.LanguageEnglish, now.AddDate(0, 0, -14), 9))

	stats, err := st.TopQueries(ctx, now.AddDate(0, 0, -7), 10)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "new office Greece", stats[0].Query)
	assert.Equal(t, 8, stats[0].ResultCount)
	assert.Equal(t, "γραφεία Αθήνα", stats[1].Query)
}

func TestSQLite_PurgeQueryLog(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, st.LogQuery(ctx, "fresh", model.LanguageEnglish, now, 1))
	require.NoError(t, st.LogQuery(ctx, "stale", model.LanguageEnglish, now.AddDate(0, 0, -45), 1))

	deleted, err := st.PurgeQueryLog(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	stats, err := st.TopQueries(ctx, now.AddDate(0, -2, 0), 10)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "fresh", stats[0].Query)
}

// --- Run metrics ---

func TestSQLite_RunMetrics_RecordAndUpdate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	m := model.RunMetrics{
		RunID:           "run-1",
		QueriesIssued:   30,
		ResultsFound:    42,
		Duration:        90 * time.Second,
		AvgPerQuery:     3.0,
		ResultsPerQuery: 1.4,
	}
	require.NoError(t, st.RecordRunMetrics(ctx, m))
	require.NoError(t, st.UpdateRelevantCount(ctx, "run-1", 7))

	err := st.UpdateRelevantCount(ctx, "no-such-run", 7)
	assert.Error(t, err)
}

// --- Analytics ---

func TestSQLite_Summary(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sum, err := st.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.TotalProjects)

	p1 := testProject("https://a.example.gr", "h1")
	p1.RelevanceScore = 40
	p2 := testProject("https://b.example.gr", "h2")
	p2.CompanyName = "KPMG"
	p2.Location = "Thessaloniki"
	p2.RelevanceScore = 60
	require.NoError(t, st.InsertProject(ctx, p1))
	require.NoError(t, st.InsertProject(ctx, p2))

	sum, err = st.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalProjects)
	assert.Equal(t, 2, sum.UniqueCompanies)
	assert.Equal(t, 2, sum.UniqueLocations)
	assert.Equal(t, 50.0, sum.AvgRelevance)
	assert.NotEmpty(t, sum.LatestProject)
}

func TestSQLite_ProjectTypeCounts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p1 := testProject("https://a.example.gr", "h1")
	p2 := testProject("https://b.example.gr", "h2")
	p2.ProjectType = model.ProjectTypeRelocation
	p3 := testProject("https://c.example.gr", "h3")
	require.NoError(t, st.InsertProject(ctx, p1))
	require.NoError(t, st.InsertProject(ctx, p2))
	require.NoError(t, st.InsertProject(ctx, p3))

	counts, err := st.ProjectTypeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[string(model.ProjectTypeNewOffice)])
	assert.Equal(t, 1, counts[string(model.ProjectTypeRelocation)])
}

func TestSQLite_RecentTrend(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := testProject("https://a.example.gr", "h1")
	require.NoError(t, st.InsertProject(ctx, p))

	old := testProject("https://b.example.gr", "h2")
	old.DateAdded = time.Now().AddDate(0, 0, -90)
	require.NoError(t, st.InsertProject(ctx, old))

	trend, err := st.RecentTrend(ctx, 30)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, 1, trend[today])
}

// --- Migrate ---

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}
