package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/inmind-gr/office-radar/internal/model"
)

// dateOnly is the storage format for day-granularity dates. SQLite's
// julianday() parses it directly, which the score decay query relies on.
const dateOnly = "2006-01-02"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	company_name    TEXT NOT NULL,
	location        TEXT NOT NULL,
	description     TEXT,
	source_url      TEXT NOT NULL,
	source_title    TEXT,
	relevance_score INTEGER NOT NULL DEFAULT 0,
	project_type    TEXT,
	estimated_size  TEXT,
	date_reported   TEXT,
	date_added      DATETIME NOT NULL DEFAULT (datetime('now')),
	content_hash    TEXT NOT NULL,
	is_sent         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS companies (
	name            TEXT PRIMARY KEY,
	mention_count   INTEGER NOT NULL DEFAULT 0,
	last_seen_date  TEXT,
	relevance_score REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS locations (
	name           TEXT PRIMARY KEY,
	mention_count  INTEGER NOT NULL DEFAULT 0,
	last_seen_date TEXT
);

CREATE TABLE IF NOT EXISTS search_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	query         TEXT NOT NULL,
	language      TEXT NOT NULL,
	date_searched DATETIME NOT NULL,
	results_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS analytics (
	run_id              TEXT PRIMARY KEY,
	run_date            TEXT NOT NULL,
	searches_performed  INTEGER NOT NULL DEFAULT 0,
	results_found       INTEGER NOT NULL DEFAULT 0,
	relevant_results    INTEGER NOT NULL DEFAULT 0,
	performance_metrics TEXT
);

CREATE INDEX IF NOT EXISTS idx_projects_source_url ON projects(source_url);
CREATE INDEX IF NOT EXISTS idx_projects_content_hash ON projects(content_hash);
CREATE INDEX IF NOT EXISTS idx_projects_is_sent ON projects(is_sent);
CREATE INDEX IF NOT EXISTS idx_search_log_date ON search_log(date_searched);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompanyMention(ctx context.Context, name string, seen time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (name, mention_count, last_seen_date) VALUES (?, 1, ?)
		 ON CONFLICT(name) DO UPDATE SET
			mention_count = mention_count + 1,
			last_seen_date = excluded.last_seen_date`,
		name, seen.UTC().Format(dateOnly),
	)
	return eris.Wrapf(err, "sqlite: upsert company %s", name)
}

func (s *SQLiteStore) UpsertLocationMention(ctx context.Context, name string, seen time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO locations (name, mention_count, last_seen_date) VALUES (?, 1, ?)
		 ON CONFLICT(name) DO UPDATE SET
			mention_count = mention_count + 1,
			last_seen_date = excluded.last_seen_date`,
		name, seen.UTC().Format(dateOnly),
	)
	return eris.Wrapf(err, "sqlite: upsert location %s", name)
}

func (s *SQLiteStore) ProjectExistsByURL(ctx context.Context, url string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM projects WHERE source_url = ? LIMIT 1`, url)
}

func (s *SQLiteStore) ProjectExistsByHash(ctx context.Context, hash string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM projects WHERE content_hash = ? LIMIT 1`, hash)
}

// ProjectExistsByDescription matches when any stored description contains the
// fragment. Both sides are lower-cased in Go; SQLite's lower() folds ASCII
// only and would miss uppercase Greek.
func (s *SQLiteStore) ProjectExistsByDescription(ctx context.Context, fragment string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT description FROM projects`)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: description check")
	}
	defer rows.Close()

	fragment = strings.ToLower(fragment)
	for rows.Next() {
		var desc string
		if err := rows.Scan(&desc); err != nil {
			return false, eris.Wrap(err, "sqlite: description check")
		}
		if strings.Contains(strings.ToLower(desc), fragment) {
			return true, nil
		}
	}
	return false, eris.Wrap(rows.Err(), "sqlite: description check")
}

func (s *SQLiteStore) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: existence check")
	}
	return true, nil
}

func (s *SQLiteStore) InsertProject(ctx context.Context, p model.Project) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (
			company_name, location, description, source_url, source_title,
			relevance_score, project_type, estimated_size, date_reported,
			date_added, content_hash, is_sent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CompanyName, p.Location, p.Description, p.SourceURL, p.SourceTitle,
		p.RelevanceScore, string(p.ProjectType), p.EstimatedSize, p.DateReported,
		p.DateAdded.UTC().Format(time.DateTime), p.ContentHash, boolToInt(p.Sent),
	)
	return eris.Wrapf(err, "sqlite: insert project %s", p.SourceURL)
}

func (s *SQLiteStore) UnsentProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_name, location, description, source_url, source_title,
			relevance_score, project_type, estimated_size, date_reported,
			date_added, content_hash, is_sent
		 FROM projects
		 WHERE is_sent = 0
		 ORDER BY relevance_score DESC, date_added DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: unsent projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: unsent projects iterate")
}

func (s *SQLiteStore) MarkProjectsSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE projects SET is_sent = 1 WHERE id IN (%s)`, placeholders),
		args...,
	)
	return eris.Wrap(err, "sqlite: mark projects sent")
}

func (s *SQLiteStore) LogQuery(ctx context.Context, query string, language model.Language, at time.Time, resultCount int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_log (query, language, date_searched, results_count) VALUES (?, ?, ?, ?)`,
		query, string(language), at.UTC().Format(time.DateTime), resultCount,
	)
	return eris.Wrap(err, "sqlite: log query")
}

func (s *SQLiteStore) TopQueries(ctx context.Context, since time.Time, limit int) ([]model.QueryStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, SUM(results_count) AS total
		 FROM search_log
		 WHERE date_searched >= ? AND results_count > 0
		 GROUP BY query
		 ORDER BY total DESC
		 LIMIT ?`,
		since.UTC().Format(time.DateTime), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top queries")
	}
	defer rows.Close()

	var stats []model.QueryStat
	for rows.Next() {
		var st model.QueryStat
		if err := rows.Scan(&st.Query, &st.ResultCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan query stat")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: top queries iterate")
}

func (s *SQLiteStore) RecordRunMetrics(ctx context.Context, m model.RunMetrics) error {
	perf, err := json.Marshal(map[string]float64{
		"duration_secs":     m.Duration.Seconds(),
		"avg_per_query":     m.AvgPerQuery,
		"results_per_query": m.ResultsPerQuery,
	})
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal performance metrics")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analytics (run_id, run_date, searches_performed, results_found, relevant_results, performance_metrics)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.RunID, time.Now().UTC().Format(dateOnly),
		m.QueriesIssued, m.ResultsFound, m.RelevantResults, string(perf),
	)
	return eris.Wrapf(err, "sqlite: record run metrics %s", m.RunID)
}

func (s *SQLiteStore) UpdateRelevantCount(ctx context.Context, runID string, relevant int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analytics SET relevant_results = ? WHERE run_id = ?`,
		relevant, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update relevant count %s", runID)
	}
	return checkRowsAffected(res, "analytics row", runID)
}

// PurgeQueryLog removes search log rows older than the retention window and
// reclaims the freed pages. Returns the number of rows deleted.
func (s *SQLiteStore) PurgeQueryLog(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.DateTime)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_log WHERE date_searched < ?`, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge query log")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return n, eris.Wrap(err, "sqlite: vacuum")
	}
	return n, nil
}

// RecomputeCompanyScores refreshes every company's relevance score from its
// mention count, weighted by recency: double under 30 days, full under 90,
// half beyond that.
func (s *SQLiteStore) RecomputeCompanyScores(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE companies SET relevance_score = mention_count * CASE
			WHEN julianday('now') - julianday(last_seen_date) < 30 THEN 2
			WHEN julianday('now') - julianday(last_seen_date) < 90 THEN 1
			ELSE 0.5
		 END
		 WHERE last_seen_date IS NOT NULL`,
	)
	return eris.Wrap(err, "sqlite: recompute company scores")
}

func (s *SQLiteStore) Summary(ctx context.Context) (*Summary, error) {
	var sum Summary
	var latest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COUNT(DISTINCT company_name),
			COUNT(DISTINCT location),
			COALESCE(AVG(relevance_score), 0),
			MAX(date_added)
		 FROM projects`,
	).Scan(&sum.TotalProjects, &sum.UniqueCompanies, &sum.UniqueLocations, &sum.AvgRelevance, &latest)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: summary")
	}
	sum.LatestProject = latest.String
	return &sum, nil
}

func (s *SQLiteStore) TopCompanies(ctx context.Context, limit int) ([]model.CompanyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, mention_count, COALESCE(last_seen_date, ''), relevance_score
		 FROM companies
		 ORDER BY relevance_score DESC, mention_count DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top companies")
	}
	defer rows.Close()

	var companies []model.CompanyRecord
	for rows.Next() {
		var c model.CompanyRecord
		var lastSeen string
		if err := rows.Scan(&c.Name, &c.MentionCount, &lastSeen, &c.RelevanceScore); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		c.LastSeen = parseStoredDate(lastSeen)
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: top companies iterate")
}

func (s *SQLiteStore) TopLocations(ctx context.Context, limit int) ([]model.LocationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, mention_count, COALESCE(last_seen_date, '')
		 FROM locations
		 ORDER BY mention_count DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top locations")
	}
	defer rows.Close()

	var locations []model.LocationRecord
	for rows.Next() {
		var l model.LocationRecord
		var lastSeen string
		if err := rows.Scan(&l.Name, &l.MentionCount, &lastSeen); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan location")
		}
		l.LastSeen = parseStoredDate(lastSeen)
		locations = append(locations, l)
	}
	return locations, eris.Wrap(rows.Err(), "sqlite: top locations iterate")
}

func (s *SQLiteStore) ProjectTypeCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_type, COUNT(*) FROM projects GROUP BY project_type`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: project type counts")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var pt string
		var n int
		if err := rows.Scan(&pt, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project type count")
		}
		counts[pt] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: project type counts iterate")
}

// RecentTrend returns projects-added-per-day over the trailing window, keyed
// by YYYY-MM-DD. Days with no additions are absent.
func (s *SQLiteStore) RecentTrend(ctx context.Context, days int) (map[string]int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(dateOnly)
	rows, err := s.db.QueryContext(ctx,
		`SELECT substr(date_added, 1, 10) AS day, COUNT(*)
		 FROM projects
		 WHERE date_added >= ?
		 GROUP BY day
		 ORDER BY day`,
		cutoff,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent trend")
	}
	defer rows.Close()

	trend := make(map[string]int)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan trend row")
		}
		trend[day] = n
	}
	return trend, eris.Wrap(rows.Err(), "sqlite: recent trend iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func scanProject(rows *sql.Rows) (*model.Project, error) {
	var p model.Project
	var projectType, dateAdded string
	var sent int

	err := rows.Scan(
		&p.ID, &p.CompanyName, &p.Location, &p.Description, &p.SourceURL,
		&p.SourceTitle, &p.RelevanceScore, &projectType, &p.EstimatedSize,
		&p.DateReported, &dateAdded, &p.ContentHash, &sent,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan project")
	}
	p.ProjectType = model.ProjectType(projectType)
	p.DateAdded = parseStoredDate(dateAdded)
	p.Sent = sent != 0
	return &p, nil
}

// parseStoredDate accepts the two formats this store writes. Unparseable
// values become the zero time rather than an error; display code treats them
// as unknown.
func parseStoredDate(v string) time.Time {
	for _, layout := range []string{time.DateTime, dateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
