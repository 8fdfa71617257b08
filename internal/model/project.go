package model

import (
	"crypto/md5" //nolint:gosec // dedup fingerprint, not a security boundary
	"encoding/hex"
	"time"
)

// Language is a two-letter content language tag.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageGreek   Language = "el"
)

// ProjectType classifies what kind of office activity an article describes.
type ProjectType string

const (
	ProjectTypeNewOffice   ProjectType = "New Office"
	ProjectTypeRelocation  ProjectType = "Relocation"
	ProjectTypeExpansion   ProjectType = "Expansion"
	ProjectTypeRenovation  ProjectType = "Renovation"
	ProjectTypeLeasing     ProjectType = "Leasing"
	ProjectTypeAcquisition ProjectType = "Acquisition"

	// ProjectTypeDefault is returned when no classification keyword matches.
	ProjectTypeDefault ProjectType = "Office Project"
)

// SearchQuery is a single planned query for one run.
type SearchQuery struct {
	Text     string   `json:"text"`
	Language Language `json:"language"`
	Rank     int      `json:"rank"`
}

// RawResult is one search hit, optionally enriched with the fetched page
// text. Fields are set once by the collector and never mutated afterwards.
type RawResult struct {
	Title         string   `json:"title"`
	Link          string   `json:"link"`
	Snippet       string   `json:"snippet"`
	Content       string   `json:"content"`
	PublishedDate string   `json:"published_date,omitempty"` // YYYY-MM-DD
	Query         string   `json:"query"`
	QueryLanguage Language `json:"query_language"`
	ContentHash   string   `json:"content_hash"`
}

// ContentHash fingerprints a search result by title and snippet. Two results
// with the same hash are the same logical story regardless of URL.
func ContentHash(title, snippet string) string {
	sum := md5.Sum([]byte(title + "|" + snippet)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// ExtractedEntities holds everything the extractor pulled out of one result.
type ExtractedEntities struct {
	Companies     []string    `json:"companies"`
	Locations     []string    `json:"locations"`
	ProjectType   ProjectType `json:"project_type"`
	EstimatedSize string      `json:"estimated_size,omitempty"` // "<n> sq.m"
	ReportedDate  string      `json:"reported_date,omitempty"`  // YYYY-MM-DD
	Language      Language    `json:"language"`
}

// ScoredProject pairs a result with its entities and relevance score.
type ScoredProject struct {
	Result   RawResult         `json:"result"`
	Entities ExtractedEntities `json:"entities"`
	Score    int               `json:"score"`
	Company  string            `json:"company"`  // primary, "Unknown" if none
	Location string            `json:"location"` // primary, "Greece" if none
}

// Project is a persisted office project. Sent flips to true exactly once,
// when a notification bundling the project succeeds.
type Project struct {
	ID             int64       `json:"id"`
	CompanyName    string      `json:"company_name"`
	Location       string      `json:"location"`
	Description    string      `json:"description"`
	SourceURL      string      `json:"source_url"`
	SourceTitle    string      `json:"source_title"`
	RelevanceScore int         `json:"relevance_score"`
	ProjectType    ProjectType `json:"project_type"`
	EstimatedSize  string      `json:"estimated_size,omitempty"`
	DateReported   string      `json:"date_reported,omitempty"`
	DateAdded      time.Time   `json:"date_added"`
	ContentHash    string      `json:"content_hash"`
	Sent           bool        `json:"sent"`
}

// CompanyRecord aggregates how often and how recently a company was observed.
type CompanyRecord struct {
	Name           string    `json:"name"`
	MentionCount   int       `json:"mention_count"`
	LastSeen       time.Time `json:"last_seen"`
	RelevanceScore float64   `json:"relevance_score"`
}

// LocationRecord aggregates mentions of one location.
type LocationRecord struct {
	Name         string    `json:"name"`
	MentionCount int       `json:"mention_count"`
	LastSeen     time.Time `json:"last_seen"`
}

// QueryStat is one row of the query success history used for re-ranking.
type QueryStat struct {
	Query       string `json:"query"`
	ResultCount int    `json:"result_count"`
}

// RunMetrics is the per-run observability record.
type RunMetrics struct {
	RunID           string        `json:"run_id"`
	QueriesIssued   int           `json:"queries_issued"`
	ResultsFound    int           `json:"results_found"`
	RelevantResults int           `json:"relevant_results"`
	Duration        time.Duration `json:"duration"`
	AvgPerQuery     float64       `json:"avg_per_query_secs"`
	ResultsPerQuery float64       `json:"results_per_query"`
}

// RunSummary is what a run reports back to its invoker, failures included.
type RunSummary struct {
	RunID            string `json:"run_id"`
	QueriesIssued    int    `json:"queries_issued"`
	ResultsFound     int    `json:"results_found"`
	RelevantResults  int    `json:"relevant_results"`
	NewProjects      int    `json:"new_projects"`
	NotificationSent bool   `json:"notification_sent"`
	DurationMillis   int64  `json:"duration_ms"`
}
