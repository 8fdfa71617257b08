// Package extract pulls structured facts out of unstructured bilingual news
// text: company names, locations, a project-type classification, an
// estimated size and a reported date. Extraction is pattern-based and never
// fails; a miss yields an empty set or a default, not an error.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/inmind-gr/office-radar/internal/lang"
	"github.com/inmind-gr/office-radar/internal/model"
)

// Company name length bounds, counted in runes.
const (
	minCompanyLen = 4
	maxCompanyLen = 59
)

var (
	sizeExpr = regexp.MustCompile(`(\d[\d,.]*)\s*(?:sq\.?\s?m\.?|square meters|m²|sqm|τ\.?μ\.?|τετραγωνικά μέτρα|τετραγωνικών μέτρων)`)
	dateExpr = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})\b`)
	wsExpr   = regexp.MustCompile(`\s+`)
)

// Extractor runs all entity passes for one language-tagged text.
type Extractor struct {
	watchlist []string
}

// New creates an Extractor seeded with the given watch-list companies.
// A nil watchlist falls back to the built-in one.
func New(watchlist []string) *Extractor {
	if watchlist == nil {
		watchlist = lang.WatchlistCompanies
	}
	return &Extractor{watchlist: watchlist}
}

// Extract runs every pass against text. The language selects which pattern
// tables apply; it never gates whether extraction happens at all.
func (e *Extractor) Extract(text string, language model.Language) model.ExtractedEntities {
	res := lang.Resources(language)

	return model.ExtractedEntities{
		Companies:     e.companies(text, res),
		Locations:     locations(text, res),
		ProjectType:   ProjectType(text, res),
		EstimatedSize: estimatedSize(text),
		ReportedDate:  reportedDate(text),
		Language:      language,
	}
}

// companies unions the four company passes: corporate-suffix anchored,
// business-verb anchored, quotation anchored, and verbatim watch-list hits.
func (e *Extractor) companies(text string, res *lang.Resource) []string {
	var found []string
	seen := make(map[string]struct{})

	add := func(name string, watchlisted bool) {
		name = canonicalName(name)
		// Short pattern matches are almost always acronym noise, but a
		// watch-list hit is a known company regardless of length. Lengths
		// count runes; Greek letters are two bytes each.
		if utf8.RuneCountInString(name) <= 3 && !watchlisted {
			return
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		found = append(found, name)
	}

	for _, m := range res.SuffixPattern.FindAllStringSubmatch(text, -1) {
		name := canonicalName(m[1]) + " " + m[2]
		if n := utf8.RuneCountInString(name); n >= minCompanyLen && n <= maxCompanyLen {
			add(name, false)
		}
	}

	for _, m := range res.VerbPattern.FindAllStringSubmatch(text, -1) {
		name := canonicalName(m[1])
		if n := utf8.RuneCountInString(name); n >= minCompanyLen && n <= maxCompanyLen {
			add(name, false)
		}
	}

	for _, m := range res.QuotePattern.FindAllStringSubmatch(text, -1) {
		add(m[1], false)
	}

	for _, company := range e.watchlist {
		if strings.Contains(text, company) {
			add(company, true)
		}
	}

	return found
}

// canonicalName trims and collapses inner whitespace. Deduplication happens
// on the case-folded form; the first-seen casing is the one kept.
func canonicalName(name string) string {
	return wsExpr.ReplaceAllString(strings.TrimSpace(name), " ")
}

// locations unions the language's anchored patterns with verbatim matches
// against the known city list, preserving discovery order.
func locations(text string, res *lang.Resource) []string {
	var found []string
	seen := make(map[string]struct{})

	add := func(loc string) {
		loc = strings.TrimSpace(loc)
		if utf8.RuneCountInString(loc) <= 2 {
			return
		}
		if _, dup := seen[loc]; dup {
			return
		}
		seen[loc] = struct{}{}
		found = append(found, loc)
	}

	for _, p := range res.LocationPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}

	for _, city := range lang.Cities {
		if strings.Contains(text, city) {
			add(city)
		}
	}

	return found
}

// ProjectType walks the language's ordered decision list and returns the
// first category whose keyword set intersects the lower-cased text. Order
// matters: a relocation article usually also mentions new offices, so the
// sequence of the rules is part of the contract. No match yields the
// default "Office Project".
func ProjectType(text string, res *lang.Resource) model.ProjectType {
	lower := strings.ToLower(text)
	for _, rule := range res.ProjectTypes {
		for _, term := range rule.Terms {
			if strings.Contains(lower, term) {
				return rule.Type
			}
		}
	}
	return model.ProjectTypeDefault
}

// estimatedSize returns the first "<number> sq.m" style match, normalized to
// a single unit spelling, or "" when no size pattern occurs.
func estimatedSize(text string) string {
	m := sizeExpr.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s sq.m", m[1])
}

// reportedDate finds a d/m/y numeric date and normalizes it to YYYY-MM-DD.
// Two-digit years get a "20" prefix. Malformed day or month values are
// discarded silently; the date simply stays unset.
func reportedDate(text string) string {
	m := dateExpr.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	day, month, year := m[1], m[2], m[3]
	if len(year) == 2 {
		year = "20" + year
	}
	if len(year) != 4 {
		return ""
	}
	if !validOrdinal(day, 31) || !validOrdinal(month, 12) {
		return ""
	}
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return year + "-" + month + "-" + day
}

// validOrdinal checks a 1-2 digit numeric string is within [1, max].
func validOrdinal(s string, max int) bool {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n >= 1 && n <= max
}
