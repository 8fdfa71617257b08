package lang

import (
	"regexp"
	"sort"
	"strings"

	"github.com/inmind-gr/office-radar/internal/model"
)

// WatchlistCompanies seeds extraction with companies known to be active in
// the Greek office market. The list is deliberately small: extraction must
// discover companies that are not on it.
var WatchlistCompanies = []string{
	"PwC", "KPMG", "Deloitte", "EY", "Lamda Development",
	"Dimand", "Prodea", "Noval Property",
}

// Cities lists known Greek cities and districts in both spellings. Verbatim
// matches against this list always count as locations.
var Cities = []string{
	"Athens", "Thessaloniki", "Patras", "Heraklion", "Piraeus", "Larissa",
	"Glyfada", "Marousi", "Chalandri", "Kifissia", "Kallithea",
	"Palaio Faliro", "Voula",
	"Αθήνα", "Θεσσαλονίκη", "Πάτρα", "Ηράκλειο", "Πειραιάς", "Λάρισα",
	"Γλυφάδα", "Μαρούσι", "Χαλάνδρι", "Κηφισιά", "Καλλιθέα",
	"Παλαιό Φάληρο", "Βούλα",
}

// ProjectTypeRule is one entry of the ordered classification decision list.
type ProjectTypeRule struct {
	Type  model.ProjectType
	Terms []string
}

// Resource bundles every language-specific table the extractor and scorer
// need. Components dispatch on language by table lookup, never by branching
// on the language tag themselves.
type Resource struct {
	// CorporateSuffixes are entity-type tokens that end a company name.
	CorporateSuffixes []string
	// SuffixPattern matches "<Name> <suffix>"; group 1 is the name part,
	// group 2 the suffix token.
	SuffixPattern *regexp.Regexp
	// VerbPattern matches a capitalized phrase before a business-action verb;
	// group 1 is the phrase.
	VerbPattern *regexp.Regexp
	// QuotePattern matches a quoted name followed by an article and a
	// descriptor noun; group 1 is the quoted name.
	QuotePattern *regexp.Regexp
	// LocationPatterns each capture a place name in group 1.
	LocationPatterns []*regexp.Regexp
	// ProjectTypes is the ordered decision list; first match wins.
	ProjectTypes []ProjectTypeRule
	// StopWords are filtered out before keyword-token scoring.
	StopWords map[string]struct{}
}

const (
	// Character classes shared by the company patterns. Greek covers the
	// base and polytonic blocks so accented names match.
	latinOrGreekStart = `[A-Za-z\x{0370}-\x{03FF}\x{1F00}-\x{1FFF}]`
	nameBody          = `[\w&\-'’ \x{0370}-\x{03FF}\x{1F00}-\x{1FFF}]{2,50}?`
	greekUpper        = `[Α-ΩΆΈΉΊΌΎΏΪΫ]`
	greekLower        = `[α-ωάέήίόύώϊϋΐΰς]`
	// RE2 \b is ASCII-only, so Greek patterns end on an explicit boundary.
	hardBoundary = `(?:$|[\s.,;:!·»)\]])`
)

var englishResource = buildResource(
	[]string{
		"Inc", "LLC", "Ltd", "Limited", "Corp", "Corporation", "Co", "Company",
		"Group", "Holdings", "Enterprises", "Ventures", "Capital", "Partners",
		"Properties", "Real Estate", "Development", "Investments",
	},
	`([A-Z]`+nameBody+`)\s(?:announced|reported|unveiled|launched|introduced|acquired|purchased|bought|leased|moved|relocated)\b`,
	`(?i)["“]([^"”]{3,60}?)["”][\s,.]+(?:a|an|the)\s+(?:leading|global|company|firm|developer|investor)`,
	[]string{
		`(?:in|at|near|to|from)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?),?\s+(?:Greece|Hellas)`,
		`(?:relocating|moved|moving)\s+(?:to|into|in)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`,
		`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\s+(?:district|area|suburb|region|business\s+center)`,
		`new\s+(?:office|headquarters|building)\s+(?:in|at)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`,
	},
	[]ProjectTypeRule{
		{model.ProjectTypeNewOffice, []string{"new office", "new building", "new headquarters", "new hq"}},
		{model.ProjectTypeRelocation, []string{"relocation", "relocating", "moving to", "moved to"}},
		{model.ProjectTypeExpansion, []string{"expansion", "expanding", "additional space", "growing"}},
		{model.ProjectTypeRenovation, []string{"renovation", "refurbishment", "remodeling", "upgrading"}},
		{model.ProjectTypeLeasing, []string{"lease", "leasing", "leased", "rental", "renting"}},
		{model.ProjectTypeAcquisition, []string{"purchase", "acquisition", "acquired", "bought", "buying"}},
	},
	[]string{
		"a", "an", "the", "and", "or", "but", "of", "to", "in", "on", "at",
		"for", "with", "by", "from", "as", "is", "are", "was", "were", "be",
		"been", "has", "have", "had", "will", "would", "its", "it", "this",
		"that", "these", "those", "their", "there", "not",
	},
)

var greekResource = buildResource(
	[]string{
		"ΑΕ", "Α.Ε.", "Α.Ε", "ΕΠΕ", "Ε.Π.Ε.", "Ε.Π.Ε", "ΟΕ", "Ο.Ε.", "ΙΚΕ", "Ι.Κ.Ε.",
		"ΑΕΒΕ", "Α.Ε.Β.Ε.", "ΑΒΕΕ", "Α.Β.Ε.Ε.", "ΑΞΤΕ", "Α.Ξ.Τ.Ε.",
		"Όμιλος", "Εταιρεία", "Εταιρεια", "Ανάπτυξη", "Αναπτυξη", "Ακίνητα", "Ακινητα",
		"Επενδύσεις", "Επενδυσεις", "Κατασκευαστική", "Κατασκευαστικη",
	},
	`(`+greekUpper+nameBody+`)\s(?:ανακοίνωσε|παρουσίασε|απέκτησε|αγόρασε|μίσθωσε|μετεγκαταστάθηκε)`+hardBoundary,
	`(?i)[«"“]([^"»”]{3,60}?)[»"”][\s,.]+(?:η|ο|το)\s+(?:εταιρεία|εταιρία|όμιλος|επενδυτής|κατασκευαστική)`,
	[]string{
		`(?:στ(?:ην|ον|ο|α)|κοντά\s+στ(?:ην|ον|ο|α))\s+(` + greekUpper + greekLower + `+(?:\s+` + greekUpper + greekLower + `+)?)`,
		`(?:μετεγκατάσταση|μετακόμιση)\s+στ(?:ην|ον|ο|α)\s+(` + greekUpper + greekLower + `+(?:\s+` + greekUpper + greekLower + `+)?)`,
		`(` + greekUpper + greekLower + `+(?:\s+` + greekUpper + greekLower + `+)?)\s+(?:περιοχή|συνοικία|προάστιο)`,
	},
	[]ProjectTypeRule{
		{model.ProjectTypeNewOffice, []string{"νέο γραφείο", "νέα γραφεία", "νέο κτίριο", "νέα έδρα"}},
		{model.ProjectTypeRelocation, []string{"μετεγκατάσταση", "μετακόμιση", "μεταφορά γραφείων"}},
		{model.ProjectTypeExpansion, []string{"επέκταση", "επέκταση γραφείων", "επιπλέον χώρος"}},
		{model.ProjectTypeRenovation, []string{"ανακαίνιση", "ανακαίνιση γραφείων", "αναβάθμιση"}},
		{model.ProjectTypeLeasing, []string{"μίσθωση", "ενοικίαση", "μισθώνει", "ενοικιάζει"}},
		{model.ProjectTypeAcquisition, []string{"αγορά", "εξαγορά", "απόκτηση", "αγοράζει"}},
	},
	[]string{
		"ο", "η", "το", "οι", "τα", "του", "της", "των", "τον", "την", "και",
		"κι", "κ", "με", "σε", "από", "για", "προς", "παρά", "αντί", "μέχρι",
		"ως", "πως", "ότι", "είναι", "ήταν", "θα", "να", "δεν", "μη", "μην",
	},
)

// Resources returns the table for the given language, falling back to
// English for anything unrecognized.
func Resources(l model.Language) *Resource {
	if l == model.LanguageGreek {
		return greekResource
	}
	return englishResource
}

// OfficeKeywords is the combined English+Greek keyword list used by the
// relevance scorer. Matching is done on lower-cased text.
func OfficeKeywords() []string {
	return officeKeywords
}

var officeKeywords = []string{
	// English
	"office", "offices", "headquarters", "hq", "workplace", "workspace",
	"commercial", "lease", "leasing", "relocation", "relocate",
	"development", "real estate", "property", "business park", "campus",
	"tenant", "renovation", "expansion",
	// Greek
	"γραφεία", "γραφείο", "γραφείων", "έδρα", "ακίνητα", "ακίνητο",
	"μίσθωση", "ενοικίαση", "μετεγκατάσταση", "ανάπτυξη", "επαγγελματικά",
	"κτίριο", "επένδυση",
}

func buildResource(suffixes []string, verbPattern, quotePattern string, locationPatterns []string, projectTypes []ProjectTypeRule, stopWords []string) *Resource {
	// Longest suffix first so "Α.Ε." wins over "Α.Ε".
	sorted := make([]string, len(suffixes))
	copy(sorted, suffixes)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, s := range sorted {
		quoted[i] = regexp.QuoteMeta(s)
	}

	suffixExpr := `(` + latinOrGreekStart + nameBody + `)\s(` + strings.Join(quoted, "|") + `)` + hardBoundary

	locs := make([]*regexp.Regexp, len(locationPatterns))
	for i, p := range locationPatterns {
		locs[i] = regexp.MustCompile(p)
	}

	stops := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stops[w] = struct{}{}
	}

	return &Resource{
		CorporateSuffixes: suffixes,
		SuffixPattern:     regexp.MustCompile(suffixExpr),
		VerbPattern:       regexp.MustCompile(verbPattern),
		QuotePattern:      regexp.MustCompile(quotePattern),
		LocationPatterns:  locs,
		ProjectTypes:      projectTypes,
		StopWords:         stops,
	}
}
