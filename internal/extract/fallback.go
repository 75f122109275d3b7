package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pmilanese/kinseek/internal/model"
)

// Observer receives per-source diagnostic notes during extraction.
type Observer func(source, message string)

const snippetLimit = 500

// resultsIndicators match phrasing that means "this page has results" across
// the supported sites and their languages. A page that matches one of these
// while the parser found nothing points at a parser gap, not an empty search.
var resultsIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d+\s+results?\s+found\b`),
	regexp.MustCompile(`(?i)\b\d+\s+(?:search\s+)?results?\b`),
	regexp.MustCompile(`(?i)\b\d+\s+records?\b`),
	regexp.MustCompile(`(?i)\b\d+\s+matching\b`),
	regexp.MustCompile(`(?i)\b\d+\s+risultati\b`),
	regexp.MustCompile(`(?i)\b\d+\s+r[ée]sultats?\b`),
	regexp.MustCompile(`(?i)\b\d+\s+treff\b`),
	regexp.MustCompile(`(?i)\bsearch\s+results\b`),
}

// HasResultsIndicator reports whether the page claims to have results.
func HasResultsIndicator(content string) bool {
	for _, re := range resultsIndicators {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// WithFallback runs the extractor and guarantees the caller never silently
// loses a page that had results. A parse error or a zero-record parse of a
// page with a results indicator yields a single fallback record pointing at
// the search URL, so a human can follow up.
func WithFallback(ex Extractor, content string, q model.SearchQuery, obs Observer) []model.CandidateRecord {
	records, err := ex.Extract(content, q)
	if err != nil {
		notify(obs, ex.Name(), "parse error: "+err.Error())
		return []model.CandidateRecord{fallbackRecord(ex, content, q, model.FallbackParseError)}
	}

	if len(records) == 0 {
		if HasResultsIndicator(content) {
			notify(obs, ex.Name(), "page has results but parser found none")
			return []model.CandidateRecord{fallbackRecord(ex, content, q, model.FallbackParseFailed)}
		}
		notify(obs, ex.Name(), "no results")
		return nil
	}

	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}

	for i := range records {
		finishRecord(&records[i], ex, q)
	}
	return records
}

// finishRecord fills the fields every record must carry regardless of how
// much the site parser managed to read.
func finishRecord(r *model.CandidateRecord, ex Extractor, q model.SearchQuery) {
	if r.Source == "" {
		r.Source = ex.Name()
	}
	if r.URL == "" {
		r.URL = ex.SearchURL(q)
	}
	if r.Status == "" {
		if r.BirthYear == nil || r.BirthPlace == "" {
			r.Status = model.StatusPartial
		} else {
			r.Status = model.StatusParsed
		}
	}
}

func fallbackRecord(ex Extractor, content string, q model.SearchQuery, sentinel string) model.CandidateRecord {
	return model.CandidateRecord{
		Name:    sentinel,
		Source:  ex.Name(),
		URL:     ex.SearchURL(q),
		Status:  model.StatusFallback,
		Snippet: snippet(content),
	}
}

// snippet trims the page to the limit, backing up to a rune boundary so the
// cut never leaves a broken UTF-8 sequence at the end.
func snippet(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= snippetLimit {
		return content
	}
	cut := snippetLimit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

func notify(obs Observer, source, message string) {
	if obs != nil {
		obs(source, message)
	}
}
