package model

// ExtractionStatus tells a reviewer how much trust to put in a record.
type ExtractionStatus string

const (
	// StatusParsed means every core field came out of the page.
	StatusParsed ExtractionStatus = "parsed"
	// StatusPartial means the name parsed but birth year or place did not.
	StatusPartial ExtractionStatus = "partial"
	// StatusFallback means the page looked like it had results that the
	// parser could not read; the record only points at the search URL.
	StatusFallback ExtractionStatus = "fallback"
)

// Sentinel names carried by fallback records.
const (
	FallbackParseFailed = "PARSE_FAILED"
	FallbackParseError  = "PARSE_ERROR"
)

// CandidateRecord is one person-shaped result extracted from a source.
// URL is always populated; when a site exposes no per-record page it holds
// the search URL instead.
type CandidateRecord struct {
	Name       string                 `json:"name"`
	BirthYear  *int                   `json:"birth_year,omitempty"`
	DeathYear  *int                   `json:"death_year,omitempty"`
	BirthPlace string                 `json:"birth_place,omitempty"`
	DeathPlace string                 `json:"death_place,omitempty"`
	Source     string                 `json:"source"`
	URL        string                 `json:"url"`
	Status     ExtractionStatus       `json:"status"`
	Snippet    string                 `json:"snippet,omitempty"`
	Raw        map[string]interface{} `json:"raw,omitempty"`
}

// IsFallback reports whether the record is a parse-failure placeholder.
func (r CandidateRecord) IsFallback() bool {
	return r.Status == StatusFallback
}

// Populated counts the filled core fields, used as a ranking tie-break.
func (r CandidateRecord) Populated() int {
	n := 0
	if r.Name != "" {
		n++
	}
	if r.BirthYear != nil {
		n++
	}
	if r.DeathYear != nil {
		n++
	}
	if r.BirthPlace != "" {
		n++
	}
	if r.DeathPlace != "" {
		n++
	}
	return n
}

// ScoreBreakdown shows where a match score came from.
type ScoreBreakdown struct {
	Name     int `json:"name"`
	Year     int `json:"year"`
	Location int `json:"location"`
}

// ScoredCandidate is a candidate record with its match score against a query.
type ScoredCandidate struct {
	CandidateRecord
	MatchScore int            `json:"match_score"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
}
