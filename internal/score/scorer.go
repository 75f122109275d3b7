// Package score rates candidate records against a search query on a 0-100
// scale: name up to 40 points, birth year up to 30, location up to 30.
package score

import (
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

const (
	nameExactPoints = 40
	nameFuzzyPoints = 20

	yearExactPoints = 30
	yearClosePoints = 25
	yearNearPoints  = 15
	yearFarPoints   = 5
	closeYearSpan   = 2
	nearYearSpan    = 5
	farYearSpan     = 10

	placeExactPoints   = 30
	placeCountryPoints = 15
)

// Scorer scores candidates deterministically against a query.
type Scorer struct {
	fallbackScore int
}

// NewScorer builds a scorer from the scoring configuration.
func NewScorer(cfg model.ScoringConfig) *Scorer {
	fallback := cfg.FallbackScore
	if fallback <= 0 {
		fallback = 50
	}
	return &Scorer{fallbackScore: fallback}
}

// Score rates a candidate against the query. Fallback records bypass the
// components and get the fixed needs-manual-look score.
func (s *Scorer) Score(rec model.CandidateRecord, q model.SearchQuery) model.ScoredCandidate {
	if rec.IsFallback() {
		return model.ScoredCandidate{CandidateRecord: rec, MatchScore: s.fallbackScore}
	}

	breakdown := model.ScoreBreakdown{
		Name:     nameScore(rec.Name, q.FullName()),
		Year:     yearScore(rec.BirthYear, q.BirthYear),
		Location: locationScore(rec.BirthPlace, q.Location),
	}
	return model.ScoredCandidate{
		CandidateRecord: rec,
		MatchScore:      breakdown.Name + breakdown.Year + breakdown.Location,
		Breakdown:       breakdown,
	}
}

// Compare rates candidate b as if candidate a were the query, on the same
// 0-100 scale. The clusterer uses it to decide whether two records from
// different sources describe the same person.
func (s *Scorer) Compare(a, b model.CandidateRecord) int {
	if a.IsFallback() || b.IsFallback() {
		return 0
	}
	return nameScore(b.Name, a.Name) + yearScore(b.BirthYear, a.BirthYear) + locationScore(b.BirthPlace, a.BirthPlace)
}

// Less ranks scored candidates: higher score first, then more populated
// fields, then name for stability.
func Less(a, b model.ScoredCandidate) bool {
	if a.MatchScore != b.MatchScore {
		return a.MatchScore > b.MatchScore
	}
	if pa, pb := a.Populated(), b.Populated(); pa != pb {
		return pa > pb
	}
	return a.Name < b.Name
}

// nameScore gives full points when the candidate name contains every query
// token, fuzzy points when the folded full names are within edit distance
// tolerance, zero otherwise.
func nameScore(candidate, query string) int {
	candTokens := normalize.Tokens(candidate)
	queryTokens := normalize.Tokens(query)
	if len(candTokens) == 0 || len(queryTokens) == 0 {
		return 0
	}

	have := make(map[string]bool, len(candTokens))
	for _, t := range candTokens {
		have[t] = true
	}
	all := true
	for _, t := range queryTokens {
		if !have[t] {
			all = false
			break
		}
	}
	if all {
		return nameExactPoints
	}

	if fuzzyEqual(normalize.Key(candidate), normalize.Key(query)) {
		return nameFuzzyPoints
	}
	return 0
}

// fuzzyEqual allows up to 2 edits for names up to 12 characters and scales
// the allowance with length beyond that.
func fuzzyEqual(a, b string) bool {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return false
	}
	allowed := 2
	if longest > 12 {
		allowed = longest / 6
	}
	return levenshtein(a, b) <= allowed
}

func yearScore(candidate, query *int) int {
	if candidate == nil || query == nil {
		return 0
	}
	diff := *candidate - *query
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return yearExactPoints
	case diff <= closeYearSpan:
		return yearClosePoints
	case diff <= nearYearSpan:
		return yearNearPoints
	case diff <= farYearSpan:
		return yearFarPoints
	}
	return 0
}

// locationScore compares place hierarchies, most specific segment first.
// Matching the most specific level earns full points; matching only the
// country (last segment) earns half.
func locationScore(candidate, query string) int {
	candParts := normalize.PlaceParts(candidate)
	queryParts := normalize.PlaceParts(query)
	if len(candParts) == 0 || len(queryParts) == 0 {
		return 0
	}

	if foldEqual(candParts[0], queryParts[0]) {
		return placeExactPoints
	}
	if foldEqual(candParts[len(candParts)-1], queryParts[len(queryParts)-1]) {
		return placeCountryPoints
	}
	return 0
}

func foldEqual(a, b string) bool {
	return normalize.Key(a) == normalize.Key(b)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
