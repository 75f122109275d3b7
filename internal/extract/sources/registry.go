// Package sources implements record extractors for the supported genealogy
// sites. Each extractor knows the site's search URL shape and its result
// markup; the shared HTML walking lives in the extract package.
package sources

import (
	"net/url"
	"strings"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
)

// All returns one instance of every supported extractor.
func All() []extract.Extractor {
	return []extract.Extractor{
		NewFindAGrave(),
		NewGeneanet(),
		NewAntenati(),
		NewFamilySearch(),
		NewWikiTree(),
		NewAncestry(),
		NewMyHeritage(),
		NewFilae(),
		NewGeni(),
		NewFreeBMD(),
		NewMatchID(),
		NewBillionGraves(),
		NewDigitalarkivet(),
		NewIrishGenealogy(),
		NewScotlandsPeople(),
		NewANOM(),
	}
}

// NewRegistry returns a registry with every supported site registered.
func NewRegistry() *extract.Registry {
	r := extract.NewRegistry()
	for _, e := range All() {
		r.Register(e)
	}
	return r
}

func esc(s string) string {
	return url.QueryEscape(strings.TrimSpace(s))
}

// plusJoined escapes the name parts and joins them with '+', the shape several
// sites use for free-text name parameters.
func plusJoined(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, url.QueryEscape(p))
		}
	}
	return strings.Join(kept, "+")
}

// yearWindow returns the birth-year range [year-span, year+span].
func yearWindow(q model.SearchQuery, span int) (int, int, bool) {
	if q.BirthYear == nil {
		return 0, 0, false
	}
	return *q.BirthYear - span, *q.BirthYear + span, true
}

func intp(v int) *int {
	return &v
}
