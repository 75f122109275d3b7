package extract

import (
	"sort"

	"github.com/pmilanese/kinseek/internal/model"
)

// MaxRecords caps how many candidates a single Extract call may return.
const MaxRecords = 20

// Extractor defines the interface for site-specific record extractors.
type Extractor interface {
	// Name returns the source identifier, e.g. "findagrave".
	Name() string

	// SearchURL builds the site's search URL for the query.
	SearchURL(q model.SearchQuery) string

	// Extract parses candidate records out of fetched page content.
	Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error)
}

// Registry manages the known extractors, keyed by source name.
type Registry struct {
	byName map[string]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Extractor)}
}

// Register adds an extractor, replacing any previous one with the same name.
func (r *Registry) Register(e Extractor) {
	r.byName[e.Name()] = e
}

// Get looks up an extractor by source name.
func (r *Registry) Get(name string) (Extractor, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Names returns the registered source names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
