// Package pipeline orchestrates a person search: fetch each source's results,
// extract candidates with fallback, score them, and cluster across sources.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pmilanese/kinseek/internal/cache"
	"github.com/pmilanese/kinseek/internal/cluster"
	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/extract/sources"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/score"
)

// FetchFunc retrieves the raw search page for a source and query.
type FetchFunc func(ctx context.Context, source string, q model.SearchQuery) (string, error)

// Outcome reports what happened for one source during a run.
type Outcome struct {
	Source   string        `json:"source"`
	Records  int           `json:"records"`
	Fallback bool          `json:"fallback"`
	Cached   bool          `json:"cached"`
	Err      error         `json:"-"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Result is the outcome of one person search across sources.
type Result struct {
	Query      model.SearchQuery       `json:"query"`
	Clusters   []model.PersonCluster   `json:"clusters"`
	Candidates []model.ScoredCandidate `json:"candidates"`
	Outcomes   []Outcome               `json:"outcomes"`
}

// Pipeline wires the extractors, scorer and clusterer together.
type Pipeline struct {
	registry *extract.Registry
	scorer   *score.Scorer
	cache    cache.Cache
	config   *model.Config
	observer extract.Observer
}

// New creates a pipeline. The observer may be nil.
func New(cfg *model.Config, obs extract.Observer) *Pipeline {
	return &Pipeline{
		registry: sources.NewRegistry(),
		scorer:   score.NewScorer(cfg.Scoring),
		cache:    cache.FromConfig(cfg.Cache),
		config:   cfg,
		observer: obs,
	}
}

// Registry exposes the source registry, for source listing and fetching.
func (p *Pipeline) Registry() *extract.Registry {
	return p.registry
}

// Run searches the given sources for the query. A failing source is recorded
// in its Outcome and never aborts the others; only query validation and
// context cancellation stop a run.
func (p *Pipeline) Run(ctx context.Context, q model.SearchQuery, sourceNames []string, fetch FetchFunc) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if len(sourceNames) == 0 {
		sourceNames = p.registry.Names()
	}

	clusterer := cluster.New(p.scorer, p.config.Scoring)
	result := &Result{Query: q}

	for _, name := range sourceNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome := p.searchSource(ctx, name, q, fetch, clusterer, result)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.Clusters = clusterer.Clusters()
	return result, nil
}

func (p *Pipeline) searchSource(ctx context.Context, name string, q model.SearchQuery, fetch FetchFunc, clusterer *cluster.Clusterer, result *Result) Outcome {
	start := time.Now()
	outcome := Outcome{Source: name}

	ex, ok := p.registry.Get(name)
	if !ok {
		outcome.Err = fmt.Errorf("unknown source %q", name)
		outcome.Elapsed = time.Since(start)
		return outcome
	}

	sq := q
	sq.Source = name

	content, cached, err := p.content(ctx, name, sq, fetch)
	if err != nil {
		p.note(name, "fetch failed: "+err.Error())
		outcome.Err = err
		outcome.Elapsed = time.Since(start)
		return outcome
	}
	outcome.Cached = cached

	records := extract.WithFallback(ex, content, sq, p.observer)
	for _, rec := range records {
		if rec.IsFallback() {
			outcome.Fallback = true
		}
		sc := p.scorer.Score(rec, sq)
		result.Candidates = append(result.Candidates, sc)
		clusterer.Add(sc)
	}

	outcome.Records = len(records)
	outcome.Elapsed = time.Since(start)
	return outcome
}

// content consults the cache before fetching, and stores fresh pages.
func (p *Pipeline) content(ctx context.Context, name string, q model.SearchQuery, fetch FetchFunc) (string, bool, error) {
	key := ""
	if p.cache != nil {
		key = cache.Key(name, q)
		if data, found := p.cache.Get(key); found {
			return string(data), true, nil
		}
	}

	content, err := fetch(ctx, name, q)
	if err != nil {
		return "", false, err
	}

	if p.cache != nil && content != "" {
		if err := p.cache.Set(key, []byte(content), 0); err != nil {
			p.note(name, "cache write failed: "+err.Error())
		}
	}
	return content, false, nil
}

func (p *Pipeline) note(source, message string) {
	if p.observer != nil {
		p.observer(source, message)
	}
}
