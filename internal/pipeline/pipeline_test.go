package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pmilanese/kinseek/internal/model"
)

func intp(v int) *int { return &v }

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	return cfg
}

// Two sources agree on a London Mary Johnson born 1870; a third offers a New
// York Mary Johnson born 1912. The first two should share a boosted cluster
// and the stray should stay alone with a low score.
func TestRunClustersAcrossSources(t *testing.T) {
	p := New(testConfig(), nil)
	q := model.SearchQuery{GivenName: "Mary", Surname: "Johnson", BirthYear: intp(1870), Location: "London, England"}

	pages := map[string]string{
		"findagrave": `<html><body>
			<div class="memorial-item">
				<a href="/memorial/12345">Mary Johnson</a>
				<h3>Mary Johnson</h3>
				<span>1870 - 1943</span>
				<span>Highgate Cemetery</span>
				<span>London, England</span>
			</div></body></html>`,
		"geneanet": `<html><body>
			<a class="ligne-resultat" href="/fonds/individus/123">
				<p class="text-large">Mary Johnson</p>
				<div class="content-periode"><p><span>Birth</span> <span class="text-large">1871</span></p></div>
				<div class="content-lieu"><span class="title-lieu">London, England</span></div>
			</a></body></html>`,
		"wikitree": `[{"total":1,"matches":[{"Id":1,"Name":"Johnson-99","FirstName":"Mary","LastName":"Johnson","BirthDate":"1912-01-01","BirthLocation":"New York, United States"}]}]`,
	}

	fetch := func(ctx context.Context, source string, q model.SearchQuery) (string, error) {
		page, ok := pages[source]
		if !ok {
			return "", fmt.Errorf("no fixture for %s", source)
		}
		return page, nil
	}

	result, err := p.Run(context.Background(), q, []string{"findagrave", "geneanet", "wikitree"}, fetch)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(result.Clusters))
	}

	top := result.Clusters[0]
	if len(top.Members) != 2 {
		t.Errorf("expected London pair clustered, got %d members", len(top.Members))
	}
	if top.Confidence <= result.Clusters[1].Confidence {
		t.Errorf("corroborated cluster should lead: %d vs %d", top.Confidence, result.Clusters[1].Confidence)
	}
	if top.Representative.MatchScore != 100 {
		t.Errorf("expected exact match to score 100, got %d", top.Representative.MatchScore)
	}

	stray := result.Clusters[1]
	if stray.Representative.Source != "wikitree" {
		t.Errorf("expected wikitree stray, got %s", stray.Representative.Source)
	}
	// Name matches (40), year and location do not.
	if stray.Representative.MatchScore >= 70 {
		t.Errorf("stray scored too high: %d", stray.Representative.MatchScore)
	}
}

func TestRunIsolatesFailedSources(t *testing.T) {
	p := New(testConfig(), nil)
	q := model.SearchQuery{GivenName: "Mary", Surname: "Johnson"}

	fetch := func(ctx context.Context, source string, q model.SearchQuery) (string, error) {
		if source == "ancestry" {
			return "", errors.New("connection refused")
		}
		return "<html><body></body></html>", nil
	}

	result, err := p.Run(context.Background(), q, []string{"ancestry", "findagrave"}, fetch)
	if err != nil {
		t.Fatalf("a failing source must not abort the run: %v", err)
	}

	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
	}
	if result.Outcomes[0].Err == nil {
		t.Error("expected recorded error for ancestry")
	}
	if result.Outcomes[1].Err != nil {
		t.Errorf("findagrave should have succeeded: %v", result.Outcomes[1].Err)
	}
}

func TestRunFallbackOnUnparseableResults(t *testing.T) {
	p := New(testConfig(), nil)
	q := model.SearchQuery{GivenName: "Mary", Surname: "Johnson"}

	// The page claims results but carries none of the expected markup.
	fetch := func(ctx context.Context, source string, q model.SearchQuery) (string, error) {
		return "<html><body><p>127 results found</p><ul><li>opaque new layout</li></ul></body></html>", nil
	}

	result, err := p.Run(context.Background(), q, []string{"findagrave"}, fetch)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Candidates) != 1 {
		t.Fatalf("expected 1 fallback candidate, got %d", len(result.Candidates))
	}
	fb := result.Candidates[0]
	if fb.Status != model.StatusFallback {
		t.Errorf("expected fallback status, got %s", fb.Status)
	}
	if fb.Name != model.FallbackParseFailed {
		t.Errorf("expected sentinel name, got %q", fb.Name)
	}
	if fb.URL == "" {
		t.Error("fallback record must point at the search URL")
	}
	if fb.MatchScore != 50 {
		t.Errorf("expected fixed fallback score 50, got %d", fb.MatchScore)
	}
	if !result.Outcomes[0].Fallback {
		t.Error("outcome should flag the fallback")
	}
}

func TestRunRejectsEmptyQuery(t *testing.T) {
	p := New(testConfig(), nil)
	_, err := p.Run(context.Background(), model.SearchQuery{}, nil, nil)
	if !errors.Is(err, model.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	p := New(testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, model.SearchQuery{Surname: "Johnson"}, []string{"findagrave"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunUsesCache(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = t.TempDir()
	p := New(cfg, nil)

	q := model.SearchQuery{GivenName: "Mary", Surname: "Johnson"}
	calls := 0
	fetch := func(ctx context.Context, source string, q model.SearchQuery) (string, error) {
		calls++
		return `<html><body><div class="memorial-item"><a href="/memorial/1">Mary Johnson</a><h3>Mary Johnson</h3></div></body></html>`, nil
	}

	if _, err := p.Run(context.Background(), q, []string{"findagrave"}, fetch); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := p.Run(context.Background(), q, []string{"findagrave"}, fetch)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected a single fetch, got %d", calls)
	}
	if !result.Outcomes[0].Cached {
		t.Error("second run should report a cache hit")
	}
}
