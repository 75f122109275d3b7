package cluster

import (
	"testing"

	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/score"
)

func intp(v int) *int { return &v }

func newClusterer() *Clusterer {
	cfg := model.ScoringConfig{FallbackScore: 50, MergeThreshold: 70, SourceBoost: 15}
	return New(score.NewScorer(cfg), cfg)
}

func candidate(source string, scoreVal int, name string, year int, place string) model.ScoredCandidate {
	return model.ScoredCandidate{
		CandidateRecord: model.CandidateRecord{
			Name:       name,
			BirthYear:  intp(year),
			BirthPlace: place,
			Source:     source,
			Status:     model.StatusParsed,
		},
		MatchScore: scoreVal,
	}
}

func TestMergeAcrossSources(t *testing.T) {
	c := newClusterer()
	c.Add(candidate("findagrave", 95, "Mary Johnson", 1870, "London, England"))
	c.Add(candidate("geneanet", 90, "Mary Johnson", 1871, "London"))

	clusters := c.Clusters()
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if len(clusters[0].Members) != 2 {
		t.Errorf("expected 2 members, got %d", len(clusters[0].Members))
	}
}

func TestCorroborationBoost(t *testing.T) {
	c := newClusterer()
	c.Add(candidate("findagrave", 80, "Mary Johnson", 1870, "London, England"))
	c.Add(candidate("geneanet", 75, "Mary Johnson", 1870, "London, England"))

	clusters := c.Clusters()
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	// Best member 80, one extra source adds 15.
	if clusters[0].Confidence != 95 {
		t.Errorf("expected confidence 95, got %d", clusters[0].Confidence)
	}
}

func TestConfidenceCapped(t *testing.T) {
	c := newClusterer()
	c.Add(candidate("findagrave", 95, "Mary Johnson", 1870, "London, England"))
	c.Add(candidate("geneanet", 95, "Mary Johnson", 1870, "London, England"))
	c.Add(candidate("wikitree", 95, "Mary Johnson", 1870, "London, England"))

	if got := c.Clusters()[0].Confidence; got != 100 {
		t.Errorf("expected cap at 100, got %d", got)
	}
}

func TestCorroborationNeverLowers(t *testing.T) {
	c := newClusterer()
	c.Add(candidate("findagrave", 90, "Mary Johnson", 1870, "London, England"))
	before := c.Clusters()[0].Confidence
	c.Add(candidate("geneanet", 72, "Mary Johnson", 1871, "London"))
	after := c.Clusters()[0].Confidence
	if after < before {
		t.Errorf("confidence dropped from %d to %d after corroboration", before, after)
	}
}

func TestSameSourceNoBoost(t *testing.T) {
	c := newClusterer()
	c.Add(candidate("findagrave", 80, "Mary Johnson", 1870, "London, England"))
	c.Add(candidate("findagrave", 78, "Mary Johnson", 1870, "London, England"))

	clusters := c.Clusters()
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Confidence != 80 {
		t.Errorf("expected confidence 80 without a second source, got %d", clusters[0].Confidence)
	}
}

func TestDistinctPeopleStaySeparate(t *testing.T) {
	c := newClusterer()
	c.Add(candidate("findagrave", 95, "Mary Johnson", 1870, "London, England"))
	c.Add(candidate("geneanet", 40, "Mary Johnson", 1912, "New York, USA"))

	clusters := c.Clusters()
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].Confidence < clusters[1].Confidence {
		t.Error("clusters not sorted by confidence")
	}
}

func TestRepresentativeUpgradeRemerges(t *testing.T) {
	c := newClusterer()
	// The third candidate outscores the first and becomes representative,
	// close enough to the second cluster to pull it in.
	c.Add(candidate("findagrave", 80, "Mary Johnson", 1870, "London, England"))
	c.Add(candidate("geneanet", 60, "Mary Johnson", 1880, "York, England"))
	c.Add(candidate("wikitree", 90, "Mary Johnson", 1875, "London, England"))

	clusters := c.Clusters()
	if len(clusters) != 1 {
		t.Fatalf("expected upgraded representative to pull the clusters together, got %d", len(clusters))
	}
	if len(clusters[0].Members) != 3 {
		t.Errorf("expected 3 members, got %d", len(clusters[0].Members))
	}
}

func TestReclusteringRepresentativesIsStable(t *testing.T) {
	c := newClusterer()
	c.Add(candidate("findagrave", 80, "Mary Johnson", 1870, "London, England"))
	c.Add(candidate("geneanet", 60, "Mary Johnson", 1880, "York, England"))
	c.Add(candidate("wikitree", 90, "Mary Johnson", 1875, "London, England"))
	c.Add(candidate("freebmd", 70, "Jane Smith", 1912, "New York, USA"))
	first := c.Clusters()

	again := newClusterer()
	for _, cl := range first {
		again.Add(cl.Representative)
	}
	if got := len(again.Clusters()); got != len(first) {
		t.Errorf("re-clustering representatives changed cluster count: %d -> %d", len(first), got)
	}
}

func TestFallbackStaysSingleton(t *testing.T) {
	c := newClusterer()
	fallback := model.ScoredCandidate{
		CandidateRecord: model.CandidateRecord{
			Name:   model.FallbackParseFailed,
			Source: "ancestry",
			Status: model.StatusFallback,
		},
		MatchScore: 50,
	}
	c.Add(fallback)
	c.Add(fallback)
	c.Add(candidate("findagrave", 95, "Mary Johnson", 1870, "London, England"))

	if got := len(c.Clusters()); got != 3 {
		t.Errorf("expected 3 clusters (two fallback singletons), got %d", got)
	}
}
