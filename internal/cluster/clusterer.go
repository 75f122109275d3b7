// Package cluster groups scored candidates from different sources into
// per-person clusters.
package cluster

import (
	"sort"

	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/score"
)

// Clusterer agglomerates candidates greedily: each one joins the first
// cluster whose representative it matches at or above the merge threshold,
// otherwise it founds a new cluster. Fallback records never merge.
type Clusterer struct {
	scorer         *score.Scorer
	mergeThreshold int
	sourceBoost    int
	clusters       []*model.PersonCluster
}

// New builds a clusterer. Zero-valued config falls back to threshold 70 and
// boost 15.
func New(scorer *score.Scorer, cfg model.ScoringConfig) *Clusterer {
	threshold := cfg.MergeThreshold
	if threshold <= 0 {
		threshold = 70
	}
	boost := cfg.SourceBoost
	if boost <= 0 {
		boost = 15
	}
	return &Clusterer{scorer: scorer, mergeThreshold: threshold, sourceBoost: boost}
}

// Add places a scored candidate into a cluster.
func (c *Clusterer) Add(sc model.ScoredCandidate) {
	if !sc.IsFallback() {
		for _, cl := range c.clusters {
			if cl.Representative.IsFallback() {
				continue
			}
			if c.scorer.Compare(cl.Representative.CandidateRecord, sc.CandidateRecord) >= c.mergeThreshold {
				cl.Members = append(cl.Members, sc)
				c.refresh(cl)
				c.compact()
				return
			}
		}
	}

	cl := &model.PersonCluster{Members: []model.ScoredCandidate{sc}}
	c.refresh(cl)
	c.clusters = append(c.clusters, cl)
}

// Clusters returns the current clusters, best first: confidence descending,
// then representative score.
func (c *Clusterer) Clusters() []model.PersonCluster {
	out := make([]model.PersonCluster, len(c.clusters))
	for i, cl := range c.clusters {
		out[i] = *cl
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return score.Less(out[i].Representative, out[j].Representative)
	})
	return out
}

// compact re-merges clusters until no pair of representatives meets the
// threshold. A new member can upgrade its cluster's representative, and the
// upgraded representative may match a cluster that the old one did not, so
// re-clustering the representatives must not change the cluster count.
func (c *Clusterer) compact() {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(c.clusters) && !merged; i++ {
			if c.clusters[i].Representative.IsFallback() {
				continue
			}
			for j := i + 1; j < len(c.clusters); j++ {
				if c.clusters[j].Representative.IsFallback() {
					continue
				}
				if c.scorer.Compare(c.clusters[i].Representative.CandidateRecord, c.clusters[j].Representative.CandidateRecord) < c.mergeThreshold {
					continue
				}
				c.clusters[i].Members = append(c.clusters[i].Members, c.clusters[j].Members...)
				c.clusters = append(c.clusters[:j], c.clusters[j+1:]...)
				c.refresh(c.clusters[i])
				merged = true
				break
			}
		}
	}
}

// refresh recomputes the representative and confidence. Confidence starts at
// the best member score and gains the boost per additional distinct source,
// capped at 100, so corroboration never lowers it.
func (c *Clusterer) refresh(cl *model.PersonCluster) {
	best := cl.Members[0]
	for _, m := range cl.Members[1:] {
		if score.Less(m, best) {
			best = m
		}
	}
	cl.Representative = best

	confidence := best.MatchScore + c.sourceBoost*(len(cl.Sources())-1)
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}
	cl.Confidence = confidence
}
