package model

// PersonCluster groups candidates from different sources that likely describe
// the same person. Representative is the highest-scoring member.
type PersonCluster struct {
	Members        []ScoredCandidate `json:"members"`
	Representative ScoredCandidate   `json:"representative"`
	Confidence     int               `json:"confidence"`
}

// Sources lists the distinct source names in member order.
func (c PersonCluster) Sources() []string {
	seen := make(map[string]bool, len(c.Members))
	var out []string
	for _, m := range c.Members {
		if !seen[m.Source] {
			seen[m.Source] = true
			out = append(out, m.Source)
		}
	}
	return out
}
