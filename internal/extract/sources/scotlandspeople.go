package sources

import (
	"fmt"

	"github.com/pmilanese/kinseek/internal/model"
)

// ScotlandsPeople parses record index results from scotlandspeople.gov.uk.
// Full records are paywalled but the index is searchable.
type ScotlandsPeople struct {
	civilIndex
}

func NewScotlandsPeople() *ScotlandsPeople {
	return &ScotlandsPeople{civilIndex{
		source:        "scotlandspeople",
		base:          "https://www.scotlandspeople.gov.uk",
		placeKeywords: []string{"Edinburgh", "Glasgow", "Aberdeen", "Dundee", "Parish"},
	}}
}

func (e *ScotlandsPeople) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("https://www.scotlandspeople.gov.uk/record-results?surname=%s&forename=%s", esc(q.Surname), esc(q.GivenName))
	if from, to, ok := yearWindow(q, 5); ok {
		u += fmt.Sprintf("&from_year=%d&to_year=%d", from, to)
	}
	return u
}
