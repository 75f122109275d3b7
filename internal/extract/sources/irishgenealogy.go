package sources

import (
	"fmt"

	"github.com/pmilanese/kinseek/internal/model"
)

// IrishGenealogy parses civil record search results from irishgenealogy.ie.
type IrishGenealogy struct {
	civilIndex
}

func NewIrishGenealogy() *IrishGenealogy {
	return &IrishGenealogy{civilIndex{
		source:        "irishgenealogy",
		base:          "https://civilrecords.irishgenealogy.ie",
		placeKeywords: []string{"County", "Co.", "Parish", "Dublin", "Cork", "Galway"},
	}}
}

func (e *IrishGenealogy) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("https://www.irishgenealogy.ie/en/civil-records/search-civil-records?surname=%s&firstname=%s", esc(q.Surname), esc(q.GivenName))
	if from, to, ok := yearWindow(q, 5); ok {
		u += fmt.Sprintf("&yearfrom=%d&yearto=%d", from, to)
	}
	return u
}
