package sources

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

// WikiTree queries the WikiTree API, which answers with a JSON array whose
// first element carries the matches.
type WikiTree struct {
	extract.Base
}

func NewWikiTree() *WikiTree { return &WikiTree{} }

func (e *WikiTree) Name() string { return "wikitree" }

func (e *WikiTree) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("https://api.wikitree.com/api.php?action=searchPerson&format=json&appId=kinseek&FirstName=%s&LastName=%s&limit=%d",
		esc(q.GivenName), esc(q.Surname), extract.MaxRecords)
	if q.BirthYear != nil {
		u += fmt.Sprintf("&BirthDate=%d", *q.BirthYear)
	}
	return u
}

type wikiTreeResponse struct {
	Total   int `json:"total"`
	Matches []struct {
		ID            json.Number `json:"Id"`
		Name          string      `json:"Name"`
		FirstName     string      `json:"FirstName"`
		LastName      string      `json:"LastName"`
		BirthDate     string      `json:"BirthDate"`
		DeathDate     string      `json:"DeathDate"`
		BirthLocation string      `json:"BirthLocation"`
	} `json:"matches"`
}

func (e *WikiTree) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	var payload []wikiTreeResponse
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("wikitree response: %w", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}

	var records []model.CandidateRecord
	for _, m := range payload[0].Matches {
		last := m.LastName
		// Profile names look like "Smith-269952"; recover the surname
		// when the explicit field is empty.
		if last == "" {
			last, _, _ = strings.Cut(m.Name, "-")
		}
		name := normalize.Name(strings.TrimSpace(m.FirstName + " " + last))
		if name == "" {
			continue
		}

		rec := model.CandidateRecord{
			Name:       name,
			Source:     e.Name(),
			BirthPlace: normalize.Place(m.BirthLocation),
		}
		if y, ok := normalize.Year(m.BirthDate); ok {
			rec.BirthYear = intp(y)
		}
		if y, ok := normalize.Year(m.DeathDate); ok {
			rec.DeathYear = intp(y)
		}
		if m.Name != "" {
			rec.URL = "https://www.wikitree.com/wiki/" + m.Name
		}
		rec.Raw = map[string]interface{}{"wiki_id": m.ID.String()}

		records = append(records, rec)
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}
