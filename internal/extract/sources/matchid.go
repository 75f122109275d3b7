package sources

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

const matchIDBase = "https://deces.matchid.io/deces/api/v1"

// MatchID queries the French civil death records API at deces.matchid.io.
// The free-text q parameter is more forgiving than the structured date
// filters, so the query fields are folded into it.
type MatchID struct {
	extract.Base
}

func NewMatchID() *MatchID { return &MatchID{} }

func (e *MatchID) Name() string { return "matchid" }

func (e *MatchID) SearchURL(q model.SearchQuery) string {
	parts := []string{q.Surname, q.GivenName}
	if q.Location != "" {
		parts = append(parts, q.Location)
	}
	if q.BirthYear != nil {
		parts = append(parts, strconv.Itoa(*q.BirthYear))
	}
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return fmt.Sprintf("%s/search?q=%s&size=%d", matchIDBase, esc(strings.Join(kept, " ")), extract.MaxRecords)
}

type matchIDResponse struct {
	Response struct {
		Persons []matchIDPerson `json:"persons"`
	} `json:"response"`
}

type matchIDPerson struct {
	ID   string `json:"id"`
	Name struct {
		First []string `json:"first"`
		Last  string   `json:"last"`
	} `json:"name"`
	Sex   string       `json:"sex"`
	Birth matchIDEvent `json:"birth"`
	Death matchIDEvent `json:"death"`
}

type matchIDEvent struct {
	Date     string `json:"date"` // YYYYMMDD
	Location struct {
		City           interface{} `json:"city"` // string or []string
		DepartmentCode string      `json:"departmentCode"`
		Country        string      `json:"country"`
	} `json:"location"`
}

func (e *MatchID) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	var payload matchIDResponse
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("matchid response: %w", err)
	}

	var records []model.CandidateRecord
	for _, p := range payload.Response.Persons {
		name := normalize.Name(strings.TrimSpace(strings.Join(p.Name.First, " ") + " " + p.Name.Last))
		if name == "" {
			continue
		}

		rec := model.CandidateRecord{
			Name:       name,
			Source:     e.Name(),
			BirthYear:  yyyymmddYear(p.Birth.Date),
			DeathYear:  yyyymmddYear(p.Death.Date),
			BirthPlace: matchIDPlace(p.Birth),
			DeathPlace: matchIDPlace(p.Death),
		}
		if p.ID != "" {
			rec.URL = "https://deces.matchid.io/id/" + p.ID
		}
		rec.Raw = map[string]interface{}{"sex": p.Sex, "department": p.Birth.Location.DepartmentCode}

		records = append(records, rec)
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}

func yyyymmddYear(date string) *int {
	if len(date) < 4 {
		return nil
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y < 1000 || y > 2100 {
		return nil
	}
	return intp(y)
}

func matchIDPlace(ev matchIDEvent) string {
	city := ""
	switch v := ev.Location.City.(type) {
	case string:
		city = v
	case []interface{}:
		if len(v) > 0 {
			city, _ = v[0].(string)
		}
	}
	parts := []string{city, ev.Location.Country}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return normalize.Place(strings.Join(kept, ", "))
}
