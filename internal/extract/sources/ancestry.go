package sources

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

const ancestryBase = "https://www.ancestry.com"

// Ancestry parses global search result cards from ancestry.com.
type Ancestry struct {
	extract.Base
}

func NewAncestry() *Ancestry { return &Ancestry{} }

func (e *Ancestry) Name() string { return "ancestry" }

// SearchURL uses the shape the site accepts: given and surname joined with an
// underscore, birth year with a +/-5 window, country filter via event=_country.
func (e *Ancestry) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("%s/search/?name=%s_%s&searchMode=advanced", ancestryBase, esc(q.GivenName), esc(q.Surname))
	if q.BirthYear != nil {
		u += fmt.Sprintf("&birth=%d&birth_x=5", *q.BirthYear)
	}
	if parts := normalize.PlaceParts(q.Location); len(parts) > 0 {
		country := strings.ToLower(parts[len(parts)-1])
		u += "&event=_" + esc(country)
	}
	return u
}

// Extract reads div.global-results-card entries. The title link names the
// person; facts sit in a tableHorizontal as th label / td value rows, with
// birth and death values shaped "YYYY Place".
func (e *Ancestry) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	var records []model.CandidateRecord
	for _, card := range e.FindAllClass(doc, "div", "global-results-card") {
		if rec, ok := e.card(card); ok {
			records = append(records, rec)
		}
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}

func (e *Ancestry) card(card *html.Node) (model.CandidateRecord, bool) {
	title := e.FindFirst(card, func(n *html.Node) bool {
		return e.IsElem(n, "a") && e.HasClass(n, "global-results-title-link")
	})
	if title == nil {
		return model.CandidateRecord{}, false
	}

	rec := model.CandidateRecord{
		Name:   normalize.Name(e.Text(title)),
		Source: e.Name(),
		URL:    e.AbsoluteURL(ancestryBase, e.Attr(title, "href")),
	}

	table := e.FindFirst(card, func(n *html.Node) bool {
		return e.IsElem(n, "table") && e.HasClass(n, "tableHorizontal")
	})
	if table == nil {
		return rec, rec.Name != ""
	}

	for _, row := range e.FindAll(table, func(n *html.Node) bool { return e.IsElem(n, "tr") }) {
		th := e.FindFirst(row, func(n *html.Node) bool { return e.IsElem(n, "th") })
		td := e.FindFirst(row, func(n *html.Node) bool { return e.IsElem(n, "td") })
		if th == nil || td == nil {
			continue
		}
		label := strings.ToLower(e.Text(th))
		value := e.Text(td)
		switch {
		case strings.Contains(label, "birth"):
			rec.BirthYear, rec.BirthPlace = yearThenPlace(value)
		case strings.Contains(label, "death"):
			rec.DeathYear, rec.DeathPlace = yearThenPlace(value)
		case strings.Contains(label, "residence"):
			if rec.BirthPlace == "" {
				rec.BirthPlace = normalize.Place(value)
			}
		}
	}
	return rec, rec.Name != ""
}

// yearThenPlace splits a "YYYY Some Place" fact value.
func yearThenPlace(value string) (*int, string) {
	fields := strings.Fields(value)
	var year *int
	var placeFields []string
	for _, f := range fields {
		if year == nil {
			if y, ok := normalize.Year(f); ok {
				year = intp(y)
				continue
			}
		}
		placeFields = append(placeFields, f)
	}
	return year, normalize.Place(strings.Join(placeFields, " "))
}
