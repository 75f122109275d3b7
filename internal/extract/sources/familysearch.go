package sources

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

const familySearchBase = "https://www.familysearch.org"

// FamilySearch parses record search results from familysearch.org.
type FamilySearch struct {
	extract.Base
}

func NewFamilySearch() *FamilySearch { return &FamilySearch{} }

func (e *FamilySearch) Name() string { return "familysearch" }

func (e *FamilySearch) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("%s/en/search/record/results?q.givenName=%s&q.surname=%s", familySearchBase, esc(q.GivenName), esc(q.Surname))
	if q.BirthYear != nil {
		u += fmt.Sprintf("&q.birthLikeDate=%d", *q.BirthYear)
	}
	if q.Location != "" {
		u += "&q.birthLikePlace=" + esc(q.Location)
	}
	return u
}

// Extract reads result rows carrying an ark id in data-testid. The name link
// sits in the first cell; a Birth cell holds the year in a span with the place
// on the following line; a Parents cell names the parents.
func (e *FamilySearch) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	rows := e.FindAll(doc, func(n *html.Node) bool {
		return e.IsElem(n, "tr") && strings.Contains(e.Attr(n, "data-testid"), "/ark:/")
	})

	var records []model.CandidateRecord
	for _, row := range rows {
		if rec, ok := e.person(row); ok {
			records = append(records, rec)
		}
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}

func (e *FamilySearch) person(row *html.Node) (model.CandidateRecord, bool) {
	link := e.FindFirst(row, func(n *html.Node) bool {
		return e.IsElem(n, "a") && strings.Contains(e.Attr(n, "href"), "/ark:/")
	})
	if link == nil {
		return model.CandidateRecord{}, false
	}

	rec := model.CandidateRecord{
		Name:   normalize.Name(e.Text(link)),
		Source: e.Name(),
		URL:    e.AbsoluteURL(familySearchBase, e.Attr(link, "href")),
	}

	for _, cell := range e.FindAll(row, func(n *html.Node) bool { return e.IsElem(n, "td") }) {
		text := e.Text(cell)
		switch {
		case strings.Contains(text, "Birth"):
			for _, span := range e.FindAll(cell, func(n *html.Node) bool { return e.IsElem(n, "span") }) {
				spanText := e.Text(span)
				if y, ok := normalize.Year(spanText); ok {
					if rec.BirthYear == nil {
						rec.BirthYear = intp(y)
					}
					continue
				}
				if rec.BirthPlace == "" && spanText != "" && spanText != "Birth" {
					rec.BirthPlace = normalize.Place(spanText)
				}
			}
		case strings.Contains(text, "Parents"):
			parents := strings.TrimSpace(strings.Replace(text, "Parents", "", 1))
			if parents != "" {
				rec.Raw = map[string]interface{}{"parents": parents}
			}
		}
	}
	return rec, rec.Name != ""
}
