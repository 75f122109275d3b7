package sources

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

const filaeBase = "https://www.filae.com"

// Filae parses French record search results from filae.com. The markup varies
// between result page versions, so containers and fields match on class stems
// in both English and French.
type Filae struct {
	extract.Base
}

func NewFilae() *Filae { return &Filae{} }

func (e *Filae) Name() string { return "filae" }

func (e *Filae) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("%s/search?ln=%s&fn=%s", filaeBase, esc(q.Surname), esc(q.GivenName))
	if from, to, ok := yearWindow(q, 5); ok {
		u += fmt.Sprintf("&sy=%d&ey=%d", from, to)
	}
	return u
}

func (e *Filae) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	items := e.FindAll(doc, func(n *html.Node) bool {
		if !e.IsElem(n, "div") && !e.IsElem(n, "tr") && !e.IsElem(n, "li") && !e.IsElem(n, "article") {
			return false
		}
		return e.ClassContains(n, "result") || e.ClassContains(n, "record") || e.ClassContains(n, "item")
	})

	var records []model.CandidateRecord
	seen := make(map[string]bool)
	for _, item := range items {
		rec, ok := e.person(item)
		if !ok {
			continue
		}
		key := rec.Name + "|" + rec.URL
		if seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, rec)
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}

func (e *Filae) person(item *html.Node) (model.CandidateRecord, bool) {
	nameElem := e.FindFirst(item, func(n *html.Node) bool {
		return e.ClassContains(n, "name") || e.ClassContains(n, "nom") || e.ClassContains(n, "person")
	})
	if nameElem == nil {
		nameElem = e.FindFirst(item, func(n *html.Node) bool {
			return e.IsElem(n, "a") || e.IsElem(n, "strong") || e.IsElem(n, "h3") || e.IsElem(n, "h4")
		})
	}
	if nameElem == nil {
		return model.CandidateRecord{}, false
	}

	rec := model.CandidateRecord{
		Name:   normalize.Name(e.Text(nameElem)),
		Source: e.Name(),
	}
	if rec.Name == "" {
		return model.CandidateRecord{}, false
	}

	if years := normalize.Years(e.Text(item)); len(years) > 0 {
		rec.BirthYear = intp(years[0])
	}

	if place := e.FindFirst(item, func(n *html.Node) bool {
		return e.ClassContains(n, "place") || e.ClassContains(n, "lieu") || e.ClassContains(n, "location") || e.ClassContains(n, "ville")
	}); place != nil {
		rec.BirthPlace = normalize.Place(e.Text(place))
	}

	if link := e.FindFirst(item, func(n *html.Node) bool {
		return e.IsElem(n, "a") && e.Attr(n, "href") != ""
	}); link != nil {
		rec.URL = e.AbsoluteURL(filaeBase, e.Attr(link, "href"))
	}

	if doc := e.FindFirst(item, func(n *html.Node) bool {
		return e.ClassContains(n, "type") || e.ClassContains(n, "document")
	}); doc != nil {
		rec.Raw = map[string]interface{}{"document_type": e.Text(doc)}
	}
	return rec, true
}
