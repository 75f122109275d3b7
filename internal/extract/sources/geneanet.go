package sources

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

const geneanetBase = "https://en.geneanet.org"

// Geneanet parses individual search results from geneanet.org.
type Geneanet struct {
	extract.Base
}

func NewGeneanet() *Geneanet { return &Geneanet{} }

func (e *Geneanet) Name() string { return "geneanet" }

func (e *Geneanet) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("%s/fonds/individus/?nom=%s&prenom=%s&go=1&size=20", geneanetBase, esc(q.Surname), esc(q.GivenName))
	if from, to, ok := yearWindow(q, 5); ok {
		u += fmt.Sprintf("&type_periode=birth_between&from=%d&to=%d", from, to)
	}
	if q.Location != "" {
		u += "&place__0__=" + esc(q.Location)
	}
	return u
}

// Extract reads a.ligne-resultat entries. The name sits in p.text-large, the
// birth/death years in the content-periode block as label spans followed by
// text-large value spans, and the place in content-lieu > span.title-lieu.
func (e *Geneanet) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	var records []model.CandidateRecord
	for _, item := range e.FindAllClass(doc, "a", "ligne-resultat") {
		if rec, ok := e.result(item); ok {
			records = append(records, rec)
		}
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}

func (e *Geneanet) result(item *html.Node) (model.CandidateRecord, bool) {
	nameElem := e.FindFirst(item, func(n *html.Node) bool {
		return e.IsElem(n, "p") && e.HasClass(n, "text-large")
	})
	if nameElem == nil {
		return model.CandidateRecord{}, false
	}

	rec := model.CandidateRecord{
		Name:   normalize.Name(e.Text(nameElem)),
		Source: e.Name(),
		URL:    e.AbsoluteURL(geneanetBase, e.Attr(item, "href")),
	}

	if periode := e.FindFirst(item, func(n *html.Node) bool {
		return e.IsElem(n, "div") && e.HasClass(n, "content-periode")
	}); periode != nil {
		rec.BirthYear = e.labeledYear(periode, "Birth")
		rec.DeathYear = e.labeledYear(periode, "Death")
	}

	if lieu := e.FindFirst(item, func(n *html.Node) bool {
		return e.IsElem(n, "div") && e.HasClass(n, "content-lieu")
	}); lieu != nil {
		if span := e.FindFirst(lieu, func(n *html.Node) bool {
			return e.IsElem(n, "span") && e.HasClass(n, "title-lieu")
		}); span != nil {
			rec.BirthPlace = normalize.Place(e.Text(span))
		}
	}

	if spouse := e.labeledValue(item, "Spouse"); spouse != "" {
		rec.Raw = map[string]interface{}{"spouse": normalize.Name(spouse)}
	}
	return rec, rec.Name != ""
}

// labeledYear finds a span whose text is exactly the label and reads the year
// from the sibling text-large span inside the same parent.
func (e *Geneanet) labeledYear(root *html.Node, label string) *int {
	if v := e.labeledValue(root, label); v != "" {
		if y, ok := normalize.Year(v); ok {
			return intp(y)
		}
	}
	return nil
}

func (e *Geneanet) labeledValue(root *html.Node, label string) string {
	labelSpan := e.FindFirst(root, func(n *html.Node) bool {
		return e.IsElem(n, "span") && e.Text(n) == label
	})
	if labelSpan == nil || labelSpan.Parent == nil {
		return ""
	}
	value := e.FindFirst(labelSpan.Parent, func(n *html.Node) bool {
		return e.IsElem(n, "span") && e.HasClass(n, "text-large")
	})
	return e.Text(value)
}
