package sources

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

const myHeritageBase = "https://www.myheritage.com"

// MyHeritage parses research result cards from myheritage.com.
type MyHeritage struct {
	extract.Base
}

func NewMyHeritage() *MyHeritage { return &MyHeritage{} }

func (e *MyHeritage) Name() string { return "myheritage" }

// SearchURL uses the site's structured query tokens: names via
// qname=Name+fn.X+ln.Y, birth year via a qevents token.
func (e *MyHeritage) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("%s/research?action=query&formId=master&formMode=1&useTranslation=1&qname=Name+fn.%s+ln.%s",
		myHeritageBase, esc(q.GivenName), esc(q.Surname))
	if q.BirthYear != nil {
		u += fmt.Sprintf("&qevents-event1=Event+et.birth+ey.%d+epmo.similar", *q.BirthYear)
	}
	return u
}

// Extract reads div.record_card entries: the record_name link, then the
// results_field_list items as label/value span pairs, where event values are
// shaped "1874 - Location".
func (e *MyHeritage) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	var records []model.CandidateRecord
	for _, card := range e.FindAllClass(doc, "div", "record_card") {
		if rec, ok := e.card(card); ok {
			records = append(records, rec)
		}
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}

func (e *MyHeritage) card(card *html.Node) (model.CandidateRecord, bool) {
	link := e.FindFirst(card, func(n *html.Node) bool {
		return e.IsElem(n, "a") && e.HasClass(n, "record_name")
	})
	if link == nil {
		return model.CandidateRecord{}, false
	}

	rec := model.CandidateRecord{
		Name:   normalize.Name(e.Text(link)),
		Source: e.Name(),
		URL:    e.AbsoluteURL(myHeritageBase, e.Attr(link, "href")),
	}

	family := make(map[string]interface{})
	for _, item := range e.FindAllClass(card, "li", "fields_list_item") {
		label := strings.ToLower(e.Text(e.FindFirst(item, func(n *html.Node) bool {
			return e.IsElem(n, "span") && e.HasClass(n, "label")
		})))
		value := e.Text(e.FindFirst(item, func(n *html.Node) bool {
			return e.IsElem(n, "span") && e.HasClass(n, "value")
		}))
		if label == "" || value == "" {
			continue
		}

		switch {
		case strings.Contains(label, "birth"):
			rec.BirthYear, rec.BirthPlace = dashedEvent(value)
		case strings.Contains(label, "death"):
			rec.DeathYear, rec.DeathPlace = dashedEvent(value)
		case strings.Contains(label, "father"):
			family["father"] = value
		case strings.Contains(label, "mother"):
			family["mother"] = value
		case strings.Contains(label, "wife"), strings.Contains(label, "husband"), strings.Contains(label, "spouse"):
			family["spouse"] = value
		}
	}
	if len(family) > 0 {
		rec.Raw = map[string]interface{}{"family": family}
	}
	return rec, rec.Name != ""
}

// dashedEvent splits "1874 - Location" or "Apr 3 1874 - Location".
func dashedEvent(value string) (*int, string) {
	datePart, place := value, ""
	if before, after, ok := strings.Cut(value, " - "); ok {
		datePart, place = before, after
	}
	var year *int
	if y, ok := normalize.Year(datePart); ok {
		year = intp(y)
	}
	return year, normalize.Place(place)
}
