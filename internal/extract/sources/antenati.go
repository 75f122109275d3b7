package sources

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

const antenatiBase = "https://antenati.cultura.gov.it"

// Antenati parses the Italian State Archives nominative search, which returns
// individual people. The registry search returns books and is not used.
type Antenati struct {
	extract.Base
}

func NewAntenati() *Antenati { return &Antenati{} }

func (e *Antenati) Name() string { return "antenati" }

func (e *Antenati) SearchURL(q model.SearchQuery) string {
	return fmt.Sprintf("%s/search-nominative/?cognome=%s&nome=%s", antenatiBase, esc(q.Surname), esc(q.GivenName))
}

// Extract reads div.search-item entries: name link in the h3, life events as
// links in nominative-records ("Birth: Place Year"), family in the
// nominative-links spans. Labels appear in English or Italian.
func (e *Antenati) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	var records []model.CandidateRecord
	for _, item := range e.FindAllClass(doc, "div", "search-item") {
		if rec, ok := e.person(item, q); ok {
			records = append(records, rec)
		}
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}

func (e *Antenati) person(item *html.Node, q model.SearchQuery) (model.CandidateRecord, bool) {
	h3 := e.FindFirst(item, func(n *html.Node) bool { return e.IsElem(n, "h3") })
	if h3 == nil {
		return model.CandidateRecord{}, false
	}
	link := e.FirstLink(h3)
	if link == nil {
		return model.CandidateRecord{}, false
	}

	rec := model.CandidateRecord{
		Name:   normalize.Name(e.Text(link)),
		Source: e.Name(),
		URL:    e.AbsoluteURL(antenatiBase, e.Attr(link, "href")),
	}

	if events := e.FindFirst(item, func(n *html.Node) bool {
		return e.IsElem(n, "div") && e.HasClass(n, "nominative-records")
	}); events != nil {
		for _, a := range e.FindAll(events, func(n *html.Node) bool { return e.IsElem(n, "a") }) {
			text := e.Text(a)
			switch {
			case hasPrefixFold(text, "Birth", "Nascita"):
				if y, ok := normalize.Year(text); ok {
					rec.BirthYear = intp(y)
				}
				rec.BirthPlace = eventPlace(text)
			case hasPrefixFold(text, "Death", "Morte"):
				if y, ok := normalize.Year(text); ok {
					rec.DeathYear = intp(y)
				}
			}
		}
	}

	family := make(map[string]interface{})
	if links := e.FindFirst(item, func(n *html.Node) bool {
		return e.IsElem(n, "div") && e.HasClass(n, "nominative-links")
	}); links != nil {
		for _, span := range e.FindAll(links, func(n *html.Node) bool { return e.IsElem(n, "span") }) {
			text := e.Text(span)
			switch {
			case hasPrefixFold(text, "Father", "Padre"):
				family["father"] = afterColon(text)
			case hasPrefixFold(text, "Mother", "Madre"):
				family["mother"] = afterColon(text)
			case hasPrefixFold(text, "Spouse", "Coniuge"):
				family["spouse"] = afterColon(text)
			}
		}
	}
	if len(family) > 0 {
		rec.Raw = map[string]interface{}{"family": family}
	}

	if rec.BirthPlace == "" && q.Location != "" {
		rec.BirthPlace = normalize.Place(q.Location)
	}
	return rec, rec.Name != ""
}

func hasPrefixFold(s string, prefixes ...string) bool {
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func afterColon(s string) string {
	if _, rest, ok := strings.Cut(s, ":"); ok {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(s)
}

// eventPlace pulls the place out of "Birth: Place Year" style text.
func eventPlace(s string) string {
	rest := afterColon(s)
	fields := strings.Fields(rest)
	var keep []string
	for _, f := range fields {
		if _, ok := normalize.Year(f); ok {
			continue
		}
		keep = append(keep, f)
	}
	return normalize.Place(strings.Join(keep, " "))
}
