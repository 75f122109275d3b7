package sources

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

const digitalarkivetBase = "https://www.digitalarkivet.no"

var digitalarkivetHrefRe = regexp.MustCompile(`/(person|kilde|source)/`)

// Digitalarkivet parses person search results from the Norwegian National
// Archives. "Ingen treff" pages are genuinely empty.
type Digitalarkivet struct {
	extract.Base
}

func NewDigitalarkivet() *Digitalarkivet { return &Digitalarkivet{} }

func (e *Digitalarkivet) Name() string { return "digitalarkivet" }

func (e *Digitalarkivet) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("%s/en/search/persons?fornavn=%s&etternavn=%s", digitalarkivetBase, esc(q.GivenName), esc(q.Surname))
	if from, to, ok := yearWindow(q, 5); ok {
		u += fmt.Sprintf("&fodtfra=%d&fodttil=%d", from, to)
	}
	return u
}

func (e *Digitalarkivet) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	if strings.Contains(strings.ToLower(content), "ingen treff") {
		return nil, nil
	}
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	rows := e.FindAll(doc, func(n *html.Node) bool {
		if !e.IsElem(n, "tr") && !e.IsElem(n, "div") && !e.IsElem(n, "li") {
			return false
		}
		return e.ClassContains(n, "result") || e.ClassContains(n, "record") || e.ClassContains(n, "hit")
	})

	var records []model.CandidateRecord
	seen := make(map[string]bool)
	for _, row := range rows {
		rec, ok := e.person(row)
		if !ok || seen[rec.URL] {
			continue
		}
		seen[rec.URL] = true
		records = append(records, rec)
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}

func (e *Digitalarkivet) person(row *html.Node) (model.CandidateRecord, bool) {
	link := e.FindFirst(row, func(n *html.Node) bool {
		return e.IsElem(n, "a") && digitalarkivetHrefRe.MatchString(e.Attr(n, "href"))
	})
	if link == nil {
		return model.CandidateRecord{}, false
	}

	name := e.Text(link)
	if heading := e.FindFirst(row, func(n *html.Node) bool {
		return e.IsElem(n, "th") || e.IsElem(n, "strong") || e.IsElem(n, "b")
	}); heading != nil && e.Text(heading) != "" {
		name = e.Text(heading)
	}

	rec := model.CandidateRecord{
		Name:   normalize.Name(name),
		Source: e.Name(),
		URL:    e.AbsoluteURL(digitalarkivetBase, e.Attr(link, "href")),
	}

	if y, ok := normalize.Year(e.Text(row)); ok {
		rec.BirthYear = intp(y)
	} else if years := normalize.Years(e.Text(row)); len(years) > 0 {
		rec.BirthYear = intp(years[0])
	}

	// Municipality and county names mark the place cells.
	for _, cell := range e.FindAll(row, func(n *html.Node) bool { return e.IsElem(n, "td") || e.IsElem(n, "span") }) {
		text := e.Text(cell)
		if strings.Contains(strings.ToLower(text), "kommune") || strings.Contains(strings.ToLower(text), "fylke") || strings.Contains(text, ",") {
			if normalize.Name(text) != rec.Name {
				rec.BirthPlace = normalize.Place(text)
				break
			}
		}
	}
	return rec, rec.Name != ""
}
