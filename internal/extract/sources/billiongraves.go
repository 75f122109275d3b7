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

const billionGravesBase = "https://billiongraves.com"

var graveHrefRe = regexp.MustCompile(`/grave/\d+`)

// BillionGraves parses headstone search results from billiongraves.com. The
// markup varies by page version, so matching keys off class stems and
// /grave/<id> links.
type BillionGraves struct {
	extract.Base
}

func NewBillionGraves() *BillionGraves { return &BillionGraves{} }

func (e *BillionGraves) Name() string { return "billiongraves" }

func (e *BillionGraves) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("%s/site/search/results?given_names=%s&family_names=%s", billionGravesBase, esc(q.GivenName), esc(q.Surname))
	if q.BirthYear != nil {
		u += fmt.Sprintf("&year=%d&year_range=5", *q.BirthYear)
	}
	return u
}

func (e *BillionGraves) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	items := e.FindAll(doc, func(n *html.Node) bool {
		if !e.IsElem(n, "div") && !e.IsElem(n, "tr") && !e.IsElem(n, "a") {
			return false
		}
		return e.ClassContains(n, "result") || e.ClassContains(n, "record") || e.ClassContains(n, "grave")
	})

	var records []model.CandidateRecord
	seen := make(map[string]bool)
	for _, item := range items {
		rec, ok := e.grave(item)
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

func (e *BillionGraves) grave(item *html.Node) (model.CandidateRecord, bool) {
	link := item
	if !e.IsElem(item, "a") || !graveHrefRe.MatchString(e.Attr(item, "href")) {
		link = e.FindFirst(item, func(n *html.Node) bool {
			return e.IsElem(n, "a") && graveHrefRe.MatchString(e.Attr(n, "href"))
		})
	}
	if link == nil {
		return model.CandidateRecord{}, false
	}

	name := ""
	if heading := e.FindFirst(item, func(n *html.Node) bool {
		return e.IsElem(n, "h2") || e.IsElem(n, "h3") || e.IsElem(n, "h4") || e.IsElem(n, "strong") || e.IsElem(n, "b")
	}); heading != nil {
		name = e.Text(heading)
	} else {
		name = e.Text(link)
	}

	rec := model.CandidateRecord{
		Name:   normalize.Name(name),
		Source: e.Name(),
		URL:    e.AbsoluteURL(billionGravesBase, e.Attr(link, "href")),
	}

	years := normalize.Years(e.Text(item))
	if len(years) >= 1 {
		rec.BirthYear = intp(years[0])
	}
	if len(years) >= 2 {
		rec.DeathYear = intp(years[1])
	}
	for _, line := range nodeLines(item) {
		if strings.Contains(line, ",") && normalize.Name(line) != rec.Name {
			rec.BirthPlace = normalize.Place(line)
			break
		}
	}
	return rec, rec.Name != ""
}
