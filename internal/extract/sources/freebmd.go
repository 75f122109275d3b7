package sources

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

// FreeBMD parses the UK civil registration index. Results come back as a
// bare table (Surname, First names, District, Volume, Page, Quarter, Year)
// with no per-record pages, so every record points at the search URL.
type FreeBMD struct {
	extract.Base
}

func NewFreeBMD() *FreeBMD { return &FreeBMD{} }

func (e *FreeBMD) Name() string { return "freebmd" }

func (e *FreeBMD) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("https://www.freebmd.org.uk/cgi/search.pl?type=Births&surname=%s&given=%s", esc(q.Surname), esc(q.GivenName))
	if from, to, ok := yearWindow(q, 2); ok {
		u += fmt.Sprintf("&start=%d&end=%d", from, to)
	}
	return u
}

func (e *FreeBMD) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	table := e.FindFirst(doc, func(n *html.Node) bool {
		return e.IsElem(n, "table") && (e.ClassContains(n, "result") || e.ClassContains(n, "data"))
	})
	if table == nil {
		table = e.FindFirst(doc, func(n *html.Node) bool { return e.IsElem(n, "table") })
	}
	if table == nil {
		return nil, nil
	}

	searchURL := e.SearchURL(q)
	rows := e.FindAll(table, func(n *html.Node) bool { return e.IsElem(n, "tr") })

	var records []model.CandidateRecord
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cells := e.FindAll(row, func(n *html.Node) bool { return e.IsElem(n, "td") })
		if len(cells) < 5 {
			continue
		}

		surname := e.Text(cells[0])
		given := e.Text(cells[1])
		district := e.Text(cells[2])
		name := normalize.Name(given + " " + surname)
		if name == "" {
			continue
		}

		rec := model.CandidateRecord{
			Name:       name,
			Source:     e.Name(),
			URL:        searchURL,
			BirthPlace: normalize.Place(district),
			Raw:        map[string]interface{}{"district": district},
		}
		// Registration year is the last column.
		if y, ok := normalize.Year(e.Text(cells[len(cells)-1])); ok {
			rec.BirthYear = intp(y)
		}

		records = append(records, rec)
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}
