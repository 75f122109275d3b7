package sources

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

// civilIndex parses the tabular civil registration indexes shared by the
// Irish and Scottish sites: a results table, name in the first cell or the
// row link, bare-year columns, place cells recognized by regional keywords.
type civilIndex struct {
	extract.Base
	source        string
	base          string
	placeKeywords []string
}

func (c *civilIndex) Name() string { return c.source }

func (c *civilIndex) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := c.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	tables := c.FindAll(doc, func(n *html.Node) bool {
		return c.IsElem(n, "table") && (c.ClassContains(n, "result") || c.ClassContains(n, "record") ||
			c.ClassContains(n, "data") || c.ClassContains(n, "search"))
	})

	var records []model.CandidateRecord
	for _, table := range tables {
		rows := c.FindAll(table, func(n *html.Node) bool { return c.IsElem(n, "tr") })
		for i, row := range rows {
			if i == 0 {
				continue // header
			}
			if rec, ok := c.row(row); ok {
				records = append(records, rec)
			}
			if len(records) >= extract.MaxRecords {
				return records, nil
			}
		}
	}
	return records, nil
}

func (c *civilIndex) row(row *html.Node) (model.CandidateRecord, bool) {
	cells := c.FindAll(row, func(n *html.Node) bool { return c.IsElem(n, "td") || c.IsElem(n, "th") })
	if len(cells) < 2 {
		return model.CandidateRecord{}, false
	}

	texts := make([]string, len(cells))
	for i, cell := range cells {
		texts[i] = c.Text(cell)
	}

	link := c.FirstLink(row)
	name := ""
	if link != nil {
		name = c.Text(link)
	}
	if name == "" {
		name = texts[0]
	}
	name = normalize.Name(name)
	if len(name) < 2 {
		return model.CandidateRecord{}, false
	}

	rec := model.CandidateRecord{Name: name, Source: c.source}
	if link != nil {
		rec.URL = c.AbsoluteURL(c.base, c.Attr(link, "href"))
	}

	// Bare-year columns first, then any years in the row text.
	for _, text := range texts {
		if y, ok := normalize.Year(text); ok && text == strings.TrimSpace(text) && len(strings.Fields(text)) == 1 {
			if rec.BirthYear == nil {
				rec.BirthYear = intp(y)
			} else if rec.DeathYear == nil {
				rec.DeathYear = intp(y)
			}
		}
	}
	if rec.BirthYear == nil {
		if years := normalize.Years(strings.Join(texts, " ")); len(years) > 0 {
			rec.BirthYear = intp(years[0])
			if len(years) > 1 {
				rec.DeathYear = intp(years[1])
			}
		}
	}

	for _, text := range texts[1:] {
		if containsAny(text, c.placeKeywords...) {
			rec.BirthPlace = normalize.Place(text)
			break
		}
	}

	eventType := rowEventType(strings.ToLower(strings.Join(texts, " ")))
	if eventType != "" {
		rec.Raw = map[string]interface{}{"record_type": eventType}
	}
	return rec, true
}

func rowEventType(text string) string {
	switch {
	case strings.Contains(text, "birth"), strings.Contains(text, "baptism"):
		return "birth"
	case strings.Contains(text, "death"), strings.Contains(text, "burial"):
		return "death"
	case strings.Contains(text, "marriage"):
		return "marriage"
	case strings.Contains(text, "census"):
		return "census"
	}
	return ""
}
