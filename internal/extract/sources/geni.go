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

const geniBase = "https://www.geni.com"

var geniProfileRe = regexp.MustCompile(`^/people/[^/]+/\d+$`)

// Geni parses people search results from geni.com.
type Geni struct {
	extract.Base
}

func NewGeni() *Geni { return &Geni{} }

func (e *Geni) Name() string { return "geni" }

func (e *Geni) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("%s/search?search_type=people&names=%s", geniBase, plusJoined(q.GivenName, q.Surname))
	if parts := normalize.PlaceParts(q.Location); len(parts) > 0 {
		u += "&country=" + esc(parts[len(parts)-1])
	}
	return u
}

// Extract reads tr.profile-layout-grid rows: the profile link in the name
// cell, life years in div.quiet as "(1821 - 1871)", and parents in the
// immediate-family cell as "Son of X and Y".
func (e *Geni) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	var records []model.CandidateRecord
	for _, row := range e.FindAllClass(doc, "tr", "profile-layout-grid") {
		if rec, ok := e.profile(row); ok {
			records = append(records, rec)
		}
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}

func (e *Geni) profile(row *html.Node) (model.CandidateRecord, bool) {
	nameCell := e.FindFirst(row, func(n *html.Node) bool {
		return e.IsElem(n, "td") && e.HasClass(n, "name-grid-area")
	})
	if nameCell == nil {
		return model.CandidateRecord{}, false
	}
	link := e.FindFirst(nameCell, func(n *html.Node) bool {
		return e.IsElem(n, "a") && geniProfileRe.MatchString(e.Attr(n, "href"))
	})
	if link == nil {
		return model.CandidateRecord{}, false
	}

	rec := model.CandidateRecord{
		Name:   normalize.Name(e.Text(link)),
		Source: e.Name(),
		URL:    e.AbsoluteURL(geniBase, e.Attr(link, "href")),
	}

	if quiet := e.FindFirst(nameCell, func(n *html.Node) bool {
		return e.IsElem(n, "div") && e.HasClass(n, "quiet")
	}); quiet != nil {
		years := normalize.Years(e.Text(quiet))
		if len(years) >= 1 {
			rec.BirthYear = intp(years[0])
		}
		if len(years) >= 2 {
			rec.DeathYear = intp(years[1])
		}
	}

	if familyCell := e.FindFirst(row, func(n *html.Node) bool {
		return e.IsElem(n, "td") && e.HasClass(n, "immediate-family-grid-area")
	}); familyCell != nil {
		if parents := parentsFromRelation(e.Text(familyCell)); parents != "" {
			rec.Raw = map[string]interface{}{"parents": parents}
		}
	}
	return rec, rec.Name != ""
}

// parentsFromRelation reads "Son of John Smith and Jane Doe" style text.
func parentsFromRelation(text string) string {
	for _, prefix := range []string{"Son of ", "Daughter of ", "Child of "} {
		if _, after, ok := strings.Cut(text, prefix); ok {
			if i := strings.Index(after, "."); i > 0 {
				after = after[:i]
			}
			return strings.TrimSpace(after)
		}
	}
	return ""
}
