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

const findAGraveBase = "https://www.findagrave.com"

var memorialHrefRe = regexp.MustCompile(`/memorial/\d+`)

// FindAGrave parses memorial search results from findagrave.com.
type FindAGrave struct {
	extract.Base
}

func NewFindAGrave() *FindAGrave { return &FindAGrave{} }

func (e *FindAGrave) Name() string { return "findagrave" }

func (e *FindAGrave) SearchURL(q model.SearchQuery) string {
	u := fmt.Sprintf("%s/memorial/search?firstname=%s&lastname=%s", findAGraveBase, esc(q.GivenName), esc(q.Surname))
	if q.BirthYear != nil {
		u += fmt.Sprintf("&birthyear=%d&birthyearfilter=5", *q.BirthYear)
	}
	return u
}

// Extract reads memorial-item cards. Each card links to /memorial/<id>, names
// the person in an h3, and lists dates, cemetery and location as text lines.
func (e *FindAGrave) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	var records []model.CandidateRecord
	for _, item := range e.FindAllClass(doc, "div", "memorial-item") {
		if rec, ok := e.memorial(item); ok {
			records = append(records, rec)
		}
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records, nil
}

func (e *FindAGrave) memorial(item *html.Node) (model.CandidateRecord, bool) {
	link := e.FindFirst(item, func(n *html.Node) bool {
		return e.IsElem(n, "a") && memorialHrefRe.MatchString(e.Attr(n, "href"))
	})
	if link == nil {
		return model.CandidateRecord{}, false
	}
	url := e.AbsoluteURL(findAGraveBase, e.Attr(link, "href"))

	name := ""
	if h3 := e.FindFirst(item, func(n *html.Node) bool { return e.IsElem(n, "h3") }); h3 != nil {
		name = e.Text(h3)
	} else {
		name = e.Text(link)
	}

	rec := model.CandidateRecord{
		Name:   normalize.Name(name),
		Source: e.Name(),
		URL:    url,
	}

	text := e.Text(item)
	years := normalize.Years(text)
	if len(years) >= 2 {
		rec.BirthYear, rec.DeathYear = intp(years[0]), intp(years[1])
	} else if len(years) == 1 {
		rec.BirthYear = intp(years[0])
	}

	// Burial location is the best place hint a memorial card offers.
	cemetery := ""
	for _, line := range nodeLines(item) {
		if cemetery == "" && containsAny(line, "Cemetery", "Churchyard", "Memorial", "Gardens", "Burial") {
			cemetery = line
		} else if strings.Contains(line, ",") && line != cemetery && normalize.Name(line) != rec.Name {
			rec.BirthPlace = normalize.Place(line)
			rec.DeathPlace = rec.BirthPlace
			break
		}
	}
	if cemetery != "" {
		rec.Raw = map[string]interface{}{"cemetery": cemetery}
	}
	return rec, rec.Name != ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
