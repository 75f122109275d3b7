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

const (
	anomBase         = "https://recherche-anom.culture.gouv.fr"
	anomMilitaryBase = "http://anom.archivesnationales.culture.gouv.fr/regmatmil"
)

var (
	anomDetailRe    = regexp.MustCompile(`osd\.php\?clef=([^'"]+)`)
	anomBirthRe     = regexp.MustCompile(`Date de naissance\s*:\s*(\d{4})-\d{2}-\d{2}`)
	anomTerritoryRe = regexp.MustCompile(`territoire de naissance\s*:\s*(.+)`)
)

// ANOM parses the French overseas archives. Two name-searchable databases
// share the extractor: the penal colony registers (bagne) and the military
// matricule registers, whose result rows carry birth info in title attributes.
type ANOM struct {
	extract.Base
}

func NewANOM() *ANOM { return &ANOM{} }

func (e *ANOM) Name() string { return "anom" }

func (e *ANOM) SearchURL(q model.SearchQuery) string {
	return fmt.Sprintf("%s/archive/resultats/basebagne/n:174?RECH_nom=%s&RECH_prenom=%s&type=basebagne",
		anomBase, esc(q.Surname), esc(q.GivenName))
}

func (e *ANOM) Extract(content string, q model.SearchQuery) ([]model.CandidateRecord, error) {
	doc, err := e.ParseHTML(content)
	if err != nil {
		return nil, err
	}

	records := e.militaryRows(doc)
	if len(records) == 0 {
		records = e.bagneItems(doc, q)
	}
	return records, nil
}

// militaryRows reads tr.pair/tr.impair rows with onclick detail links.
// Cells run number, access, surname, given names, class, matricule, territory.
func (e *ANOM) militaryRows(doc *html.Node) []model.CandidateRecord {
	rows := e.FindAll(doc, func(n *html.Node) bool {
		return e.IsElem(n, "tr") && (e.HasClass(n, "pair") || e.HasClass(n, "impair")) && e.Attr(n, "onclick") != ""
	})

	var records []model.CandidateRecord
	for _, row := range rows {
		cells := e.FindAll(row, func(n *html.Node) bool { return e.IsElem(n, "td") })
		if len(cells) < 6 {
			continue
		}
		surname := e.Text(cells[2])
		given := e.Text(cells[3])
		if surname == "" {
			continue
		}

		rec := model.CandidateRecord{
			Name:   normalize.Name(given + " " + surname),
			Source: e.Name(),
		}
		if m := anomDetailRe.FindStringSubmatch(e.Attr(row, "onclick")); m != nil {
			rec.URL = anomMilitaryBase + "/osd.php?clef=" + m[1]
		}

		title := e.Attr(row, "title")
		if m := anomBirthRe.FindStringSubmatch(title); m != nil {
			if y, ok := normalize.Year(m[1]); ok {
				rec.BirthYear = intp(y)
			}
		}
		if m := anomTerritoryRe.FindStringSubmatch(title); m != nil {
			rec.BirthPlace = normalize.Place(strings.TrimSpace(m[1]))
		}
		if len(cells) > 6 {
			rec.Raw = map[string]interface{}{"territory": e.Text(cells[6]), "matricule": e.Text(cells[5])}
		}

		records = append(records, rec)
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records
}

// bagneItems reads penal register hits: unittitle spans naming the convict,
// with an ark permalink nearby.
func (e *ANOM) bagneItems(doc *html.Node, q model.SearchQuery) []model.CandidateRecord {
	titles := e.FindAll(doc, func(n *html.Node) bool {
		return e.IsElem(n, "span") && e.HasClass(n, "unittitle")
	})

	var records []model.CandidateRecord
	for _, title := range titles {
		text := e.Text(title)
		name := normalize.Name(text)
		if name == "" {
			continue
		}

		rec := model.CandidateRecord{
			Name:   name,
			Source: e.Name(),
			URL:    e.SearchURL(q),
		}
		if years := normalize.Years(text); len(years) > 0 {
			rec.BirthYear = intp(years[0])
		}

		scope := title.Parent
		if scope == nil {
			scope = title
		}
		if ark := e.FindFirst(scope, func(n *html.Node) bool {
			return e.IsElem(n, "a") && strings.Contains(e.Attr(n, "href"), "/ark:/")
		}); ark != nil {
			rec.URL = e.AbsoluteURL(anomBase, e.Attr(ark, "href"))
		}

		records = append(records, rec)
		if len(records) >= extract.MaxRecords {
			break
		}
	}
	return records
}
