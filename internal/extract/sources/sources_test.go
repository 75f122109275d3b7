package sources

import (
	"strings"
	"testing"

	"github.com/pmilanese/kinseek/internal/model"
)

func query() model.SearchQuery {
	year := 1870
	return model.SearchQuery{GivenName: "Mary", Surname: "Johnson", BirthYear: &year, Location: "London, England"}
}

func TestRegistryHasAllSources(t *testing.T) {
	r := NewRegistry()
	want := []string{
		"ancestry", "anom", "antenati", "billiongraves", "digitalarkivet",
		"familysearch", "filae", "findagrave", "freebmd", "geneanet", "geni",
		"irishgenealogy", "matchid", "myheritage", "scotlandspeople", "wikitree",
	}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d sources, got %d: %v", len(want), len(got), got)
	}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("source %d: expected %s, got %s", i, name, got[i])
		}
	}
}

func TestSearchURLsEscapeQueries(t *testing.T) {
	q := model.SearchQuery{GivenName: "Anne Marie", Surname: "O'Brien"}
	for _, ex := range All() {
		u := ex.SearchURL(q)
		if u == "" {
			t.Errorf("%s: empty search URL", ex.Name())
			continue
		}
		if !strings.HasPrefix(u, "http") {
			t.Errorf("%s: not absolute: %s", ex.Name(), u)
		}
		if strings.Contains(u, "Anne Marie") {
			t.Errorf("%s: unescaped space in %s", ex.Name(), u)
		}
	}
}

func TestFindAGraveExtract(t *testing.T) {
	content := `<html><body>
	<div class="memorial-item">
		<a href="/memorial/54321/mary-johnson"><h3>Mary Johnson</h3></a>
		<p>12 Mar 1870 - 4 Jan 1943</p>
		<p>Highgate Cemetery</p>
		<p>London, England</p>
	</div>
	<div class="memorial-item">
		<a href="/memorial/99/other"><h3>Mary A Johnson</h3></a>
		<p>1872</p>
	</div>
	</body></html>`

	records, err := NewFindAGrave().Extract(content, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Name != "Mary Johnson" {
		t.Errorf("name: %q", first.Name)
	}
	if first.URL != "https://www.findagrave.com/memorial/54321/mary-johnson" {
		t.Errorf("url: %q", first.URL)
	}
	if first.BirthYear == nil || *first.BirthYear != 1870 {
		t.Errorf("birth year: %v", first.BirthYear)
	}
	if first.DeathYear == nil || *first.DeathYear != 1943 {
		t.Errorf("death year: %v", first.DeathYear)
	}
	if first.BirthPlace != "London, England" {
		t.Errorf("place: %q", first.BirthPlace)
	}

	second := records[1]
	if second.BirthYear == nil || *second.BirthYear != 1872 {
		t.Errorf("second birth year: %v", second.BirthYear)
	}
	if second.DeathYear != nil {
		t.Errorf("second death year should be unknown, got %v", second.DeathYear)
	}
}

func TestGeneanetExtract(t *testing.T) {
	content := `<html><body>
	<a class="ligne-resultat" href="/fonds/individus/abc">
		<p class="text-large">Mary Johnson</p>
		<div class="content-periode">
			<p><span>Birth</span> <span class="text-large">1870</span></p>
			<p><span>Death</span> <span class="text-large">1943</span></p>
		</div>
		<div class="content-lieu"><span class="title-lieu">London, England</span></div>
		<p><span>Spouse</span> <span class="text-large">James Smith</span></p>
	</a>
	</body></html>`

	records, err := NewGeneanet().Extract(content, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.BirthYear == nil || *rec.BirthYear != 1870 {
		t.Errorf("birth year: %v", rec.BirthYear)
	}
	if rec.DeathYear == nil || *rec.DeathYear != 1943 {
		t.Errorf("death year: %v", rec.DeathYear)
	}
	if rec.BirthPlace != "London, England" {
		t.Errorf("place: %q", rec.BirthPlace)
	}
	if rec.URL != "https://en.geneanet.org/fonds/individus/abc" {
		t.Errorf("url: %q", rec.URL)
	}
	if rec.Raw["spouse"] != "James Smith" {
		t.Errorf("spouse: %v", rec.Raw["spouse"])
	}
}

func TestFamilySearchExtract(t *testing.T) {
	content := `<html><body><table><tbody>
	<tr data-testid="/ark:/61903/1:1:ABCD-123">
		<td><h2><a class="linkCss" href="/ark:/61903/1:1:ABCD-123">Mary Johnson</a></h2></td>
		<td><div><strong>Birth</strong> <span>1870</span><br/><span>London, England</span></div></td>
		<td><div><strong>Parents</strong> Janet Johnson, William Johnson</div></td>
	</tr>
	</tbody></table></body></html>`

	records, err := NewFamilySearch().Extract(content, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Name != "Mary Johnson" {
		t.Errorf("name: %q", rec.Name)
	}
	if !strings.HasPrefix(rec.URL, "https://www.familysearch.org/ark:/") {
		t.Errorf("url: %q", rec.URL)
	}
	if rec.BirthYear == nil || *rec.BirthYear != 1870 {
		t.Errorf("birth year: %v", rec.BirthYear)
	}
	if rec.BirthPlace != "London, England" {
		t.Errorf("place: %q", rec.BirthPlace)
	}
	if rec.Raw["parents"] != "Janet Johnson, William Johnson" {
		t.Errorf("parents: %v", rec.Raw["parents"])
	}
}

func TestWikiTreeExtract(t *testing.T) {
	content := `[{"total":2,"matches":[
		{"Id":101,"Name":"Johnson-269952","FirstName":"Mary","LastName":"Johnson","BirthDate":"1870-05-12","BirthLocation":"London, England"},
		{"Id":102,"Name":"Smith-1","FirstName":"John","BirthDate":"0000-00-00"}
	]}]`

	records, err := NewWikiTree().Extract(content, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Name != "Mary Johnson" {
		t.Errorf("name: %q", first.Name)
	}
	if first.URL != "https://www.wikitree.com/wiki/Johnson-269952" {
		t.Errorf("url: %q", first.URL)
	}
	if first.BirthYear == nil || *first.BirthYear != 1870 {
		t.Errorf("birth year: %v", first.BirthYear)
	}

	// Surname recovered from the profile name when the field is missing.
	if records[1].Name != "John Smith" {
		t.Errorf("second name: %q", records[1].Name)
	}
	if records[1].BirthYear != nil {
		t.Errorf("second birth year should be unknown, got %v", records[1].BirthYear)
	}
}

func TestWikiTreeExtractBadJSON(t *testing.T) {
	if _, err := NewWikiTree().Extract("<html>not json</html>", query()); err == nil {
		t.Error("expected error for non-JSON content")
	}
}

func TestMatchIDExtract(t *testing.T) {
	content := `{"response":{"persons":[
		{"id":"abc123","name":{"first":["Marie","Louise"],"last":"Dupont"},"sex":"F",
		 "birth":{"date":"19200114","location":{"city":"Paris","country":"France"}},
		 "death":{"date":"19981230","location":{"city":["Lyon"],"country":"France"}}}
	]}}`

	records, err := NewMatchID().Extract(content, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Name != "Marie Louise Dupont" {
		t.Errorf("name: %q", rec.Name)
	}
	if rec.BirthYear == nil || *rec.BirthYear != 1920 {
		t.Errorf("birth year: %v", rec.BirthYear)
	}
	if rec.DeathYear == nil || *rec.DeathYear != 1998 {
		t.Errorf("death year: %v", rec.DeathYear)
	}
	if rec.BirthPlace != "Paris, France" {
		t.Errorf("birth place: %q", rec.BirthPlace)
	}
	if rec.DeathPlace != "Lyon, France" {
		t.Errorf("death place: %q", rec.DeathPlace)
	}
	if rec.URL != "https://deces.matchid.io/id/abc123" {
		t.Errorf("url: %q", rec.URL)
	}
}

func TestFreeBMDExtractUsesSearchURL(t *testing.T) {
	content := `<html><body><table class="results">
	<tr><th>Surname</th><th>First name(s)</th><th>District</th><th>Volume</th><th>Page</th><th>Quarter</th><th>Year</th></tr>
	<tr><td>Johnson</td><td>Mary</td><td>Islington</td><td>1b</td><td>223</td><td>Jun</td><td>1870</td></tr>
	</table></body></html>`

	ex := NewFreeBMD()
	records, err := ex.Extract(content, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Name != "Mary Johnson" {
		t.Errorf("name: %q", rec.Name)
	}
	if rec.URL != ex.SearchURL(query()) {
		t.Errorf("record should carry the search URL, got %q", rec.URL)
	}
	if rec.BirthYear == nil || *rec.BirthYear != 1870 {
		t.Errorf("birth year: %v", rec.BirthYear)
	}
	if rec.BirthPlace != "Islington" {
		t.Errorf("district: %q", rec.BirthPlace)
	}
}

func TestAntenatiExtract(t *testing.T) {
	content := `<html><body>
	<div class="search-item" data-id="42">
		<h3><a href="/nominative/42">MILANESE Giovanni</a></h3>
		<div class="nominative-links">
			<span>Father: Antonio Milanese</span>
			<span>Mother: Rosa Bianchi</span>
		</div>
		<div class="nominative-records">
			<a href="/r/1">Birth: Treviso 1885</a>
			<a href="/r/2">Death: Treviso 1950</a>
		</div>
	</div>
	</body></html>`

	records, err := NewAntenati().Extract(content, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.BirthYear == nil || *rec.BirthYear != 1885 {
		t.Errorf("birth year: %v", rec.BirthYear)
	}
	if rec.DeathYear == nil || *rec.DeathYear != 1950 {
		t.Errorf("death year: %v", rec.DeathYear)
	}
	if rec.BirthPlace != "Treviso" {
		t.Errorf("place: %q", rec.BirthPlace)
	}
	family, ok := rec.Raw["family"].(map[string]interface{})
	if !ok || family["father"] != "Antonio Milanese" {
		t.Errorf("family: %v", rec.Raw["family"])
	}
}

func TestCapAtTwenty(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		b.WriteString(`<div class="memorial-item"><a href="/memorial/`)
		b.WriteString(strings.Repeat("1", 1+i%3))
		b.WriteString(`"><h3>Mary Johnson</h3></a></div>`)
	}
	b.WriteString("</body></html>")

	records, err := NewFindAGrave().Extract(b.String(), query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) > 20 {
		t.Errorf("expected cap at 20, got %d", len(records))
	}
}
