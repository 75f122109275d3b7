package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pmilanese/kinseek/internal/model"
)

func testCluster() model.PersonCluster {
	year := 1870
	a := model.ScoredCandidate{
		CandidateRecord: model.CandidateRecord{
			Name: "Mary Johnson", BirthYear: &year, BirthPlace: "London, England",
			Source: "findagrave", URL: "https://www.findagrave.com/memorial/1",
		},
		MatchScore: 95,
	}
	b := model.ScoredCandidate{
		CandidateRecord: model.CandidateRecord{
			Name: "Mary Johnson", Source: "geneanet", URL: "https://en.geneanet.org/x",
		},
		MatchScore: 80,
	}
	return model.PersonCluster{
		Members:        []model.ScoredCandidate{a, b},
		Representative: a,
		Confidence:     100,
	}
}

func testQuery() model.SearchQuery {
	year := 1870
	return model.SearchQuery{GivenName: "Mary", Surname: "Johnson", BirthYear: &year}
}

func TestAllowedURLs(t *testing.T) {
	c := testCluster()
	c.Members = append(c.Members, c.Members[0]) // duplicate URL
	c.Members = append(c.Members, model.ScoredCandidate{})

	urls := AllowedURLs(c)
	want := []string{"https://www.findagrave.com/memorial/1", "https://en.geneanet.org/x"}
	if len(urls) != len(want) {
		t.Fatalf("expected %d urls, got %v", len(want), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("url %d: got %s, want %s", i, urls[i], want[i])
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(testQuery(), testCluster())

	for _, want := range []string{
		"Mary Johnson",
		"https://www.findagrave.com/memorial/1",
		"https://en.geneanet.org/x",
		"ONLY cite URLs",
		"born 1870",
		"score 95",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestExtractURLs(t *testing.T) {
	text := "See https://example.com/a, then https://example.com/b. Again https://example.com/a!"
	urls := extractURLs(text)
	if len(urls) != 2 {
		t.Fatalf("expected 2 distinct urls, got %v", urls)
	}
	if urls[0] != "https://example.com/a" || urls[1] != "https://example.com/b" {
		t.Errorf("unexpected urls: %v", urls)
	}
}

func TestCheckCitations(t *testing.T) {
	allowed := []string{"https://example.com/a"}
	if err := checkCitations([]string{"https://example.com/a"}, allowed); err != nil {
		t.Errorf("allowed citation rejected: %v", err)
	}
	if err := checkCitations([]string{"https://evil.example.com"}, allowed); err == nil {
		t.Error("expected citation leak error")
	}
}

func TestNewOpenAIDrafterRequiresKey(t *testing.T) {
	if _, err := NewOpenAIDrafter(model.LLMConfig{}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestDraftRejectsCitationLeak(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"A record at https://not-in-cluster.example.com says so."}}],"usage":{"total_tokens":12}}`))
	}))
	defer server.Close()

	d, err := NewOpenAIDrafter(model.LLMConfig{APIKey: "test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new drafter: %v", err)
	}

	_, err = d.Draft(context.Background(), NoteRequest{Query: testQuery(), Cluster: testCluster()})
	if err == nil || !strings.Contains(err.Error(), "citation leak") {
		t.Errorf("expected citation leak error, got %v", err)
	}
}

func TestDraftReturnsNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"Two sources describe a Mary Johnson born 1870; see https://en.geneanet.org/x."}}],"usage":{"total_tokens":33}}`))
	}))
	defer server.Close()

	d, err := NewOpenAIDrafter(model.LLMConfig{APIKey: "test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new drafter: %v", err)
	}

	resp, err := d.Draft(context.Background(), NoteRequest{Query: testQuery(), Cluster: testCluster()})
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if resp.Note == "" {
		t.Error("empty note")
	}
	if len(resp.CitedURLs) != 1 || resp.CitedURLs[0] != "https://en.geneanet.org/x" {
		t.Errorf("unexpected citations: %v", resp.CitedURLs)
	}
	if resp.TokensUsed != 33 {
		t.Errorf("tokens: %d", resp.TokensUsed)
	}
}
