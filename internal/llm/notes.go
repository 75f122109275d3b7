// Package llm drafts research notes for reviewed person clusters. The
// drafter may only cite URLs from the cluster's own records; anything else
// is treated as a citation leak and rejected.
package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pmilanese/kinseek/internal/model"
)

// NoteRequest asks for a research note about one cluster.
type NoteRequest struct {
	Query   model.SearchQuery
	Cluster model.PersonCluster

	// Prompt overrides the default prompt when set.
	Prompt string

	Model     string
	MaxTokens int
}

// NoteResponse is the drafted note plus the citations it carries.
type NoteResponse struct {
	Note       string
	CitedURLs  []string
	Model      string
	TokensUsed int
}

// AllowedURLs returns the citation allowlist for a cluster: the URLs of its
// member records, deduplicated in member order.
func AllowedURLs(c model.PersonCluster) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, m := range c.Members {
		if m.URL == "" || seen[m.URL] {
			continue
		}
		seen[m.URL] = true
		urls = append(urls, m.URL)
	}
	return urls
}

// BuildPrompt constructs the default drafting prompt. The note must describe
// what the records say, never assert that the match is the right person.
func BuildPrompt(q model.SearchQuery, c model.PersonCluster) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are drafting a genealogy research note about candidate records for %s.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. Describe what the records SAY, never whether they are the right person.
   Use phrases like "a record from X gives a birth year of..." or
   "the sources disagree on...".
4. Mention every source in the cluster at least once.

Search: %s
Cluster confidence: %d/100 across %d source(s).

Records:
`, q.FullName(), formatAllowlist(AllowedURLs(c)), q.String(), c.Confidence, len(c.Sources()))

	for _, m := range c.Members {
		fmt.Fprintf(&b, "- [%s] %s", m.Source, m.Name)
		if m.BirthYear != nil {
			fmt.Fprintf(&b, ", born %d", *m.BirthYear)
		}
		if m.BirthPlace != "" {
			fmt.Fprintf(&b, " in %s", m.BirthPlace)
		}
		if m.DeathYear != nil {
			fmt.Fprintf(&b, ", died %d", *m.DeathYear)
		}
		fmt.Fprintf(&b, " (score %d) %s\n", m.MatchScore, m.URL)
	}

	b.WriteString("\nWrite a 3-5 sentence note summarizing agreement and conflicts between the records.")
	return b.String()
}

func formatAllowlist(urls []string) string {
	if len(urls) == 0 {
		return "(No record URLs available)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)]+`)

// extractURLs pulls the distinct URLs cited in a drafted note.
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, url := range urlPattern.FindAllString(text, -1) {
		url = strings.TrimRight(url, ".,;:!?")
		if !seen[url] {
			seen[url] = true
			unique = append(unique, url)
		}
	}
	return unique
}

// checkCitations rejects any cited URL outside the allowlist.
func checkCitations(cited, allowed []string) error {
	permitted := make(map[string]bool, len(allowed))
	for _, url := range allowed {
		permitted[url] = true
	}
	for _, url := range cited {
		if !permitted[url] {
			return fmt.Errorf("citation leak: drafted note cites disallowed URL %s", url)
		}
	}
	return nil
}
