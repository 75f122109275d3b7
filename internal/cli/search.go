package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pmilanese/kinseek/internal/llm"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
	"github.com/pmilanese/kinseek/internal/pipeline"
	"github.com/pmilanese/kinseek/internal/staging"
)

var (
	searchGiven    string
	searchSurname  string
	searchYear     int
	searchLocation string
	searchSources  []string
	searchTimeout  time.Duration
	searchNoCache  bool
	searchNoStage  bool
	searchJSON     string
	searchNotes    bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search genealogy sources for a person",
	Long: `Search queries each source for the person, extracts candidate
records, scores them against the query, and clusters records that
appear to describe the same individual.

Candidates scoring at or above the staging threshold are staged for
review; see 'kinseek review'.

Example:
  kinseek search --surname Johnson --given Mary --year 1870 --location "London, England"
  kinseek search --surname Milanese --sources antenati,familysearch --json result.json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchGiven, "given", "", "given name")
	searchCmd.Flags().StringVar(&searchSurname, "surname", "", "surname")
	searchCmd.Flags().IntVar(&searchYear, "year", 0, "approximate birth year")
	searchCmd.Flags().StringVar(&searchLocation, "location", "", "location hint, most specific first (\"London, England\")")
	searchCmd.Flags().StringSliceVar(&searchSources, "sources", nil, "sources to query (default: all)")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 5*time.Minute, "overall search timeout")
	searchCmd.Flags().BoolVar(&searchNoCache, "no-cache", false, "disable cache (force fresh fetches)")
	searchCmd.Flags().BoolVar(&searchNoStage, "no-stage", false, "do not stage findings for review")
	searchCmd.Flags().StringVar(&searchJSON, "json", "", "write the full result to a JSON file")
	searchCmd.Flags().BoolVar(&searchNotes, "notes", false, "draft a research note for the top cluster (needs an API key)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if searchNoCache {
		cfg.Cache.Enabled = false
	}

	q := model.SearchQuery{
		GivenName: searchGiven,
		Surname:   searchSurname,
		Location:  searchLocation,
	}
	if searchYear != 0 {
		q.BirthYear = &searchYear
	}
	if err := q.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	p := pipeline.New(cfg, newObserver(cfg.Verbose))
	fetcher := pipeline.NewFetcher(cfg, p.Registry())

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "Searching for: %s\n\n", q.String())
	}

	result, err := p.Run(ctx, q, searchSources, fetcher.Fetch)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printOutcomes(result.Outcomes)
	printClusters(result.Clusters)

	if !searchNoStage {
		if err := stageResult(ctx, cfg, result); err != nil {
			return err
		}
	}

	if searchJSON != "" {
		if err := writeResultJSON(result, searchJSON); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Result written to %s\n", searchJSON)
	}

	if searchNotes && len(result.Clusters) > 0 {
		if err := printNote(ctx, cfg, q, result.Clusters[0]); err != nil {
			return err
		}
	}

	return nil
}

// newObserver routes extraction and fetch diagnostics to stderr.
func newObserver(verbose bool) func(source, message string) {
	if !verbose {
		return nil
	}
	dim := color.New(color.Faint)
	return func(source, message string) {
		dim.Fprintf(os.Stderr, "  [%s] %s\n", source, message)
	}
}

func printOutcomes(outcomes []pipeline.Outcome) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			red.Printf("✗ %-16s %v\n", o.Source, o.Err)
		case o.Fallback:
			yellow.Printf("! %-16s results page could not be parsed (staged for manual review)\n", o.Source)
		default:
			suffix := ""
			if o.Cached {
				suffix = " (cached)"
			}
			green.Printf("✓ %-16s %d record(s)%s\n", o.Source, o.Records, suffix)
		}
	}
	fmt.Println()
}

func printClusters(clusters []model.PersonCluster) {
	if len(clusters) == 0 {
		fmt.Println("No candidates found.")
		return
	}

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	for i, c := range clusters {
		rep := c.Representative
		bold.Printf("#%d  %s", i+1, rep.Name)
		fmt.Printf("  confidence %d/100  (%s)\n", c.Confidence, strings.Join(c.Sources(), ", "))

		for _, m := range c.Members {
			line := fmt.Sprintf("    %3d  [%s] %s", m.MatchScore, m.Source, m.Name)
			if m.BirthYear != nil {
				line += fmt.Sprintf(", b. %d", *m.BirthYear)
			}
			if m.BirthPlace != "" {
				line += ", " + m.BirthPlace
			}
			fmt.Println(line)
			dim.Printf("         %s\n", m.URL)
		}
		fmt.Println()
	}
}

// stageResult stages candidates at or above the threshold and journals which
// sources answered.
func stageResult(ctx context.Context, cfg *model.Config, result *pipeline.Result) error {
	store, err := staging.Open(cfg.Staging)
	if err != nil {
		return fmt.Errorf("open staging store: %w", err)
	}
	defer store.Close()

	ref := personRef(result.Query)
	staged := 0
	for _, sc := range result.Candidates {
		if sc.MatchScore < cfg.Scoring.MinStageScore {
			continue
		}
		stored, err := store.Add(ctx, staging.FindingFromCandidate(sc, result.Query, ref))
		if err != nil {
			return fmt.Errorf("stage finding: %w", err)
		}
		if stored {
			staged++
		}
	}

	for _, o := range result.Outcomes {
		if o.Err != nil {
			continue
		}
		if err := store.MarkSearched(ctx, ref, o.Source); err != nil {
			return fmt.Errorf("journal search: %w", err)
		}
	}

	if staged > 0 {
		fmt.Printf("Staged %d finding(s) for review. Run 'kinseek review' to triage them.\n", staged)
	}
	return nil
}

// personRef is the stable key a person's findings and searches share.
func personRef(q model.SearchQuery) string {
	ref := strings.ReplaceAll(normalize.Key(q.FullName()), " ", "-")
	if q.BirthYear != nil {
		ref = fmt.Sprintf("%s-%d", ref, *q.BirthYear)
	}
	return ref
}

func writeResultJSON(result *pipeline.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func printNote(ctx context.Context, cfg *model.Config, q model.SearchQuery, c model.PersonCluster) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	drafter, err := llm.NewOpenAIDrafter(cfg.LLM)
	if err != nil {
		return err
	}

	resp, err := drafter.Draft(ctx, llm.NoteRequest{Query: q, Cluster: c})
	if err != nil {
		return fmt.Errorf("draft note: %w", err)
	}

	color.New(color.Bold).Println("Research note")
	fmt.Println(resp.Note)
	return nil
}
