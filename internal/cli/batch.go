package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/pipeline"
	"github.com/pmilanese/kinseek/internal/staging"
	"github.com/pmilanese/kinseek/internal/worker"
)

var (
	batchConcurrency int
	batchTimeout     time.Duration
	batchSources     []string
	batchNoCache     bool
	batchNoStage     bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Search for multiple people from a CSV file",
	Long: `Batch reads person queries from a CSV file and runs them in
parallel. The file needs a header with at least a surname column;
given_name, birth_year and location columns are optional.

Example:
  kinseek batch people.csv
  kinseek batch people.csv --concurrency 8 --sources findagrave,freebmd`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent person searches (default: workers from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
	batchCmd.Flags().StringSliceVar(&batchSources, "sources", nil, "sources to query (default: all)")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "disable cache (force fresh fetches)")
	batchCmd.Flags().BoolVar(&batchNoStage, "no-stage", false, "do not stage findings for review")
}

// batchSearcher adapts the pipeline to the worker pool and stages findings
// as each person search completes.
type batchSearcher struct {
	pipeline *pipeline.Pipeline
	fetch    pipeline.FetchFunc
	cfg      *model.Config
	sources  []string
	store    staging.Store
}

func (s *batchSearcher) Search(ctx context.Context, q model.SearchQuery) ([]model.PersonCluster, error) {
	result, err := s.pipeline.Run(ctx, q, s.sources, s.fetch)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		ref := personRef(q)
		for _, sc := range result.Candidates {
			if sc.MatchScore < s.cfg.Scoring.MinStageScore {
				continue
			}
			if _, err := s.store.Add(ctx, staging.FindingFromCandidate(sc, q, ref)); err != nil {
				return nil, fmt.Errorf("stage finding: %w", err)
			}
		}
		for _, o := range result.Outcomes {
			if o.Err != nil {
				continue
			}
			if err := s.store.MarkSearched(ctx, ref, o.Source); err != nil {
				return nil, fmt.Errorf("journal search: %w", err)
			}
		}
	}

	return result.Clusters, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchNoCache {
		cfg.Cache.Enabled = false
	}

	concurrency := batchConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Workers
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	p := pipeline.New(cfg, newObserver(cfg.Verbose))
	fetcher := pipeline.NewFetcher(cfg, p.Registry())

	searcher := &batchSearcher{
		pipeline: p,
		fetch:    fetcher.Fetch,
		cfg:      cfg,
		sources:  batchSources,
	}
	if !batchNoStage {
		store, err := staging.Open(cfg.Staging)
		if err != nil {
			return fmt.Errorf("open staging store: %w", err)
		}
		defer store.Close()
		searcher.store = store
	}

	fmt.Fprintf(os.Stderr, "Reading queries from %s\n", file)
	processor := worker.NewBatchProcessor(searcher, concurrency)
	outcomes, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Processing %d people with %d workers\n\n", len(outcomes), concurrency)

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	failures := 0
	for _, o := range outcomes {
		if o.Error != nil {
			failures++
			red.Printf("✗ %s: %v\n", o.Query.String(), o.Error)
			continue
		}
		green.Printf("✓ %s: %d cluster(s)\n", o.Query.String(), len(o.Clusters))
	}

	fmt.Printf("\n%d people searched, %d failed.\n", len(outcomes), failures)
	if !batchNoStage {
		fmt.Println("Run 'kinseek review' to triage the staged findings.")
	}
	return nil
}
