package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pmilanese/kinseek/internal/review"
	"github.com/pmilanese/kinseek/internal/staging"
)

var reviewSummary bool

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review staged findings interactively",
	Long: `Review opens the staged findings queue. Each pending finding shows
the record's details and its match score; approve with 'a', reject
with 'r', skip with 's'.

Approved findings can be pushed upstream with 'kinseek submit'.`,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().BoolVar(&reviewSummary, "summary", false, "print queue counts instead of opening the queue")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := staging.Open(cfg.Staging)
	if err != nil {
		return fmt.Errorf("open staging store: %w", err)
	}
	defer store.Close()

	if reviewSummary {
		return printSummary(store)
	}
	return review.Run(store)
}

func printSummary(store staging.Store) error {
	summary, err := store.Summary(context.Background())
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Println("Staging queue")
	fmt.Printf("  pending:   %d\n", summary.Pending)
	fmt.Printf("  approved:  %d\n", summary.Approved)
	fmt.Printf("  rejected:  %d\n", summary.Rejected)
	fmt.Printf("  submitted: %d\n", summary.Submitted)
	return nil
}
