package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pmilanese/kinseek/internal/staging"
	"github.com/pmilanese/kinseek/internal/submit"
)

var submitTimeout time.Duration

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit approved findings to the findings service",
	Long: `Submit pushes every approved finding to the configured findings
service and marks accepted ones as submitted. Configure the service
with submit.base_url and KINSEEK_SUBMIT_TOKEN.`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 2*time.Minute, "submission timeout")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := submit.NewClient(cfg.Submit)
	if err != nil {
		return err
	}

	store, err := staging.Open(cfg.Staging)
	if err != nil {
		return fmt.Errorf("open staging store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	receipt, err := submit.Approved(ctx, client, store)
	if err != nil {
		return err
	}

	if receipt.Accepted == 0 && len(receipt.Rejected) == 0 {
		fmt.Println("Nothing to submit.")
		return nil
	}

	color.New(color.FgGreen).Printf("✓ %d finding(s) accepted\n", receipt.Accepted)
	if len(receipt.Rejected) > 0 {
		color.New(color.FgRed).Printf("✗ %d finding(s) rejected by the service\n", len(receipt.Rejected))
		for _, id := range receipt.Rejected {
			fmt.Printf("  %s\n", id)
		}
	}
	return nil
}
