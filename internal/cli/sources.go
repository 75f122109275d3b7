package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmilanese/kinseek/internal/extract/sources"
	"github.com/pmilanese/kinseek/internal/model"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the genealogy sources kinseek can query",
	Run: func(cmd *cobra.Command, args []string) {
		registry := sources.NewRegistry()
		sample := model.SearchQuery{GivenName: "Mary", Surname: "Johnson"}
		for _, name := range registry.Names() {
			if !verbose {
				fmt.Println(name)
				continue
			}
			ex, _ := registry.Get(name)
			fmt.Printf("%-16s %s\n", name, ex.SearchURL(sample))
		}
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
