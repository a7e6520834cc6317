package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tanq16/bfsp/internal/output"
	"github.com/tanq16/bfsp/internal/planner"
)

func newCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List country codes for horse racing files",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, code := range planner.CountryCodes() {
				fmt.Printf("  %-4s %s\n", output.FDetail(code), planner.Countries[code])
			}
		},
	}
}
