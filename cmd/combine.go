package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tanq16/bfsp/internal/combine"
	"github.com/tanq16/bfsp/internal/output"
)

func newCombineCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "combine [DIR]",
		Short: "Combine the CSV files of a directory into one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := filepath.Clean(args[0])
			if out == "" {
				out = dir + ".csv"
			}
			res, err := combine.Dir(dir, out)
			if err != nil {
				return err
			}
			output.PrintSuccess(fmt.Sprintf("Combined %d file(s), %d row(s) into %s", res.Files, res.Rows, res.Output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (defaults to DIR.csv)")
	return cmd
}
