package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/bfsp/internal/output"
	"github.com/tanq16/bfsp/internal/planner"
)

func newPlanCmd() *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "List the files a fetch would download without downloading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := sel.params(time.Now())
			if err != nil {
				return err
			}
			requests := planner.Plan(p, planner.DirName(p))
			output.PrintHeader(fmt.Sprintf("%s (%d day(s))", planner.DirName(p), p.Days()))
			for _, req := range requests {
				if req.ResourceID == "" {
					output.PrintWarning(fmt.Sprintf("  %s  no file", req.Label()))
					continue
				}
				fmt.Printf("  %s  %s\n", req.Label(), output.FDebug(engineConfig.ResourceURL(req.ResourceID)))
			}
			return nil
		},
	}
	sel.addFlags(cmd)
	return cmd
}
