package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/bfsp/internal/combine"
	"github.com/tanq16/bfsp/internal/metrics"
	"github.com/tanq16/bfsp/internal/output"
	"github.com/tanq16/bfsp/internal/planner"
	"github.com/tanq16/bfsp/internal/publish"
	"github.com/tanq16/bfsp/internal/scheduler"
	"github.com/tanq16/bfsp/internal/utils"
)

func newFetchCmd() *cobra.Command {
	var sel selection
	var outputDir string
	var doCombine bool
	var publishTo string
	var profile string
	var metricsFile string
	var plain bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download price files for a date range",
		Long: `Download the daily BSP price files for a date range into a
directory named after the selection, optionally combining them into one CSV.

Examples:
  bfsp fetch --country uk -r h -m w -s 01/01/2024 -e 31/01/2024 --combine
  bfsp fetch -r g -m p -s yesterday
  bfsp fetch --country ire -s 01/03/2024 --combine --publish s3://bucket/bsp/`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if publishTo != "" && !doCombine {
				return errors.New("--publish requires --combine")
			}
			if publishTo != "" && !strings.HasPrefix(publishTo, "s3://") {
				return fmt.Errorf("--publish expects an s3:// URL, got %q", publishTo)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := sel.params(time.Now())
			if err != nil {
				return err
			}
			name := planner.DirName(p)
			destDir := filepath.Join(outputDir, name)
			if err := os.MkdirAll(destDir, 0755); err != nil {
				return fmt.Errorf("error creating output directory: %w", err)
			}
			requests := planner.Plan(p, destDir)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := scheduler.Options{Config: engineConfig, Metrics: metrics.NewRecorder()}
			if !plain && output.IsTerminal(os.Stdout) {
				logFile, err := os.OpenFile(utils.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return fmt.Errorf("error opening log file: %w", err)
				}
				defer logFile.Close()
				utils.SetLogOutput(logFile)
				opts.Display = output.NewManager(os.Stdout)
				output.PrintHeader(fmt.Sprintf("Fetching %d file(s) into %s", len(requests), destDir))
			}

			summary, err := scheduler.Run(ctx, requests, destDir, opts)
			if opts.Display != nil {
				utils.InitLogger(debug)
			}
			if err != nil {
				return err
			}
			if opts.Display == nil {
				output.PrintSummary(os.Stdout, summary.Total, summary.Succeeded, summary.Failed, summary.Skipped)
			}

			if doCombine {
				if err := combineAndPublish(ctx, summary.SuccessfulPaths(), filepath.Join(outputDir, name+".csv"), publishTo, profile); err != nil {
					return err
				}
			}
			if metricsFile != "" {
				if err := opts.Metrics.WriteTextfile(metricsFile); err != nil {
					return err
				}
			}
			if ctx.Err() != nil {
				return errors.New("interrupted")
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	sel.addFlags(cmd)
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Parent directory for downloads")
	cmd.Flags().BoolVar(&doCombine, "combine", false, "Combine downloaded files into one CSV")
	cmd.Flags().StringVar(&publishTo, "publish", "", "Upload the combined CSV to s3://bucket/key (trailing / keeps the file name)")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile for --publish")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")
	cmd.Flags().BoolVar(&plain, "plain", false, "Log progress instead of the live display")
	return cmd
}

func combineAndPublish(ctx context.Context, paths []string, out, publishTo, profile string) error {
	if len(paths) == 0 {
		output.PrintWarning("Nothing downloaded, skipping combine")
		return nil
	}
	res, err := combine.Files(paths, out)
	if err != nil {
		return err
	}
	output.PrintSuccess(fmt.Sprintf("Combined %d file(s), %d row(s) into %s", res.Files, res.Rows, res.Output))
	if publishTo == "" {
		return nil
	}
	up, err := publish.NewUploader(ctx, profile)
	if err != nil {
		return err
	}
	location, err := publish.File(ctx, up, res.Output, publishTo)
	if err != nil {
		log.Error().Str("op", "cmd/fetch").Err(err).Msg("Publish failed")
		return err
	}
	output.PrintSuccess(fmt.Sprintf("Published %s", location))
	return nil
}
