package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/bfsp/internal/downloader"
	"github.com/tanq16/bfsp/internal/metrics"
	"github.com/tanq16/bfsp/internal/output"
	"github.com/tanq16/bfsp/internal/utils"
)

type Options struct {
	Config downloader.Config
	// Display enables the live terminal view; otherwise progress is logged.
	Display *output.Manager
	Metrics *metrics.Recorder
	// Client overrides the engine's HTTP client, mainly for tests.
	Client utils.HTTPDoer
}

// Run downloads requests into destDir, fanning engine events out to the
// display, the metrics recorder and the log. The returned error is only set
// for setup failures; per-file failures are reported in the summary.
func Run(ctx context.Context, requests []downloader.Request, destDir string, opts Options) (downloader.Summary, error) {
	engine, err := downloader.New(opts.Config, opts.Client)
	if err != nil {
		return downloader.Summary{}, err
	}
	runID := uuid.NewString()
	logger := log.With().Str("op", "scheduler/run").Str("run", runID).Logger()
	logger.Info().Msgf("Run of %d files with %d downloads over %d connections",
		len(requests), opts.Config.MaxConcurrentDownloads, opts.Config.MaxConcurrentConnections)

	obs := &runObserver{display: opts.Display, metrics: opts.Metrics, logger: logger, ids: make(map[string]int, len(requests))}
	if opts.Display != nil {
		for _, req := range requests {
			obs.ids[req.ID] = opts.Display.Register(req.Label())
		}
		opts.Display.StartDisplay()
	}
	if opts.Metrics != nil {
		opts.Metrics.RunStarted(len(requests))
	}

	summary, err := engine.DownloadAll(ctx, requests, destDir, obs)
	if opts.Display != nil {
		opts.Display.StopDisplay()
	}
	if opts.Metrics != nil {
		opts.Metrics.RunFinished()
	}
	if err != nil {
		return summary, err
	}
	if !summary.Reconciled() {
		logger.Error().Msgf("Outcome counts do not add up: %d succeeded, %d failed, %d total", summary.Succeeded, summary.Failed, summary.Total)
	}
	logger.Info().Msgf("Run finished: %d succeeded, %d failed (%d skipped)", summary.Succeeded, summary.Failed, summary.Skipped)
	return summary, nil
}

type runObserver struct {
	display *output.Manager
	metrics *metrics.Recorder
	logger  zerolog.Logger
	mu      sync.Mutex
	ids     map[string]int
}

func (o *runObserver) id(req downloader.Request) (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id, ok := o.ids[req.ID]
	return id, ok
}

func (o *runObserver) Started(req downloader.Request) {
	o.logger.Debug().Msgf("Fetching %s for %s", req.ResourceID, req.Label())
	if id, ok := o.id(req); ok && o.display != nil {
		o.display.SetStatus(id, output.StatusActive)
		o.display.SetMessage(id, fmt.Sprintf("Downloading %s", req.ResourceID))
	}
}

func (o *runObserver) Retrying(event downloader.RetryEvent) {
	o.logger.Warn().Msgf("Retry %d for %s in %s: %v", event.Retry, event.Request.ResourceID, event.Wait, event.Err)
	if o.metrics != nil {
		o.metrics.ObserveRetry(event)
	}
	if id, ok := o.id(event.Request); ok && o.display != nil {
		o.display.SetStatus(id, output.StatusRetry)
		o.display.SetMessage(id, fmt.Sprintf("%s: %s, retry %d in %s", event.Request.ResourceID, event.Reason, event.Retry, event.Wait))
	}
}

func (o *runObserver) Finished(outcome downloader.Outcome) {
	if o.metrics != nil {
		o.metrics.ObserveOutcome(outcome)
	}
	req := outcome.Request
	switch {
	case outcome.Succeeded():
		o.logger.Info().Msgf("Saved %s (%d bytes, %d attempt(s))", req.DestinationPath, outcome.Bytes, outcome.Attempts)
	case outcome.Failure.Reason == downloader.ReasonSkipped:
		o.logger.Info().Msgf("No file for %s", req.Label())
	default:
		o.logger.Error().Msgf("Failed %s for %s: %v", req.ResourceID, req.Label(), outcome.Failure)
	}

	id, ok := o.id(req)
	if !ok || o.display == nil {
		return
	}
	switch {
	case outcome.Succeeded():
		o.display.Complete(id, fmt.Sprintf("%s %s", req.Label(), req.ResourceID))
	case outcome.Failure.Reason == downloader.ReasonSkipped:
		o.display.Skip(id, fmt.Sprintf("%s no file for this selection", req.Label()))
	default:
		o.display.ReportError(id, outcome.Failure)
	}
}
