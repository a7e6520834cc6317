package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/bfsp/internal/utils"
	"golang.org/x/sync/semaphore"
)

// Engine fetches many small files with two admission gates: a fixed pool of
// MaxConcurrentDownloads workers (one request per worker, pacing through
// resolution) and a weighted semaphore of MaxConcurrentConnections held for
// each HTTP round trip.
type Engine struct {
	cfg      Config
	client   utils.HTTPDoer
	connGate *semaphore.Weighted
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// New validates cfg and builds the HTTP client when client is nil. Any error
// wraps ErrSetup.
func New(cfg Config, client utils.HTTPDoer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSetup, err)
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %w", ErrSetup, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: unsupported base URL %q", ErrSetup, cfg.BaseURL)
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if client == nil {
		httpCfg := cfg.HTTP
		httpCfg.Timeout = cfg.RequestTimeout
		httpCfg.MaxConnsPerHost = cfg.MaxConcurrentConnections
		c, err := utils.NewBFSPHTTPClient(httpCfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSetup, err)
		}
		client = c
	}
	return &Engine{
		cfg:      cfg,
		client:   client,
		connGate: semaphore.NewWeighted(int64(cfg.MaxConcurrentConnections)),
		sleep:    sleepContext,
		now:      time.Now,
	}, nil
}

// DownloadAll resolves every request exactly once. Requests without a
// DestinationPath are written to destDir/ResourceID, and destDir must exist.
// Individual failures never abort the batch; cancelling ctx turns the
// remaining work into Cancelled outcomes. obs may be nil.
func (e *Engine) DownloadAll(ctx context.Context, requests []Request, destDir string, obs Observer) (Summary, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	log.Info().Str("op", "downloader/engine").Msgf("Starting %d downloads into %s", len(requests), destDir)
	start := time.Now()

	jobCh := make(chan Request, len(requests))
	for _, req := range requests {
		if req.DestinationPath == "" && req.ResourceID != "" {
			req.DestinationPath = filepath.Join(destDir, req.ResourceID)
		}
		jobCh <- req
	}
	close(jobCh)

	resultCh := make(chan Outcome, e.cfg.MaxConcurrentDownloads)
	var wg sync.WaitGroup
	for range e.cfg.MaxConcurrentDownloads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobCh {
				resultCh <- e.download(ctx, req, obs)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	summary := Summary{Outcomes: make([]Outcome, 0, len(requests))}
	for outcome := range resultCh {
		summary.add(outcome)
		obs.Finished(outcome)
	}
	log.Info().Str("op", "downloader/engine").Msgf("Finished %d downloads in %s: %d succeeded, %d failed",
		summary.Total, time.Since(start).Round(time.Millisecond), summary.Succeeded, summary.Failed)
	return summary, nil
}

func (e *Engine) download(ctx context.Context, req Request, obs Observer) Outcome {
	start := time.Now()
	outcome := Outcome{Request: req}
	finish := func(f *Failure) Outcome {
		outcome.Failure = f
		outcome.Duration = time.Since(start)
		return outcome
	}

	if req.ResourceID == "" {
		log.Debug().Str("op", "downloader/engine").Msgf("No remote file for %s, skipping", req.Label())
		return finish(&Failure{Reason: ReasonSkipped, Err: ErrNoResource})
	}
	if err := ctx.Err(); err != nil {
		return finish(&Failure{Reason: ReasonCancelled, Err: err})
	}
	obs.Started(req)

	target := e.cfg.ResourceURL(req.ResourceID)
	wait := e.cfg.PacingDelay
	for attempt := 0; ; attempt++ {
		if err := e.sleep(ctx, wait); err != nil {
			return finish(&Failure{Reason: ReasonCancelled, Err: err})
		}
		outcome.Attempts++
		res := e.attempt(ctx, target)
		if res.failure == nil {
			n, err := writeAtomic(req.DestinationPath, res.body)
			if err != nil {
				log.Error().Str("op", "downloader/engine").Err(err).Msgf("File error for %s", req.Label())
				return finish(&Failure{Reason: ReasonFileSystem, Err: err})
			}
			outcome.Bytes = n
			log.Debug().Str("op", "downloader/engine").Msgf("Downloaded %s (%d bytes) for %s", req.ResourceID, n, req.Label())
			return finish(nil)
		}

		f := res.failure
		if !f.Retryable() || attempt == e.cfg.MaxRetries {
			log.Warn().Str("op", "downloader/engine").Msgf("Giving up on %s after %d attempt(s): %v", req.ResourceID, outcome.Attempts, f)
			return finish(f)
		}
		retry := attempt + 1
		wait = backoffDelay(e.cfg.BaseRetryDelay, retry)
		if f.Reason == ReasonRateLimited {
			wait = res.retryAfter
		}
		log.Debug().Str("op", "downloader/engine").Msgf("Retry %d for %s in %s (%s)", retry, req.ResourceID, wait, f.Reason)
		obs.Retrying(RetryEvent{Request: req, Retry: retry, Reason: f.Reason, Wait: wait, Err: f})
	}
}

type attemptResult struct {
	body       []byte
	retryAfter time.Duration
	failure    *Failure
}

func (e *Engine) attempt(ctx context.Context, target string) attemptResult {
	if err := e.connGate.Acquire(ctx, 1); err != nil {
		return attemptResult{failure: &Failure{Reason: ReasonCancelled, Err: err}}
	}
	defer e.connGate.Release(1)

	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return attemptResult{failure: &Failure{Reason: ReasonNetwork, Err: fmt.Errorf("error creating GET request: %w", err)}}
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return attemptResult{failure: classifyTransportError(ctx, err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return attemptResult{failure: classifyTransportError(ctx, err)}
		}
		return attemptResult{body: body}
	case http.StatusTooManyRequests:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return attemptResult{
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), e.cfg.DefaultRetryAfter, e.now()),
			failure:    &Failure{Reason: ReasonRateLimited, StatusCode: resp.StatusCode},
		}
	default:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return attemptResult{failure: &Failure{Reason: ReasonHTTPStatus, StatusCode: resp.StatusCode}}
	}
}
