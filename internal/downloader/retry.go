package downloader

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MaxRetryWait caps every retry wait, both backoff and Retry-After.
const MaxRetryWait = time.Hour

// backoffDelay is the wait before retry k (1-based): base * 2^(k-1), capped
// at MaxRetryWait.
func backoffDelay(base time.Duration, retry int) time.Duration {
	if retry < 1 || base <= 0 {
		return 0
	}
	shift := uint(retry - 1)
	if shift >= 62 || base > MaxRetryWait>>shift {
		return MaxRetryWait
	}
	return base << shift
}

// parseRetryAfter accepts delay-seconds (fractions allowed) or an HTTP-date.
func parseRetryAfter(value string, fallback time.Duration, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return fallback
		}
		if secs >= MaxRetryWait.Seconds() {
			return MaxRetryWait
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(value); err == nil {
		return min(max(t.Sub(now), 0), MaxRetryWait)
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classifyTransportError maps a round-trip or body-read error. runCtx is the
// run context, not the per-attempt one, so a run cancellation is never
// mistaken for a timeout.
func classifyTransportError(runCtx context.Context, err error) *Failure {
	if runCtx.Err() != nil {
		return &Failure{Reason: ReasonCancelled, Err: runCtx.Err()}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Failure{Reason: ReasonTimeout, Err: err}
	}
	return &Failure{Reason: ReasonNetwork, Err: err}
}
