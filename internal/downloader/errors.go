package downloader

import (
	"errors"
	"fmt"
)

type Reason string

const (
	ReasonHTTPStatus  Reason = "http_status"
	ReasonRateLimited Reason = "rate_limited"
	ReasonTimeout     Reason = "timeout"
	ReasonNetwork     Reason = "network_error"
	ReasonFileSystem  Reason = "filesystem_error"
	ReasonCancelled   Reason = "cancelled"
	ReasonSkipped     Reason = "skipped"
)

// ErrSetup wraps every error that stops a run before any request is dispatched.
var ErrSetup = errors.New("download engine setup failed")

var ErrNoResource = errors.New("no remote file for this combination")

// Failure is the terminal error of a single request.
type Failure struct {
	Reason     Reason
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	switch f.Reason {
	case ReasonHTTPStatus:
		return fmt.Sprintf("HTTP %d", f.StatusCode)
	case ReasonRateLimited:
		return "rate limited (max retries)"
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Err)
	}
	return string(f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Retryable reports whether another attempt could change the result.
func (f *Failure) Retryable() bool {
	switch f.Reason {
	case ReasonRateLimited, ReasonTimeout, ReasonNetwork:
		return true
	default:
		return false
	}
}
