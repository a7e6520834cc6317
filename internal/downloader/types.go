package downloader

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Request is one planned file. ResourceID is the remote file name appended
// to the base URL; an empty ResourceID marks a combination the planner could
// not map to a file.
type Request struct {
	ID              string
	ResourceID      string
	Date            time.Time
	DestinationPath string
}

func NewRequest(resourceID string, date time.Time, destDir string) Request {
	req := Request{
		ID:         uuid.NewString(),
		ResourceID: resourceID,
		Date:       date,
	}
	if resourceID != "" {
		req.DestinationPath = filepath.Join(destDir, resourceID)
	}
	return req
}

// Label is the short form used in progress lines and logs.
func (r Request) Label() string {
	return r.Date.Format(time.DateOnly)
}

// Outcome is produced exactly once per Request.
type Outcome struct {
	Request  Request
	Failure  *Failure // nil on success
	Attempts int
	Bytes    int64
	Duration time.Duration
}

func (o Outcome) Succeeded() bool {
	return o.Failure == nil
}

// RetryEvent is emitted before the wait that precedes retry number Retry.
type RetryEvent struct {
	Request Request
	Retry   int
	Reason  Reason
	Wait    time.Duration
	Err     error
}

// Observer receives progress for a run. Started and Retrying are called from
// worker goroutines and may run concurrently; Finished is called from a
// single goroutine, once per request.
type Observer interface {
	Started(req Request)
	Retrying(event RetryEvent)
	Finished(outcome Outcome)
}

type nopObserver struct{}

func (nopObserver) Started(Request)     {}
func (nopObserver) Retrying(RetryEvent) {}
func (nopObserver) Finished(Outcome)    {}

type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int // subset of Failed
	Outcomes  []Outcome
}

func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.add(o)
	}
	return s
}

func (s *Summary) add(o Outcome) {
	s.Total++
	s.Outcomes = append(s.Outcomes, o)
	if o.Succeeded() {
		s.Succeeded++
		return
	}
	s.Failed++
	if o.Failure.Reason == ReasonSkipped {
		s.Skipped++
	}
}

// Reconciled reports whether every outcome was counted exactly once.
func (s Summary) Reconciled() bool {
	return s.Succeeded+s.Failed == s.Total && len(s.Outcomes) == s.Total
}

// SuccessfulPaths returns the written files in date order.
func (s Summary) SuccessfulPaths() []string {
	var ok []Outcome
	for _, o := range s.Outcomes {
		if o.Succeeded() {
			ok = append(ok, o)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool {
		return ok[i].Request.Date.Before(ok[j].Request.Date)
	})
	paths := make([]string, 0, len(ok))
	for _, o := range ok {
		paths = append(paths, o.Request.DestinationPath)
	}
	return paths
}
