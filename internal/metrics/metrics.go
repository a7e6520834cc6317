// Package metrics records per-run download statistics in a private
// Prometheus registry. A batch run has no scrape window, so the registry is
// written out in the node-exporter textfile format when the run ends.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tanq16/bfsp/internal/downloader"
)

const namespace = "bfsp"

type Recorder struct {
	registry  *prometheus.Registry
	outcomes  *prometheus.CounterVec
	retries   *prometheus.CounterVec
	bytes     prometheus.Counter
	duration  prometheus.Histogram
	lastRun   prometheus.Gauge
	requested prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Resolved download requests by result and failure reason.",
		}, []string{"result", "reason"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retries scheduled, by the reason of the failed attempt.",
		}, []string{"reason"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes_total",
			Help:      "Bytes written for successful downloads.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Time from dispatch to resolution per request, waits included.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		requested: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requested_files",
			Help:      "Number of files planned for the last run.",
		}),
	}
	r.registry.MustRegister(r.outcomes, r.retries, r.bytes, r.duration, r.lastRun, r.requested)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) RunStarted(requested int) {
	r.requested.Set(float64(requested))
}

func (r *Recorder) RunFinished() {
	r.lastRun.SetToCurrentTime()
}

func (r *Recorder) ObserveRetry(event downloader.RetryEvent) {
	r.retries.WithLabelValues(string(event.Reason)).Inc()
}

func (r *Recorder) ObserveOutcome(o downloader.Outcome) {
	r.duration.Observe(o.Duration.Seconds())
	if o.Succeeded() {
		r.outcomes.WithLabelValues("success", "none").Inc()
		r.bytes.Add(float64(o.Bytes))
		return
	}
	reason := string(o.Failure.Reason)
	if o.Failure.Reason == downloader.ReasonHTTPStatus {
		reason += "_" + strconv.Itoa(o.Failure.StatusCode)
	}
	r.outcomes.WithLabelValues("failure", reason).Inc()
}

// WriteTextfile writes the registry atomically to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("error writing metrics textfile: %w", err)
	}
	return nil
}
