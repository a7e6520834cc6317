package scheduler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/bfsp/internal/downloader"
	"github.com/tanq16/bfsp/internal/metrics"
	"github.com/tanq16/bfsp/internal/output"
)

func testConfig(baseURL string) downloader.Config {
	cfg := downloader.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.PacingDelay = 0
	cfg.BaseRetryDelay = time.Millisecond
	cfg.DefaultRetryAfter = time.Millisecond
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

func newServer(t *testing.T) *httptest.Server {
	var flaky atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.csv":
			w.Write([]byte("EVENT_ID,BSP\n1,2.5\n"))
		case "/flaky.csv":
			if flaky.Add(1) == 1 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte("EVENT_ID,BSP\n2,3.0\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func requests(dir string) []downloader.Request {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []downloader.Request{
		downloader.NewRequest("ok.csv", day, dir),
		downloader.NewRequest("flaky.csv", day.AddDate(0, 0, 1), dir),
		downloader.NewRequest("missing.csv", day.AddDate(0, 0, 2), dir),
		downloader.NewRequest("", day.AddDate(0, 0, 3), dir),
	}
}

func TestRunPlainWithMetrics(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()
	rec := metrics.NewRecorder()

	summary, err := Run(context.Background(), requests(dir), dir, Options{Config: testConfig(srv.URL), Metrics: rec})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.True(t, summary.Reconciled())

	data, err := os.ReadFile(filepath.Join(dir, "flaky.csv"))
	require.NoError(t, err)
	assert.Equal(t, "EVENT_ID,BSP\n2,3.0\n", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "missing.csv"))

	expected := `
# HELP bfsp_outcomes_total Resolved download requests by result and failure reason.
# TYPE bfsp_outcomes_total counter
bfsp_outcomes_total{reason="http_status_404",result="failure"} 1
bfsp_outcomes_total{reason="none",result="success"} 2
bfsp_outcomes_total{reason="skipped",result="failure"} 1
# HELP bfsp_retries_total Retries scheduled, by the reason of the failed attempt.
# TYPE bfsp_retries_total counter
bfsp_retries_total{reason="rate_limited"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "bfsp_outcomes_total", "bfsp_retries_total"))
	count, err := testutil.GatherAndCount(rec.Registry(), "bfsp_requested_files")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunWithDisplay(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()
	var buf bytes.Buffer
	display := output.NewManager(&buf)

	summary, err := Run(context.Background(), requests(dir), dir, Options{Config: testConfig(srv.URL), Display: display})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)

	total, succeeded, failed, skipped := display.Counts()
	assert.Equal(t, []int{4, 2, 2, 1}, []int{total, succeeded, failed, skipped})
	assert.Contains(t, buf.String(), "Completed 2 of 4")
	assert.Contains(t, buf.String(), "HTTP 404")
}

func TestRunSetupError(t *testing.T) {
	cfg := testConfig("ftp://example.com/")
	_, err := Run(context.Background(), nil, t.TempDir(), Options{Config: cfg})
	assert.ErrorIs(t, err, downloader.ErrSetup)
}
