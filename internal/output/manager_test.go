package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerLifecycle(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(&buf)
	ok := m.Register("2024-01-01")
	bad := m.Register("2024-01-02")
	skipped := m.Register("2024-01-03")
	pending := m.Register("2024-01-04")

	m.SetStatus(ok, StatusActive)
	m.SetMessage(ok, "Downloading")
	assert.Equal(t, StatusActive, m.GetStatus(ok))
	m.Complete(ok, "")
	m.ReportError(bad, errors.New("HTTP 404"))
	m.Skip(skipped, "no file")
	assert.Equal(t, StatusPending, m.GetStatus(pending))
	assert.Equal(t, "unknown", m.GetStatus(99))

	total, succeeded, failed, skip := m.Counts()
	assert.Equal(t, 4, total)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, failed)
	assert.Equal(t, 1, skip)

	m.StartDisplay()
	m.StopDisplay()
	out := buf.String()
	assert.Contains(t, out, "Completed 1 of 4")
	assert.Contains(t, out, "Failed 2 of 4 (1 with no file to fetch)")
	assert.Contains(t, out, "HTTP 404")
}

func TestPrintSummaryOmitsFailuresWhenClean(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, 3, 3, 0, 0)
	assert.Contains(t, buf.String(), "Completed 3 of 3")
	assert.NotContains(t, buf.String(), "Failed")
}

func TestProgressBarBounds(t *testing.T) {
	assert.Contains(t, PrintProgressBar(5, 10, 10), "50.0%")
	assert.Contains(t, PrintProgressBar(20, 10, 10), "100.0%")
	assert.Contains(t, PrintProgressBar(-1, 0, 0), "0.0%")
}

func TestWrapText(t *testing.T) {
	long := bytes.Repeat([]byte("x"), 200)
	lines := wrapText(string(long), 6, &bytes.Buffer{})
	assert.Len(t, lines, 3)
	assert.Equal(t, []string{"short"}, wrapText("short", 6, &bytes.Buffer{}))
}
