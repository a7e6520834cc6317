package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusRetry   = "warning"
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

type Entry struct {
	ID          int
	Label       string
	Status      string
	Message     string
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
}

type ErrorReport struct {
	Label string
	Error error
	Time  time.Time
}

// Manager renders a live, redrawn view of registered entries. All methods
// are safe for concurrent use; the display goroutine only reads.
type Manager struct {
	entries     map[int]*Entry
	mutex       sync.RWMutex
	out         io.Writer
	numLines    int
	maxActive   int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	count       int
	displayWg   sync.WaitGroup
}

func NewManager(out io.Writer) *Manager {
	if out == nil {
		out = os.Stdout
	}
	return &Manager{
		entries:     make(map[int]*Entry),
		out:         out,
		maxActive:   10,
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

func (m *Manager) Register(label string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.count++
	now := time.Now()
	m.entries[m.count] = &Entry{
		ID:          m.count,
		Label:       label,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
	}
	return m.count
}

func (m *Manager) update(id int, fn func(e *Entry)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if e, exists := m.entries[id]; exists {
		fn(e)
		e.LastUpdated = time.Now()
	}
}

func (m *Manager) SetMessage(id int, message string) {
	m.update(id, func(e *Entry) { e.Message = message })
}

// SetStatus also restarts the elapsed clock when an entry leaves pending.
func (m *Manager) SetStatus(id int, status string) {
	m.update(id, func(e *Entry) {
		if e.Status == StatusPending && status != StatusPending {
			e.StartTime = time.Now()
		}
		e.Status = status
	})
}

func (m *Manager) GetStatus(id int) string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if e, exists := m.entries[id]; exists {
		return e.Status
	}
	return "unknown"
}

func (m *Manager) Complete(id int, message string) {
	m.update(id, func(e *Entry) {
		if message == "" {
			message = fmt.Sprintf("Completed %s", e.Label)
		}
		e.Message = message
		e.Complete = true
		e.Status = StatusSuccess
	})
}

func (m *Manager) Skip(id int, message string) {
	m.update(id, func(e *Entry) {
		e.Message = message
		e.Complete = true
		e.Status = StatusSkipped
	})
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if e, exists := m.entries[id]; exists {
		e.Complete = true
		e.Status = StatusError
		e.Error = err
		e.Message = fmt.Sprintf("%s: %v", e.Label, err)
		e.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{Label: e.Label, Error: err, Time: e.LastUpdated})
	}
}

// Counts returns the number of finished entries by result. Skipped entries
// are also counted as failed.
func (m *Manager) Counts() (total, succeeded, failed, skipped int) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, e := range m.entries {
		switch e.Status {
		case StatusSuccess:
			succeeded++
		case StatusError:
			failed++
		case StatusSkipped:
			failed++
			skipped++
		}
	}
	return len(m.entries), succeeded, failed, skipped
}

func statusIndicator(status string) string {
	switch status {
	case StatusSuccess:
		return successStyle.Render(StyleSymbols["pass"])
	case StatusError:
		return errorStyle.Render(StyleSymbols["fail"])
	case StatusRetry, StatusSkipped:
		return warningStyle.Render(StyleSymbols["warning"])
	case StatusPending:
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func styledMessage(status, message string) string {
	switch status {
	case StatusSuccess:
		return successStyle.Render(message)
	case StatusError:
		return errorStyle.Render(message)
	case StatusRetry, StatusSkipped:
		return warningStyle.Render(message)
	default:
		return pendingStyle.Render(message)
	}
}

func (m *Manager) sortEntries() (active []*Entry, pending, completed int, recent []*Entry) {
	all := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	var done []*Entry
	for _, e := range all {
		switch {
		case e.Complete:
			done = append(done, e)
		case e.Status == StatusPending:
			pending++
		default:
			active = append(active, e)
		}
	}
	sort.SliceStable(done, func(i, j int) bool { return done[i].LastUpdated.Before(done[j].LastUpdated) })
	if len(done) > 5 {
		recent = done[len(done)-5:]
	} else {
		recent = done
	}
	return active, pending, len(done), recent
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, termHeight := terminalSize(m.out)
	availableLines := termHeight - 3

	if m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}
	lineCount := 0
	indent := strings.Repeat(" ", 2)
	active, pending, done, recent := m.sortEntries()

	fmt.Fprintf(m.out, "%s%s%s\n", indent, PrintProgressBar(int64(done), int64(len(m.entries)), 30),
		debugStyle.Render(fmt.Sprintf("%d/%d done, %d queued", done, len(m.entries), pending)))
	lineCount++

	for _, e := range recent {
		if lineCount >= availableLines {
			break
		}
		took := e.LastUpdated.Sub(e.StartTime).Round(time.Second)
		fmt.Fprintf(m.out, "%s%s %s %s\n", indent, statusIndicator(e.Status), debugStyle.Render(took.String()), styledMessage(e.Status, e.Message))
		lineCount++
	}
	if len(active) > m.maxActive {
		active = active[:m.maxActive]
	}
	for _, e := range active {
		if lineCount >= availableLines {
			break
		}
		elapsed := time.Since(e.StartTime).Round(time.Second)
		fmt.Fprintf(m.out, "%s%s %s %s\n", indent, statusIndicator(e.Status), debugStyle.Render(elapsed.String()), styledMessage(e.Status, e.Message))
		lineCount++
	}
	m.numLines = lineCount
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				m.ShowSummary()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) displayErrors() {
	if len(m.errors) == 0 {
		return
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, strings.Repeat(" ", 2)+errorStyle.Bold(true).Render("Errors:"))
	for i, err := range m.errors {
		fmt.Fprintf(m.out, "%s%s %s %s\n",
			strings.Repeat(" ", 2+2),
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", err.Time.Format("15:04:05"))),
			errorStyle.Render(err.Label))
		for _, line := range wrapText(fmt.Sprintf("Error: %v", err.Error), 2+4, m.out) {
			fmt.Fprintf(m.out, "%s%s\n", strings.Repeat(" ", 2+4), errorStyle.Render(line))
		}
	}
}

func (m *Manager) ShowSummary() {
	total, succeeded, failed, skipped := m.Counts()
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	fmt.Fprintln(m.out)
	PrintSummary(m.out, total, succeeded, failed, skipped)
	m.displayErrors()
	fmt.Fprintln(m.out)
}

// PrintSummary writes the end-of-run totals. Plain runs call it directly.
func PrintSummary(w io.Writer, total, succeeded, failed, skipped int) {
	fmt.Fprintln(w, strings.Repeat(" ", 2)+success2Style.Render(fmt.Sprintf("Completed %d of %d", succeeded, total)))
	if failed > 0 {
		msg := fmt.Sprintf("Failed %d of %d", failed, total)
		if skipped > 0 {
			msg += fmt.Sprintf(" (%d with no file to fetch)", skipped)
		}
		fmt.Fprintln(w, strings.Repeat(" ", 2)+errorStyle.Render(msg))
	}
}
