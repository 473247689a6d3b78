package ui

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Outcome is the terminal state of one photo
type Outcome int

const (
	OutcomeDownloaded Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Tracker counts photos as they reach a terminal state. All counters are
// atomic so a Snapshot can be taken from any goroutine while downloads
// are running.
type Tracker struct {
	total          atomic.Int64
	processed      atomic.Int64
	downloaded     atomic.Int64
	skipped        atomic.Int64
	failed         atomic.Int64
	metadataFailed atomic.Int64
	startTime      atomic.Int64
}

// Snapshot is a read-only copy of the tracker counters
type Snapshot struct {
	Processed      int
	Total          int
	Downloaded     int
	Skipped        int
	Failed         int
	MetadataFailed int
	Elapsed        time.Duration
}

// NewTracker creates a tracker whose elapsed time starts now
func NewTracker() *Tracker {
	t := &Tracker{}
	t.startTime.Store(time.Now().UnixNano())
	return t
}

// Reset zeroes every counter, restarts the elapsed time and fixes the new
// total. A tracker reused across runs must be reset before each one.
func (t *Tracker) Reset(total int) {
	t.processed.Store(0)
	t.downloaded.Store(0)
	t.skipped.Store(0)
	t.failed.Store(0)
	t.metadataFailed.Store(0)
	t.total.Store(int64(total))
	t.startTime.Store(time.Now().UnixNano())
}

// SetTotal fixes the number of photos this run will process
func (t *Tracker) SetTotal(total int) {
	t.total.Store(int64(total))
}

// Complete records one photo reaching outcome and returns the counters
// right after the increment.
func (t *Tracker) Complete(outcome Outcome) Snapshot {
	switch outcome {
	case OutcomeDownloaded:
		t.downloaded.Add(1)
	case OutcomeSkipped:
		t.skipped.Add(1)
	default:
		t.failed.Add(1)
	}
	t.processed.Add(1)
	return t.Snapshot()
}

// MetadataFailed records a downloaded photo whose metadata was not written
func (t *Tracker) MetadataFailed() {
	t.metadataFailed.Add(1)
}

// Snapshot returns the current counters
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Processed:      int(t.processed.Load()),
		Total:          int(t.total.Load()),
		Downloaded:     int(t.downloaded.Load()),
		Skipped:        int(t.skipped.Load()),
		Failed:         int(t.failed.Load()),
		MetadataFailed: int(t.metadataFailed.Load()),
		Elapsed:        time.Since(time.Unix(0, t.startTime.Load())),
	}
}

// Line renders the progress contract "processed/total"
func (s Snapshot) Line() string {
	return fmt.Sprintf("%d/%d", s.Processed, s.Total)
}

// Done reports whether every photo has reached a terminal state
func (s Snapshot) Done() bool {
	return s.Processed >= s.Total
}

// ProgressPrinter writes one "processed/total" line per completed photo.
// Callers embedding procaredl parse these lines, so nothing else is ever
// written to its writer.
type ProgressPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewProgressPrinter creates a printer writing to out
func NewProgressPrinter(out io.Writer) *ProgressPrinter {
	return &ProgressPrinter{out: out}
}

// Report prints the snapshot's progress line
func (p *ProgressPrinter) Report(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s.Line())
}
