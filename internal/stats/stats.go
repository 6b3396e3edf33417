// Package stats collects run statistics for a pipeline execution.
package stats

import (
	"math"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// DefaultAccuracy is the relative accuracy of the rows-per-document sketch.
const DefaultAccuracy = 0.01

// Report accumulates counters and a rows-per-document distribution.
// It is safe for concurrent use.
type Report struct {
	mu sync.Mutex

	runID   string
	started time.Time
	elapsed time.Duration

	documents      int64
	emptyDocuments int64
	parseErrors    int64
	unexpected     int64
	rows           int64
	files          int64
	bytes          int64

	minRows int64
	maxRows int64

	// nil if the sketch could not be created
	sketch *ddsketch.DDSketch
}

// Summary is an immutable snapshot of a Report.
type Summary struct {
	RunID    string
	Duration time.Duration

	Documents      int64
	EmptyDocuments int64
	ParseErrors    int64
	Unexpected     int64
	Rows           int64
	FilesWritten   int64
	BytesWritten   int64

	MinRowsPerDoc int64
	MaxRowsPerDoc int64
	AvgRowsPerDoc float64
	P50RowsPerDoc float64
	P90RowsPerDoc float64
	P99RowsPerDoc float64
}

// New creates a report for runID.
func New(runID string) *Report {
	r := &Report{
		runID:   runID,
		started: time.Now(),
		minRows: math.MaxInt64,
	}
	if sketch, err := ddsketch.NewDefaultDDSketch(DefaultAccuracy); err == nil {
		r.sketch = sketch
	}
	return r
}

// RunID returns the run identifier.
func (r *Report) RunID() string {
	return r.runID
}

// AddDocument records one processed document and the rows it produced.
func (r *Report) AddDocument(rows int, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.documents++
	if empty {
		r.emptyDocuments++
	}

	n := int64(rows)
	r.rows += n
	if n < r.minRows {
		r.minRows = n
	}
	if n > r.maxRows {
		r.maxRows = n
	}
	if r.sketch != nil {
		r.sketch.Add(float64(n))
	}
}

// AddParseError records an entry skipped because it could not be decoded.
func (r *Report) AddParseError() {
	r.mu.Lock()
	r.parseErrors++
	r.mu.Unlock()
}

// AddUnexpectedError records an entry skipped for any other reason.
func (r *Report) AddUnexpectedError() {
	r.mu.Lock()
	r.unexpected++
	r.mu.Unlock()
}

// AddFiles records n written output files totalling bytes.
func (r *Report) AddFiles(n, bytes int64) {
	r.mu.Lock()
	r.files += n
	r.bytes += bytes
	r.mu.Unlock()
}

// Finish freezes the run duration.
func (r *Report) Finish() {
	r.mu.Lock()
	if r.elapsed == 0 {
		r.elapsed = time.Since(r.started)
	}
	r.mu.Unlock()
}

// Summary returns a snapshot of the current state.
func (r *Report) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		RunID:          r.runID,
		Duration:       r.elapsed,
		Documents:      r.documents,
		EmptyDocuments: r.emptyDocuments,
		ParseErrors:    r.parseErrors,
		Unexpected:     r.unexpected,
		Rows:           r.rows,
		FilesWritten:   r.files,
		BytesWritten:   r.bytes,
	}
	if s.Duration == 0 {
		s.Duration = time.Since(r.started)
	}

	if r.documents > 0 {
		s.MinRowsPerDoc = r.minRows
		s.MaxRowsPerDoc = r.maxRows
		s.AvgRowsPerDoc = float64(r.rows) / float64(r.documents)
	}

	if r.sketch != nil && r.documents > 0 {
		s.P50RowsPerDoc, _ = r.sketch.GetValueAtQuantile(0.50)
		s.P90RowsPerDoc, _ = r.sketch.GetValueAtQuantile(0.90)
		s.P99RowsPerDoc, _ = r.sketch.GetValueAtQuantile(0.99)
	}

	return s
}

// SkippedEntries is the total number of entries that produced no document.
func (s Summary) SkippedEntries() int64 {
	return s.ParseErrors + s.Unexpected
}

// LogAttrs returns the summary as slog key/value pairs.
func (s Summary) LogAttrs() []any {
	return []any{
		"run_id", s.RunID,
		"duration", s.Duration,
		"documents", s.Documents,
		"empty_documents", s.EmptyDocuments,
		"parse_errors", s.ParseErrors,
		"unexpected_errors", s.Unexpected,
		"rows", s.Rows,
		"files", s.FilesWritten,
		"bytes", s.BytesWritten,
		"rows_per_doc_p50", s.P50RowsPerDoc,
		"rows_per_doc_p99", s.P99RowsPerDoc,
	}
}
