package stats

import (
	"math"
	"sync"
	"testing"
)

func TestReportCounters(t *testing.T) {
	r := New("run-1")

	r.AddDocument(3, false)
	r.AddDocument(0, true)
	r.AddDocument(5, false)
	r.AddParseError()
	r.AddParseError()
	r.AddUnexpectedError()
	r.AddFiles(1, 128)
	r.Finish()

	s := r.Summary()
	if s.RunID != "run-1" {
		t.Errorf("RunID = %q", s.RunID)
	}
	if s.Documents != 3 || s.EmptyDocuments != 1 || s.Rows != 8 {
		t.Errorf("documents=%d empty=%d rows=%d", s.Documents, s.EmptyDocuments, s.Rows)
	}
	if s.ParseErrors != 2 || s.Unexpected != 1 || s.SkippedEntries() != 3 {
		t.Errorf("parse=%d unexpected=%d", s.ParseErrors, s.Unexpected)
	}
	if s.FilesWritten != 1 || s.BytesWritten != 128 {
		t.Errorf("files=%d bytes=%d", s.FilesWritten, s.BytesWritten)
	}
	if s.MinRowsPerDoc != 0 || s.MaxRowsPerDoc != 5 {
		t.Errorf("min=%d max=%d", s.MinRowsPerDoc, s.MaxRowsPerDoc)
	}
	if math.Abs(s.AvgRowsPerDoc-8.0/3.0) > 1e-9 {
		t.Errorf("avg = %f", s.AvgRowsPerDoc)
	}
}

func TestReportEmpty(t *testing.T) {
	s := New("r").Summary()
	if s.Documents != 0 || s.MinRowsPerDoc != 0 || s.P50RowsPerDoc != 0 {
		t.Errorf("unexpected empty summary: %+v", s)
	}
}

func TestReportPercentiles(t *testing.T) {
	r := New("r")
	for i := 1; i <= 100; i++ {
		r.AddDocument(i, false)
	}

	s := r.Summary()
	if math.Abs(s.P50RowsPerDoc-50)/50 > 0.05 {
		t.Errorf("p50 = %f, want ~50", s.P50RowsPerDoc)
	}
	if math.Abs(s.P99RowsPerDoc-99)/99 > 0.05 {
		t.Errorf("p99 = %f, want ~99", s.P99RowsPerDoc)
	}
}

func TestReportConcurrent(t *testing.T) {
	r := New("r")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.AddDocument(2, false)
				r.AddParseError()
			}
		}()
	}
	wg.Wait()

	s := r.Summary()
	if s.Documents != 800 || s.Rows != 1600 || s.ParseErrors != 800 {
		t.Errorf("documents=%d rows=%d parse=%d", s.Documents, s.Rows, s.ParseErrors)
	}
}
