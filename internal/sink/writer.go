package sink

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/parquet-go/parquet-go"

	"github.com/findrum/companyfacts/internal/client"
	"github.com/findrum/companyfacts/internal/facts"
	"github.com/findrum/companyfacts/internal/logging"
)

// Writer persists a batch of rows at a destination path.
type Writer interface {
	Write(ctx context.Context, path string, rows []facts.FlatRow) error
}

// Options configures the Parquet writer.
type Options struct {
	// Compression algorithm
	Compression CompressionType

	// RowGroupSize is the target number of rows per row group. Zero keeps
	// the parquet-go default.
	RowGroupSize int64

	// PageBufferSize is the page buffer size in bytes. Zero keeps the
	// parquet-go default.
	PageBufferSize int
}

// DefaultOptions returns default Parquet options.
func DefaultOptions() Options {
	return Options{
		Compression:    CompressionZstd,
		RowGroupSize:   100000,
		PageBufferSize: 1024 * 1024, // 1MB
	}
}

// Stats holds writer statistics.
type Stats struct {
	FilesWritten int64
	RowsWritten  int64
	BytesWritten int64
	SkippedEmpty int64
}

// ParquetWriter serializes rows to Parquet and hands the bytes to a
// storage client. Existing content at the path is overwritten.
type ParquetWriter struct {
	client client.Client
	opts   Options

	mu    sync.Mutex
	stats Stats
}

// NewParquetWriter creates a writer backed by c.
func NewParquetWriter(c client.Client, opts Options) *ParquetWriter {
	return &ParquetWriter{client: c, opts: opts}
}

// Write serializes rows and stores them at path. An empty row set is skipped
// without touching the client.
func (w *ParquetWriter) Write(ctx context.Context, path string, rows []facts.FlatRow) error {
	log := logging.FromContext(ctx, "sink")

	if len(rows) == 0 {
		log.Warn("skipped empty row set", "path", path)
		w.mu.Lock()
		w.stats.SkippedEmpty++
		w.mu.Unlock()
		return nil
	}

	buf, err := w.Encode(rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	size := int64(buf.Len())

	log.Debug("uploading parquet", "path", path, "rows", len(rows), "bytes", size)

	if err := w.client.Put(ctx, path, buf, client.ContentTypeOctetStream); err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}

	w.mu.Lock()
	w.stats.FilesWritten++
	w.stats.RowsWritten += int64(len(rows))
	w.stats.BytesWritten += size
	w.mu.Unlock()

	return nil
}

// Encode serializes rows into an in-memory Parquet file.
func (w *ParquetWriter) Encode(rows []facts.FlatRow) (*bytes.Buffer, error) {
	writerOpts := []parquet.WriterOption{
		parquet.Compression(getCompression(w.opts.Compression)),
	}
	if w.opts.PageBufferSize > 0 {
		writerOpts = append(writerOpts, parquet.PageBufferSize(w.opts.PageBufferSize))
	}
	if w.opts.RowGroupSize > 0 {
		writerOpts = append(writerOpts, parquet.MaxRowsPerRowGroup(w.opts.RowGroupSize))
	}

	var buf bytes.Buffer
	pw := parquet.NewGenericWriter[ParquetRow](&buf, writerOpts...)

	out := make([]ParquetRow, len(rows))
	for i := range rows {
		out[i] = RowToParquet(&rows[i])
	}

	if _, err := pw.Write(out); err != nil {
		pw.Close()
		return nil, fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}

	return &buf, nil
}

// Stats returns a snapshot of writer statistics.
func (w *ParquetWriter) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
