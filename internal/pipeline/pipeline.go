// Package pipeline wires the collector, flattener and sink into one run.
package pipeline

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/findrum/companyfacts/internal/collector"
	"github.com/findrum/companyfacts/internal/constants"
	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/facts"
	"github.com/findrum/companyfacts/internal/flatten"
	"github.com/findrum/companyfacts/internal/logging"
	"github.com/findrum/companyfacts/internal/sink"
	"github.com/findrum/companyfacts/internal/stats"
)

// Mode selects the output layout.
type Mode string

const (
	// ModeSingle writes the union of all batches to one file at Path.
	ModeSingle Mode = constants.ModeSingle

	// ModePartitioned writes one file per document at Path/<entity_id>.parquet.
	ModePartitioned Mode = constants.ModePartitioned
)

// ParseMode validates a mode string. Empty selects ModeSingle.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSingle:
		return ModeSingle, nil
	case ModePartitioned:
		return ModePartitioned, nil
	default:
		return "", errors.NewValidation("sink.mode", fmt.Sprintf("unknown mode %q", s))
	}
}

// Options configures a pipeline.
type Options struct {
	// Path is the output file (single) or directory prefix (partitioned).
	Path string

	Mode Mode

	// Workers > 1 flattens documents concurrently. Output order is unchanged.
	Workers int

	// RunID labels log lines and the report. Generated when empty.
	RunID string
}

// Pipeline runs Collector -> Processor -> Writer.
type Pipeline struct {
	collector collector.Collector
	processor flatten.Processor
	writer    sink.Writer
	opts      Options
}

// New creates a pipeline.
func New(c collector.Collector, p flatten.Processor, w sink.Writer, opts Options) (*Pipeline, error) {
	v := errors.NewValidationErrors()
	if c == nil {
		v.AddMissing("collector")
	}
	if p == nil {
		v.AddMissing("processor")
	}
	if w == nil {
		v.AddMissing("writer")
	}
	if opts.Path == "" {
		v.AddMissing("sink.path")
	}
	if opts.Workers < 0 {
		v.AddField("pipeline.workers", "must not be negative")
	}
	mode, err := ParseMode(string(opts.Mode))
	v.Add(err)
	if err := v.Err(); err != nil {
		return nil, err
	}

	opts.Mode = mode
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{collector: c, processor: p, writer: w, opts: opts}, nil
}

// Run extracts, flattens and writes every document in archive. Entry errors
// are counted and skipped; any other error ends the run.
func (p *Pipeline) Run(ctx context.Context, archive []byte) (stats.Summary, error) {
	ctx, report := p.begin(ctx)
	log := logging.FromContext(ctx, "pipeline")
	out := p.newOutput(report)

	log.Info("run started", "mode", p.opts.Mode, "workers", p.opts.Workers, "path", p.opts.Path)

	var err error
	if p.opts.Workers > 1 {
		err = p.runConcurrent(ctx, archive, out, report)
	} else {
		err = p.runSequential(ctx, archive, out, report)
	}
	if err == nil {
		err = out.finish(ctx)
	}

	return p.end(ctx, report, err)
}

// RunTable flattens a bulk table loaded by a reader. The processor must
// implement flatten.TableProcessor. A table without a facts column fails with
// errors.ErrMissingColumn before anything is written.
func (p *Pipeline) RunTable(ctx context.Context, t *flatten.Table) (stats.Summary, error) {
	ctx, report := p.begin(ctx)
	out := p.newOutput(report)

	tp, ok := p.processor.(flatten.TableProcessor)
	if !ok {
		return p.end(ctx, report, errors.NewValidation("processor", "bulk tables are not supported"))
	}

	batches, err := tp.ProcessTable(ctx, t)
	if err != nil {
		return p.end(ctx, report, err)
	}

	logging.FromContext(ctx, "pipeline").Info("table run started",
		"documents", t.Len(), "mode", p.opts.Mode, "path", p.opts.Path)

	for i, b := range batches {
		report.AddDocument(b.Len(), !t.Documents[i].HasFacts())
		if err := out.emit(ctx, b); err != nil {
			return p.end(ctx, report, err)
		}
	}

	return p.end(ctx, report, out.finish(ctx))
}

func (p *Pipeline) begin(ctx context.Context) (context.Context, *stats.Report) {
	runID := p.opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	return logging.ContextWithRunID(ctx, runID), stats.New(runID)
}

func (p *Pipeline) end(ctx context.Context, report *stats.Report, err error) (stats.Summary, error) {
	report.Finish()
	summary := report.Summary()

	log := logging.FromContext(ctx, "pipeline")
	if err != nil {
		log.Error("run failed", append(summary.LogAttrs(), "error", err)...)
		return summary, err
	}
	log.Info("run completed", summary.LogAttrs()...)
	return summary, nil
}

func (p *Pipeline) process(ctx context.Context, doc facts.RawDocument, report *stats.Report) facts.RowBatch {
	batch := p.processor.Process(logging.ContextWithEntityID(ctx, doc.EntityID), doc)
	report.AddDocument(batch.Len(), !doc.HasFacts())
	return batch
}

// record classifies a collector error. It returns the error when the run
// must stop.
func record(report *stats.Report, err error) error {
	var entryErr *collector.EntryError
	if !errors.As(err, &entryErr) {
		return err
	}
	if entryErr.Kind == collector.KindParse {
		report.AddParseError()
	} else {
		report.AddUnexpectedError()
	}
	return nil
}

func (p *Pipeline) runSequential(ctx context.Context, archive []byte, out *output, report *stats.Report) error {
	for doc, err := range p.collector.Collect(ctx, archive) {
		if err != nil {
			if err := record(report, err); err != nil {
				return err
			}
			continue
		}
		if err := out.emit(ctx, p.process(ctx, doc, report)); err != nil {
			return err
		}
	}
	return nil
}

// runConcurrent flattens documents in windows of a few times the worker
// count. Each window is emitted in archive order once all of it is done, so
// memory stays bounded by the window.
func (p *Pipeline) runConcurrent(ctx context.Context, archive []byte, out *output, report *stats.Report) error {
	window := p.opts.Workers * 4
	pending := make([]facts.RawDocument, 0, window)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		batches := make([]facts.RowBatch, len(pending))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.opts.Workers)
		for i := range pending {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				batches[i] = p.process(gctx, pending[i], report)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, b := range batches {
			if err := out.emit(ctx, b); err != nil {
				return err
			}
		}
		pending = pending[:0]
		return nil
	}

	for doc, err := range p.collector.Collect(ctx, archive) {
		if err != nil {
			if err := record(report, err); err != nil {
				return err
			}
			continue
		}
		pending = append(pending, doc)
		if len(pending) == window {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// output routes batches to the writer according to the mode.
type output struct {
	writer sink.Writer
	mode   Mode
	path   string
	report *stats.Report

	// single mode accumulates here
	rows []facts.FlatRow

	// partitions written per entity id in this run
	seen map[string]int
}

func (p *Pipeline) newOutput(report *stats.Report) *output {
	return &output{
		writer: p.writer,
		mode:   p.opts.Mode,
		path:   p.opts.Path,
		report: report,
		seen:   make(map[string]int),
	}
}

// emit routes one batch. In partitioned mode a repeated entity id (several
// entries without a parsable CIK all map to the default id) gets an
// occurrence suffix instead of overwriting the earlier file.
func (o *output) emit(ctx context.Context, b facts.RowBatch) error {
	if o.mode == ModeSingle {
		o.rows = append(o.rows, b.Rows...)
		return nil
	}
	if b.Len() == 0 {
		return nil
	}

	id := b.EntityID
	n := o.seen[id]
	o.seen[id] = n + 1
	if n > 0 {
		id = fmt.Sprintf("%s-%d", id, n)
		logging.FromContext(ctx, "pipeline").Warn("duplicate entity id, writing suffixed partition",
			"entity_id", b.EntityID, "path", PartitionPath(o.path, id))
	}
	return o.write(ctx, PartitionPath(o.path, id), b.Rows)
}

func (o *output) finish(ctx context.Context) error {
	if o.mode != ModeSingle {
		return nil
	}
	if len(o.rows) == 0 {
		// The writer logs and skips; nothing is recorded as written.
		return o.writer.Write(ctx, o.path, nil)
	}
	return o.write(ctx, o.path, o.rows)
}

func (o *output) write(ctx context.Context, dst string, rows []facts.FlatRow) error {
	var before sink.Stats
	sw, hasStats := o.writer.(interface{ Stats() sink.Stats })
	if hasStats {
		before = sw.Stats()
	}

	if err := o.writer.Write(ctx, dst, rows); err != nil {
		return err
	}

	if hasStats {
		after := sw.Stats()
		o.report.AddFiles(after.FilesWritten-before.FilesWritten, after.BytesWritten-before.BytesWritten)
	} else {
		o.report.AddFiles(1, 0)
	}
	return nil
}

// PartitionPath returns the output path of one entity in partitioned mode.
func PartitionPath(prefix, entityID string) string {
	return path.Join(prefix, entityID+".parquet")
}
