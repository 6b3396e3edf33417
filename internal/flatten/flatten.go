// Package flatten expands the nested fact tree of a raw document into flat
// rows, keeping only records whose frame starts with a configured prefix.
package flatten

import (
	"context"
	"strings"

	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/facts"
	"github.com/findrum/companyfacts/internal/logging"
)

// DefaultFramePrefix selects calendar-year frames.
const DefaultFramePrefix = "CY"

// Processor turns one raw document into a row batch.
type Processor interface {
	Process(ctx context.Context, doc facts.RawDocument) facts.RowBatch
}

// TableProcessor flattens a whole bulk table.
type TableProcessor interface {
	ProcessTable(ctx context.Context, t *Table) ([]facts.RowBatch, error)
}

// Options configures the flattener.
type Options struct {
	// FramePrefix selects which frames are materialized. Empty means
	// DefaultFramePrefix.
	FramePrefix string
}

// Flattener is the frame-filtering Processor.
type Flattener struct {
	prefix string
}

// New creates a flattener.
func New(opts Options) *Flattener {
	prefix := opts.FramePrefix
	if prefix == "" {
		prefix = DefaultFramePrefix
	}
	return &Flattener{prefix: prefix}
}

// Process flattens doc. A document without facts yields an empty batch.
func (f *Flattener) Process(ctx context.Context, doc facts.RawDocument) facts.RowBatch {
	batch := facts.RowBatch{EntityID: doc.EntityID}
	log := logging.FromContext(ctx, "flatten")

	if !doc.HasFacts() {
		log.Info("facts empty, skipping document", "entity_id", doc.EntityID)
		return batch
	}

	batch.Rows = f.collectRows(doc)

	if len(batch.Rows) == 0 {
		log.Debug("no facts matched frame prefix", "entity_id", doc.EntityID, "frame_prefix", f.prefix)
	}
	return batch
}

func (f *Flattener) collectRows(doc facts.RawDocument) []facts.FlatRow {
	var rows []facts.FlatRow

	for _, taxonomy := range doc.Facts.Taxonomies {
		for _, tag := range taxonomy.Tags {
			for _, unit := range tag.Units {
				for i := range unit.Records {
					rec := &unit.Records[i]
					if !strings.HasPrefix(rec.Frame, f.prefix) {
						continue
					}

					rows = append(rows, facts.FlatRow{
						EntityID:   doc.EntityID,
						EntityName: doc.EntityName,
						Frame:      rec.Frame,
						Tag:        tag.Name,
						Unit:       unit.Name,
						Start:      rec.Start,
						End:        rec.End,
						Val:        rec.Val,
						Accn:       rec.Accn,
						FY:         rec.FY,
						FP:         rec.FP,
						Form:       rec.Form,
						Filed:      rec.Filed,
					})
				}
			}
		}
	}

	return rows
}

// ProcessTable flattens every document of a bulk table and returns one batch
// per document in table order. It fails only when the table has no facts
// column at all; documents with empty facts yield empty batches.
func (f *Flattener) ProcessTable(ctx context.Context, t *Table) ([]facts.RowBatch, error) {
	if t == nil || !t.HasColumn(ColumnFacts) {
		return nil, errors.NewMissingColumn(ColumnFacts)
	}

	log := logging.FromContext(ctx, "flatten")
	log.Info("processing table", "rows", t.Len())

	batches := make([]facts.RowBatch, 0, t.Len())
	total := 0
	for _, doc := range t.Documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch := f.Process(logging.ContextWithEntityID(ctx, doc.EntityID), doc)
		total += batch.Len()
		batches = append(batches, batch)
	}

	if total == 0 {
		log.Info("no facts matched frame prefix", "frame_prefix", f.prefix)
	}
	return batches, nil
}
