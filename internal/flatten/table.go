package flatten

import (
	"slices"

	"github.com/findrum/companyfacts/internal/facts"
)

// Column names recognized in bulk input.
const (
	ColumnEntityID   = "entity_id"
	ColumnEntityName = "entity_name"
	ColumnFacts      = "facts"
)

// Table is a bulk input: documents plus the set of columns the source
// actually provided. A column can be absent from the whole table even though
// individual documents always have the corresponding struct field.
type Table struct {
	Columns   []string
	Documents []facts.RawDocument
}

// NewTable creates a table with the full column set.
func NewTable(docs []facts.RawDocument) *Table {
	return &Table{
		Columns:   []string{ColumnEntityID, ColumnEntityName, ColumnFacts},
		Documents: docs,
	}
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// Len returns the number of documents.
func (t *Table) Len() int {
	return len(t.Documents)
}
