package facts

import (
	"fmt"
	"strings"
)

const (
	// EntityIDWidth is the fixed width of a normalized entity identifier.
	EntityIDWidth = 10

	// DefaultEntityID is substituted when no identifier can be parsed.
	DefaultEntityID = "0000000000"
)

// Columns lists the FlatRow column names in output order.
var Columns = []string{
	"entity_id",
	"entity_name",
	"frame",
	"tag",
	"unit",
	"start",
	"end",
	"val",
	"accn",
	"fy",
	"fp",
	"form",
	"filed",
}

// RawDocument is one decoded archive entry.
type RawDocument struct {
	EntityID   string
	EntityName *string
	Facts      *FactTree
}

// HasFacts reports whether the document carries at least one taxonomy.
func (d *RawDocument) HasFacts() bool {
	return d.Facts != nil && len(d.Facts.Taxonomies) > 0
}

// FactTree is the taxonomy -> tag -> unit -> records hierarchy of a document.
// Slices preserve the key order of the source JSON objects.
type FactTree struct {
	Taxonomies []Taxonomy
}

// Taxonomy groups tags under a namespace such as "us-gaap" or "dei".
type Taxonomy struct {
	Name string
	Tags []Tag
}

// Tag is a financial line item with its values grouped by unit.
type Tag struct {
	Name  string
	Units []Unit
}

// Unit holds the records reported in one measurement unit.
type Unit struct {
	Name    string
	Records []FactRecord
}

// FactRecord is a single reported value. Pointer fields are nil when the
// source omits them.
type FactRecord struct {
	Frame string   `json:"frame"`
	Start *string  `json:"start"`
	End   *string  `json:"end"`
	Val   *float64 `json:"val"`
	Accn  *string  `json:"accn"`
	FY    *int64   `json:"fy"`
	FP    *string  `json:"fp"`
	Form  *string  `json:"form"`
	Filed *string  `json:"filed"`
}

// FlatRow is one denormalized (entity, tag, unit, record) row.
type FlatRow struct {
	EntityID   string
	EntityName *string
	Frame      string
	Tag        string
	Unit       string
	Start      *string
	End        *string
	Val        *float64
	Accn       *string
	FY         *int64
	FP         *string
	Form       *string
	Filed      *string
}

// RowBatch holds the rows derived from one RawDocument, in traversal order.
type RowBatch struct {
	EntityID string
	Rows     []FlatRow
}

// Len returns the number of rows in the batch.
func (b *RowBatch) Len() int {
	return len(b.Rows)
}

// NormalizeEntityID left-pads a digit string with zeros to EntityIDWidth.
// Longer strings are returned unchanged; an empty string yields DefaultEntityID.
func NormalizeEntityID(digits string) string {
	if digits == "" {
		return DefaultEntityID
	}
	if len(digits) >= EntityIDWidth {
		return digits
	}
	return strings.Repeat("0", EntityIDWidth-len(digits)) + digits
}

// String implements fmt.Stringer for log output.
func (r FlatRow) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", r.EntityID, r.Tag, r.Unit, r.Frame)
}
