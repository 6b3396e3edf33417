package flatten

import (
	"context"
	"strings"
	"testing"

	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/facts"
	"github.com/findrum/companyfacts/internal/testutil"
)

func decode(t *testing.T, entityID, body string) facts.RawDocument {
	t.Helper()
	doc, err := facts.DecodeDocument(strings.NewReader(body))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	return facts.RawDocument{EntityID: entityID, EntityName: doc.EntityName, Facts: doc.Facts}
}

func TestProcessAppleScenario(t *testing.T) {
	doc := decode(t, "0000320193", testutil.AppleDocument)

	batch := New(Options{}).Process(context.Background(), doc)

	if batch.EntityID != "0000320193" {
		t.Errorf("batch entity = %q", batch.EntityID)
	}
	if len(batch.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(batch.Rows))
	}

	row := batch.Rows[0]
	if row.Tag != "Assets" || row.Unit != "USD" || row.Frame != "CY2020Q4I" {
		t.Errorf("unexpected row identity: %s", row)
	}
	if row.Val == nil || *row.Val != 1000 {
		t.Errorf("val = %v", row.Val)
	}
	if row.End == nil || *row.End != "2020-12-31" {
		t.Errorf("end = %v", row.End)
	}
	if row.EntityName == nil || *row.EntityName != "Apple Inc." {
		t.Errorf("entity_name = %v", row.EntityName)
	}
	if row.Start != nil || row.Accn != nil || row.FY != nil || row.FP != nil || row.Form != nil || row.Filed != nil {
		t.Errorf("absent fields must stay absent: %+v", row)
	}
}

func TestProcessEmptyFacts(t *testing.T) {
	logs := testutil.CaptureLogs(t)
	f := New(Options{})

	docs := []facts.RawDocument{
		{EntityID: "0000000001"},
		{EntityID: "0000000002", Facts: &facts.FactTree{}},
	}

	for _, doc := range docs {
		batch := f.Process(context.Background(), doc)
		if batch.Len() != 0 {
			t.Errorf("%s: expected empty batch, got %d rows", doc.EntityID, batch.Len())
		}
		if batch.EntityID != doc.EntityID {
			t.Errorf("batch entity = %q", batch.EntityID)
		}
		if !logs.Contains("facts empty", doc.EntityID) {
			t.Errorf("expected diagnostic naming %s", doc.EntityID)
		}
	}
}

func TestProcessPrefixFilter(t *testing.T) {
	body := `{"facts": {"us-gaap": {"Revenues": {"units": {"USD": [
		{"frame": "CY2019", "val": 1},
		{"frame": "CY2019Q1", "val": 2},
		{"frame": "cy2019", "val": 3},
		{"frame": "", "val": 4},
		{"val": 5},
		{"frame": "FY2019", "val": 6},
		{"frame": "XCY2019", "val": 7}
	]}}}}}`
	doc := decode(t, "0000000001", body)

	tests := []struct {
		prefix string
		want   []float64
	}{
		{"", []float64{1, 2}},
		{"CY", []float64{1, 2}},
		{"CY2019Q", []float64{2}},
		{"FY", []float64{6}},
		{"Q", nil},
	}

	for _, tt := range tests {
		t.Run("prefix="+tt.prefix, func(t *testing.T) {
			batch := New(Options{FramePrefix: tt.prefix}).Process(context.Background(), doc)
			if len(batch.Rows) != len(tt.want) {
				t.Fatalf("expected %d rows, got %d", len(tt.want), len(batch.Rows))
			}
			for i, row := range batch.Rows {
				if *row.Val != tt.want[i] {
					t.Errorf("row %d: val=%v, want %v", i, *row.Val, tt.want[i])
				}
			}
		})
	}
}

func TestProcessOrderAndDuplicates(t *testing.T) {
	body := `{"entityName": "Acme", "facts": {
		"us-gaap": {
			"Zeta": {"units": {"USD": [{"frame": "CY2020", "val": 1}, {"frame": "CY2020", "val": 1}]}},
			"Alpha": {"units": {"shares": [{"frame": "CY2021", "val": 2}], "USD": [{"frame": "CY2022", "val": 3}]}}
		},
		"dei": {"Float": {"units": {"USD": [{"frame": "CY2023", "val": 4}]}}}
	}}`
	doc := decode(t, "0000000009", body)

	batch := New(Options{}).Process(context.Background(), doc)

	want := []string{
		"0000000009/Zeta/USD/CY2020",
		"0000000009/Zeta/USD/CY2020",
		"0000000009/Alpha/shares/CY2021",
		"0000000009/Alpha/USD/CY2022",
		"0000000009/Float/USD/CY2023",
	}
	if len(batch.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(batch.Rows))
	}
	for i, row := range batch.Rows {
		if row.String() != want[i] {
			t.Errorf("row %d = %s, want %s", i, row, want[i])
		}
		if row.EntityName == nil || *row.EntityName != "Acme" {
			t.Errorf("row %d: entity_name lost", i)
		}
	}
}

func TestProcessCopiesAllFields(t *testing.T) {
	body := `{"facts": {"us-gaap": {"Assets": {"units": {"USD": [{
		"frame": "CY2020Q4I", "start": "2020-01-01", "end": "2020-12-31", "val": 12.5,
		"accn": "0000320193-21-000010", "fy": 2021, "fp": "Q1", "form": "10-Q", "filed": "2021-01-28"
	}]}}}}}`
	doc := decode(t, "0000320193", body)

	rows := New(Options{}).Process(context.Background(), doc).Rows
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]

	if r.EntityName != nil {
		t.Errorf("entity_name should be absent, got %q", *r.EntityName)
	}
	checks := map[string][2]string{
		"start": {*r.Start, "2020-01-01"},
		"end":   {*r.End, "2020-12-31"},
		"accn":  {*r.Accn, "0000320193-21-000010"},
		"fp":    {*r.FP, "Q1"},
		"form":  {*r.Form, "10-Q"},
		"filed": {*r.Filed, "2021-01-28"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", name, c[0], c[1])
		}
	}
	if *r.Val != 12.5 || *r.FY != 2021 {
		t.Errorf("val=%v fy=%v", *r.Val, *r.FY)
	}
}

func TestProcessToleratesMissingMaps(t *testing.T) {
	body := `{"facts": {"us-gaap": {"NoUnits": {"label": "x"}, "NullUnits": {"units": null}}, "empty": null}}`
	doc := decode(t, "0000000001", body)

	batch := New(Options{}).Process(context.Background(), doc)
	if batch.Len() != 0 {
		t.Errorf("expected no rows, got %d", batch.Len())
	}
}

func TestProcessIrregularRecordsKeepMatchingRows(t *testing.T) {
	body := `{"facts": {"us-gaap": {"Assets": {"units": {"USD": [
		{"frame": "CY2020", "val": 1},
		{"frame": "Q1", "val": "n/a"},
		{"frame": "CY2021", "val": "unknown", "fy": 2021.0},
		{"frame": "CY2022", "val": 3, "fy": "FY22"}
	]}}}}}`
	doc := decode(t, "0000000003", body)

	rows := New(Options{}).Process(context.Background(), doc).Rows
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if rows[0].Frame != "CY2020" || *rows[0].Val != 1 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Frame != "CY2021" || rows[1].Val != nil || rows[1].FY == nil || *rows[1].FY != 2021 {
		t.Errorf("row 1: val should be absent and fy 2021, got %+v", rows[1])
	}
	if rows[2].Frame != "CY2022" || *rows[2].Val != 3 || rows[2].FY != nil {
		t.Errorf("row 2: fy should be absent, got %+v", rows[2])
	}
}

func TestProcessTable(t *testing.T) {
	apple := decode(t, "0000320193", testutil.AppleDocument)
	empty := facts.RawDocument{EntityID: "0000000002"}

	batches, err := New(Options{}).ProcessTable(context.Background(), NewTable([]facts.RawDocument{apple, empty, apple}))
	if err != nil {
		t.Fatalf("ProcessTable: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected one batch per document, got %d", len(batches))
	}

	wantIDs := []string{"0000320193", "0000000002", "0000320193"}
	wantRows := []int{1, 0, 1}
	for i, b := range batches {
		if b.EntityID != wantIDs[i] || b.Len() != wantRows[i] {
			t.Errorf("batch %d = %s with %d rows, want %s with %d", i, b.EntityID, b.Len(), wantIDs[i], wantRows[i])
		}
	}
}

func TestProcessTableCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := decode(t, "0000320193", testutil.AppleDocument)
	if _, err := New(Options{}).ProcessTable(ctx, NewTable([]facts.RawDocument{doc})); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProcessTableMissingColumn(t *testing.T) {
	tbl := &Table{
		Columns:   []string{ColumnEntityID, ColumnEntityName},
		Documents: []facts.RawDocument{{EntityID: "0000000001"}},
	}

	_, err := New(Options{}).ProcessTable(context.Background(), tbl)
	if !errors.Is(err, errors.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}

	if _, err := New(Options{}).ProcessTable(context.Background(), nil); !errors.Is(err, errors.ErrMissingColumn) {
		t.Fatalf("nil table: expected ErrMissingColumn, got %v", err)
	}
}

func TestProcessTableEmptyTableWithColumn(t *testing.T) {
	batches, err := New(Options{}).ProcessTable(context.Background(), NewTable(nil))
	if err != nil {
		t.Fatalf("ProcessTable: %v", err)
	}
	if len(batches) != 0 {
		t.Errorf("expected no batches, got %d", len(batches))
	}
}
