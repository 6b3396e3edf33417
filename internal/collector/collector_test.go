package collector

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/facts"
	"github.com/findrum/companyfacts/internal/testutil"
)

func collectAll(t *testing.T, c *ZipCollector, archive []byte) ([]facts.RawDocument, []error) {
	t.Helper()
	var docs []facts.RawDocument
	var errs []error
	for doc, err := range c.Collect(context.Background(), archive) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}

func TestExtractEntityID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"CIK0000320193.json", "0000320193"},
		{"CIK320193.json", "0000320193"},
		{"cik42.JSON", "0000000042"},
		{"nested/dir/CIK0001018724.json", "0001018724"},
		{"CIK12345678901.json", "12345678901"},
		{"companyfacts.json", facts.DefaultEntityID},
		{"CIKabc.json", facts.DefaultEntityID},
		{"CIK123.json.bak", facts.DefaultEntityID},
	}

	for _, tt := range tests {
		if got := ExtractEntityID(tt.name); got != tt.want {
			t.Errorf("ExtractEntityID(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCollectAppleScenario(t *testing.T) {
	archive := testutil.BuildArchive(t, testutil.Entry{
		Name:    "CIK0000320193.json",
		Content: testutil.AppleDocument,
	})

	docs, errs := collectAll(t, New(Options{}), archive)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	doc := docs[0]
	if doc.EntityID != "0000320193" {
		t.Errorf("entity_id = %q", doc.EntityID)
	}
	if doc.EntityName == nil || *doc.EntityName != "Apple Inc." {
		t.Errorf("entity_name = %v", doc.EntityName)
	}
	if !doc.HasFacts() {
		t.Fatal("expected facts")
	}
	if doc.Facts.Taxonomies[0].Name != "us-gaap" {
		t.Errorf("unexpected taxonomy %q", doc.Facts.Taxonomies[0].Name)
	}
}

func TestCollectSkipsNonDocuments(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	archive := testutil.BuildArchive(t,
		testutil.Entry{Name: "README.txt", Content: "not a document"},
		testutil.Entry{Name: "dir/", Content: ""},
		testutil.Entry{Name: "CIK0000000001.JSON", Content: `{"entityName": "Upper"}`},
		testutil.Entry{Name: "index.xml", Content: "<x/>"},
	)

	docs, errs := collectAll(t, New(Options{}), archive)
	if len(errs) != 0 {
		t.Fatalf("non-document entries should not produce errors: %v", errs)
	}
	if len(docs) != 1 || docs[0].EntityID != "0000000001" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
	if logs.Contains("README.txt") {
		t.Error("skipped entries should not be logged")
	}
}

func TestCollectParseErrorIsolated(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	archive := testutil.BuildArchive(t,
		testutil.Entry{Name: "CIK0000000001.json", Content: `{"entityName": "First", "facts": {}}`},
		testutil.Entry{Name: "CIK0000000002.json", Content: `{"entityName": "Broken", "facts": `},
		testutil.Entry{Name: "CIK0000000003.json", Content: `this is not json`},
		testutil.Entry{Name: "CIK0000000004.json", Content: `{"facts": {"us-gaap": []}}`},
		testutil.Entry{Name: "CIK0000000005.json", Content: `{"entityName": "Last"}`},
	)

	docs, errs := collectAll(t, New(Options{}), archive)

	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].EntityID != "0000000001" || docs[1].EntityID != "0000000005" {
		t.Errorf("unexpected documents: %s, %s", docs[0].EntityID, docs[1].EntityID)
	}

	if len(errs) != 3 {
		t.Fatalf("expected 3 entry errors, got %d: %v", len(errs), errs)
	}
	for _, err := range errs {
		var entryErr *EntryError
		if !errors.As(err, &entryErr) {
			t.Fatalf("expected *EntryError, got %T", err)
		}
		if entryErr.Kind != KindParse {
			t.Errorf("%s: kind = %s, want parse", entryErr.Entry, entryErr.Kind)
		}
		if !errors.Is(err, errors.ErrEntryParse) {
			t.Errorf("%s: expected ErrEntryParse in chain", entryErr.Entry)
		}
	}

	if !logs.Contains("level=WARN", "CIK0000000003.json") {
		t.Errorf("expected parse diagnostic in logs:\n%s", logs.String())
	}
}

func TestCollectUnexpectedErrorIsolated(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	archive := testutil.BuildArchive(t,
		testutil.Entry{Name: "CIK0000000007.json", Content: `{"facts": {}}`, RawMethod: 77},
		testutil.Entry{Name: "CIK0000000008.json", Content: `{"entityName": "Next"}`},
	)

	docs, errs := collectAll(t, New(Options{}), archive)
	if len(docs) != 1 || docs[0].EntityID != "0000000008" {
		t.Fatalf("expected the second entry to survive, got %+v", docs)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}

	var entryErr *EntryError
	if !errors.As(errs[0], &entryErr) || entryErr.Kind != KindUnexpected {
		t.Fatalf("expected unexpected entry error, got %v", errs[0])
	}
	if !logs.Contains("level=ERROR", "CIK0000000007.json", "method=77") {
		t.Errorf("expected detailed diagnostic in logs:\n%s", logs.String())
	}
}

func TestCollectTruncatedStreamIsUnexpected(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	body := `{"entityName": "` + strings.Repeat("0123456789abcdef", 4096) + `", "facts": {}}`
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	if err := fw.Close(); err != nil {
		t.Fatal(err)
	}
	truncated := buf.Bytes()[:buf.Len()/2]

	archive := testutil.BuildArchive(t,
		testutil.Entry{Name: "CIK0000000007.json", Content: string(truncated), RawMethod: zip.Deflate},
		testutil.Entry{Name: "CIK0000000008.json", Content: `{"entityName": "Next"}`},
	)

	docs, errs := collectAll(t, New(Options{}), archive)
	if len(docs) != 1 || docs[0].EntityID != "0000000008" {
		t.Fatalf("expected the second entry to survive, got %+v", docs)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}

	var entryErr *EntryError
	if !errors.As(errs[0], &entryErr) || entryErr.Kind != KindUnexpected {
		t.Fatalf("expected unexpected entry error, got %v", errs[0])
	}
	if errors.Is(errs[0], errors.ErrEntryParse) {
		t.Error("decompression failure must not be a parse error")
	}
	if !logs.Contains("level=ERROR", "CIK0000000007.json") {
		t.Errorf("expected ERROR diagnostic in logs:\n%s", logs.String())
	}
}

func TestCollectNullDocumentIsUnexpected(t *testing.T) {
	archive := testutil.BuildArchive(t,
		testutil.Entry{Name: "CIK0000000001.json", Content: `null`},
		testutil.Entry{Name: "CIK0000000002.json", Content: `{"facts": {}} trailing`},
	)

	docs, errs := collectAll(t, New(Options{}), archive)
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %+v", docs)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}

	want := []ErrorKind{KindUnexpected, KindParse}
	for i, err := range errs {
		var entryErr *EntryError
		if !errors.As(err, &entryErr) {
			t.Fatalf("expected *EntryError, got %T", err)
		}
		if entryErr.Kind != want[i] {
			t.Errorf("%s: kind = %s, want %s", entryErr.Entry, entryErr.Kind, want[i])
		}
	}
	if !errors.Is(errs[0], errors.ErrNullDocument) {
		t.Errorf("expected ErrNullDocument, got %v", errs[0])
	}
}

func TestCollectIrregularRecordKeepsDocument(t *testing.T) {
	archive := testutil.BuildArchive(t,
		testutil.Entry{Name: "CIK0000000042.json", Content: `{"entityName": "Irregular", "facts": {"us-gaap": {"Assets": {"units": {"USD": [
			{"frame": "CY2020", "val": 1},
			{"frame": "Q1", "val": "n/a"},
			{"frame": "CY2021", "val": 2, "fy": 2021.0}
		]}}}}}`},
	)

	docs, errs := collectAll(t, New(Options{}), archive)
	if len(errs) != 0 {
		t.Fatalf("irregular fields must not reject the document: %v", errs)
	}
	if len(docs) != 1 || docs[0].EntityID != "0000000042" {
		t.Fatalf("unexpected documents: %+v", docs)
	}

	recs := docs[0].Facts.Taxonomies[0].Tags[0].Units[0].Records
	if len(recs) != 3 || recs[1].Val != nil || recs[2].FY == nil || *recs[2].FY != 2021 {
		t.Errorf("unexpected records: %+v", recs)
	}
}

func TestCollectInvalidArchive(t *testing.T) {
	_, errs := collectAll(t, New(Options{}), []byte("definitely not a zip"))
	if len(errs) != 1 {
		t.Fatalf("expected a single archive error, got %v", errs)
	}
	var entryErr *EntryError
	if errors.As(errs[0], &entryErr) {
		t.Error("archive failure should not be an entry error")
	}
}

func TestCollectEarlyBreak(t *testing.T) {
	archive := testutil.BuildArchive(t,
		testutil.Entry{Name: "CIK1.json", Content: `{}`},
		testutil.Entry{Name: "CIK2.json", Content: `{}`},
		testutil.Entry{Name: "CIK3.json", Content: `{}`},
	)

	var seen []string
	for doc, err := range New(Options{}).Collect(context.Background(), archive) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen = append(seen, doc.EntityID)
		if len(seen) == 2 {
			break
		}
	}

	if len(seen) != 2 || seen[1] != "0000000002" {
		t.Errorf("unexpected documents: %v", seen)
	}
}

func TestCollectCancelled(t *testing.T) {
	archive := testutil.BuildArchive(t,
		testutil.Entry{Name: "CIK1.json", Content: `{}`},
		testutil.Entry{Name: "CIK2.json", Content: `{}`},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	count := 0
	for _, err := range New(Options{}).Collect(ctx, archive) {
		count++
		gotErr = err
	}

	if count != 1 || !errors.Is(gotErr, context.Canceled) {
		t.Errorf("expected a single context.Canceled, got %d items, err=%v", count, gotErr)
	}
}

func TestCollectRestartable(t *testing.T) {
	archive := testutil.BuildArchive(t,
		testutil.Entry{Name: "CIK1.json", Content: `{}`},
	)
	c := New(Options{})

	for i := 0; i < 2; i++ {
		docs, errs := collectAll(t, c, archive)
		if len(docs) != 1 || len(errs) != 0 {
			t.Fatalf("pass %d: docs=%d errs=%v", i, len(docs), errs)
		}
	}
}

func TestCollectCustomExtension(t *testing.T) {
	archive := testutil.BuildArchive(t,
		testutil.Entry{Name: "CIK9.txt", Content: `{"entityName": "Text"}`},
		testutil.Entry{Name: "CIK8.json", Content: `{}`},
	)

	docs, _ := collectAll(t, New(Options{Extension: ".TXT"}), archive)
	if len(docs) != 1 || docs[0].EntityID != "0000000009" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}
