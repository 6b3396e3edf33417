// Package reader loads bulk tables of raw documents from storage.
package reader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/findrum/companyfacts/internal/client"
	"github.com/findrum/companyfacts/internal/facts"
	"github.com/findrum/companyfacts/internal/flatten"
	"github.com/findrum/companyfacts/internal/logging"
)

// Reader loads a table from a storage path.
type Reader interface {
	Read(ctx context.Context, path string) (*flatten.Table, error)
}

// maxLineSize bounds a single JSON Lines record.
const maxLineSize = 256 * 1024 * 1024

// JSONLReader reads JSON Lines files in which every line is one document.
// Recognized keys: "cik" or "entity_id", "entityName" or "entity_name", and
// "facts". The table's columns are the recognized keys seen on any line.
type JSONLReader struct {
	client client.Client
}

// NewJSONLReader creates a reader backed by c.
func NewJSONLReader(c client.Client) *JSONLReader {
	return &JSONLReader{client: c}
}

type line struct {
	CIK        json.RawMessage `json:"cik"`
	EntityID   *string         `json:"entity_id"`
	EntityName *string         `json:"entityName"`
	EntityAlt  *string         `json:"entity_name"`
	Facts      json.RawMessage `json:"facts"`
}

// Read loads every document in path.
func (r *JSONLReader) Read(ctx context.Context, path string) (*flatten.Table, error) {
	rc, err := r.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	logging.FromContext(ctx, "reader").Info("table loaded",
		"path", path, "rows", t.Len(), "columns", t.Columns)
	return t, nil
}

// Decode parses JSON Lines from src. Blank lines are ignored.
func Decode(src io.Reader) (*flatten.Table, error) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	seen := map[string]bool{}
	t := &flatten.Table{}
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		doc, cols, err := l.document()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		for _, c := range cols {
			seen[c] = true
		}
		t.Documents = append(t.Documents, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for _, c := range []string{flatten.ColumnEntityID, flatten.ColumnEntityName, flatten.ColumnFacts} {
		if seen[c] {
			t.Columns = append(t.Columns, c)
		}
	}
	return t, nil
}

func (l *line) document() (facts.RawDocument, []string, error) {
	var doc facts.RawDocument
	var cols []string

	switch {
	case l.EntityID != nil:
		doc.EntityID = facts.NormalizeEntityID(*l.EntityID)
		cols = append(cols, flatten.ColumnEntityID)
	case len(l.CIK) > 0:
		id, err := parseCIK(l.CIK)
		if err != nil {
			return doc, nil, err
		}
		doc.EntityID = id
		cols = append(cols, flatten.ColumnEntityID)
	default:
		doc.EntityID = facts.DefaultEntityID
	}

	switch {
	case l.EntityName != nil:
		doc.EntityName = l.EntityName
		cols = append(cols, flatten.ColumnEntityName)
	case l.EntityAlt != nil:
		doc.EntityName = l.EntityAlt
		cols = append(cols, flatten.ColumnEntityName)
	}

	// A present-but-null facts key still counts as the column.
	if l.Facts != nil {
		cols = append(cols, flatten.ColumnFacts)
		if !bytes.Equal(l.Facts, []byte("null")) {
			var tree facts.FactTree
			if err := json.Unmarshal(l.Facts, &tree); err != nil {
				return doc, nil, fmt.Errorf("facts: %w", err)
			}
			doc.Facts = &tree
		}
	}

	return doc, cols, nil
}

// parseCIK accepts the identifier as a JSON string or number.
func parseCIK(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return facts.NormalizeEntityID(s), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("cik: %w", err)
	}
	v, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return "", fmt.Errorf("cik: %w", err)
	}
	return facts.NormalizeEntityID(strconv.FormatUint(v, 10)), nil
}
