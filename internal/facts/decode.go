package facts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/logging"
)

// Document is the on-disk shape of one companyfacts JSON file.
type Document struct {
	EntityName *string   `json:"entityName"`
	Facts      *FactTree `json:"facts"`
}

// DecodeDocument stream-decodes a single document from r. The input must be
// exactly one JSON object.
//
// Failures of the JSON content match errors.ErrMalformedDocument. Errors
// returned by r itself (decompression, checksum) keep their identity and never
// match it. A top-level null matches errors.ErrNullDocument.
func DecodeDocument(r io.Reader) (*Document, error) {
	src := &trackingReader{r: r}
	dec := json.NewDecoder(src)

	var doc *Document
	if err := dec.Decode(&doc); err != nil {
		return nil, decodeError(src, err)
	}
	if doc == nil {
		return nil, errors.ErrNullDocument
	}

	if _, err := dec.Token(); err != io.EOF {
		if src.err != nil {
			return nil, fmt.Errorf("read document: %w", src.err)
		}
		return nil, fmt.Errorf("trailing data after document: %w", errors.ErrMalformedDocument)
	}
	return doc, nil
}

func decodeError(src *trackingReader, err error) error {
	if src.err != nil {
		return fmt.Errorf("read document: %w", src.err)
	}
	return fmt.Errorf("%w: %w", errors.ErrMalformedDocument, err)
}

// trackingReader remembers the first non-EOF error of the underlying reader.
// The JSON decoder reports a truncated stream and truncated JSON both as
// io.ErrUnexpectedEOF; this is what separates them.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

// UnmarshalJSON decodes the nested facts object keeping source key order.
// Null or missing "units" objects decode as empty.
func (t *FactTree) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tree := FactTree{}

	_, err := decodeObject(dec, "facts", func(taxonomy string) error {
		tax := Taxonomy{Name: taxonomy}
		_, err := decodeObject(dec, "taxonomy "+taxonomy, func(tag string) error {
			t, err := decodeTag(dec, tag)
			if err != nil {
				return err
			}
			tax.Tags = append(tax.Tags, t)
			return nil
		})
		if err != nil {
			return err
		}
		tree.Taxonomies = append(tree.Taxonomies, tax)
		return nil
	})
	if err != nil {
		return err
	}

	*t = tree
	return nil
}

func decodeTag(dec *json.Decoder, name string) (Tag, error) {
	tag := Tag{Name: name}
	_, err := decodeObject(dec, "tag "+name, func(field string) error {
		if field != "units" {
			return skipValue(dec)
		}
		_, err := decodeObject(dec, "units of "+name, func(unit string) error {
			var records []FactRecord
			if err := dec.Decode(&records); err != nil {
				return fmt.Errorf("records of %s/%s: %w", name, unit, err)
			}
			tag.Units = append(tag.Units, Unit{Name: unit, Records: records})
			return nil
		})
		return err
	})
	return tag, err
}

// UnmarshalJSON decodes a record field by field. A field whose JSON type does
// not fit its column is dropped (left absent) with a DEBUG diagnostic; it never
// fails the document. A record that is not an object decodes as empty.
func (r *FactRecord) UnmarshalJSON(data []byte) error {
	*r = FactRecord{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			irregular("record", data)
			return nil
		}
		return err
	}

	for key, raw := range fields {
		ok := true
		switch key {
		case "frame":
			var frame *string
			if frame, ok = stringField(raw); frame != nil {
				r.Frame = *frame
			}
		case "start":
			r.Start, ok = stringField(raw)
		case "end":
			r.End, ok = stringField(raw)
		case "val":
			r.Val, ok = floatField(raw)
		case "accn":
			r.Accn, ok = stringField(raw)
		case "fy":
			r.FY, ok = intField(raw)
		case "fp":
			r.FP, ok = stringField(raw)
		case "form":
			r.Form, ok = stringField(raw)
		case "filed":
			r.Filed, ok = stringField(raw)
		}
		if !ok {
			irregular(key, raw)
		}
	}
	return nil
}

func irregular(field string, raw []byte) {
	logging.Component("facts").Debug("ignoring irregular fact field", "field", field, "value", string(raw))
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// stringField returns (nil, true) for null and (nil, false) for a non-string.
func stringField(raw json.RawMessage) (*string, bool) {
	if isNull(raw) {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func floatField(raw json.RawMessage) (*float64, bool) {
	if isNull(raw) {
		return nil, true
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// intField accepts integral numbers written with a fraction or exponent
// (2020.0, 2.02e3) as well as plain integers.
func intField(raw json.RawMessage) (*int64, bool) {
	if isNull(raw) {
		return nil, true
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, true
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
		return nil, false
	}
	n = int64(v)
	return &n, true
}

// decodeObject reads a JSON object from dec, calling fn for each key with the
// decoder positioned at the value. fn must consume the value. A JSON null is
// accepted and reported as present=false.
func decodeObject(dec *json.Decoder, what string, fn func(key string) error) (present bool, err error) {
	tok, err := dec.Token()
	if err != nil {
		return false, err
	}
	if tok == nil {
		return false, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return false, fmt.Errorf("%s: expected object, got %v: %w", what, tok, errors.ErrMalformedDocument)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return true, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return true, fmt.Errorf("%s: expected key, got %v: %w", what, keyTok, errors.ErrMalformedDocument)
		}
		if err := fn(key); err != nil {
			return true, err
		}
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return true, err
	}
	return true, nil
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}

// MarshalJSON encodes the tree as nested objects in slice order.
func (t FactTree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tax := range t.Taxonomies {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(&buf, tax.Name)
		buf.WriteByte('{')
		for j, tag := range tax.Tags {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeKey(&buf, tag.Name)
			buf.WriteString(`{"units":{`)
			for k, unit := range tag.Units {
				if k > 0 {
					buf.WriteByte(',')
				}
				writeKey(&buf, unit.Name)
				records := unit.Records
				if records == nil {
					records = []FactRecord{}
				}
				b, err := json.Marshal(records)
				if err != nil {
					return nil, err
				}
				buf.Write(b)
			}
			buf.WriteString("}}")
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) {
	b, _ := json.Marshal(key)
	buf.Write(b)
	buf.WriteByte(':')
}
