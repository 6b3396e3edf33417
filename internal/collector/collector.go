// Package collector turns a companyfacts ZIP archive into a lazy sequence of
// raw documents, one per JSON entry. A malformed entry is reported and
// skipped; it never stops the sequence.
package collector

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/facts"
	"github.com/findrum/companyfacts/internal/logging"
)

// DefaultExtension is the recognized document extension.
const DefaultExtension = ".json"

var entityIDPattern = entityPattern(DefaultExtension)

func entityPattern(ext string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)CIK(\d+)` + regexp.QuoteMeta(ext) + `$`)
}

// Collector produces raw documents from archive bytes.
type Collector interface {
	Collect(ctx context.Context, archive []byte) iter.Seq2[facts.RawDocument, error]
}

// Options configures the ZIP collector.
type Options struct {
	// Extension selects which entries are documents (case-insensitive).
	Extension string
}

// ErrorKind distinguishes decode failures from other per-entry failures.
type ErrorKind int

const (
	KindParse ErrorKind = iota
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// EntryError is yielded for an archive entry that could not be turned into a
// document. The sequence continues after it.
type EntryError struct {
	Entry string
	Kind  ErrorKind
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %s: %s error: %v", e.Entry, e.Kind, e.Err)
}

func (e *EntryError) Unwrap() error {
	if e.Kind == KindParse {
		return errors.Join(errors.ErrEntryParse, e.Err)
	}
	return e.Err
}

// ZipCollector reads documents from ZIP archives.
type ZipCollector struct {
	ext     string
	pattern *regexp.Regexp
}

// New creates a ZIP collector.
func New(opts Options) *ZipCollector {
	ext := opts.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	ext = strings.ToLower(ext)
	return &ZipCollector{ext: ext, pattern: entityPattern(ext)}
}

// Collect returns a single-pass sequence over the documents in archive.
// Each element carries either a document or an *EntryError; a failure to open
// the archive itself is yielded once and ends the sequence. Iteration stops
// with ctx.Err() when the context is cancelled.
func (c *ZipCollector) Collect(ctx context.Context, archive []byte) iter.Seq2[facts.RawDocument, error] {
	return func(yield func(facts.RawDocument, error) bool) {
		log := logging.FromContext(ctx, "collector")

		zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
		if err != nil {
			yield(facts.RawDocument{}, errors.Wrap(err, "open archive"))
			return
		}

		log.Info("archive opened", "entries", len(zr.File), "bytes", len(archive))

		for _, f := range zr.File {
			if err := ctx.Err(); err != nil {
				yield(facts.RawDocument{}, err)
				return
			}

			if !strings.HasSuffix(strings.ToLower(f.Name), c.ext) {
				continue
			}

			doc, err := c.readEntry(f)
			if err != nil {
				var entryErr *EntryError
				if errors.As(err, &entryErr) && entryErr.Kind == KindParse {
					log.Warn("could not process entry", "entry", f.Name, "error", entryErr.Err)
				} else {
					log.Error("unexpected error while processing entry",
						"entry", f.Name,
						"method", f.Method,
						"compressed_size", f.CompressedSize64,
						"uncompressed_size", f.UncompressedSize64,
						"error", err)
				}
				if !yield(facts.RawDocument{}, err) {
					return
				}
				continue
			}

			if !yield(doc, nil) {
				return
			}
		}
	}
}

// readEntry decodes one archive member. The entry reader is closed before
// returning so abandoning iteration leaks nothing.
func (c *ZipCollector) readEntry(f *zip.File) (facts.RawDocument, error) {
	rc, err := f.Open()
	if err != nil {
		return facts.RawDocument{}, &EntryError{Entry: f.Name, Kind: KindUnexpected, Err: err}
	}
	defer rc.Close()

	doc, err := facts.DecodeDocument(rc)
	if err != nil {
		return facts.RawDocument{}, &EntryError{Entry: f.Name, Kind: classify(err), Err: err}
	}

	return facts.RawDocument{
		EntityID:   extractEntityID(c.pattern, f.Name),
		EntityName: doc.EntityName,
		Facts:      doc.Facts,
	}, nil
}

// classify separates JSON decode failures from read/decompression failures.
// facts.DecodeDocument marks the former with errors.ErrMalformedDocument; a
// truncated deflate stream passes through as a plain read error.
func classify(err error) ErrorKind {
	if errors.Is(err, errors.ErrMalformedDocument) {
		return KindParse
	}
	return KindUnexpected
}

// ExtractEntityID parses the entity identifier from an entry name such as
// "CIK0000320193.json" and pads it to the fixed width.
func ExtractEntityID(name string) string {
	return extractEntityID(entityIDPattern, name)
}

func extractEntityID(pattern *regexp.Regexp, name string) string {
	m := pattern.FindStringSubmatch(name)
	if m == nil {
		return facts.DefaultEntityID
	}
	return facts.NormalizeEntityID(m[1])
}
