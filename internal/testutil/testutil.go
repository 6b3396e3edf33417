// Package testutil provides test helpers for the companyfacts packages.
package testutil

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/findrum/companyfacts/internal/logging"
)

// =============================================================================
// Archive Fixtures
// =============================================================================

// Entry is a named archive member.
type Entry struct {
	Name    string
	Content string
	// Store disables compression for the entry.
	Store bool
	// RawMethod writes Content verbatim under an arbitrary method id,
	// which lets tests produce entries the reader cannot decompress.
	RawMethod uint16
}

// BuildArchive returns zip bytes containing entries in the given order.
func BuildArchive(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		if e.RawMethod != 0 {
			w, err := zw.CreateRaw(&zip.FileHeader{
				Name:               e.Name,
				Method:             e.RawMethod,
				CompressedSize64:   uint64(len(e.Content)),
				UncompressedSize64: uint64(len(e.Content)),
			})
			if err != nil {
				t.Fatalf("create raw entry %s: %v", e.Name, err)
			}
			if _, err := w.Write([]byte(e.Content)); err != nil {
				t.Fatalf("write raw entry %s: %v", e.Name, err)
			}
			continue
		}

		method := zip.Deflate
		if e.Store {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method})
		if err != nil {
			t.Fatalf("create entry %s: %v", e.Name, err)
		}
		if _, err := w.Write([]byte(e.Content)); err != nil {
			t.Fatalf("write entry %s: %v", e.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

// AppleDocument is the reference document used across package tests.
const AppleDocument = `{"entityName": "Apple Inc.", "facts": {"us-gaap": {"Assets": {"units": {"USD": [{"frame": "CY2020Q4I", "val": 1000, "end": "2020-12-31"}, {"frame": "Q12020", "val": 999}]}}}}}`

// =============================================================================
// Log Capture
// =============================================================================

// LogCapture records log output for assertions.
type LogCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (c *LogCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// String returns everything logged so far.
func (c *LogCapture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Contains reports whether any log line contains all the given substrings.
func (c *LogCapture) Contains(parts ...string) bool {
	for _, line := range strings.Split(c.String(), "\n") {
		ok := line != ""
		for _, p := range parts {
			if !strings.Contains(line, p) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// CaptureLogs routes the global logger into a LogCapture at debug level.
func CaptureLogs(t testing.TB) *LogCapture {
	t.Helper()
	c := &LogCapture{}
	logging.InitWithHandler(slog.NewTextHandler(c, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return c
}

// =============================================================================
// Pointer helpers
// =============================================================================

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
