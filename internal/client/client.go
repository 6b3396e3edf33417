// Package client abstracts byte-level access to named resources.
//
// The package provides:
//   - LocalClient for the local filesystem, rooted at an optional directory
//   - BadgerClient for an embedded badger key-value store
//   - MemoryClient for tests and dry runs
//
// All implementations report a missing resource with an error matching
// errors.ErrObjectNotFound and overwrite existing content on Put.
package client

import (
	"context"
	"fmt"
	"io"

	"github.com/findrum/companyfacts/internal/constants"
)

// ContentTypeOctetStream is the default content type.
const ContentTypeOctetStream = constants.ContentTypeParquet

// Client reads and writes named resources.
type Client interface {
	// Get opens the resource at path. The caller closes the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Put replaces the resource at path with the contents of r.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error
}

// ReadAll fetches the full content of path.
func ReadAll(ctx context.Context, c Client, path string) ([]byte, error) {
	rc, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Config selects and configures a client backend.
type Config struct {
	// Backend is one of "local", "badger", "memory".
	Backend string

	// Root prefixes relative paths for the local backend.
	Root string

	// BadgerDir is the badger data directory.
	BadgerDir string
}

// Open creates the client described by cfg. The returned close function
// releases backend resources and is never nil.
func Open(cfg Config) (Client, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", constants.BackendLocal:
		return NewLocalClient(cfg.Root), noop, nil
	case constants.BackendMemory:
		return NewMemoryClient(), noop, nil
	case constants.BackendBadger:
		c, err := NewBadgerClient(BadgerOptions{Dir: cfg.BadgerDir})
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
