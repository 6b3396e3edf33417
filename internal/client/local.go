package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/findrum/companyfacts/internal/errors"
)

// LocalClient stores resources as files.
type LocalClient struct {
	root string
}

// NewLocalClient creates a filesystem client. Relative paths are resolved
// against root when it is not empty.
func NewLocalClient(root string) *LocalClient {
	return &LocalClient{root: root}
}

func (c *LocalClient) resolve(path string) string {
	if c.root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, path)
}

// Get opens the file at path.
func (c *LocalClient) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(c.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(path)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Put writes r to path, creating parent directories as needed.
// The content type is not persisted by the filesystem backend.
func (c *LocalClient) Put(ctx context.Context, path string, r io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full := c.resolve(path)

	// Ensure directory exists
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write file: %w", err)
	}

	return f.Close()
}
