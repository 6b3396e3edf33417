package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/validation"
)

// MemoryClient keeps resources in a map.
type MemoryClient struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	puts    int
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryClient creates an empty in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{objects: make(map[string]memoryObject)}
}

// Get returns a reader over a copy of the stored bytes.
func (c *MemoryClient) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	obj, ok := c.objects[path]
	if !ok {
		return nil, errors.NewNotFound(path)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// Put replaces the object at path.
func (c *MemoryClient) Put(ctx context.Context, path string, r io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := validation.ValidateKey(path); err != nil {
		return errors.NewValidation("path", err.Error())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[path] = memoryObject{data: data, contentType: contentType}
	c.puts++
	return nil
}

// ContentType returns the content type recorded for path.
func (c *MemoryClient) ContentType(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.objects[path]
	return obj.contentType, ok
}

// Puts returns the number of Put calls that succeeded.
func (c *MemoryClient) Puts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.puts
}

// Paths returns the stored paths in sorted order.
func (c *MemoryClient) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]string, 0, len(c.objects))
	for p := range c.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
