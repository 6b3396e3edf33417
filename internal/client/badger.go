package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/validation"
)

const (
	dataPrefix = "data/"
	typePrefix = "type/"
)

// BadgerOptions configures the badger backend.
type BadgerOptions struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory.
	InMemory bool
}

// BadgerClient stores resources as badger values keyed by path. The content
// type is stored under a sibling key.
type BadgerClient struct {
	mu     sync.RWMutex
	db     *badger.DB
	closed bool
}

// NewBadgerClient opens a badger database.
func NewBadgerClient(opts BadgerOptions) (*BadgerClient, error) {
	var bo badger.Options
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.NewMissingField("storage.badger_dir")
		}
		bo = badger.DefaultOptions(opts.Dir)
	}
	bo = bo.WithLogger(nil)

	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerClient{db: db}, nil
}

// Get returns the value stored at path.
func (c *BadgerClient) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, errors.ErrClientClosed
	}

	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dataPrefix + path))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.NewNotFound(path)
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", path, err)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// ContentType returns the content type recorded for path.
func (c *BadgerClient) ContentType(path string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return "", errors.ErrClientClosed
	}

	var ct string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(typePrefix + path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			ct = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", errors.NewNotFound(path)
	}
	return ct, err
}

// Put stores the content of r at path in a single transaction.
func (c *BadgerClient) Put(ctx context.Context, path string, r io.Reader, contentType string) error {
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
	if contentType == "" {
		contentType = ContentTypeOctetStream
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.ErrClientClosed
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dataPrefix+path), data); err != nil {
			return err
		}
		return txn.Set([]byte(typePrefix+path), []byte(contentType))
	})
	if err != nil {
		return fmt.Errorf("badger put %s: %w", path, err)
	}
	return nil
}

// Close closes the database.
func (c *BadgerClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}
