package boltdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boltdb/bolt"
)

type Options struct {
	Path string
	// Timeout bounds the wait for the file lock held by another process.
	Timeout time.Duration
}

// Open opens (creating when missing) the bolt file at opts.Path and makes sure
// every bucket the repositories use exists.
func Open(opts Options) (*bolt.DB, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, errors.New("boltdb: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("boltdb: create directory: %w", err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("boltdb: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(contactsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltdb: create buckets: %w", err)
	}

	return db, nil
}
