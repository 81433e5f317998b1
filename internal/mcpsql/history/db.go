package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
)

var bucketHistory = []byte("history")

// lockTimeout bounds the wait for the file lock held by another shell.
const lockTimeout = time.Second

// DB is the bolt file behind a Store.
type DB struct {
	db   *bolt.DB
	path string
}

// Open opens the history file at path, creating it and its directory on
// first use.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open history %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketHistory)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

// Path returns the file the history lives in.
func (d *DB) Path() string { return d.path }

func (d *DB) Close() error {
	return d.db.Close()
}
