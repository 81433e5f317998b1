package history

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/boltdb/bolt"

	"github.com/kiosk404/sqlite-mcp/pkg/utils/json"
)

// DefaultMaxEntries bounds the history kept on disk.
const DefaultMaxEntries = 1000

// Entry is one executed statement.
type Entry struct {
	ID       uint64        `json:"id"`
	Query    string        `json:"query"`
	Server   string        `json:"server,omitempty"`
	At       time.Time     `json:"at"`
	Duration time.Duration `json:"duration"`
	Rows     int           `json:"rows"`
	Error    string        `json:"error,omitempty"`
}

// Store reads and appends history entries, oldest first.
type Store struct {
	boltDB     *bolt.DB
	maxEntries int
}

// NewStore creates a Store keeping at most maxEntries entries. A
// non-positive maxEntries selects DefaultMaxEntries.
func NewStore(db *DB, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{boltDB: db.db, maxEntries: maxEntries}
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Append stores e, assigning its ID, and drops the oldest entries beyond
// the limit.
func (s *Store) Append(_ context.Context, e *Entry) error {
	return s.boltDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		id, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate history id: %w", err)
		}
		e.ID = id
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal history entry: %w", err)
		}
		if err := b.Put(itob(id), data); err != nil {
			return err
		}

		c := b.Cursor()
		var keys [][]byte
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		if len(keys) <= s.maxEntries {
			return nil
		}
		stale := keys[:len(keys)-s.maxEntries]
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Recent returns up to n entries, oldest first. A non-positive n returns
// everything.
func (s *Store) Recent(_ context.Context, n int) ([]*Entry, error) {
	return s.collect(n, func(*Entry) bool { return true })
}

// Search returns up to n entries whose query contains substr, oldest first.
func (s *Store) Search(_ context.Context, substr string, n int) ([]*Entry, error) {
	needle := strings.ToLower(substr)
	return s.collect(n, func(e *Entry) bool {
		return strings.Contains(strings.ToLower(e.Query), needle)
	})
}

func (s *Store) collect(n int, keep func(*Entry) bool) ([]*Entry, error) {
	var entries []*Entry
	err := s.boltDB.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketHistory).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal history entry: %w", err)
			}
			if !keep(&e) {
				continue
			}
			entries = append(entries, &e)
			if n > 0 && len(entries) == n {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Clear removes every entry.
func (s *Store) Clear(_ context.Context) error {
	return s.boltDB.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketHistory); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketHistory)
		return err
	})
}
