// Package oplog is the operation (audit) log: one entry per finished transfer.
package oplog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Variant is the severity of an entry.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
)

// Entry is one audit log record.
type Entry struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Variant   Variant   `json:"variant"`
	CreatedAt time.Time `json:"createdAt"`
}

// Log is the fire-and-forget audit log port.
type Log interface {
	Push(entry Entry)
}

var keyPrefix = []byte("oplog/")

// Store persists entries in badger, keyed by creation time so iteration
// order is chronological.
type Store struct {
	db     *badger.DB
	seq    atomic.Uint32
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens (or creates) the store at path.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logging is noise here
	return open(opts, logger, path)
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory(logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger, "memory")
}

func open(opts badger.Options, logger zerolog.Logger, path string) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, fmt.Errorf("operation log at %s is locked by another process: %w", path, err)
		}
		return nil, fmt.Errorf("open operation log at %s: %w", path, err)
	}
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Push implements Log. Write failures are logged, never returned.
func (s *Store) Push(entry Entry) {
	if err := s.Append(entry); err != nil {
		s.logger.Error().Err(err).Str("title", entry.Title).Msg("failed to append operation log entry")
	}
}

// Append writes one entry, stamping CreatedAt when unset.
func (s *Store) Append(entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	key := s.key(entry.CreatedAt)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]Entry, error) {
	entries := make([]Entry, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the last key with the prefix.
		seek := append(append([]byte{}, keyPrefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(keyPrefix); it.Next() {
			if limit > 0 && len(entries) >= limit {
				return nil
			}
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list operation log: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// key is prefix | unix nanos (big endian) | per-process sequence, so two
// entries in the same nanosecond keep insertion order.
func (s *Store) key(at time.Time) []byte {
	k := make([]byte, 0, len(keyPrefix)+12)
	k = append(k, keyPrefix...)
	k = binary.BigEndian.AppendUint64(k, uint64(at.UnixNano()))
	k = binary.BigEndian.AppendUint32(k, s.seq.Add(1))
	return k
}
