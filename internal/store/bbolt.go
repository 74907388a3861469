package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names used in the bbolt database.
var (
	bucketMeta         = []byte("_meta")
	bucketVault        = []byte("vault")
	bucketSecondFactor = []byte("second_factor")
)

// Keys inside the buckets above.
var (
	keyMeta    = []byte("vault_meta")
	keyRecords = []byte("records")
	keySecret  = []byte("secret")
)

const boltFormatVersion = 1

// BoltStore keeps the vault document and the second-factor secret in a
// single bbolt database. The collection is still stored as one JSON
// document so both backends share the same record format; bbolt supplies
// the transactional rewrite and the file lock.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// NewBoltStore opens (or creates) a bbolt database at the given path and
// ensures all required buckets exist. The file is created with 0600 permissions.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	if err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketVault, bucketSecondFactor} {
			if _, bErr := tx.CreateBucketIfNotExists(b); bErr != nil {
				return fmt.Errorf("create bucket %s: %w", b, bErr)
			}
		}

		meta := tx.Bucket(bucketMeta)
		if meta.Get(keyMeta) != nil {
			return nil
		}
		data, mErr := json.Marshal(&BoltMeta{
			Version:   boltFormatVersion,
			CreatedAt: time.Now().UTC(),
		})
		if mErr != nil {
			return fmt.Errorf("marshal meta: %w", mErr)
		}
		return meta.Put(keyMeta, data)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &BoltStore{db: db, path: path}, nil
}

// Path returns the database location.
func (s *BoltStore) Path() string {
	return s.path
}

// Close closes the underlying bbolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Meta returns the backend metadata written when the database was created.
func (s *BoltStore) Meta() (*BoltMeta, error) {
	var meta BoltMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keyMeta)
		if v == nil {
			return fmt.Errorf("%w: missing vault meta", ErrMalformedStorage)
		}
		return json.Unmarshal(v, &meta)
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// ---------------------------------------------------------------------------
// Vault collection
// ---------------------------------------------------------------------------

// Load returns the stored collection, or an empty one if the document is
// absent or unreadable.
func (s *BoltStore) Load() ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		records = s.recordsFrom(tx)
		return nil
	})
	return records, err
}

// Save replaces the stored collection.
func (s *BoltStore) Save(records []Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putRecords(tx, records)
	})
}

// Update runs fn and stores its result in one read-write transaction.
func (s *BoltStore) Update(fn func([]Record) ([]Record, error)) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		updated, err := fn(s.recordsFrom(tx))
		if err != nil {
			return err
		}
		return putRecords(tx, updated)
	})
	if errors.Is(err, ErrSkipSave) {
		return nil
	}
	return err
}

func (s *BoltStore) recordsFrom(tx *bolt.Tx) []Record {
	records, err := decodeRecords(tx.Bucket(bucketVault).Get(keyRecords))
	if err != nil {
		slog.Warn("vault document is unreadable, treating as empty", "path", s.path, "error", err)
		return []Record{}
	}
	return records
}

func putRecords(tx *bolt.Tx, records []Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketVault).Put(keyRecords, data)
}

// ---------------------------------------------------------------------------
// Second-factor secret
// ---------------------------------------------------------------------------

// Get returns the stored second-factor secret.
func (s *BoltStore) Get() (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSecondFactor).Get(keySecret)
		if len(v) > 0 {
			value, ok = string(v), true
		}
		return nil
	})
	return value, ok, err
}

// Put stores the second-factor secret.
func (s *BoltStore) Put(value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSecondFactor).Put(keySecret, []byte(value))
	})
}
