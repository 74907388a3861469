// Package store persists the vault collection and the second-factor secret.
// It knows record shapes only; encryption happens in the layers above.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedStorage marks persisted content that could not be parsed.
	// Load never returns it; corrupt documents are read as empty.
	ErrMalformedStorage = errors.New("malformed storage")

	// ErrSkipSave can be returned from an Update callback to leave the
	// stored document untouched.
	ErrSkipSave = errors.New("skip save")
)

// Store defines the persistence operations for the vault collection.
// The whole collection is read on every query and rewritten on every
// mutation.
type Store interface {
	// Load returns all records. A missing or unparseable document yields an
	// empty collection and a nil error.
	Load() ([]Record, error)

	// Save replaces the stored collection atomically.
	Save(records []Record) error

	// Update runs fn on the current collection and saves its result while
	// holding the store's write lock.
	Update(fn func([]Record) ([]Record, error)) error

	Close() error
}

// SecretStore persists the encrypted second-factor secret.
type SecretStore interface {
	// Get returns the stored value and whether one exists.
	Get() (string, bool, error)
	Put(value string) error
}

// Backend names accepted by config storage.backend.
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

func decodeRecords(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStorage, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func encodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return append(data, '\n'), nil
}
