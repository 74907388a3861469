package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
)

// FileStore keeps the vault as a JSON array in a single file. Writes go to
// a temp file that is renamed over the original, so a crash never leaves a
// half-written vault. An advisory lock file serializes cooperating
// processes.
type FileStore struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

// NewFileStore returns a FileStore for the document at path, creating the
// parent directory with 0700 permissions. The document itself is created
// lazily on first save.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the collection under a shared lock.
func (s *FileStore) Load() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock vault: %w", err)
	}
	defer s.lock.Unlock()

	return s.read()
}

// Save replaces the collection under an exclusive lock.
func (s *FileStore) Save(records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock vault: %w", err)
	}
	defer s.lock.Unlock()

	return s.write(records)
}

// Update performs a read-modify-write cycle under one exclusive lock.
func (s *FileStore) Update(fn func([]Record) ([]Record, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock vault: %w", err)
	}
	defer s.lock.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}

	updated, err := fn(records)
	if errors.Is(err, ErrSkipSave) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.write(updated)
}

// Close releases the lock file handle.
func (s *FileStore) Close() error {
	return s.lock.Close()
}

func (s *FileStore) read() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read vault: %w", err)
	}

	records, err := decodeRecords(data)
	if err != nil {
		slog.Warn("vault document is unreadable, treating as empty", "path", s.path, "error", err)
		return []Record{}, nil
	}
	return records, nil
}

func (s *FileStore) write(records []Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	return nil
}

// FileSecret stores the encrypted second-factor secret in its own file.
type FileSecret struct {
	path string
}

// NewFileSecret returns a FileSecret for path.
func NewFileSecret(path string) *FileSecret {
	return &FileSecret{path: path}
}

// Get returns the stored secret. A missing or blank file counts as absent.
func (s *FileSecret) Get() (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read secret file: %w", err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Put atomically writes value with 0600 permissions.
func (s *FileSecret) Put(value string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create secret directory: %w", err)
	}
	if err := renameio.WriteFile(s.path, []byte(value), 0o600); err != nil {
		return fmt.Errorf("write secret file: %w", err)
	}
	return nil
}
