package crypto

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// ErrKeyUnavailable is returned when the installation key can be neither
// read nor created. Nothing in the vault is usable without it.
var ErrKeyUnavailable = errors.New("encryption key unavailable")

// KeyManager owns the installation key file. The file holds the raw key
// bytes with no header; whoever can read it can decrypt the vault.
type KeyManager struct {
	path string
}

// NewKeyManager returns a KeyManager for the key file at path.
func NewKeyManager(path string) *KeyManager {
	return &KeyManager{path: path}
}

// Path returns the key file location.
func (m *KeyManager) Path() string {
	return m.path
}

// Exists reports whether the key file is present.
func (m *KeyManager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// errEmptyKeyFile marks a key file with no content, left behind by a create
// that never wrote its key. It holds nothing worth keeping.
var errEmptyKeyFile = errors.New("key file is empty")

// GetOrCreateKey returns the installation key, generating and persisting a
// new one when the key file does not exist yet. The caller owns the returned
// slice.
func (m *KeyManager) GetOrCreateKey() ([]byte, error) {
	key, err := m.readKey()
	if err == nil {
		return key, nil
	}
	switch {
	case errors.Is(err, os.ErrNotExist):
	case errors.Is(err, errEmptyKeyFile):
		slog.Warn("replacing empty key file", "path", m.path)
		if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	key, err = m.createKey()
	if errors.Is(err, os.ErrExist) {
		// Another process published its key between our read and create.
		key, err = m.readKey()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}
	return key, nil
}

func (m *KeyManager) readKey() ([]byte, error) {
	f, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Read one byte past KeySize so oversized files are rejected.
	key, err := io.ReadAll(io.LimitReader(f, KeySize+1))
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	if len(key) == 0 {
		return nil, errEmptyKeyFile
	}
	if len(key) != KeySize {
		ZeroBytes(key)
		return nil, fmt.Errorf("key file %s: %w", m.path, ErrInvalidKeySize)
	}
	return key, nil
}

// createKey writes a fresh key to a temporary file and hard-links it into
// place, so the key file appears complete or not at all and an existing key
// is never replaced. A lost race returns an error wrapping os.ErrExist.
func (m *KeyManager) createKey() ([]byte, error) {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}

	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	tmp, err := renameio.TempFile(dir, m.path)
	if err != nil {
		ZeroBytes(key)
		return nil, fmt.Errorf("create temp key file: %w", err)
	}
	defer tmp.Cleanup()

	if err := tmp.Chmod(0o600); err != nil {
		ZeroBytes(key)
		return nil, fmt.Errorf("chmod temp key file: %w", err)
	}
	if _, err := tmp.Write(key); err != nil {
		ZeroBytes(key)
		return nil, fmt.Errorf("write key file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		ZeroBytes(key)
		return nil, fmt.Errorf("sync key file: %w", err)
	}

	if err := os.Link(tmp.Name(), m.path); err != nil {
		ZeroBytes(key)
		return nil, err
	}
	syncDir(dir)

	slog.Info("generated new encryption key", "path", m.path)
	return key, nil
}

// syncDir flushes a directory entry change. Errors are ignored: some
// platforms cannot fsync directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
