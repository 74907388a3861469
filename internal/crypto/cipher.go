package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/abdul-hamid-achik/aegisvault/internal/metrics"
)

// ErrCipherDestroyed is returned when a Cipher is used after Destroy.
var ErrCipherDestroyed = errors.New("cipher destroyed")

// Cipher seals and opens text under the installation key. Ciphertext is the
// standard base64 encoding of nonce || ciphertext || tag, so it can be stored
// in any text field without extra metadata.
//
// The key is kept in a memguard enclave and only decrypted into guarded
// memory for the duration of a single operation.
type Cipher struct {
	mu      sync.RWMutex
	enclave *memguard.Enclave
}

// NewCipher creates a Cipher for key. The caller's key slice is wiped.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	return &Cipher{enclave: memguard.NewEnclave(key)}, nil
}

// Encrypt seals plaintext and returns the text-safe ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	metrics.EncryptionOperations.WithLabelValues("encrypt").Inc()

	var sealed []byte
	err := c.withKey(func(key []byte) error {
		var err error
		sealed, err = Seal(key, []byte(plaintext))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens ciphertext produced by Encrypt. Every failure mode wraps
// ErrDecryption.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	metrics.EncryptionOperations.WithLabelValues("decrypt").Inc()

	sealed, err := base64.StdEncoding.Strict().DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", ErrDecryption)
	}

	var plaintext []byte
	err = c.withKey(func(key []byte) error {
		var err error
		plaintext, err = Open(key, sealed)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDecryption) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return string(plaintext), nil
}

// Destroy drops the key enclave. Subsequent calls fail with ErrCipherDestroyed.
func (c *Cipher) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enclave = nil
}

func (c *Cipher) withKey(fn func(key []byte) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.enclave == nil {
		return ErrCipherDestroyed
	}

	buf, err := c.enclave.Open()
	if err != nil {
		return fmt.Errorf("open key enclave: %w", err)
	}
	defer buf.Destroy()

	return fn(buf.Bytes())
}
