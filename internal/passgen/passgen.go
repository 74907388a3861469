// Package passgen generates random passwords.
package passgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// DefaultLength is used when the caller does not pick a length.
	DefaultLength = 16
	// MaxLength bounds generated passwords.
	MaxLength = 4096
)

const (
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
	// Symbols is the ASCII punctuation set added when symbols are requested.
	Symbols = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// ErrInvalidLength is returned for negative or oversized lengths.
var ErrInvalidLength = errors.New("invalid password length")

// Pool returns the character pool for the given options.
func Pool(includeSymbols bool) string {
	if includeSymbols {
		return letters + digits + Symbols
	}
	return letters + digits
}

// Generate returns a password of length characters drawn uniformly from
// Pool(includeSymbols). A length of zero yields an empty string.
func Generate(length int, includeSymbols bool) (string, error) {
	if length < 0 || length > MaxLength {
		return "", fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidLength, length, MaxLength)
	}
	if length == 0 {
		return "", nil
	}

	pool := Pool(includeSymbols)
	max := big.NewInt(int64(len(pool)))

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b.WriteByte(pool[n.Int64()])
	}
	return b.String(), nil
}
