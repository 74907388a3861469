package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if len(key) != KeySize {
		t.Errorf("GenerateKey() returned key of length %d, want %d", len(key), KeySize)
	}

	key2, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() second call error = %v", err)
	}
	if bytes.Equal(key, key2) {
		t.Error("GenerateKey() returned identical keys")
	}
}

func TestSealOpen(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("hello")},
		{"long", bytes.Repeat([]byte("x"), 10000)},
		{"binary", []byte{0x00, 0xFF, 0x00, 0xFF, 0xDE, 0xAD, 0xBE, 0xEF}},
		{"null_bytes", []byte("hello\x00world\x00")},
	}

	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := Seal(key, tt.plaintext)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}

			minLen := len(tt.plaintext) + NonceSize + TagSize
			if len(sealed) < minLen {
				t.Errorf("Seal() output too short: got %d, want >= %d", len(sealed), minLen)
			}

			opened, err := Open(key, sealed)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(opened, tt.plaintext) {
				t.Errorf("Open() = %v, want %v", opened, tt.plaintext)
			}
		})
	}
}

func TestSeal_UniqueNonces(t *testing.T) {
	key, _ := GenerateKey()
	plaintext := []byte("same plaintext")

	first, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal() first call error = %v", err)
	}
	second, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal() second call error = %v", err)
	}

	if bytes.Equal(first[:NonceSize], second[:NonceSize]) {
		t.Error("Seal() reused a nonce")
	}
}

func TestSeal_InvalidKeySize(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		_, err := Seal(make([]byte, n), []byte("test"))
		if !errors.Is(err, ErrInvalidKeySize) {
			t.Errorf("Seal() with %d-byte key error = %v, want ErrInvalidKeySize", n, err)
		}
	}
}

func TestOpen_InvalidCiphertext(t *testing.T) {
	key, _ := GenerateKey()

	tests := []struct {
		name   string
		sealed []byte
	}{
		{"empty", []byte{}},
		{"too_short", make([]byte, NonceSize+TagSize-1)},
		{"just_nonce", make([]byte, NonceSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(key, tt.sealed)
			if !errors.Is(err, ErrInvalidCiphertext) {
				t.Errorf("Open() error = %v, want ErrInvalidCiphertext", err)
			}
			if !errors.Is(err, ErrDecryption) {
				t.Errorf("Open() error = %v, want it to wrap ErrDecryption", err)
			}
		})
	}
}

func TestOpen_WrongKey(t *testing.T) {
	key1, _ := GenerateKey()
	key2, _ := GenerateKey()

	sealed, _ := Seal(key1, []byte("secret"))
	if _, err := Open(key2, sealed); !errors.Is(err, ErrAuthentication) {
		t.Errorf("Open() with wrong key error = %v, want ErrAuthentication", err)
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("token")
	h2 := HashToken("token")
	h3 := HashToken("other")

	if len(h1) != 32 {
		t.Errorf("HashToken() length = %d, want 32", len(h1))
	}
	if !CompareTokens(h1, h2) {
		t.Error("HashToken() not deterministic")
	}
	if CompareTokens(h1, h3) {
		t.Error("HashToken() collided for different inputs")
	}
}

func TestGenerateTokenString(t *testing.T) {
	a, err := GenerateTokenString(32)
	if err != nil {
		t.Fatalf("GenerateTokenString() error = %v", err)
	}
	b, _ := GenerateTokenString(32)
	if a == "" || a == b {
		t.Errorf("GenerateTokenString() returned %q and %q", a, b)
	}
}

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	ZeroBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("byte %d = %d, want 0", i, v)
		}
	}
	ZeroBytes(nil)
}
