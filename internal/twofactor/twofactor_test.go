package twofactor

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/aegisvault/internal/crypto"
	"github.com/abdul-hamid-achik/aegisvault/internal/store"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	c, err := crypto.NewCipher(key)
	require.NoError(t, err)
	t.Cleanup(c.Destroy)
	return c
}

func newTestManager(t *testing.T) (*Manager, *store.FileSecret, *crypto.Cipher) {
	t.Helper()
	secrets := store.NewFileSecret(filepath.Join(t.TempDir(), "aegis_secret.txt"))
	c := newCipher(t)
	m := NewManager(secrets, c, Options{Now: func() time.Time { return fixedNow }})
	return m, secrets, c
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    Period,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestSetup_FirstRun(t *testing.T) {
	m, secrets, c := newTestManager(t)

	ok, err := m.Provisioned()
	require.NoError(t, err)
	assert.False(t, ok)

	e, err := m.Setup()
	require.NoError(t, err)
	assert.False(t, e.AlreadyProvisioned)
	assert.Len(t, e.Secret, 32)
	assert.Contains(t, e.URI, "otpauth://totp/")
	assert.Contains(t, e.URI, "issuer=AegisVault")

	stored, ok, err := secrets.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, e.Secret, stored, "secret must be stored encrypted")

	plain, err := c.Decrypt(stored)
	require.NoError(t, err)
	assert.Equal(t, e.Secret, plain)
}

func TestSetup_Idempotent(t *testing.T) {
	m, secrets, _ := newTestManager(t)

	_, err := m.Setup()
	require.NoError(t, err)
	before, _, err := secrets.Get()
	require.NoError(t, err)

	e, err := m.Setup()
	require.NoError(t, err)
	assert.True(t, e.AlreadyProvisioned)
	assert.Empty(t, e.Secret)
	assert.Empty(t, e.URI)

	after, _, err := secrets.Get()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSetup_UndecryptableSecretIsKept(t *testing.T) {
	m, secrets, _ := newTestManager(t)
	require.NoError(t, secrets.Put("garbage"))

	e, err := m.Setup()
	require.NoError(t, err)
	assert.True(t, e.AlreadyProvisioned)

	stored, _, err := secrets.Get()
	require.NoError(t, err)
	assert.Equal(t, "garbage", stored)
	assert.False(t, m.Verify("123456"))
}

func TestVerify(t *testing.T) {
	m, _, _ := newTestManager(t)
	e, err := m.Setup()
	require.NoError(t, err)

	other, err := totp.Generate(totp.GenerateOpts{Issuer: "x", AccountName: "y"})
	require.NoError(t, err)

	current := codeAt(t, e.Secret, fixedNow)
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"current step", current, true},
		{"previous step", codeAt(t, e.Secret, fixedNow.Add(-Period*time.Second)), true},
		{"next step", codeAt(t, e.Secret, fixedNow.Add(Period*time.Second)), true},
		{"two steps old", codeAt(t, e.Secret, fixedNow.Add(-2*Period*time.Second)), false},
		{"five digits", current[:5], false},
		{"seven digits", current + "0", false},
		{"letters", "abcdef", false},
		{"padded", " " + current[:5], false},
		{"empty", "", false},
	}

	// A code from a different secret matches only by coincidence.
	if codeAt(t, other.Secret(), fixedNow) != current {
		tests = append(tests, struct {
			name string
			code string
			want bool
		}{"different secret", codeAt(t, other.Secret(), fixedNow), false})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Verify(tt.code))
		})
	}
}

func TestVerify_Skew(t *testing.T) {
	skew := func(n uint) *uint { return &n }

	tests := []struct {
		name         string
		skew         *uint
		previousOK   bool
		twoStepsOK bool
	}{
		{"default", nil, true, false},
		{"current step only", skew(0), false, false},
		{"two steps", skew(2), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secrets := store.NewFileSecret(filepath.Join(t.TempDir(), "aegis_secret.txt"))
			m := NewManager(secrets, newCipher(t), Options{Skew: tt.skew, Now: func() time.Time { return fixedNow }})
			e, err := m.Setup()
			require.NoError(t, err)

			assert.True(t, m.Verify(codeAt(t, e.Secret, fixedNow)))
			assert.Equal(t, tt.previousOK, m.Verify(codeAt(t, e.Secret, fixedNow.Add(-Period*time.Second))))
			assert.Equal(t, tt.twoStepsOK, m.Verify(codeAt(t, e.Secret, fixedNow.Add(-2*Period*time.Second))))
		})
	}
}

func TestVerify_Unprovisioned(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.False(t, m.Verify("123456"))
}

func TestVerify_WrongKey(t *testing.T) {
	m, secrets, _ := newTestManager(t)
	e, err := m.Setup()
	require.NoError(t, err)

	// Same secret file, different encryption key.
	other := NewManager(secrets, newCipher(t), Options{Now: func() time.Time { return fixedNow }})
	assert.False(t, other.Verify(codeAt(t, e.Secret, fixedNow)))
}

func TestVerify_PersistsAcrossManagers(t *testing.T) {
	dir := t.TempDir()
	c := newCipher(t)
	secretPath := filepath.Join(dir, "aegis_secret.txt")

	first := NewManager(store.NewFileSecret(secretPath), c, Options{})
	e, err := first.Setup()
	require.NoError(t, err)

	second := NewManager(store.NewFileSecret(secretPath), c, Options{})
	ok, err := second.Provisioned()
	require.NoError(t, err)
	assert.True(t, ok)

	code, err := totp.GenerateCode(e.Secret, time.Now())
	require.NoError(t, err)
	assert.True(t, second.Verify(code))
}

func TestEnrollment_QRCodePNG(t *testing.T) {
	m, _, _ := newTestManager(t)
	e, err := m.Setup()
	require.NoError(t, err)

	img, err := e.QRCodePNG(200)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))

	_, err = (&Enrollment{AlreadyProvisioned: true}).QRCodePNG(200)
	assert.Error(t, err)
}

func TestBoltBackedSecret(t *testing.T) {
	bs, err := store.NewBoltStore(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bs.Close() })

	m := NewManager(bs, newCipher(t), Options{Issuer: "Test", Account: "me"})
	e, err := m.Setup()
	require.NoError(t, err)
	assert.Contains(t, e.URI, "issuer=Test")

	code, err := totp.GenerateCode(e.Secret, time.Now())
	require.NoError(t, err)
	assert.True(t, m.Verify(code))
}
