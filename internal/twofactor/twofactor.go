// Package twofactor manages the single TOTP secret that gates the vault.
package twofactor

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/abdul-hamid-achik/aegisvault/internal/metrics"
	"github.com/abdul-hamid-achik/aegisvault/internal/store"
	"github.com/abdul-hamid-achik/aegisvault/internal/validation"
)

const (
	// DefaultIssuer and DefaultAccount label the provisioning URI.
	DefaultIssuer  = "AegisVault"
	DefaultAccount = "AegisVault"

	// Period is the TOTP time step in seconds.
	Period = 30
	// DefaultSkew is the number of steps accepted on each side of now.
	DefaultSkew = 1
)

// Sealer encrypts and decrypts the stored secret.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Options configure a Manager.
type Options struct {
	Issuer  string
	Account string
	// Skew is the number of neighbouring steps accepted. Nil selects
	// DefaultSkew; zero accepts the current step only.
	Skew *uint
	// Now overrides the clock used by Verify.
	Now func() time.Time
}

// Manager provisions and verifies the second factor.
type Manager struct {
	secrets store.SecretStore
	cipher  Sealer
	issuer  string
	account string
	skew    uint
	now     func() time.Time
}

// NewManager returns a Manager persisting its secret in secrets.
func NewManager(secrets store.SecretStore, c Sealer, opts Options) *Manager {
	m := &Manager{
		secrets: secrets,
		cipher:  c,
		issuer:  opts.Issuer,
		account: opts.Account,
		skew:    DefaultSkew,
		now:     opts.Now,
	}
	if m.issuer == "" {
		m.issuer = DefaultIssuer
	}
	if m.account == "" {
		m.account = DefaultAccount
	}
	if opts.Skew != nil {
		m.skew = *opts.Skew
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Enrollment is the result of Setup.
type Enrollment struct {
	// AlreadyProvisioned is set when a secret existed before the call; the
	// other fields are empty in that case.
	AlreadyProvisioned bool   `json:"already_provisioned"`
	Secret             string `json:"secret,omitempty"`
	URI                string `json:"uri,omitempty"`
}

// QRCodePNG renders the provisioning URI as a square PNG of size pixels.
func (e *Enrollment) QRCodePNG(size int) ([]byte, error) {
	if e.URI == "" {
		return nil, fmt.Errorf("no provisioning uri")
	}
	key, err := otp.NewKeyFromURL(e.URI)
	if err != nil {
		return nil, fmt.Errorf("parse uri: %w", err)
	}
	img, err := key.Image(size, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Provisioned reports whether a secret has been stored.
func (m *Manager) Provisioned() (bool, error) {
	_, ok, err := m.secrets.Get()
	if err != nil {
		return false, fmt.Errorf("read totp secret: %w", err)
	}
	return ok, nil
}

// Setup creates the TOTP secret on first use. Once a secret exists it is
// never replaced or revealed again, even if it no longer decrypts.
func (m *Manager) Setup() (*Enrollment, error) {
	ok, err := m.Provisioned()
	if err != nil {
		return nil, err
	}
	if ok {
		return &Enrollment{AlreadyProvisioned: true}, nil
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.issuer,
		AccountName: m.account,
		Period:      Period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	encrypted, err := m.cipher.Encrypt(key.Secret())
	if err != nil {
		return nil, fmt.Errorf("encrypt totp secret: %w", err)
	}
	if err := m.secrets.Put(encrypted); err != nil {
		return nil, fmt.Errorf("save totp secret: %w", err)
	}

	slog.Info("second factor provisioned", "issuer", m.issuer)
	return &Enrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// Verify reports whether code is valid for the current time step or one of
// its neighbours. It returns false for every failure, including a missing or
// undecryptable secret.
func (m *Manager) Verify(code string) bool {
	ok := m.verify(code)
	result := "failure"
	if ok {
		result = "success"
	}
	metrics.TOTPVerifications.WithLabelValues(result).Inc()
	return ok
}

func (m *Manager) verify(code string) bool {
	if validation.TOTPCode(code) != nil {
		return false
	}

	stored, ok, err := m.secrets.Get()
	if err != nil || !ok {
		return false
	}
	secret, err := m.cipher.Decrypt(stored)
	if err != nil {
		slog.Warn("totp secret could not be decrypted", "error", err)
		return false
	}

	valid, err := totp.ValidateCustom(code, secret, m.now().UTC(), totp.ValidateOpts{
		Period:    Period,
		Skew:      m.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}
