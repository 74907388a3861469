// Package vault implements the credential service: it encrypts secrets
// before they reach the store and produces decrypted views of the vault.
package vault

import (
	"log/slog"
	"time"

	"github.com/abdul-hamid-achik/aegisvault/internal/store"
)

// DefaultVaultName is the category used when none is supplied.
const DefaultVaultName = "Personal"

// DecryptionErrorSentinel replaces the password of an entry that cannot be
// decrypted, so one bad record never hides the rest of the vault.
const DecryptionErrorSentinel = "Decryption Error"

// Sealer encrypts and decrypts text. *crypto.Cipher satisfies it.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Service orchestrates the cipher and the vault store.
type Service struct {
	store  store.Store
	cipher Sealer
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to stamp new entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for per-record decryption failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService returns a Service backed by st and c.
func NewService(st store.Store, c Sealer, opts ...Option) *Service {
	s := &Service{
		store:  st,
		cipher: c,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entry is a credential with its password in plaintext. Entries exist only
// in memory.
type Entry struct {
	ID            string `json:"id"`
	AppName       string `json:"app_name"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Vault         string `json:"vault"`
	DateAdded     string `json:"date_added"`
	DecryptFailed bool   `json:"decrypt_failed,omitempty"`
	// Strength is passgen.Strong or passgen.Weak; empty when the password
	// could not be decrypted.
	Strength      string `json:"strength,omitempty"`
}

// legacyDateLayouts covers date_added values written by earlier versions,
// which used a local timestamp without a zone.
var legacyDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// Added parses DateAdded. ok is false when the value is empty or unparseable.
func (e Entry) Added() (t time.Time, ok bool) {
	for _, layout := range legacyDateLayouts {
		if parsed, err := time.Parse(layout, e.DateAdded); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
