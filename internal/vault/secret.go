package vault

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/aegisvault/internal/metrics"
	"github.com/abdul-hamid-achik/aegisvault/internal/passgen"
	"github.com/abdul-hamid-achik/aegisvault/internal/store"
	"github.com/abdul-hamid-achik/aegisvault/internal/validation"
)

// AddEntry encrypts password and appends a new entry to the vault. An empty
// vaultName selects DefaultVaultName. Duplicate entries are allowed.
//
// The id and date_added fields are stamped here, at creation time, rather
// than when the entry is first listed.
func (s *Service) AddEntry(appName, username, password, vaultName string) (*Entry, error) {
	appName = strings.TrimSpace(appName)
	username = strings.TrimSpace(username)
	vaultName = strings.TrimSpace(vaultName)

	if err := validation.AppName(appName); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := validation.Username(username); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := validation.Password(password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := validation.VaultName(vaultName); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if vaultName == "" {
		vaultName = DefaultVaultName
	}

	encrypted, err := s.cipher.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("encrypt password: %w", err)
	}

	record := store.Record{
		AppName:   appName,
		Username:  username,
		Password:  encrypted,
		Vault:     vaultName,
		ID:        store.DeriveID(username, appName),
		DateAdded: s.now().UTC().Format(store.DateLayout),
	}

	err = s.store.Update(func(records []store.Record) ([]store.Record, error) {
		return append(records, record), nil
	})
	if err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}
	metrics.EntriesAdded.Inc()

	return &Entry{
		ID:        record.ID,
		AppName:   record.AppName,
		Username:  record.Username,
		Password:  password,
		Vault:     record.Vault,
		DateAdded: record.DateAdded,
		Strength:  passgen.Strength(password),
	}, nil
}

// ListDecrypted returns every entry with its password decrypted. Each record
// is decrypted independently; one that fails gets DecryptionErrorSentinel as
// its password and DecryptFailed set, and the listing carries on.
//
// Records written without id or date_added have them filled in on the
// returned entries only; listing never writes to the store.
func (s *Service) ListDecrypted() ([]Entry, error) {
	records, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load vault: %w", err)
	}

	listedAt := s.now().UTC().Format(store.DateLayout)
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		e := Entry{
			ID:        r.EffectiveID(),
			AppName:   r.AppName,
			Username:  r.Username,
			Vault:     r.Vault,
			DateAdded: r.DateAdded,
		}
		if e.Vault == "" {
			e.Vault = DefaultVaultName
		}
		if e.DateAdded == "" {
			e.DateAdded = listedAt
		}

		plaintext, err := s.cipher.Decrypt(r.Password)
		if err != nil {
			s.logger.Warn("failed to decrypt entry", "id", e.ID, "error", err)
			e.Password = DecryptionErrorSentinel
			e.DecryptFailed = true
			metrics.DecryptFailures.Inc()
		} else {
			e.Password = plaintext
			e.Strength = passgen.Strength(plaintext)
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// DeleteEntry removes every record whose id matches and returns how many
// were removed. Deleting an unknown id is not an error and leaves the store
// untouched.
func (s *Service) DeleteEntry(id string) (int, error) {
	removed := 0
	err := s.store.Update(func(records []store.Record) ([]store.Record, error) {
		kept := records[:0]
		for _, r := range records {
			if r.EffectiveID() == id {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if removed == 0 {
			return nil, store.ErrSkipSave
		}
		return kept, nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete entry: %w", err)
	}
	metrics.EntriesDeleted.Add(float64(removed))
	return removed, nil
}

// Count returns the number of stored entries without decrypting them.
func (s *Service) Count() (int, error) {
	records, err := s.store.Load()
	if err != nil {
		return 0, fmt.Errorf("load vault: %w", err)
	}
	return len(records), nil
}
