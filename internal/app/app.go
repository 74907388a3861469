// Package app assembles the vault components from configuration.
package app

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/aegisvault/internal/config"
	"github.com/abdul-hamid-achik/aegisvault/internal/crypto"
	"github.com/abdul-hamid-achik/aegisvault/internal/passgen"
	"github.com/abdul-hamid-achik/aegisvault/internal/store"
	"github.com/abdul-hamid-achik/aegisvault/internal/twofactor"
	"github.com/abdul-hamid-achik/aegisvault/internal/vault"
)

// App owns the key, the stores and the services built on them. It is safe
// for concurrent use.
type App struct {
	Config    *config.Config
	Keys      *crypto.KeyManager
	Vault     *vault.Service
	TwoFactor *twofactor.Manager

	cipher *crypto.Cipher
	store  store.Store
}

// New loads or creates the key, opens the stores and wires the services.
// A key that cannot be obtained is fatal and wraps crypto.ErrKeyUnavailable.
func New(cfg *config.Config) (*App, error) {
	keys := crypto.NewKeyManager(cfg.Storage.KeyFile)
	key, err := keys.GetOrCreateKey()
	if err != nil {
		return nil, err
	}

	c, err := crypto.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrKeyUnavailable, err)
	}

	st, secrets, err := store.Open(cfg.Storage.Backend, cfg.Storage.VaultFile, cfg.Storage.TOTPFile)
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &App{
		Config: cfg,
		Keys:   keys,
		Vault:  vault.NewService(st, c),
		TwoFactor: twofactor.NewManager(secrets, c, twofactor.Options{
			Issuer:  cfg.TOTP.Issuer,
			Account: cfg.TOTP.Account,
			Skew:    &cfg.TOTP.Skew,
		}),
		cipher: c,
		store:  st,
	}, nil
}

// GeneratePassword returns a random password; see passgen.Generate.
func (a *App) GeneratePassword(length int, includeSymbols bool) (string, error) {
	return passgen.Generate(length, includeSymbols)
}

// Close releases the stores and wipes the key.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.cipher != nil {
		a.cipher.Destroy()
	}
	return errors.Join(errs...)
}
