// Package validation provides input validation functions.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrAppNameEmpty is returned when an entry has no app name.
	ErrAppNameEmpty = errors.New("app name is required")
	// ErrAppNameTooLong is returned when an app name exceeds 200 characters.
	ErrAppNameTooLong = errors.New("app name must be at most 200 characters")

	// ErrUsernameEmpty is returned when an entry has no username.
	ErrUsernameEmpty = errors.New("username is required")
	// ErrUsernameTooLong is returned when a username exceeds 320 characters.
	ErrUsernameTooLong = errors.New("username must be at most 320 characters")

	// ErrPasswordEmpty is returned when an entry has no password.
	ErrPasswordEmpty = errors.New("password is required")
	// ErrPasswordTooLong is returned when a password exceeds 4096 bytes.
	ErrPasswordTooLong = errors.New("password must be at most 4096 bytes")

	// ErrVaultNameTooLong is returned when a vault label exceeds 100 characters.
	ErrVaultNameTooLong = errors.New("vault name must be at most 100 characters")

	// ErrIDSeparator is returned when a field contains the id separator.
	ErrIDSeparator = errors.New("app name and username must not contain \"::\"")

	// ErrTOTPCodeFormat is returned when a code is not exactly six digits.
	ErrTOTPCodeFormat = errors.New("code must be 6 digits")
)

// MaxPasswordBytes bounds stored secrets.
const MaxPasswordBytes = 4096

var totpCodeRegex = regexp.MustCompile(`^[0-9]{6}$`)

// AppName validates an entry's app name.
// Rules: 1-200 characters after trimming whitespace.
func AppName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrAppNameEmpty
	}
	if utf8.RuneCountInString(name) > 200 {
		return ErrAppNameTooLong
	}
	if strings.Contains(name, "::") {
		return ErrIDSeparator
	}
	return nil
}

// Username validates an entry's account identifier.
// Rules: 1-320 characters after trimming whitespace.
func Username(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameEmpty
	}
	if utf8.RuneCountInString(username) > 320 {
		return ErrUsernameTooLong
	}
	if strings.Contains(username, "::") {
		return ErrIDSeparator
	}
	return nil
}

// Password validates a secret value. Whitespace-only passwords are
// rejected; otherwise the value is kept verbatim.
func Password(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordEmpty
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// VaultName validates a category label. Empty is allowed (the default applies).
func VaultName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > 100 {
		return ErrVaultNameTooLong
	}
	return nil
}

// TOTPCode validates the shape of a one-time code.
func TOTPCode(code string) error {
	if !totpCodeRegex.MatchString(code) {
		return ErrTOTPCodeFormat
	}
	return nil
}
