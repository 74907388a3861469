package vault

import "errors"

var (
	// ErrInvalidInput is returned when an entry fails validation. Nothing is
	// persisted when it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownSort is returned by ParseSort for an unrecognized order.
	ErrUnknownSort = errors.New("unknown sort order")
)
