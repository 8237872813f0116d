package entity

import "errors"

// Sentinel errors for entity store operations.
var (
	// ErrMissingIdentity is returned by Load when href or token is empty.
	ErrMissingIdentity = errors.New("entity: missing identity")

	// ErrInvalidKey marks an href or token that can never be used as a key.
	ErrInvalidKey = errors.New("entity: key is invalid")

	// ErrHrefTooLong marks an href longer than MaxHrefLength.
	ErrHrefTooLong = errors.New("entity: href exceeds max length")
)
