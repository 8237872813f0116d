package secret

import "errors"

var (
	// ErrMissingEnv is returned when ${VAR} names an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrProviderNotRegistered is returned for an unknown provider name.
	ErrProviderNotRegistered = errors.New("secret: provider not registered")

	// ErrInvalidRef is returned for a malformed secretref.
	ErrInvalidRef = errors.New("secret: invalid reference")

	// ErrEmptySecret is returned by strict resolvers when a provider
	// resolves to an empty value.
	ErrEmptySecret = errors.New("secret: empty value")

	// ErrNotFound is returned by providers when the referenced secret does
	// not exist.
	ErrNotFound = errors.New("secret: not found")
)
