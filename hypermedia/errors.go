package hypermedia

import "errors"

var (
	// ErrEmptyPayload is returned when Parse is given nil or an empty body.
	ErrEmptyPayload = errors.New("hypermedia: empty payload")

	// ErrInvalidDocument is returned when the payload is not a Siren object.
	ErrInvalidDocument = errors.New("hypermedia: invalid siren document")
)
