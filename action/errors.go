package action

import "errors"

var (
	// ErrNoAction is returned when Perform is called with a nil action.
	ErrNoAction = errors.New("action: no action given")

	// ErrEncodeBody is returned when the request body cannot be encoded.
	ErrEncodeBody = errors.New("action: encode body")
)
