package auth

import (
	"net/http"
	"strings"
)

const (
	// HeaderAuthorization is the header carrying the credential.
	HeaderAuthorization = "Authorization"

	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "
)

// BearerHeader formats token as an Authorization header value.
// Returns "" for an empty token.
func BearerHeader(token string) string {
	if token == "" {
		return ""
	}
	return BearerPrefix + token
}

// SetBearer sets the Authorization header on h. An empty token leaves h untouched.
func SetBearer(h http.Header, token string) {
	if token == "" {
		return
	}
	h.Set(HeaderAuthorization, BearerHeader(token))
}

// ParseBearer extracts the token from an Authorization header value.
// The scheme match is case-insensitive.
func ParseBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingCredentials
	}
	if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return "", ErrTokenMalformed
	}
	token := strings.TrimSpace(header[len(BearerPrefix):])
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}
