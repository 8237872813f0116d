package entity

import (
	"strings"

	"github.com/jonwraymond/hyperentity/auth"
	"github.com/jonwraymond/hyperentity/observe"
)

// MaxHrefLength is the maximum accepted href length.
const MaxHrefLength = 8192

// Key identifies a cache entry and its listeners: the resource href paired
// with the bearer token used to read it. Two keys are equal iff both parts
// are byte-for-byte equal.
type Key struct {
	Href  string
	Token string
}

// NewKey pairs href with token.
func NewKey(href, token string) Key {
	return Key{Href: href, Token: token}
}

// Valid reports whether both parts are present.
func (k Key) Valid() bool {
	return k.Href != "" && k.Token != ""
}

// Validate checks that the key can be used for caching.
func (k Key) Validate() error {
	if !k.Valid() {
		return ErrMissingIdentity
	}
	if len(k.Href) > MaxHrefLength {
		return ErrHrefTooLong
	}
	if strings.ContainsAny(k.Href, "\r\n") || strings.ContainsAny(k.Token, "\r\n") {
		return ErrInvalidKey
	}
	return nil
}

// Fingerprint identifies the token without revealing it.
func (k Key) Fingerprint() string {
	return auth.Fingerprint(k.Token)
}

// String renders the key as href#fingerprint. The raw token never appears.
func (k Key) String() string {
	return k.Href + "#" + k.Fingerprint()
}

func (k Key) meta(op string) observe.ResourceMeta {
	return observe.ResourceMeta{
		Href:       k.Href,
		Credential: k.Fingerprint(),
		Operation:  op,
	}
}
