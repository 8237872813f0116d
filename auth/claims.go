package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo describes a bearer token for logging and diagnostics.
type TokenInfo struct {
	// Fingerprint is a stable, non-reversible identifier for the token.
	Fingerprint string

	// JWT reports whether the token parsed as a JSON Web Token.
	JWT bool

	Subject   string
	Issuer    string
	TenantID  string
	ExpiresAt time.Time
}

// Fingerprint returns the first 16 hex characters of SHA-256(token).
// Returns "" for an empty token.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// InspectToken extracts descriptive claims from token.
//
// The signature is NOT verified: the remote API is the authority on the
// credential, this is only used to label logs and to warn about tokens that
// have already expired. Opaque tokens yield a TokenInfo with JWT=false.
func InspectToken(token string) TokenInfo {
	info := TokenInfo{Fingerprint: Fingerprint(token)}
	if token == "" {
		return info
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return info
	}
	info.JWT = true

	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		info.Issuer = iss
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if tenant, ok := claims["tenant"].(string); ok {
		info.TenantID = tenant
	}
	return info
}

// Expired reports whether the token carries an expiry that is before now.
// Tokens without an expiry never report expired.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}

// CheckExpiry returns ErrTokenExpired when the token is a JWT past its expiry.
func CheckExpiry(token string, now time.Time) error {
	if InspectToken(token).Expired(now) {
		return ErrTokenExpired
	}
	return nil
}
