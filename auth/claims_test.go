package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("tokA")
	if len(a) != 16 {
		t.Errorf("len(Fingerprint) = %d, want 16", len(a))
	}
	if a != Fingerprint("tokA") {
		t.Error("Fingerprint must be deterministic")
	}
	if a == Fingerprint("tokB") {
		t.Error("different tokens should produce different fingerprints")
	}
	if Fingerprint("") != "" {
		t.Error("empty token should produce empty fingerprint")
	}
}

func TestInspectToken_JWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{
		"sub":    "user-169",
		"iss":    "https://auth.example.com",
		"tenant": "tenant-1",
		"exp":    exp.Unix(),
	})

	info := InspectToken(token)
	if !info.JWT {
		t.Fatal("expected JWT=true")
	}
	if info.Subject != "user-169" || info.Issuer != "https://auth.example.com" || info.TenantID != "tenant-1" {
		t.Errorf("info = %+v", info)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", info.ExpiresAt, exp)
	}
	if info.Expired(time.Now()) {
		t.Error("token should not be expired")
	}
	if info.Fingerprint != Fingerprint(token) {
		t.Error("fingerprint mismatch")
	}
}

func TestInspectToken_Opaque(t *testing.T) {
	info := InspectToken("opaque-token")
	if info.JWT {
		t.Error("opaque token should not parse as JWT")
	}
	if info.Expired(time.Now()) {
		t.Error("opaque token never expires")
	}
	if info.Fingerprint == "" {
		t.Error("opaque token should still have a fingerprint")
	}
}

func TestCheckExpiry(t *testing.T) {
	expired := signedToken(t, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Minute).Unix()})
	if err := CheckExpiry(expired, time.Now()); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("CheckExpiry(expired) = %v, want ErrTokenExpired", err)
	}
	if err := CheckExpiry("opaque", time.Now()); err != nil {
		t.Errorf("CheckExpiry(opaque) = %v, want nil", err)
	}
}
