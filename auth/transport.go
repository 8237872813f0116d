package auth

import (
	"net/http"
	"strings"
)

// Transport is an http.RoundTripper that attaches the token found in the
// request context as a bearer Authorization header.
//
// Requests that already carry an Authorization header are sent unchanged.
// Redirect hops to a host other than the one the request chain started at
// never receive the context token.
//
// Usage:
//
//	client := &http.Client{Transport: auth.NewTransport(nil)}
//	req = req.WithContext(auth.WithToken(ctx, token))
type Transport struct {
	// Base is the underlying transport. Defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// NewTransport wraps base. A nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper) *Transport {
	return &Transport{Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	token := TokenFromContext(req.Context())
	if token == "" || req.Header.Get(HeaderAuthorization) != "" || !sameOrigin(req) {
		return base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	out := req.Clone(req.Context())
	SetBearer(out.Header, token)
	return base.RoundTrip(out)
}

// sameOrigin reports whether req targets the host of the first request in
// its redirect chain. http.Client links each redirect hop to the response
// that caused it.
func sameOrigin(req *http.Request) bool {
	if req.Response == nil {
		return true
	}
	first := req
	for first.Response != nil {
		if first.Response.Request == nil {
			return false
		}
		first = first.Response.Request
	}
	return strings.EqualFold(first.URL.Host, req.URL.Host)
}
