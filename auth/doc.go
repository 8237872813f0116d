// Package auth handles the bearer credentials presented to hypermedia APIs.
//
// Tokens are opaque strings to the entity store. This package formats them
// into Authorization headers, carries them through a context so an
// http.RoundTripper can attach them, and inspects JWT claims (without
// verification) so logs can name a subject instead of printing the token.
package auth
