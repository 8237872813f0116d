// Package hypermedia models Siren documents and the lookups consumers use to
// navigate them: sub-entities and links by rel or class, actions by name.
//
// Every lookup is nil-safe, so chained navigation over a partially loaded
// document returns nil rather than panicking.
package hypermedia
