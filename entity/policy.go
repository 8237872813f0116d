package entity

import "time"

// Policy configures entry freshness.
type Policy struct {
	// MaxAge is how long a fetched entry is served before Fetch starts a
	// background re-retrieval. Zero keeps entries until an explicit Refresh
	// or Update.
	MaxAge time.Duration
}

// DefaultPolicy caches fetched entries until they are refreshed or updated.
func DefaultPolicy() Policy {
	return Policy{}
}

// Stale reports whether an entry fetched at fetchedAt needs re-retrieval.
func (p Policy) Stale(fetchedAt, now time.Time) bool {
	return p.MaxAge > 0 && !fetchedAt.IsZero() && now.Sub(fetchedAt) >= p.MaxAge
}
