// Package entity implements the entity store: a read-through, deduplicating
// cache of hypermedia payloads keyed by (href, bearer token), with listener
// registration and notification.
//
// Fetch never blocks. The first Fetch for a key starts one retrieval; every
// Fetch that arrives while it is outstanding receives the same *Request.
// Resolved entries are served from memory without network activity until an
// explicit Refresh, an Update, or an opt-in Policy.MaxAge says otherwise.
//
// Update is the write-through path used after a side-effecting action. It
// replaces the cached payload and notifies listeners exactly like a
// retrieval completion.
//
// Listeners are notified one state change at a time, in the order the
// changes were applied, and per key in registration order. A listener may
// call back into the store; such calls are queued behind the delivery in
// progress rather than deadlocking.
//
// Empty hrefs or tokens mean "no subscription possible yet": every operation
// on such a key is a silent no-op, so callers can invoke the store while
// their identity is still partially known.
package entity
