package entity

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a cache entry.
type Status int

const (
	// StatusIdle is reported for keys that have no entry.
	StatusIdle Status = iota
	// StatusFetching means a retrieval is outstanding and no resolved value
	// has replaced it yet.
	StatusFetching
	// StatusFetched means Payload holds the last retrieved or written value.
	StatusFetched
	// StatusErrored means the last retrieval failed; Err holds the cause.
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusFetched:
		return "fetched"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is an immutable snapshot of a cache entry.
type State struct {
	Key     Key
	Status  Status
	Payload any
	Err     error

	// Version increases by one on every change listeners are notified of.
	Version uint64

	// UpdatedAt is when the entry last changed.
	UpdatedAt time.Time
}

// Resolved reports whether the state is fetched or errored.
func (s State) Resolved() bool {
	return s.Status == StatusFetched || s.Status == StatusErrored
}

// entry is the mutable record behind a State. Guarded by Store.mu.
type entry struct {
	key       Key
	status    Status
	payload   any
	err       error
	inflight  *Request
	version   uint64
	updatedAt time.Time
	fetchedAt time.Time

	// resolved and resolvedErr hold the last status and error listeners were
	// told about. A re-retrieval flips status to fetching without notifying,
	// so change detection compares against these instead.
	resolved    Status
	resolvedErr error
}

func (e *entry) snapshot() State {
	return State{
		Key:       e.key,
		Status:    e.status,
		Payload:   e.payload,
		Err:       e.err,
		Version:   e.version,
		UpdatedAt: e.updatedAt,
	}
}
