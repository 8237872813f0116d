package health

import "errors"

var (
	// ErrCheckFailed is attached to unhealthy results produced by this package.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is attached to results of checks that missed the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
