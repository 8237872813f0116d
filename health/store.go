package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/hyperentity/entity"
)

// StatsSource reports store statistics. *entity.Store implements it.
type StatsSource interface {
	Stats() entity.Stats
}

// StoreCheckerConfig configures a StoreChecker.
type StoreCheckerConfig struct {
	// DegradedRatio is the errored/resolved ratio at which the store is
	// reported degraded. Default: 0.5.
	DegradedRatio float64

	// MinResolved is the number of resolved entries needed before the
	// ratio is judged. Default: 1.
	MinResolved int
}

// StoreChecker reports degraded when too many resolved entries are errored.
// A store is never unhealthy on its own: errored entries are cached state,
// not a broken process.
type StoreChecker struct {
	src    StatsSource
	config StoreCheckerConfig
}

// NewStoreChecker creates a StoreChecker for src.
func NewStoreChecker(src StatsSource, config StoreCheckerConfig) *StoreChecker {
	if config.DegradedRatio <= 0 || config.DegradedRatio > 1 {
		config.DegradedRatio = 0.5
	}
	if config.MinResolved <= 0 {
		config.MinResolved = 1
	}
	return &StoreChecker{src: src, config: config}
}

// Name returns "store".
func (c *StoreChecker) Name() string { return "store" }

// Check evaluates the current statistics.
func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	st := c.src.Stats()
	resolved := st.Fetched + st.Errored
	details := map[string]any{
		"entries":   st.Entries,
		"fetching":  st.Fetching,
		"fetched":   st.Fetched,
		"errored":   st.Errored,
		"in_flight": st.InFlight,
		"listeners": st.Listeners,
	}

	if resolved < c.config.MinResolved {
		return Healthy(fmt.Sprintf("%d entries, none resolved yet", st.Entries)).WithDetails(details)
	}

	ratio := float64(st.Errored) / float64(resolved)
	details["errored_ratio"] = ratio
	if ratio >= c.config.DegradedRatio {
		return Degraded(fmt.Sprintf("%d of %d resolved entries errored", st.Errored, resolved)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d entries, %d errored", st.Entries, st.Errored)).WithDetails(details)
}

// CircuitSource lists hosts with an open circuit. *transport.Client
// implements it.
type CircuitSource interface {
	OpenCircuits() []string
}

// CircuitChecker reports unhealthy while any host's circuit is open.
type CircuitChecker struct {
	src CircuitSource
}

// NewCircuitChecker creates a CircuitChecker for src.
func NewCircuitChecker(src CircuitSource) *CircuitChecker {
	return &CircuitChecker{src: src}
}

// Name returns "transport".
func (c *CircuitChecker) Name() string { return "transport" }

// Check lists open circuits.
func (c *CircuitChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}
	open := c.src.OpenCircuits()
	if len(open) == 0 {
		return Healthy("all circuits closed")
	}
	return Unhealthy("circuit open for "+strings.Join(open, ", "), ErrCheckFailed).
		WithDetails(map[string]any{"open_hosts": open})
}
