package transport

import (
	"sort"
	"sync"
	"time"
)

// BreakerState is the state of a host's circuit breaker.
type BreakerState int

const (
	// BreakerClosed lets requests through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects requests with ErrCircuitOpen.
	BreakerOpen
	// BreakerHalfOpen lets a single probe through.
	BreakerHalfOpen
)

// String returns the state name.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures per-host circuit breaking.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the
	// circuit for a host. Zero disables circuit breaking.
	MaxFailures int

	// ResetTimeout is how long a circuit stays open before a probe.
	// Default: 30s.
	ResetTimeout time.Duration

	// OnStateChange is called with the host and transition. It runs under
	// the breaker lock and must not call back into the Client.
	OnStateChange func(host string, from, to BreakerState)
}

func (b BreakerConfig) withDefaults() BreakerConfig {
	if b.ResetTimeout <= 0 {
		b.ResetTimeout = 30 * time.Second
	}
	return b
}

// breaker tracks one host. Only Retryable errors count as failures, so a
// 404 does not open the circuit.
type breaker struct {
	state       BreakerState
	failures    int
	lastFailure time.Time
	probing     bool
}

type breakers struct {
	cfg BreakerConfig
	now func() time.Time

	mu     sync.Mutex
	byHost map[string]*breaker
}

func newBreakers(cfg BreakerConfig) *breakers {
	return &breakers{cfg: cfg, now: time.Now, byHost: make(map[string]*breaker)}
}

func (bs *breakers) enabled() bool {
	return bs != nil && bs.cfg.MaxFailures > 0
}

// allow reports whether a request to host may proceed.
func (bs *breakers) allow(host string) error {
	if !bs.enabled() {
		return nil
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()

	b := bs.getLocked(host)
	switch bs.currentLocked(host, b) {
	case BreakerOpen:
		return ErrCircuitOpen
	case BreakerHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

// record updates host's breaker with the outcome of a request.
func (bs *breakers) record(host string, err error) {
	if !bs.enabled() {
		return
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()

	b := bs.getLocked(host)
	failed := Retryable(err)

	switch b.state {
	case BreakerClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		b.lastFailure = bs.now()
		if b.failures >= bs.cfg.MaxFailures {
			bs.setLocked(host, b, BreakerOpen)
		}
	case BreakerHalfOpen:
		b.probing = false
		if failed {
			b.lastFailure = bs.now()
			bs.setLocked(host, b, BreakerOpen)
			return
		}
		b.failures = 0
		bs.setLocked(host, b, BreakerClosed)
	}
}

func (bs *breakers) state(host string) BreakerState {
	if !bs.enabled() {
		return BreakerClosed
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.byHost[host]
	if !ok {
		return BreakerClosed
	}
	return bs.currentLocked(host, b)
}

func (bs *breakers) open() []string {
	if !bs.enabled() {
		return nil
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()
	var hosts []string
	for host, b := range bs.byHost {
		if bs.currentLocked(host, b) != BreakerClosed {
			hosts = append(hosts, host)
		}
	}
	sort.Strings(hosts)
	return hosts
}

func (bs *breakers) getLocked(host string) *breaker {
	b, ok := bs.byHost[host]
	if !ok {
		b = &breaker{}
		bs.byHost[host] = b
	}
	return b
}

func (bs *breakers) currentLocked(host string, b *breaker) BreakerState {
	if b.state == BreakerOpen && bs.now().Sub(b.lastFailure) >= bs.cfg.ResetTimeout {
		b.probing = false
		bs.setLocked(host, b, BreakerHalfOpen)
	}
	return b.state
}

func (bs *breakers) setLocked(host string, b *breaker, to BreakerState) {
	from := b.state
	b.state = to
	if from != to && bs.cfg.OnStateChange != nil {
		bs.cfg.OnStateChange(host, from, to)
	}
}
