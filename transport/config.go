package transport

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jonwraymond/hyperentity/observe"
)

// DefaultAccept prefers Siren and falls back to plain JSON.
const DefaultAccept = "application/vnd.siren+json, application/json"

// DefaultTimeout bounds a single attempt.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL resolves relative hrefs. Empty means hrefs must be absolute.
	BaseURL string

	// HTTPClient is used for requests. Its Transport is wrapped with
	// auth.Transport. Default: a new http.Client.
	HTTPClient *http.Client

	// Timeout bounds each attempt. Default: 30s.
	Timeout time.Duration

	// Retry configures retries for GET and HEAD. Default: no retries.
	Retry RetryConfig

	// Breaker configures per-host circuit breaking. Default: disabled.
	Breaker BreakerConfig

	// Accept is sent on every request. Default: DefaultAccept.
	Accept string

	// UserAgent is sent when non-empty.
	UserAgent string

	// Logger receives retry and breaker events. Default: no-op.
	Logger observe.Logger
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("transport: timeout must be >= 0, got %s", c.Timeout)
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("transport: retry max attempts must be >= 0, got %d", c.Retry.MaxAttempts)
	}
	if c.Breaker.MaxFailures < 0 {
		return fmt.Errorf("transport: breaker max failures must be >= 0, got %d", c.Breaker.MaxFailures)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("%w: base url: %v", ErrInvalidHref, err)
		}
		if !u.IsAbs() {
			return fmt.Errorf("%w: base url %q is not absolute", ErrInvalidHref, c.BaseURL)
		}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Accept == "" {
		c.Accept = DefaultAccept
	}
	if c.Logger == nil {
		c.Logger = observe.NopLogger()
	}
	c.Retry = c.Retry.withDefaults()
	c.Breaker = c.Breaker.withDefaults()
	return c
}
