package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/hyperentity/auth"
	"github.com/jonwraymond/hyperentity/entity"
	"github.com/jonwraymond/hyperentity/observe"
)

var _ entity.Retriever = (*Client)(nil)

// Request describes one HTTP exchange.
type Request struct {
	Method      string // default GET
	URL         string // absolute, or relative to Config.BaseURL
	Token       string // bearer token; empty sends no Authorization header
	Body        []byte
	ContentType string
	Header      http.Header
}

// Response is a successful (2xx) exchange with its decoded JSON body.
// Payload is nil when the body is empty.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Payload    any
}

// Client performs authenticated JSON requests.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: non-2xx responses return *StatusError; transport failures are
//     wrapped with the method and URL.
type Client struct {
	cfg      Config
	base     *url.URL
	http     *http.Client
	breakers *breakers
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	hc := *cfg.HTTPClient
	hc.Transport = auth.NewTransport(cfg.HTTPClient.Transport)

	c := &Client{
		cfg:      cfg,
		http:     &hc,
		breakers: newBreakers(cfg.Breaker),
	}
	if cfg.BaseURL != "" {
		// Validate already parsed it.
		c.base, _ = url.Parse(cfg.BaseURL)
	}
	return c, nil
}

// Resolve resolves href against the base URL.
func (c *Client) Resolve(href string) (*url.URL, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHref, err)
	}
	if c.base != nil {
		u = c.base.ResolveReference(u)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidHref, href)
	}
	return u, nil
}

// Retrieve GETs href with token and returns the decoded body.
// It implements entity.Retriever.
func (c *Client) Retrieve(ctx context.Context, href, token string) (any, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, URL: href, Token: token})
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// Do performs req. GET and HEAD are retried per Config.Retry.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	u, err := c.Resolve(req.URL)
	if err != nil {
		return nil, err
	}
	if req.Token != "" {
		ctx = auth.WithToken(ctx, req.Token)
	}

	rc := c.cfg.Retry
	if !idempotent(method) {
		rc.MaxAttempts = 1
	}
	userHook := rc.OnRetry
	rc.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.cfg.Logger.Debug(ctx, "transport retry",
			observe.Field{Key: "method", Value: method},
			observe.Field{Key: "url", Value: u.String()},
			observe.Field{Key: "attempt", Value: attempt},
			observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
			observe.Field{Key: "error", Value: err},
		)
		if userHook != nil {
			userHook(attempt, err, delay)
		}
	}

	var resp *Response
	err = retry(ctx, rc, func(ctx context.Context) error {
		if err := c.breakers.allow(u.Host); err != nil {
			return fmt.Errorf("%w: %s", err, u.Host)
		}
		r, err := c.attempt(ctx, method, u, req)
		c.breakers.record(u.Host, err)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// BreakerState returns the circuit state for host.
func (c *Client) BreakerState(host string) BreakerState {
	return c.breakers.state(host)
}

// OpenCircuits lists hosts whose breaker is not closed.
func (c *Client) OpenCircuits() []string {
	return c.breakers.open()
}

func (c *Client) attempt(parent context.Context, method string, u *url.URL, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(parent, c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHref, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	hr.Header.Set("Accept", c.cfg.Accept)
	if c.cfg.UserAgent != "" {
		hr.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if req.ContentType != "" {
		hr.Header.Set("Content-Type", req.ContentType)
	}

	res, err := c.http.Do(hr)
	if err != nil {
		return nil, c.wrapErr(parent, ctx, method, u, err)
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, c.wrapErr(parent, ctx, method, u, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			URL:        u.String(),
			StatusCode: res.StatusCode,
			Status:     res.Status,
		}
	}

	payload, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrDecode, method, u, err)
	}
	return &Response{
		URL:        u.String(),
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Payload:    payload,
	}, nil
}

func (c *Client) wrapErr(parent, ctx context.Context, method string, u *url.URL, err error) error {
	if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s %s after %s", ErrTimeout, method, u, c.cfg.Timeout)
	}
	return fmt.Errorf("transport: %s %s: %w", method, u, err)
}

func decode(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func idempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}
