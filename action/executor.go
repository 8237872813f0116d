package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/jonwraymond/hyperentity/auth"
	"github.com/jonwraymond/hyperentity/hypermedia"
	"github.com/jonwraymond/hyperentity/observe"
	"github.com/jonwraymond/hyperentity/transport"
)

// Doer sends requests. *transport.Client implements it.
type Doer interface {
	Resolve(href string) (*url.URL, error)
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Updater receives successful action results. *entity.Store implements it.
type Updater interface {
	Update(ctx context.Context, href, token string, payload any)
}

// Result is the outcome of a performed action.
type Result struct {
	URL        string
	StatusCode int
	Payload    any
}

// Executor performs actions.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: ErrNoAction for a nil action; *transport.StatusError for
//     non-2xx responses. The store is only updated after a 2xx response
//     with a body.
type Executor struct {
	client Doer
	store  Updater
	mw     *observe.Middleware
}

// Option configures an Executor.
type Option func(*Executor)

// WithMiddleware instruments every performed action.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(e *Executor) {
		if mw != nil {
			e.mw = mw
		}
	}
}

// NewExecutor creates an Executor. store may be nil, in which case results
// are returned without being written back.
func NewExecutor(client Doer, store Updater, opts ...Option) *Executor {
	if client == nil {
		panic("action: nil client")
	}
	e := &Executor{client: client, store: store, mw: observe.NopMiddleware()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// URL returns the request URL of act. For GET and HEAD the fields become
// the query string. A nil fields uses Fields(act).
func (e *Executor) URL(act *hypermedia.Action, fields Values) (string, error) {
	if act == nil {
		return "", ErrNoAction
	}
	if fields == nil {
		var err error
		if fields, err = Fields(act); err != nil {
			return "", err
		}
	}
	u, err := e.client.Resolve(act.Href)
	if err != nil {
		return "", err
	}
	if queryMethod(method(act)) {
		u.RawQuery = fields.Encode()
		u.ForceQuery = false
	}
	return u.String(), nil
}

// Perform executes act with token. A nil fields uses Fields(act).
func (e *Executor) Perform(ctx context.Context, act *hypermedia.Action, token string, fields Values) (*Result, error) {
	if act == nil {
		return nil, ErrNoAction
	}
	if fields == nil {
		var err error
		if fields, err = Fields(act); err != nil {
			return nil, err
		}
	}
	target, err := e.URL(act, fields)
	if err != nil {
		return nil, err
	}

	m := method(act)
	req := transport.Request{Method: m, URL: target, Token: token}
	if !queryMethod(m) {
		req.Body, req.ContentType, err = encodeBody(contentType(act), fields)
		if err != nil {
			return nil, err
		}
	}

	meta := observe.ResourceMeta{
		Href:      target,
		Operation: observe.OpAction,
		Method:    m,
	}
	if token != "" {
		meta.Credential = auth.Fingerprint(token)
	}

	var result *Result
	_, err = e.mw.Wrap(func(ctx context.Context, _ observe.ResourceMeta) (any, error) {
		resp, err := e.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		result = &Result{URL: resp.URL, StatusCode: resp.StatusCode, Payload: resp.Payload}
		return resp.Payload, nil
	})(ctx, meta)
	if err != nil {
		return nil, err
	}

	if result.URL == "" {
		result.URL = target
	}
	if e.store != nil && result.Payload != nil {
		e.store.Update(ctx, result.URL, token, result.Payload)
	}
	return result, nil
}

// encodeBody returns the body and its Content-Type.
func encodeBody(typ string, fields Values) ([]byte, string, error) {
	switch {
	case typ == hypermedia.DefaultActionType:
		return []byte(fields.Encode()), typ, nil

	case strings.Contains(typ, "json"):
		b, err := json.Marshal(fields.Object())
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrEncodeBody, err)
		}
		return b, typ, nil

	default:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, p := range fields {
			if err := w.WriteField(p.Name, format(p.Value)); err != nil {
				return nil, "", fmt.Errorf("%w: %v", ErrEncodeBody, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrEncodeBody, err)
		}
		return buf.Bytes(), w.FormDataContentType(), nil
	}
}
