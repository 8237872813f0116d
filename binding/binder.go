package binding

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jonwraymond/hyperentity/entity"
	"github.com/jonwraymond/hyperentity/hypermedia"
	"github.com/jonwraymond/hyperentity/observe"
)

// Store is the part of entity.Store a Binder uses.
type Store interface {
	Fetch(ctx context.Context, href, token string) (entity.State, *entity.Request)
	AddListener(href, token string, l entity.Listener)
	RemoveListener(href, token string, l entity.Listener)
}

// Transform converts a raw payload into the presented value.
type Transform func(payload any) (any, error)

// SirenTransform parses payloads into *hypermedia.Entity.
func SirenTransform(payload any) (any, error) {
	return hypermedia.Parse(payload)
}

// View is what a Binder currently presents.
type View struct {
	// Key is the active identity. It is incomplete until both parts are set.
	Key entity.Key

	// Entity is the transformed payload of the last resolved state.
	Entity any

	// Loaded is false after every identity change until the key resolves.
	Loaded bool

	// Err is the entry's error, or the transform error.
	Err error

	// Version is the entry version the view was built from.
	Version uint64
}

// Siren returns Entity as a Siren document, or nil.
func (v View) Siren() *hypermedia.Entity {
	e, _ := v.Entity.(*hypermedia.Entity)
	return e
}

// Option configures a Binder.
type Option func(*Binder)

// WithTransform sets the payload transform. Default: identity.
func WithTransform(fn Transform) Option {
	return func(b *Binder) {
		if fn != nil {
			b.transform = fn
		}
	}
}

// WithOnChange sets a callback invoked with every new view. It runs on the
// goroutine that delivered the change and must not block for long.
func WithOnChange(fn func(View)) Option {
	return func(b *Binder) { b.onChange = fn }
}

// WithLogger sets the logger for rebind events.
func WithLogger(l observe.Logger) Option {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

// Binder binds one consumer to the store.
//
// Contract:
//   - Concurrency: safe for concurrent use. Identity changes are serialized;
//     notifications may arrive on store goroutines.
//   - Ownership: the Binder is the registered listener; do not register it
//     manually.
type Binder struct {
	id        string
	store     Store
	transform Transform
	onChange  func(View)
	logger    observe.Logger

	// opMu serializes identity changes. It is never held by EntityChanged,
	// which the store may call while a rebind is fetching.
	opMu sync.Mutex

	mu     sync.Mutex
	href   string
	token  string
	active entity.Key // registered key; zero when detached or incomplete
	view   View
}

// New creates a Binder for store.
func New(store Store, opts ...Option) *Binder {
	if store == nil {
		panic("binding: nil store")
	}
	b := &Binder{
		id:        uuid.NewString(),
		store:     store,
		transform: func(p any) (any, error) { return p, nil },
		logger:    observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(observe.Field{Key: "binder.id", Value: b.id})
	return b
}

// NewSiren creates a Binder that presents *hypermedia.Entity values.
func NewSiren(store Store, opts ...Option) *Binder {
	return New(store, append([]Option{WithTransform(SirenTransform)}, opts...)...)
}

// ID identifies the binder in logs.
func (b *Binder) ID() string { return b.id }

// SetHref changes the resource, keeping the current token.
func (b *Binder) SetHref(ctx context.Context, href string) {
	b.opMu.Lock()
	defer b.opMu.Unlock()
	b.mu.Lock()
	token := b.token
	b.mu.Unlock()
	b.rebind(ctx, href, token, false)
}

// SetToken changes the token, keeping the current resource.
func (b *Binder) SetToken(ctx context.Context, token string) {
	b.opMu.Lock()
	defer b.opMu.Unlock()
	b.mu.Lock()
	href := b.href
	b.mu.Unlock()
	b.rebind(ctx, href, token, false)
}

// Set changes both parts of the identity at once.
func (b *Binder) Set(ctx context.Context, href, token string) {
	b.opMu.Lock()
	defer b.opMu.Unlock()
	b.rebind(ctx, href, token, false)
}

// Attach registers the current identity again after Detach.
func (b *Binder) Attach(ctx context.Context) {
	b.opMu.Lock()
	defer b.opMu.Unlock()
	b.mu.Lock()
	href, token := b.href, b.token
	b.mu.Unlock()
	b.rebind(ctx, href, token, true)
}

// Detach unregisters the active listener. The identity is kept for Attach.
func (b *Binder) Detach() {
	b.opMu.Lock()
	defer b.opMu.Unlock()

	b.mu.Lock()
	old := b.active
	b.active = entity.Key{}
	b.mu.Unlock()

	if old.Valid() {
		b.store.RemoveListener(old.Href, old.Token, b)
		b.logger.Debug(context.Background(), "binder detached", observe.Field{Key: "entity.key", Value: old.String()})
	}
}

// View returns the current view.
func (b *Binder) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// Key returns the active key, or the zero Key when none is registered.
func (b *Binder) Key() entity.Key {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// EntityChanged implements entity.Listener. States for a key other than
// the active one are ignored.
func (b *Binder) EntityChanged(st entity.State) {
	b.apply(st)
}

// rebind moves the registration to (href, token). Must hold opMu.
func (b *Binder) rebind(ctx context.Context, href, token string, force bool) {
	next := entity.NewKey(href, token)

	b.mu.Lock()
	old := b.active
	b.href, b.token = href, token
	if !force && next == old && old.Valid() {
		b.mu.Unlock()
		return
	}
	if next.Valid() {
		b.active = next
	} else {
		b.active = entity.Key{}
	}
	b.view = View{Key: next}
	b.mu.Unlock()

	if old.Valid() && old != next {
		b.store.RemoveListener(old.Href, old.Token, b)
	}
	if !next.Valid() {
		// Deferred until both parts are known.
		return
	}

	b.logger.Debug(ctx, "binder rebind",
		observe.Field{Key: "entity.href", Value: next.Href},
		observe.Field{Key: "entity.credential", Value: next.Fingerprint()},
	)
	b.store.AddListener(next.Href, next.Token, b)

	st, _ := b.store.Fetch(ctx, next.Href, next.Token)
	if st.Resolved() {
		b.apply(st)
	}
}

func (b *Binder) apply(st entity.State) {
	if !st.Resolved() {
		return
	}

	b.mu.Lock()
	if st.Key != b.active || (b.view.Loaded && st.Version <= b.view.Version) {
		b.mu.Unlock()
		return
	}
	v := View{Key: st.Key, Loaded: true, Version: st.Version, Err: st.Err}
	if st.Err == nil {
		v.Entity, v.Err = b.transform(st.Payload)
	}
	b.view = v
	onChange := b.onChange
	b.mu.Unlock()

	if onChange != nil {
		onChange(v)
	}
}
