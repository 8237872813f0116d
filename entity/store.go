package entity

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/hyperentity/observe"
)

// Store owns the cache entries and listener registrations for a process.
// Construct one with NewStore and share it by reference.
//
// Contract:
// - Concurrency: all methods are safe for concurrent use.
// - Errors: retrieval failures become entry state, never return values,
//   except from the blocking Load and FetchAll helpers.
type Store struct {
	retriever Retriever
	policy    Policy
	mw        *observe.Middleware
	logger    observe.Logger
	metrics   observe.Metrics
	now       func() time.Time

	mu        sync.Mutex
	entries   map[Key]*entry
	listeners *registry
	pending   []State
	draining  bool
}

// Option configures a Store.
type Option func(*Store)

// WithPolicy sets the freshness policy.
func WithPolicy(p Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithMiddleware instruments retrievals and store events.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(s *Store) {
		if mw != nil {
			s.mw = mw
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a Store reading through retriever. A nil retriever panics.
func NewStore(retriever Retriever, opts ...Option) *Store {
	if retriever == nil {
		panic("entity: nil retriever")
	}
	s := &Store{
		retriever: retriever,
		policy:    DefaultPolicy(),
		mw:        observe.NopMiddleware(),
		now:       time.Now,
		entries:   make(map[Key]*entry),
		listeners: newRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.mw.Logger()
	s.metrics = s.mw.Metrics()
	return s
}

// Fetch returns the current state for (href, token), starting a retrieval
// when there is no entry yet.
//
// The returned Request is non-nil whenever a retrieval is outstanding for
// the key, and it is the same Request for every caller during that window.
// Fetched and errored entries are returned as they are; Fetch does not
// retry failures. Fetch never blocks on the network.
//
// An empty href or token is a no-op returning an idle state. A malformed
// key returns an errored state wrapping ErrInvalidKey or ErrHrefTooLong
// without creating an entry.
func (s *Store) Fetch(ctx context.Context, href, token string) (State, *Request) {
	key := NewKey(href, token)
	if st, ok := s.reject(ctx, key); !ok {
		return st, nil
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	switch {
	case !ok:
		e = &entry{key: key}
		s.entries[key] = e
		req := s.startLocked(ctx, e)
		st := e.snapshot()
		s.mu.Unlock()
		return st, req

	case e.inflight != nil:
		req := e.inflight
		st := e.snapshot()
		s.mu.Unlock()
		s.metrics.RecordEvent(ctx, key.meta(observe.OpRetrieve), observe.EventDedup)
		s.logger.Debug(ctx, "entity fetch joined in-flight retrieval", observe.Field{Key: "entity.key", Value: key.String()})
		return st, req

	case e.status == StatusFetched && s.policy.Stale(e.fetchedAt, s.now()):
		req := s.startLocked(ctx, e)
		st := e.snapshot()
		s.mu.Unlock()
		s.metrics.RecordEvent(ctx, key.meta(observe.OpRetrieve), observe.EventRefresh)
		return st, req

	default:
		st := e.snapshot()
		s.mu.Unlock()
		s.metrics.RecordEvent(ctx, key.meta(observe.OpRetrieve), observe.EventHit)
		return st, nil
	}
}

// Refresh starts a new retrieval for (href, token) unless one is already
// outstanding, in which case that Request is returned. Use it to retry an
// errored entry or to re-read a fetched one.
func (s *Store) Refresh(ctx context.Context, href, token string) (State, *Request) {
	key := NewKey(href, token)
	if st, ok := s.reject(ctx, key); !ok {
		return st, nil
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{key: key}
		s.entries[key] = e
	}
	if e.inflight != nil {
		req := e.inflight
		st := e.snapshot()
		s.mu.Unlock()
		s.metrics.RecordEvent(ctx, key.meta(observe.OpRetrieve), observe.EventDedup)
		return st, req
	}
	req := s.startLocked(ctx, e)
	st := e.snapshot()
	s.mu.Unlock()

	s.metrics.RecordEvent(ctx, key.meta(observe.OpRetrieve), observe.EventRefresh)
	return st, req
}

// Update writes payload for (href, token) as the authoritative fetched
// value, creating the entry if needed, and notifies listeners when the
// entry changed. An outstanding retrieval for the key is left running; the
// later of the two to complete wins.
func (s *Store) Update(ctx context.Context, href, token string, payload any) {
	key := NewKey(href, token)
	if _, ok := s.reject(ctx, key); !ok {
		return
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{key: key}
		s.entries[key] = e
	}
	s.resolveLocked(e, payload, nil)
	s.mu.Unlock()

	s.metrics.RecordEvent(ctx, key.meta(observe.OpUpdate), observe.EventUpdate)
	s.logger.Debug(ctx, "entity updated", observe.Field{Key: "entity.key", Value: key.String()})
	s.drain(ctx)
}

// AddListener registers l for (href, token). It neither fetches nor
// delivers the current state; pair it with Fetch for an initial value.
// Registering the same listener twice for a key has no effect.
func (s *Store) AddListener(href, token string, l Listener) {
	mustComparable(l)
	key := NewKey(href, token)
	if key.Validate() != nil {
		return
	}
	s.mu.Lock()
	s.listeners.add(key, l)
	s.mu.Unlock()
}

// RemoveListener unregisters l from (href, token). It is a no-op when l is
// not registered for that key.
func (s *Store) RemoveListener(href, token string, l Listener) {
	mustComparable(l)
	key := NewKey(href, token)
	if key.Validate() != nil {
		return
	}
	s.mu.Lock()
	s.listeners.remove(key, l)
	s.mu.Unlock()
}

// Peek returns the state for (href, token) without side effects.
func (s *Store) Peek(href, token string) (State, bool) {
	key := NewKey(href, token)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return State{Key: key, Status: StatusIdle}, false
	}
	return e.snapshot(), true
}

// Load fetches (href, token) and waits for a resolved state.
// It returns ErrMissingIdentity for an incomplete key and the entry's error
// when the entry is errored.
func (s *Store) Load(ctx context.Context, href, token string) (State, error) {
	st, req := s.Fetch(ctx, href, token)
	if !st.Key.Valid() {
		return st, ErrMissingIdentity
	}
	if req != nil && st.Status == StatusFetching {
		var err error
		if st, err = req.Wait(ctx); err != nil {
			return st, err
		}
	}
	if st.Status == StatusErrored {
		return st, st.Err
	}
	return st, nil
}

// FetchAll loads every key concurrently and waits for all of them.
// States are returned in key order; the error is the first failure.
func (s *Store) FetchAll(ctx context.Context, keys ...Key) ([]State, error) {
	states := make([]State, len(keys))
	var g errgroup.Group
	for i, key := range keys {
		g.Go(func() error {
			st, err := s.Load(ctx, key.Href, key.Token)
			states[i] = st
			if err != nil {
				return fmt.Errorf("load %s: %w", key, err)
			}
			return nil
		})
	}
	return states, g.Wait()
}

// Stats summarizes the store contents.
type Stats struct {
	Entries   int
	Fetching  int
	Fetched   int
	Errored   int
	InFlight  int
	Listeners int
}

// Stats returns a point-in-time summary.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Entries: len(s.entries), Listeners: s.listeners.count()}
	for _, e := range s.entries {
		switch e.status {
		case StatusFetching:
			st.Fetching++
		case StatusFetched:
			st.Fetched++
		case StatusErrored:
			st.Errored++
		}
		if e.inflight != nil {
			st.InFlight++
		}
	}
	return st
}

// reject filters keys that must not reach the entry map. ok is false when
// the caller should return st unchanged.
func (s *Store) reject(ctx context.Context, key Key) (st State, ok bool) {
	err := key.Validate()
	switch err {
	case nil:
		return State{}, true
	case ErrMissingIdentity:
		return State{Key: key, Status: StatusIdle}, false
	default:
		s.logger.Warn(ctx, "entity key rejected",
			observe.Field{Key: "entity.key", Value: key.String()},
			observe.Field{Key: "error", Value: err})
		return State{Key: key, Status: StatusErrored, Err: err}, false
	}
}

// startLocked marks e as fetching and launches its retrieval. The caller
// holds s.mu. Retrievals are detached from the caller's cancellation: once
// started they always complete and populate the entry.
func (s *Store) startLocked(ctx context.Context, e *entry) *Request {
	req := newRequest(e.key)
	e.inflight = req
	e.status = StatusFetching
	e.err = nil
	go s.run(context.WithoutCancel(ctx), req)
	return req
}

func (s *Store) run(ctx context.Context, req *Request) {
	payload, err := s.retrieve(ctx, req.key)

	s.mu.Lock()
	e := s.entries[req.key]
	if e.inflight == req {
		e.inflight = nil
	}
	s.resolveLocked(e, payload, err)
	st := e.snapshot()
	s.mu.Unlock()

	s.drain(ctx)
	req.complete(st)
}

func (s *Store) retrieve(ctx context.Context, key Key) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("entity: retriever panic: %v", r)
		}
	}()
	fn := s.mw.Wrap(func(ctx context.Context, _ observe.ResourceMeta) (any, error) {
		return s.retriever.Retrieve(ctx, key.Href, key.Token)
	})
	return fn(ctx, key.meta(observe.OpRetrieve))
}

// resolveLocked applies a retrieval result or update to e and queues a
// notification when status, payload or error differ from the last
// resolution. The transient fetching status of a re-retrieval is not a
// change listeners ever saw.
func (s *Store) resolveLocked(e *entry, payload any, err error) {
	now := s.now()
	var changed bool
	if err != nil {
		changed = e.resolved != StatusErrored || e.resolvedErr == nil || e.resolvedErr.Error() != err.Error()
		e.status = StatusErrored
		e.err = err
	} else {
		changed = e.resolved != StatusFetched || !reflect.DeepEqual(e.payload, payload)
		e.status = StatusFetched
		e.payload = payload
		e.err = nil
		e.fetchedAt = now
	}
	e.resolved = e.status
	e.resolvedErr = e.err
	if !changed {
		return
	}
	e.version++
	e.updatedAt = now
	s.pending = append(s.pending, e.snapshot())
}

// drain delivers queued notifications in order. Only one goroutine drains
// at a time; others return immediately and their notifications are
// delivered by the active drainer.
func (s *Store) drain(ctx context.Context) {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.pending) > 0 {
		st := s.pending[0]
		s.pending[0] = State{}
		s.pending = s.pending[1:]
		listeners := s.listeners.snapshot(st.Key)

		for _, l := range listeners {
			// A listener removed by an earlier callback in this round is skipped.
			if !s.listeners.contains(st.Key, l) {
				continue
			}
			s.mu.Unlock()
			s.deliver(ctx, l, st)
			s.mu.Lock()
		}
	}
	s.pending = nil
	s.draining = false
	s.mu.Unlock()
}

func (s *Store) deliver(ctx context.Context, l Listener, st State) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "entity listener panicked",
				observe.Field{Key: "entity.key", Value: st.Key.String()},
				observe.Field{Key: "panic", Value: fmt.Sprint(r)})
		}
	}()
	l.EntityChanged(st)
	s.metrics.RecordEvent(ctx, st.Key.meta(observe.OpRetrieve), observe.EventNotify)
}
