package entity

import "context"

// Request is the handle for an outstanding retrieval. Every Fetch that
// arrives while it is in flight receives the same *Request.
type Request struct {
	key   Key
	done  chan struct{}
	state State
}

func newRequest(key Key) *Request {
	return &Request{key: key, done: make(chan struct{})}
}

// Key returns the key being retrieved.
func (r *Request) Key() Key { return r.key }

// Done is closed once the retrieval result has been applied to the store.
// Listener delivery may still be in progress on another goroutine.
func (r *Request) Done() <-chan struct{} { return r.done }

// Wait blocks until the retrieval completes or ctx ends. Cancelling ctx
// abandons the wait only; the retrieval itself keeps running.
func (r *Request) Wait(ctx context.Context) (State, error) {
	select {
	case <-r.done:
		return r.state, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

func (r *Request) complete(state State) {
	r.state = state
	close(r.done)
}
