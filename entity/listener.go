package entity

import (
	"fmt"
	"reflect"
)

// Listener receives state changes for the keys it is registered against.
//
// Registrations are compared by identity, so the dynamic type must be
// comparable; pointers are the usual choice. Registering a non-comparable
// value (a func, map or slice type) panics.
type Listener interface {
	EntityChanged(state State)
}

type funcListener struct {
	fn func(State)
}

func (l *funcListener) EntityChanged(state State) { l.fn(state) }

// NewListener wraps fn in a Listener with its own identity. Two calls with
// the same fn return distinct listeners.
func NewListener(fn func(State)) Listener {
	return &funcListener{fn: fn}
}

func mustComparable(l Listener) {
	if l == nil {
		panic("entity: nil listener")
	}
	if t := reflect.TypeOf(l); !t.Comparable() {
		panic(fmt.Sprintf("entity: listener type %s is not comparable", t))
	}
}

// registry maps keys to an ordered set of listeners.
type registry struct {
	byKey map[Key][]Listener
}

func newRegistry() *registry {
	return &registry{byKey: make(map[Key][]Listener)}
}

// add appends l unless it is already registered for key.
func (r *registry) add(key Key, l Listener) bool {
	if r.contains(key, l) {
		return false
	}
	r.byKey[key] = append(r.byKey[key], l)
	return true
}

func (r *registry) remove(key Key, l Listener) bool {
	list := r.byKey[key]
	for i, existing := range list {
		if existing != l {
			continue
		}
		if len(list) == 1 {
			delete(r.byKey, key)
			return true
		}
		next := make([]Listener, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		r.byKey[key] = next
		return true
	}
	return false
}

func (r *registry) contains(key Key, l Listener) bool {
	for _, existing := range r.byKey[key] {
		if existing == l {
			return true
		}
	}
	return false
}

// snapshot returns the listeners for key in registration order. The slice
// is never mutated in place, so it is safe to share.
func (r *registry) snapshot(key Key) []Listener {
	return r.byKey[key]
}

func (r *registry) count() int {
	n := 0
	for _, list := range r.byKey {
		n += len(list)
	}
	return n
}
