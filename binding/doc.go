// Package binding tracks one consumer's (href, token) identity against an
// entity.Store.
//
// A Binder registers itself as the listener for its current key. Changing
// either half of the identity unregisters from the old key before
// registering against the new one, and fetches once the identity is
// complete. Consumers read the presented value through View or receive it
// through an OnChange callback.
//
// Usage:
//
//	b := binding.NewSiren(store, binding.WithOnChange(func(v binding.View) {
//		if course := v.Siren(); course != nil {
//			render(course)
//		}
//	}))
//	b.Set(ctx, href, token)
//	defer b.Detach()
package binding
