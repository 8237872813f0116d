package entity

import "context"

// Retriever performs the network read for a key.
//
// Contract:
// - Concurrency: Retrieve is called from store goroutines and must be safe
//   for concurrent use.
// - Errors: failures are recorded on the entry as StatusErrored and are
//   never retried by the store.
type Retriever interface {
	Retrieve(ctx context.Context, href, token string) (any, error)
}

// RetrieverFunc adapts a function to Retriever.
type RetrieverFunc func(ctx context.Context, href, token string) (any, error)

// Retrieve calls f.
func (f RetrieverFunc) Retrieve(ctx context.Context, href, token string) (any, error) {
	return f(ctx, href, token)
}
