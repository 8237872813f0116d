// Package transport performs the HTTP side of entity retrieval and action
// execution.
//
// A Client resolves hrefs against an optional base URL, attaches the bearer
// token through auth.Transport, decodes JSON bodies and turns non-2xx
// responses into *StatusError. Retrieve satisfies entity.Retriever.
//
// Resilience is opt-in:
//
//   - Retry: idempotent requests (GET, HEAD) are retried on transport errors,
//     5xx and 429 with exponential backoff when RetryConfig.MaxAttempts > 1.
//   - Circuit breaking: when BreakerConfig.MaxFailures > 0, each host gets a
//     breaker that fails fast with ErrCircuitOpen after consecutive failures.
//
// Every attempt is bounded by Config.Timeout.
package transport
