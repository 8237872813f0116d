package observe

import (
	"context"
	"time"
)

// RetrieveFunc performs one network operation for an entity.
type RetrieveFunc func(ctx context.Context, meta ResourceMeta) (any, error)

// Middleware wraps network operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a RetrieveFunc that is safe for concurrent use.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger { return m.logger }

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Wrap wraps fn with a span, a retrieval metric and a completion log line.
func (m *Middleware) Wrap(fn RetrieveFunc) RetrieveFunc {
	return func(ctx context.Context, meta ResourceMeta) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordRetrieval(ctx, meta, duration, err)

		logger := m.logger.WithResource(meta)
		fields := []Field{{Key: "duration_ms", Value: float64(duration.Milliseconds())}}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Warn(ctx, "entity "+meta.operation()+" failed", fields...)
		} else {
			logger.Debug(ctx, "entity "+meta.operation()+" completed", fields...)
		}

		return result, err
	}
}
