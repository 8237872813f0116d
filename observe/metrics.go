package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event names a store event that is counted but not timed.
type Event string

const (
	EventHit     Event = "hit"     // fetch served from a resolved entry
	EventDedup   Event = "dedup"   // fetch attached to an in-flight retrieval
	EventUpdate  Event = "update"  // write-through update applied
	EventNotify  Event = "notify"  // one listener invoked
	EventRefresh Event = "refresh" // explicit or policy driven re-retrieval
)

// Metrics records entity store activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRetrieval records one network retrieval with its duration and outcome.
	RecordRetrieval(ctx context.Context, meta ResourceMeta, duration time.Duration, err error)

	// RecordEvent counts a store event.
	RecordEvent(ctx context.Context, meta ResourceMeta, event Event)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	eventCount   metric.Int64Counter
}

// NewMetrics creates Metrics backed by meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"entity.retrieve.total",
		metric.WithDescription("Total number of entity retrievals"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"entity.retrieve.errors",
		metric.WithDescription("Total number of failed entity retrievals"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"entity.retrieve.duration_ms",
		metric.WithDescription("Entity retrieval duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	eventCount, err := meter.Int64Counter(
		"entity.store.events",
		metric.WithDescription("Entity store events by kind"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		eventCount:   eventCount,
	}, nil
}

// Hrefs are unbounded so they are kept out of metric attributes.
func (m *metricsImpl) RecordRetrieval(ctx context.Context, meta ResourceMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("entity.operation", meta.operation()))

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordEvent(ctx context.Context, meta ResourceMeta, event Event) {
	m.eventCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity.operation", meta.operation()),
		attribute.String("event", string(event)),
	))
}

type noopMetrics struct{}

// NopMetrics returns Metrics that record nothing.
func NopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordRetrieval(context.Context, ResourceMeta, time.Duration, error) {}
func (noopMetrics) RecordEvent(context.Context, ResourceMeta, Event)                    {}
