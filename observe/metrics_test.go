package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("newMetrics failed: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	if m == nil {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordRetrieval(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := ResourceMeta{Href: "/courses/1", Operation: OpRetrieve}
	ctx := context.Background()

	m.RecordRetrieval(ctx, meta, 20*time.Millisecond, nil)
	m.RecordRetrieval(ctx, meta, 30*time.Millisecond, errors.New("404"))

	rm := collect(t, reader)
	if got := sumValue(t, findMetric(rm, "entity.retrieve.total")); got != 2 {
		t.Errorf("entity.retrieve.total = %d, want 2", got)
	}
	if got := sumValue(t, findMetric(rm, "entity.retrieve.errors")); got != 1 {
		t.Errorf("entity.retrieve.errors = %d, want 1", got)
	}

	hist := findMetric(rm, "entity.retrieve.duration_ms")
	if hist == nil {
		t.Fatal("entity.retrieve.duration_ms not found")
	}
	h, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok || len(h.DataPoints) == 0 || h.DataPoints[0].Count != 2 {
		t.Errorf("duration histogram = %+v", hist.Data)
	}
}

func TestMetrics_RecordEvent(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := ResourceMeta{Href: "/courses/1"}
	ctx := context.Background()

	m.RecordEvent(ctx, meta, EventDedup)
	m.RecordEvent(ctx, meta, EventDedup)
	m.RecordEvent(ctx, meta, EventNotify)

	found := findMetric(collect(t, reader), "entity.store.events")
	if found == nil {
		t.Fatal("entity.store.events not found")
	}
	sum := found.Data.(metricdata.Sum[int64])

	byEvent := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("event"))
		byEvent[v.AsString()] += dp.Value
	}
	if byEvent["dedup"] != 2 || byEvent["notify"] != 1 {
		t.Errorf("events = %v, want dedup=2 notify=1", byEvent)
	}
}

func TestNopMetrics_NoPanic(t *testing.T) {
	m := NopMetrics()
	m.RecordRetrieval(context.Background(), ResourceMeta{}, time.Millisecond, nil)
	m.RecordEvent(context.Background(), ResourceMeta{}, EventHit)
}
