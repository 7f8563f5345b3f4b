package retrieval

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fikralabs/hadisd/internal/retrieval"

// Metrics holds search pipeline instruments. Instrument creation
// failures leave the field nil and recording becomes a no-op.
type Metrics struct {
	meter    metric.Meter
	duration metric.Float64Histogram
	hits     metric.Int64Histogram
	degraded metric.Int64Counter
}

// NewMetrics creates search metrics on the global meter provider.
func NewMetrics() *Metrics {
	m := &Metrics{meter: otel.Meter(instrumentationName)}

	m.duration, _ = m.meter.Float64Histogram(
		"hadisd.search.duration_seconds",
		metric.WithDescription("End-to-end search duration, labeled by path (result_cache, full)"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	m.hits, _ = m.meter.Int64Histogram(
		"hadisd.search.hits",
		metric.WithDescription("Number of hits returned per search"),
		metric.WithUnit("{hit}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 5, 10, 25),
	)
	m.degraded, _ = m.meter.Int64Counter(
		"hadisd.search.degraded_total",
		metric.WithDescription("Searches degraded to empty results by a dependency outage, labeled by reason"),
		metric.WithUnit("{search}"),
	)
	return m
}

// RecordSearch records one completed search.
func (m *Metrics) RecordSearch(ctx context.Context, elapsed time.Duration, hits int, path string) {
	attrs := metric.WithAttributes(attribute.String("path", path))
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
	if m.hits != nil {
		m.hits.Record(ctx, int64(hits), attrs)
	}
}

// RecordDegraded records one degraded search.
func (m *Metrics) RecordDegraded(ctx context.Context, reason string) {
	if m.degraded != nil {
		m.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}
