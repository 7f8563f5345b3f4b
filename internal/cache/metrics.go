package cache

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fikralabs/hadisd/internal/cache"

// Metrics tracks cache effectiveness per tier.
type Metrics struct {
	tier   string
	hits   metric.Int64Counter
	misses metric.Int64Counter
	size   metric.Int64Gauge
}

// NewMetrics creates metrics for one cache tier ("embedding" or "result").
func NewMetrics(tier string, logger *zap.Logger) *Metrics {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{tier: tier}

	var err error
	m.hits, err = meter.Int64Counter(
		"hadisd.cache.hits_total",
		metric.WithDescription("Cache hits by tier"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		logger.Warn("failed to create cache hits counter", zap.Error(err))
	}

	m.misses, err = meter.Int64Counter(
		"hadisd.cache.misses_total",
		metric.WithDescription("Cache misses by tier, including expired entries"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		logger.Warn("failed to create cache misses counter", zap.Error(err))
	}

	m.size, err = meter.Int64Gauge(
		"hadisd.cache.entries",
		metric.WithDescription("Current entry count by tier"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		logger.Warn("failed to create cache size gauge", zap.Error(err))
	}

	return m
}

func (m *Metrics) attrs() metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("tier", m.tier))
}

// RecordHit increments the hit counter.
func (m *Metrics) RecordHit() {
	if m.hits != nil {
		m.hits.Add(context.Background(), 1, m.attrs())
	}
}

// RecordMiss increments the miss counter.
func (m *Metrics) RecordMiss() {
	if m.misses != nil {
		m.misses.Add(context.Background(), 1, m.attrs())
	}
}

// SetSize records the current entry count.
func (m *Metrics) SetSize(n int) {
	if m.size != nil {
		m.size.Record(context.Background(), int64(n), m.attrs())
	}
}
