// Package telemetry exports hadisd metrics over OTLP.
//
// Metrics are disabled unless an endpoint is configured; all cache,
// embedding, and search instruments then publish through the global
// meter provider. Export failures degrade silently rather than crash
// the daemon.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config holds telemetry settings.
type Config struct {
	// Enabled turns OTLP metric export on.
	Enabled bool `koanf:"enabled"`

	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string `koanf:"endpoint"`

	// Insecure disables TLS toward the collector.
	Insecure bool `koanf:"insecure"`

	// ExportInterval is the periodic reader interval.
	ExportInterval time.Duration `koanf:"export_interval"`

	// ServiceName identifies this daemon in the collector.
	ServiceName string `koanf:"service_name"`

	// ServiceVersion is stamped on exported metrics.
	ServiceVersion string `koanf:"service_version"`
}

func (c *Config) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.ExportInterval <= 0 {
		c.ExportInterval = 15 * time.Second
	}
	if c.ServiceName == "" {
		c.ServiceName = "hadisd"
	}
}

// Telemetry owns the meter provider lifecycle.
type Telemetry struct {
	meterProvider *sdkmetric.MeterProvider
}

// New initializes OTLP metric export and installs the global meter
// provider. A disabled config returns a no-op instance.
func New(ctx context.Context, cfg Config) (*Telemetry, error) {
	t := &Telemetry{}
	if !cfg.Enabled {
		return t, nil
	}
	cfg.applyDefaults()

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(cfg.ExportInterval)),
		),
	)
	otel.SetMeterProvider(t.meterProvider)
	return t, nil
}

// Shutdown flushes pending metrics.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.meterProvider == nil {
		return nil
	}
	return t.meterProvider.Shutdown(ctx)
}
