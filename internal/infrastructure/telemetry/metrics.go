package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration // Default: 60s
	ServiceName       string
	Insecure          bool
}

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider creates and configures a new MeterProvider.
// If metrics are disabled, it returns a provider wrapping the global no-op meter.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}

	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	exportInterval := cfg.ExportInterval
	if exportInterval == 0 {
		exportInterval = 60 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval)),
		),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", exportInterval),
	)

	return mp, nil
}

// Shutdown gracefully shuts down the meter provider, flushing pending metrics.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// TrackingMetrics holds the dispatch engine's business counters
type TrackingMetrics struct {
	eventsFired      metric.Int64Counter
	eventsSuppressed metric.Int64Counter
	eventsDropped    metric.Int64Counter
	loadFailures     metric.Int64Counter
}

// NewTrackingMetrics registers the dispatch counters on the given meter
func NewTrackingMetrics(meter metric.Meter) (*TrackingMetrics, error) {
	eventsFired, err := meter.Int64Counter("tracking.events.fired",
		metric.WithDescription("Events fanned out to platform adapters"))
	if err != nil {
		return nil, fmt.Errorf("failed to create fired counter: %w", err)
	}
	eventsSuppressed, err := meter.Int64Counter("tracking.events.suppressed",
		metric.WithDescription("Events suppressed by a deduplication tier"))
	if err != nil {
		return nil, fmt.Errorf("failed to create suppressed counter: %w", err)
	}
	eventsDropped, err := meter.Int64Counter("tracking.events.dropped",
		metric.WithDescription("Events dropped by payload validation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create dropped counter: %w", err)
	}
	loadFailures, err := meter.Int64Counter("tracking.pixel.load_failures",
		metric.WithDescription("Pixel script loads that exhausted all retries"))
	if err != nil {
		return nil, fmt.Errorf("failed to create load failure counter: %w", err)
	}

	return &TrackingMetrics{
		eventsFired:      eventsFired,
		eventsSuppressed: eventsSuppressed,
		eventsDropped:    eventsDropped,
		loadFailures:     loadFailures,
	}, nil
}

// RecordFired counts one adapter fan-out for an event
func (m *TrackingMetrics) RecordFired(ctx context.Context, event string) {
	if m == nil {
		return
	}
	m.eventsFired.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

// RecordSuppressed counts one dedup suppression
func (m *TrackingMetrics) RecordSuppressed(ctx context.Context, event, tier string) {
	if m == nil {
		return
	}
	m.eventsSuppressed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("tier", tier),
	))
}

// RecordDropped counts one validation drop
func (m *TrackingMetrics) RecordDropped(ctx context.Context, event string) {
	if m == nil {
		return
	}
	m.eventsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

// RecordLoadFailure counts one permanent pixel load failure
func (m *TrackingMetrics) RecordLoadFailure(ctx context.Context, platform string) {
	if m == nil {
		return
	}
	m.loadFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("platform", platform)))
}
