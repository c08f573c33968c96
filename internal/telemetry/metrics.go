package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// PipelineMetricsMeterName is the meter name for resolver and sync metrics
	PipelineMetricsMeterName = "github.com/stacklok/usb-ids-registry/pipeline"
)

// Outcome values recorded for fetch attempts
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeSkipped  = "skipped"
	OutcomeSnapshot = "snapshot"
)

// PipelineMetrics holds the instruments for fetch, resolve and sync
type PipelineMetrics struct {
	fetchAttempts metric.Int64Counter
	syncDuration  metric.Float64Histogram
	vendorsTotal  metric.Int64Gauge
	devicesTotal  metric.Int64Gauge
}

// NewPipelineMetrics creates the pipeline instruments. A nil provider
// returns nil, and every method on a nil *PipelineMetrics is a no-op.
func NewPipelineMetrics(provider metric.MeterProvider) (*PipelineMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(PipelineMetricsMeterName)

	fetchAttempts, err := meter.Int64Counter(
		"usb_ids_fetch_attempts_total",
		metric.WithDescription("Fetch attempts per candidate source and outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	syncDuration, err := meter.Float64Histogram(
		"usb_ids_sync_duration_seconds",
		metric.WithDescription("Duration of sync operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, err
	}

	vendorsTotal, err := meter.Int64Gauge(
		"usb_ids_vendors_total",
		metric.WithDescription("Number of vendors in the current registry"),
		metric.WithUnit("{vendor}"),
	)
	if err != nil {
		return nil, err
	}

	devicesTotal, err := meter.Int64Gauge(
		"usb_ids_devices_total",
		metric.WithDescription("Number of devices in the current registry"),
		metric.WithUnit("{device}"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		fetchAttempts: fetchAttempts,
		syncDuration:  syncDuration,
		vendorsTotal:  vendorsTotal,
		devicesTotal:  devicesTotal,
	}, nil
}

// RecordFetchAttempt counts one attempt against a candidate source
func (m *PipelineMetrics) RecordFetchAttempt(ctx context.Context, source, outcome string) {
	if m == nil {
		return
	}

	m.fetchAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

// RecordSyncDuration records how long a sync took and how it ended
func (m *PipelineMetrics) RecordSyncDuration(ctx context.Context, provenance string, duration time.Duration, success bool) {
	if m == nil {
		return
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provenance", provenance),
		attribute.Bool("success", success),
	))
}

// RecordRegistrySize records the vendor and device counts of the current registry
func (m *PipelineMetrics) RecordRegistrySize(ctx context.Context, provenance string, vendors, devices int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("provenance", provenance))
	m.vendorsTotal.Record(ctx, int64(vendors), attrs)
	m.devicesTotal.Record(ctx, int64(devices), attrs)
}
