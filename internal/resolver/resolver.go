// Package resolver tries candidate sources in order and falls back to the
// snapshot when all of them fail.
//
// Candidates are tried one at a time in the caller's order and the first
// success wins. Every failure before it is logged and kept in the result's
// attempt log. When no candidate succeeds the snapshot is loaded; when that
// also fails the caller gets a *NoDataError rather than an empty registry.
package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/usb-ids-registry/internal/otel"
	"github.com/stacklok/usb-ids-registry/internal/registry"
	"github.com/stacklok/usb-ids-registry/internal/sources"
	"github.com/stacklok/usb-ids-registry/internal/telemetry"
)

// Resolver runs the ordered fallback over candidate sources
type Resolver struct {
	tracer  trace.Tracer
	metrics *telemetry.PipelineMetrics
}

// Option configures a Resolver
type Option func(*Resolver)

// WithTracer sets the tracer used for resolve and attempt spans
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Resolver) {
		r.tracer = tracer
	}
}

// WithMetrics sets the instruments used to count attempts
func WithMetrics(metrics *telemetry.PipelineMetrics) Option {
	return func(r *Resolver) {
		r.metrics = metrics
	}
}

// New creates a Resolver
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve is a convenience for New().Resolve
func Resolve(ctx context.Context, candidates []sources.SourceHandler, loader SnapshotLoader) (*FetchResult, error) {
	return New().Resolve(ctx, candidates, loader)
}

// Resolve tries each candidate in order and returns the first one that
// fetches successfully, parsed, with network provenance. If all fail it
// returns the snapshot from loader with snapshot provenance. If the
// snapshot is missing too it returns a *NoDataError.
//
// A cancelled context stops further candidates from being tried; the
// snapshot is still consulted.
func (r *Resolver) Resolve(
	ctx context.Context,
	candidates []sources.SourceHandler,
	loader SnapshotLoader,
) (*FetchResult, error) {
	ctx, span := otel.StartSpan(ctx, r.tracer, "resolver.Resolve",
		trace.WithAttributes(otel.AttrCandidateCount.Int(len(candidates))),
	)
	defer span.End()

	attempts := make([]Attempt, 0, len(candidates))

	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			slog.Warn("Stopping source resolution, context is done",
				"remaining", len(candidates)-i,
				"error", err)
			for _, skipped := range candidates[i:] {
				r.metrics.RecordFetchAttempt(ctx, skipped.Name(), telemetry.OutcomeSkipped)
			}
			break
		}

		result, err := r.try(ctx, i, candidate)
		if err != nil {
			slog.Warn("Source failed, trying next",
				"source", candidate.Name(),
				"index", i,
				"error", err)
			attempts = append(attempts, Attempt{Source: candidate.Name(), Err: err})
			r.metrics.RecordFetchAttempt(ctx, candidate.Name(), telemetry.OutcomeFailure)
			continue
		}

		r.metrics.RecordFetchAttempt(ctx, candidate.Name(), telemetry.OutcomeSuccess)
		result.Attempts = attempts
		span.SetAttributes(otel.AttrProvenance.String(string(ProvenanceNetwork)), otel.AttrSource.String(result.Source))
		return result, nil
	}

	result, err := r.fallback(ctx, loader, attempts)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrProvenance.String(string(ProvenanceSnapshot)), otel.AttrSource.String(result.Source))
	return result, nil
}

// try fetches and parses a single candidate
func (r *Resolver) try(ctx context.Context, index int, candidate sources.SourceHandler) (*FetchResult, error) {
	ctx, span := otel.StartSpan(ctx, r.tracer, "resolver.Attempt",
		trace.WithAttributes(
			otel.AttrSource.String(candidate.Name()),
			otel.AttrSourceIndex.Int(index),
		),
	)
	defer span.End()

	fetchStart := time.Now()
	data, err := candidate.Fetch(ctx)
	fetchDuration := time.Since(fetchStart)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	parseStart := time.Now()
	reg, stats := registry.ParseWithStats(string(data))
	parseDuration := time.Since(parseStart)

	sum := sha256.Sum256(data)

	span.SetAttributes(
		otel.AttrVendorCount.Int(stats.Vendors),
		otel.AttrDeviceCount.Int(stats.Devices),
	)

	slog.Info("Fetched usb.ids",
		"source", candidate.Name(),
		"vendors", reg.VendorCount(),
		"devices", reg.DeviceCount(),
		"skipped_lines", stats.Skipped,
		"download_duration", fetchDuration.String(),
		"parse_duration", parseDuration.String())

	return &FetchResult{
		Registry:   reg,
		Provenance: ProvenanceNetwork,
		Source:     candidate.Name(),
		Hash:       hex.EncodeToString(sum[:]),
		Stats:      stats,
	}, nil
}

// fallback loads the snapshot after every candidate failed
func (r *Resolver) fallback(ctx context.Context, loader SnapshotLoader, attempts []Attempt) (*FetchResult, error) {
	if loader == nil {
		slog.Error("No source succeeded and no snapshot is configured", "failed_sources", len(attempts))
		return nil, &NoDataError{Attempts: attempts}
	}

	// The snapshot is read even when ctx is done
	ctx, span := otel.StartSpan(context.WithoutCancel(ctx), r.tracer, "resolver.LoadSnapshot",
		trace.WithAttributes(otel.AttrSnapshotLocation.String(loader.Location())),
	)
	defer span.End()

	reg, err := loader.Load(ctx)
	if err != nil {
		otel.RecordError(span, err)
		slog.Error("No source succeeded and no snapshot could be loaded",
			"failed_sources", len(attempts),
			"snapshot", loader.Location(),
			"error", err)
		return nil, &NoDataError{Attempts: attempts, SnapshotErr: err}
	}

	reg = registry.Normalize(reg)
	r.metrics.RecordFetchAttempt(ctx, loader.Location(), telemetry.OutcomeSnapshot)
	slog.Warn("Using snapshot, no source succeeded",
		"snapshot", loader.Location(),
		"failed_sources", len(attempts),
		"vendors", reg.VendorCount(),
		"devices", reg.DeviceCount())

	return &FetchResult{
		Registry:   reg,
		Provenance: ProvenanceSnapshot,
		Source:     loader.Location(),
		Attempts:   attempts,
	}, nil
}
