// Package otel holds span helpers and the attribute keys shared by the
// resolver, sync manager and HTTP API.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on pipeline spans
const (
	AttrSource           = attribute.Key("usb_ids.source")
	AttrSourceIndex      = attribute.Key("usb_ids.source.index")
	AttrCandidateCount   = attribute.Key("usb_ids.candidates")
	AttrProvenance       = attribute.Key("usb_ids.provenance")
	AttrVendorCount      = attribute.Key("usb_ids.vendors")
	AttrDeviceCount      = attribute.Key("usb_ids.devices")
	AttrSnapshotLocation = attribute.Key("usb_ids.snapshot.location")
	AttrSyncID           = attribute.Key("usb_ids.sync.id")
)

// StartSpan starts a span on tracer, or returns the span already in ctx
// when tracer is nil
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span failed. The status
// description stays generic; details live in the recorded event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
