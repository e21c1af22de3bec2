package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a tracer for the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartDBSpan starts a span for relational store operations
func StartDBSpan(ctx context.Context, operation, table string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("DB %s %s", operation, table),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", table),
		),
	)
}

// StartDocStoreSpan starts a span for document store lookups
func StartDocStoreSpan(ctx context.Context, operation, collection string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("DocStore %s %s", operation, collection),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.operation", operation),
			attribute.String("db.mongodb.collection", collection),
		),
	)
}

// StartServiceSpan starts a span for service operations
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", service),
			attribute.String("service.operation", operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SyncMetrics holds sync-engine metrics
type SyncMetrics struct {
	resolveDuration metric.Float64Histogram
	resolveCount    metric.Int64Counter
	resolveErrors   metric.Int64Counter
	assignmentOps   metric.Int64Counter
}

// NewSyncMetrics creates sync metric instruments
func NewSyncMetrics() (*SyncMetrics, error) {
	meter := otel.Meter(instrumentationName)

	resolveDuration, err := meter.Float64Histogram(
		"sync.resolve.duration",
		metric.WithDescription("Per-device status resolution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	resolveCount, err := meter.Int64Counter(
		"sync.resolve.count",
		metric.WithDescription("Number of per-device status resolutions"),
		metric.WithUnit("{resolutions}"),
	)
	if err != nil {
		return nil, err
	}

	resolveErrors, err := meter.Int64Counter(
		"sync.resolve.errors",
		metric.WithDescription("Number of failed per-device status resolutions"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return nil, err
	}

	assignmentOps, err := meter.Int64Counter(
		"sync.assignment.writes",
		metric.WithDescription("Number of assignment write transactions"),
		metric.WithUnit("{writes}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		resolveDuration: resolveDuration,
		resolveCount:    resolveCount,
		resolveErrors:   resolveErrors,
		assignmentOps:   assignmentOps,
	}, nil
}

// RecordResolve records one per-device status resolution
func (m *SyncMetrics) RecordResolve(ctx context.Context, d time.Duration, err error, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	m.resolveCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.resolveDuration.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.resolveErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordAssignmentWrite records one assignment write transaction
func (m *SyncMetrics) RecordAssignmentWrite(ctx context.Context, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	m.assignmentOps.Add(ctx, 1, metric.WithAttributes(attrs...))
}
