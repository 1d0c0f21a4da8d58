// Package telemetry instruments client operations with OpenTelemetry metrics.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RequestMetrics records REST call outcomes and latencies.
type RequestMetrics struct {
	requests metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
	events   metric.Int64Counter
}

// NewRequestMetrics constructs the client instrument set on the global meter.
func NewRequestMetrics() *RequestMetrics {
	meter := otel.Meter("brokerlink.client")

	m := new(RequestMetrics)
	m.requests, _ = meter.Int64Counter("brokerlink_client_requests",
		metric.WithDescription("Total REST operations issued by the client"),
		metric.WithUnit("{request}"))
	m.failures, _ = meter.Int64Counter("brokerlink_client_request_failures",
		metric.WithDescription("REST operations that ended in a network or auth error"),
		metric.WithUnit("{failure}"))
	m.latency, _ = meter.Float64Histogram("brokerlink_client_request_latency",
		metric.WithDescription("REST round-trip latency"),
		metric.WithUnit("ms"))
	m.events, _ = meter.Int64Counter("brokerlink_client_stream_events",
		metric.WithDescription("Order events applied from the account stream"),
		metric.WithUnit("{event}"))
	return m
}

// RecordRequest records one completed REST operation.
func (m *RequestMetrics) RecordRequest(ctx context.Context, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.requests.Add(ctx, 1, attrs)
	if outcome != "ok" {
		m.failures.Add(ctx, 1, attrs)
	}
	m.latency.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

// RecordStreamEvent records one applied order event.
func (m *RequestMetrics) RecordStreamEvent(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event", kind)))
}
