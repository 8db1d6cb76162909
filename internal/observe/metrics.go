// Package observe holds the OpenTelemetry instruments of the server and the
// SDK setup that exposes them to Prometheus on /metrics.
//
// Tests should build their own [Metrics] with [NewMetrics] and a private
// meter provider; production code uses the one returned by [InitProvider].
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope for all metrics of this module.
const meterName = "lifesim"

// Metrics holds every instrument the server records. The OTel types are
// safe for concurrent use.
type Metrics struct {
	// GatewayRequests counts gateway calls by outcome:
	//   attribute.String("outcome", "ok" | "fallback" | <error kind>)
	GatewayRequests metric.Int64Counter

	// UpstreamDuration tracks the provider round trip, successful or not.
	UpstreamDuration metric.Float64Histogram

	// TurnsApplied counts accepted turns, including game starts:
	//   attribute.String("mode", ...)
	TurnsApplied metric.Int64Counter

	// HTTPRequestDuration tracks request handling time:
	//   attribute.String("method", ...), attribute.String("path", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are in seconds; model calls routinely take several.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.GatewayRequests, err = m.Int64Counter("lifesim.gateway.requests",
		metric.WithDescription("Gateway calls by outcome."),
	); err != nil {
		return nil, err
	}
	if met.UpstreamDuration, err = m.Float64Histogram("lifesim.upstream.duration",
		metric.WithDescription("Latency of the provider round trip."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TurnsApplied, err = m.Int64Counter("lifesim.turns.applied",
		metric.WithDescription("Accepted turns, game starts included."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("lifesim.http.request.duration",
		metric.WithDescription("HTTP request handling time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// Nop returns instruments that record nothing.
func Nop() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

// RecordGateway counts one gateway outcome.
func (m *Metrics) RecordGateway(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.GatewayRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordUpstream records one provider round trip.
func (m *Metrics) RecordUpstream(ctx context.Context, seconds float64, model string) {
	if m == nil {
		return
	}
	m.UpstreamDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("model", model)))
}

// RecordTurn counts one accepted turn.
func (m *Metrics) RecordTurn(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.TurnsApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordHTTP records the handling time of one request. path should be the
// route pattern, not the raw URL, to keep cardinality bounded.
func (m *Metrics) RecordHTTP(ctx context.Context, seconds float64, method, path string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	))
}
