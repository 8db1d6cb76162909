package observe

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecorders(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordGateway(ctx, "ok")
	m.RecordGateway(ctx, "ok")
	m.RecordUpstream(ctx, 1.5, "env/model")
	m.RecordTurn(ctx, "Story")
	m.RecordHTTP(ctx, 0.02, "POST", "POST /api/game/turn", 200)

	got := collect(t, reader)
	sum, ok := got["lifesim.gateway.requests"].Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
		t.Errorf("gateway requests = %+v", got["lifesim.gateway.requests"].Data)
	}
	for _, name := range []string{"lifesim.upstream.duration", "lifesim.http.request.duration"} {
		h, ok := got[name].Data.(metricdata.Histogram[float64])
		if !ok || len(h.DataPoints) != 1 || h.DataPoints[0].Count != 1 {
			t.Errorf("%s = %+v", name, got[name].Data)
		}
	}
	if _, ok := got["lifesim.turns.applied"]; !ok {
		t.Error("turns counter not exported")
	}
}

func TestNilAndNopAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordGateway(ctx, "ok")
	m.RecordUpstream(ctx, 1, "x")
	m.RecordTurn(ctx, "Story")
	m.RecordHTTP(ctx, 1, "GET", "/", 200)

	n := Nop()
	n.RecordGateway(ctx, "ok")
	n.RecordHTTP(ctx, 1, "GET", "/", 200)
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()
	if ctx == nil {
		t.Fatal("nil context")
	}
}

func TestInitProviderExportsSpans(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	exp := tracetest.NewInMemoryExporter()
	met, shutdown, err := InitProvider(context.Background(), ProviderConfig{
		ServiceVersion: "test",
		TraceExporter:  exp,
		Registerer:     prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if met == nil {
		t.Fatal("nil metrics")
	}

	_, span := StartSpan(context.Background(), "gateway.Send")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "gateway.Send" {
		t.Fatalf("exported spans = %+v", spans)
	}
	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	if service != "lifesim" {
		t.Errorf("service.name = %q", service)
	}
}
