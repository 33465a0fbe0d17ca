package telemetry

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" Authorization=Basic abc , x-team = core,broken, =nokey")
	if len(got) != 2 || got["Authorization"] != "Basic abc" || got["x-team"] != "core" {
		t.Fatalf("parseHeaders() = %#v", got)
	}
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	t.Setenv(envEndpoint, "")
	tel, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if tel.Enabled() {
		t.Fatalf("expected exporters to stay off")
	}
	tel.Metrics.RecordCommand(context.Background(), "workspace.list", "", time.Millisecond)
	_, span := tel.Tracer.Start(context.Background(), "noop")
	span.End()
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
}

func TestInitRejectsBadEndpoint(t *testing.T) {
	if _, err := Init(context.Background(), Config{Endpoint: "::not a url"}); err == nil {
		t.Fatalf("expected invalid endpoint error")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordCommand(context.Background(), "x", "", time.Second)
	m.RecordHook(context.Background(), "workspace-created", false)
	m.RecordWait(context.Background(), "signaled")
	m.AddWorkspaces(context.Background(), 1)
}

func TestMetricsRecordToReader(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := NewMetrics(provider)
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}
	ctx := context.Background()
	m.RecordCommand(ctx, "workspace.create", "", 2*time.Millisecond)
	m.RecordCommand(ctx, "pane.last", "no_history", time.Millisecond)
	m.RecordHook(ctx, "workspace-created", true)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	names := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			names[metric.Name] = true
			if metric.Name != "cmux.commands" {
				continue
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("cmux.commands data = %T", metric.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			if total != 2 {
				t.Fatalf("cmux.commands total = %d", total)
			}
		}
	}
	for _, want := range []string{"cmux.commands", "cmux.command.duration", "cmux.hooks.runs"} {
		if !names[want] {
			t.Fatalf("missing metric %s in %v", want, names)
		}
	}
}
