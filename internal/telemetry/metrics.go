package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pweiskircher/cmux/internal/identity"
)

// Metrics holds the dispatcher instruments. A nil *Metrics records nothing.
type Metrics struct {
	Commands        metric.Int64Counter
	CommandDuration metric.Float64Histogram
	HookRuns        metric.Int64Counter
	WaitOutcomes    metric.Int64Counter
	Workspaces      metric.Int64UpDownCounter
}

// NewMetrics creates the instruments on provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(identity.AppSlug)
	m := &Metrics{}
	var err error

	m.Commands, err = meter.Int64Counter("cmux.commands",
		metric.WithDescription("Dispatched commands partitioned by method and result code"),
		metric.WithUnit("{command}"))
	if err != nil {
		return nil, err
	}
	m.CommandDuration, err = meter.Float64Histogram("cmux.command.duration",
		metric.WithDescription("Time spent dispatching a command, lock wait included"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	m.HookRuns, err = meter.Int64Counter("cmux.hooks.runs",
		metric.WithDescription("Hook executions partitioned by event and outcome"))
	if err != nil {
		return nil, err
	}
	m.WaitOutcomes, err = meter.Int64Counter("cmux.wait.outcomes",
		metric.WithDescription("wait-for completions partitioned by outcome (signaled, timed_out, canceled)"))
	if err != nil {
		return nil, err
	}
	m.Workspaces, err = meter.Int64UpDownCounter("cmux.workspaces",
		metric.WithDescription("Live workspaces"))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCommand records one dispatch. code is empty on success.
func (m *Metrics) RecordCommand(ctx context.Context, method, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if code == "" {
		code = "ok"
	}
	attrs := metric.WithAttributes(
		attribute.String("command.method", method),
		attribute.String("command.result", code),
	)
	m.Commands.Add(ctx, 1, attrs)
	m.CommandDuration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// RecordHook records one hook run.
func (m *Metrics) RecordHook(ctx context.Context, event string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.HookRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("hook.event", event),
		attribute.String("hook.outcome", outcome),
	))
}

// RecordWait records how a wait-for ended.
func (m *Metrics) RecordWait(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.WaitOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("wait.outcome", outcome)))
}

// AddWorkspaces adjusts the live workspace gauge.
func (m *Metrics) AddWorkspaces(ctx context.Context, delta int64) {
	if m == nil || delta == 0 {
		return
	}
	m.Workspaces.Add(ctx, delta)
}
