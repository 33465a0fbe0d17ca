// Package telemetry wires OpenTelemetry for the daemon.
//
// Traces and metrics go to an OTLP HTTP endpoint taken from config.yml or
// OTEL_EXPORTER_OTLP_ENDPOINT. Without an endpoint the global no-op
// providers stay installed and every instrument is free to call.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/pweiskircher/cmux/internal/identity"
)

const (
	envEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envHeaders  = "OTEL_EXPORTER_OTLP_HEADERS"

	exportInterval = 15 * time.Second
)

// Config holds the exporter settings.
type Config struct {
	Endpoint string
	// Headers is "key=value,key2=value2", the OTEL_EXPORTER_OTLP_HEADERS format.
	Headers string
	Version string
}

// Telemetry holds the providers and instruments.
type Telemetry struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider

	Tracer  trace.Tracer
	Metrics *Metrics
}

// Enabled reports whether exporters were installed.
func (t *Telemetry) Enabled() bool {
	return t != nil && t.tp != nil
}

func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		key, val, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(val)
	}
	return headers
}

func (c Config) withEnv() Config {
	if strings.TrimSpace(c.Endpoint) == "" {
		c.Endpoint = strings.TrimSpace(os.Getenv(envEndpoint))
	}
	if strings.TrimSpace(c.Headers) == "" {
		c.Headers = os.Getenv(envHeaders)
	}
	return c
}

// Init installs OTLP exporters when an endpoint is configured.
func Init(ctx context.Context, cfg Config) (*Telemetry, error) {
	cfg = cfg.withEnv()
	t := &Telemetry{}
	if cfg.Endpoint != "" {
		if err := t.installExporters(ctx, cfg); err != nil {
			return nil, err
		}
	}
	t.Tracer = otel.Tracer(identity.AppSlug)
	metrics, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil, fmt.Errorf("telemetry: metrics: %w", err)
	}
	t.Metrics = metrics
	return t, nil
}

func (t *Telemetry) installExporters(ctx context.Context, cfg Config) error {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Host == "" {
		return fmt.Errorf("telemetry: invalid endpoint URL %q", cfg.Endpoint)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(identity.AppSlug),
			semconv.ServiceVersion(version),
		),
		resource.WithHost(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}
	basePath := strings.TrimRight(u.Path, "/")
	traceOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(u.Host),
		otlptracehttp.WithURLPath(basePath + "/v1/traces"),
	}
	metricOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(u.Host),
		otlpmetrichttp.WithURLPath(basePath + "/v1/metrics"),
	}
	if u.Scheme == "http" {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}
	if headers := parseHeaders(cfg.Headers); len(headers) > 0 {
		traceOpts = append(traceOpts, otlptracehttp.WithHeaders(headers))
		metricOpts = append(metricOpts, otlpmetrichttp.WithHeaders(headers))
	}

	traceExp, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return fmt.Errorf("telemetry: trace exporter: %w", err)
	}
	metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		_ = traceExp.Shutdown(ctx)
		return fmt.Errorf("telemetry: metric exporter: %w", err)
	}
	t.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	t.mp = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(exportInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(t.tp)
	otel.SetMeterProvider(t.mp)
	return nil
}

// Shutdown flushes and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
	}
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
