package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	protocolGrpc = "grpc"
	protocolHttp = "http"

	exporterDialTimeout   = 3 * time.Second
	defaultMetricInterval = 5 * time.Second
)

// Endpoint is a single otlp collector, an empty Url disables the signal.
type Endpoint struct {
	Url string `json:"url"`
	// Protocol is "grpc" or "http", defaults to "http".
	Protocol string            `json:"protocol"`
	Headers  map[string]string `json:"headers"`
}

func (e Endpoint) protocol() (string, error) {
	switch e.Protocol {
	case "", protocolHttp:
		return protocolHttp, nil
	case protocolGrpc:
		return protocolGrpc, nil
	}
	return "", fmt.Errorf("unknown otlp protocol %q", e.Protocol)
}

type Config struct {
	Traces                Endpoint `json:"traces"`
	Metrics               Endpoint `json:"metrics"`
	MetricIntervalSeconds float64  `json:"metric_interval_seconds"`
}

func (c Config) enabled() bool {
	return c.Traces.Url != "" || c.Metrics.Url != ""
}

func (c Config) metricInterval() time.Duration {
	if c.MetricIntervalSeconds <= 0 {
		return defaultMetricInterval
	}
	return time.Duration(c.MetricIntervalSeconds * float64(time.Second))
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func newSpanExporter(ctx context.Context, e Endpoint) (trace.SpanExporter, error) {
	protocol, err := e.protocol()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
	defer cancel()

	slog.Info("trace exporter", "protocol", protocol, "url", e.Url, "headers", len(e.Headers))
	if protocol == protocolGrpc {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(e.Url), otlptracegrpc.WithHeaders(e.Headers))
	}
	return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(e.Url), otlptracehttp.WithHeaders(e.Headers))
}

func newMetricExporter(ctx context.Context, e Endpoint) (metric.Exporter, error) {
	protocol, err := e.protocol()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
	defer cancel()

	slog.Info("metric exporter", "protocol", protocol, "url", e.Url, "headers", len(e.Headers))
	if protocol == protocolGrpc {
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpointURL(e.Url), otlpmetricgrpc.WithHeaders(e.Headers))
	}
	return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(e.Url), otlpmetrichttp.WithHeaders(e.Headers))
}

// newProviders builds a provider for every signal with an endpoint,
// a signal without one is left nil.
func newProviders(ctx context.Context, r *resource.Resource, c Config) (*trace.TracerProvider, *metric.MeterProvider, error) {
	var tp *trace.TracerProvider
	if c.Traces.Url != "" {
		exporter, err := newSpanExporter(ctx, c.Traces)
		if err != nil {
			return nil, nil, fmt.Errorf("trace exporter: %w", err)
		}
		tp = trace.NewTracerProvider(trace.WithBatcher(exporter), trace.WithResource(r))
	}

	var mp *metric.MeterProvider
	if c.Metrics.Url != "" {
		exporter, err := newMetricExporter(ctx, c.Metrics)
		if err != nil {
			if tp != nil {
				_ = tp.Shutdown(ctx)
			}
			return nil, nil, fmt.Errorf("metric exporter: %w", err)
		}
		mp = metric.NewMeterProvider(
			metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(c.metricInterval()))),
			metric.WithResource(r),
		)
	}
	return tp, mp, nil
}
