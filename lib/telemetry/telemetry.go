package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"cryptoscout/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// Shutdown flushes and stops the providers, it is a no-op on a zero Telemetry.
func (t Telemetry) Shutdown(ctx context.Context) error {
	var traceErr, metricErr error
	if t.TracerProvider != nil {
		traceErr = t.TracerProvider.Shutdown(ctx)
	}
	if t.MeterProvider != nil {
		metricErr = t.MeterProvider.Shutdown(ctx)
	}
	return errors.Join(traceErr, metricErr)
}

// SetupFromEnv configures export from the nearest telemetry.json5 in the
// working directory or its parents. Without one otel keeps its no-op providers.
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no telemetry.json5 found, telemetry export disabled")
		return Telemetry{}, nil
	}
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, serviceName, config)
}

func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	if !config.enabled() {
		return Telemetry{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return Telemetry{}, err
	}

	tracerProvider, meterProvider, err := newProviders(ctx, r, config)
	if err != nil {
		return Telemetry{}, err
	}
	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}
	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
	}

	return Telemetry{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
	}, nil
}
