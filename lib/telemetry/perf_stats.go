package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("cryptoscout/perf_stats")

type perfGauges struct {
	cpu        metric.Float64Gauge
	heapMb     metric.Int64Gauge
	goroutines metric.Int64Gauge
}

func newPerfGauges() (perfGauges, error) {
	var g perfGauges
	var err error
	if g.cpu, err = meter.Float64Gauge("cpu_usage", metric.WithUnit("%")); err != nil {
		return g, err
	}
	if g.heapMb, err = meter.Int64Gauge("heap_alloc", metric.WithUnit("MB")); err != nil {
		return g, err
	}
	g.goroutines, err = meter.Int64Gauge("goroutines")
	return g, err
}

func (g perfGauges) record(ctx context.Context) {
	// system wide, headless chrome runs outside of this process
	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		slog.DebugContext(ctx, "read cpu usage", "err", err)
	} else if len(usage) > 0 {
		g.cpu.Record(ctx, usage[0])
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	g.heapMb.Record(ctx, int64(mem.HeapAlloc>>20))
	g.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
}

// InstrumentPerfStats records process gauges every interval until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	gauges, err := newPerfGauges()
	if err != nil {
		slog.Warn("perf stats disabled", "err", err)
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gauges.record(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}
