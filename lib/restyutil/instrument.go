package restyutil

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentOutput receives a dump of every exchange, keyed by a sequence id.
type InstrumentOutput interface {
	Write(id string, contents string)
}

type dumpIdKey struct{}

// InstrumentClient wraps every request made by client in a span. A nil
// tracer uses the "resty" tracer. When output is not nil and debug logging
// is enabled, each exchange is also dumped to output.
func InstrumentClient(client *resty.Client, tracer trace.Tracer, output InstrumentOutput) {
	if tracer == nil {
		tracer = otel.Tracer("resty")
	}
	var seq atomic.Uint64

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))
		if output != nil && slog.Default().Enabled(ctx, slog.LevelDebug) {
			id := fmt.Sprintf("%04d", seq.Add(1))
			slog.DebugContext(ctx, "request", "method", req.Method, "url", req.URL, "dump", id)
			ctx = context.WithValue(ctx, dumpIdKey{}, id)
		}
		req.SetContext(ctx)
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		ctx := res.Request.Context()
		span := trace.SpanFromContext(ctx)
		defer span.End()

		// RawRequest is only built after the before-request hooks run
		span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
		span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

		if id, ok := ctx.Value(dumpIdKey{}).(string); ok {
			output.Write(id, formatExchange(res))
		}
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		ctx := req.Context()
		span := trace.SpanFromContext(ctx)
		defer span.End()

		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		if req.RawRequest != nil {
			span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
		}
		slog.DebugContext(ctx, "request failed", "method", req.Method, "url", req.URL, "err", err)
	})
}
