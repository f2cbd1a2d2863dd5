package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

type restyTiming struct {
	seq     uint64
	started time.Time
}

type restyTimingKey struct{}

// InstrumentResty reports every request made with client to tel, tagged
// with a sequence number so a request can be paired with its outcome.
func InstrumentResty(client *resty.Client, tel API) {
	var seq atomic.Uint64

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		timing := restyTiming{seq: seq.Add(1), started: time.Now()}
		tel.ReportDebug(report_resty_request, timing.seq, req.Method, req.URL)
		req.SetContext(context.WithValue(req.Context(), restyTimingKey{}, timing))
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		timing, ok := res.Request.Context().Value(restyTimingKey{}).(restyTiming)
		if !ok {
			return nil
		}
		tel.ReportDebug(report_resty_response, timing.seq, res.StatusCode(), res.Time().Round(time.Millisecond).String())
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		var elapsed time.Duration
		if timing, ok := req.Context().Value(restyTimingKey{}).(restyTiming); ok {
			elapsed = time.Since(timing.started)
		}
		tel.ReportBroken(report_resty_response, err, req.Method, req.URL, elapsed)
	})
}
