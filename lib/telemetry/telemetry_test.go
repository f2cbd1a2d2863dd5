package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	mem := &MemoryAPI{}
	tel := NewScopedAPI("pagination", NewScopedAPI("crawl", mem))

	tel.ReportBroken("stabilize", errors.New("boom"))
	tel.ReportWarning("next-page", "empty href")
	tel.ReportDebug("captured page", 1, 80)
	tel.ReportCount("rows", 80)

	broken := mem.Reports(REPORT_BROKEN, "stabilize")
	require.Len(t, broken, 1)
	require.Equal(t, "crawl: pagination: stabilize", broken[0].ID)
	require.Len(t, broken[0].Params, 1)

	require.Len(t, mem.Reports(REPORT_WARNING, "next-page"), 1)
	require.Len(t, mem.Reports(REPORT_DEBUG, "captured page"), 1)

	counts := mem.Reports(REPORT_COUNT, "rows")
	require.Len(t, counts, 1)
	require.Equal(t, int64(80), counts[0].Count)

	require.Empty(t, mem.Reports(REPORT_BROKEN, "rows"))
}

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	mem := &MemoryAPI{}
	client := resty.New()
	InstrumentResty(client, mem)

	res, err := client.R().Get(server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, res.StatusCode())

	require.Len(t, mem.Reports(REPORT_DEBUG, report_resty_request), 1)
	require.Len(t, mem.Reports(REPORT_DEBUG, report_resty_response), 1)
	require.Empty(t, mem.Reports(REPORT_BROKEN, report_resty_response))
}

func TestOtlpConfig(t *testing.T) {
	table := []struct {
		endpoint Endpoint
		expected string
		err      bool
	}{
		{endpoint: Endpoint{}, expected: protocolHttp},
		{endpoint: Endpoint{Protocol: "http"}, expected: protocolHttp},
		{endpoint: Endpoint{Protocol: "grpc"}, expected: protocolGrpc},
		{endpoint: Endpoint{Protocol: "websocket"}, err: true},
	}
	for _, row := range table {
		protocol, err := row.endpoint.protocol()
		if row.err {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, row.expected, protocol)
	}

	require.Equal(t, defaultMetricInterval, Config{}.metricInterval())
	require.Equal(t, 1500*time.Millisecond, Config{MetricIntervalSeconds: 1.5}.metricInterval())

	_, err := Setup(context.Background(), "test:telemetry", Config{
		Traces: Endpoint{Url: "http://localhost:4318", Protocol: "websocket"},
	})
	require.Error(t, err)
}
