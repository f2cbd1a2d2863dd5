package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cryptoscout/internal/cache"
	"cryptoscout/lib/chrono"
	"cryptoscout/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func newServer(t testing.TB, hits *atomic.Int64) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/currencies/bitcoin/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><body>ua=" + r.UserAgent() + "</body></html>"))
		case "/latin1":
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			w.Write([]byte("<p>caf\xe9</p>"))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not found"))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGet(t *testing.T) {
	var hits atomic.Int64
	server := newServer(t, &hits)
	mem := &telemetry.MemoryAPI{}

	client, err := NewClient(Config{UserAgent: "scout-test/1.0"}, nil, mem)
	require.NoError(t, err)

	res, err := client.Get(context.Background(), server.URL+"/currencies/bitcoin/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.False(t, res.Cached)
	require.Equal(t, "<html><body>ua=scout-test/1.0</body></html>", string(res.Body))

	res, err = client.Get(context.Background(), server.URL+"/currencies/missing/")
	require.ErrorIs(t, err, ErrStatus)
	require.Equal(t, http.StatusNotFound, res.Status)

	res, err = client.Get(context.Background(), server.URL+"/latin1")
	require.NoError(t, err)
	require.Equal(t, "<p>café</p>", string(res.Body))

	require.Len(t, mem.Reports(telemetry.REPORT_DEBUG, "resty.request"), 3)
}

func TestGetCached(t *testing.T) {
	var hits atomic.Int64
	server := newServer(t, &hits)
	mem := &telemetry.MemoryAPI{}

	db, err := cache.Open("", mem)
	require.NoError(t, err)
	defer db.Close()
	pages := cache.NewPages(db, chrono.NewStandardImpl(), time.Hour)

	client, err := NewClient(Config{}, &pages, mem)
	require.NoError(t, err)

	first, err := client.Get(context.Background(), server.URL+"/currencies/bitcoin/")
	require.NoError(t, err)
	require.False(t, first.Cached)
	require.Contains(t, string(first.Body), DefaultUserAgent)

	second, err := client.Get(context.Background(), server.URL+"/currencies/bitcoin/#about")
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.Body, second.Body)
	require.Equal(t, int64(1), hits.Load())

	// failures are never cached
	_, err = client.Get(context.Background(), server.URL+"/nope")
	require.Error(t, err)
	_, err = client.Get(context.Background(), server.URL+"/nope")
	require.Error(t, err)
	require.Equal(t, int64(3), hits.Load())
}

func TestSnapshot(t *testing.T) {
	var hits atomic.Int64
	server := newServer(t, &hits)

	client, err := NewClient(Config{UserAgent: "scout-test/1.0"}, nil, &telemetry.MemoryAPI{})
	require.NoError(t, err)

	res, err := client.Snapshot(context.Background(), server.URL+"/currencies/bitcoin/", true)
	require.NoError(t, err)
	require.Contains(t, string(res.Body), "ua=scout-test/1.0")

	res, err = client.Snapshot(context.Background(), server.URL+"/currencies/bitcoin/", false)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(res.Body), "ua=go-resty"), string(res.Body))

	res, err = client.Snapshot(context.Background(), server.URL+"/gone", true)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.Status)
}

func TestRateLimit(t *testing.T) {
	var hits atomic.Int64
	server := newServer(t, &hits)

	client, err := NewClient(Config{RequestsPerSecond: 20}, nil, &telemetry.MemoryAPI{})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), server.URL+"/currencies/bitcoin/")
		require.NoError(t, err)
	}
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestGetCancelled(t *testing.T) {
	var hits atomic.Int64
	server := newServer(t, &hits)

	client, err := NewClient(Config{}, nil, &telemetry.MemoryAPI{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Get(ctx, server.URL+"/currencies/bitcoin/")
	require.Error(t, err)
	require.Equal(t, int64(0), hits.Load())
}
