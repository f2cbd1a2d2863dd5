package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cryptoscout/internal/cache"
	"cryptoscout/lib/restyutil"
	"cryptoscout/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("cryptoscout/internal/fetch")

const (
	report_cache = "cache"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; cryptoscout/1.0)"
	DefaultTimeout   = 15 * time.Second
)

// ErrStatus is returned when the server answers with a non 2xx status.
var ErrStatus = errors.New("unexpected status")

type Config struct {
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond limits the request rate, 0 means unlimited.
	RequestsPerSecond float64
	// BrowserTransport sends requests through a transport that mimics the
	// TLS and header fingerprint of a browser.
	BrowserTransport bool
	// DumpDir receives a dump of every request/response pair while debug
	// logging is enabled, empty disables dumping.
	DumpDir string
}

type Response struct {
	Status int
	Body   []byte
	// Cached is true when the body came from the page cache.
	Cached bool
}

type Client struct {
	http  *resty.Client
	pages *cache.Pages
	tel   telemetry.API
}

// NewClient creates a client, pages may be nil to disable caching.
func NewClient(cfg Config, pages *cache.Pages, tel telemetry.API) (*Client, error) {
	tel = telemetry.NewScopedAPI("fetch", tel)

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := resty.New()
	if cfg.BrowserTransport {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("User-Agent", cfg.UserAgent)
	httpClient.SetTimeout(cfg.Timeout)

	if cfg.RequestsPerSecond > 0 {
		// burst of 1 keeps requests evenly spaced
		rateLimiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)

	var output restyutil.InstrumentOutput
	if cfg.DumpDir != "" {
		fsOutput, err := restyutil.NewFilesystemOutput(cfg.DumpDir)
		if err != nil {
			return nil, fmt.Errorf("create dump dir: %w", err)
		}
		output = fsOutput
	}
	restyutil.InstrumentClient(httpClient, tracer, output)

	return &Client{
		http:  httpClient,
		pages: pages,
		tel:   tel,
	}, nil
}

// toUTF8 decodes body using the charset declared by the content type or
// the document itself.
func toUTF8(body []byte, contentType string) []byte {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return body
	}
	return decoded
}

// Get fetches url, serving it from the page cache when possible. A non 2xx
// status is returned as an error wrapping ErrStatus.
func (c *Client) Get(ctx context.Context, url string) (Response, error) {
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	if c.pages != nil {
		cached, err := c.pages.Get(ctx, url)
		if err == nil {
			span.SetAttributes(attribute.Bool("cached", true))
			return Response{Status: cached.Status, Body: cached.Contents, Cached: true}, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			c.tel.ReportWarning(report_cache, fmt.Errorf("read %s: %w", url, err))
		}
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return Response{}, err
	}

	out := Response{
		Status: res.StatusCode(),
		Body:   toUTF8(res.Body(), res.Header().Get("Content-Type")),
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("%w: %s", ErrStatus, res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return out, err
	}

	if c.pages != nil {
		err = c.pages.Set(ctx, url, out.Status, out.Body)
		if err != nil {
			c.tel.ReportWarning(report_cache, fmt.Errorf("write %s: %w", url, err))
		}
	}
	return out, nil
}

// Snapshot fetches url bypassing the cache and without failing on the
// status. When withHeaders is false the configured User-Agent is replaced by
// the http library's default one.
func (c *Client) Snapshot(ctx context.Context, url string, withHeaders bool) (Response, error) {
	ctx, span := tracer.Start(ctx, "Snapshot")
	defer span.End()

	req := c.http.R().SetContext(ctx)
	if !withHeaders {
		req.SetHeader("User-Agent", "")
	}
	res, err := req.Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return Response{}, err
	}
	return Response{
		Status: res.StatusCode(),
		Body:   toUTF8(res.Body(), res.Header().Get("Content-Type")),
	}, nil
}
