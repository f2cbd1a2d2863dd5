package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cryptoscout/internal/pagination"
	"cryptoscout/lib/telemetry"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cryptoscout/internal/browser")

const (
	report_cdp_error = "cdp"
	report_load      = "load"
)

const (
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
)

type Config struct {
	// RemoteURL is the devtools websocket of an already running browser,
	// ex. ws://127.0.0.1:9222, a local chrome is started when it is empty.
	RemoteURL string `json:"remote_url"`
	ExecPath  string `json:"exec_path"`
	// Headful shows the browser window, only applies to a local chrome.
	Headful      bool   `json:"headful"`
	UserAgent    string `json:"user_agent"`
	WindowWidth  int    `json:"window_width"`
	WindowHeight int    `json:"window_height"`
}

func (c Config) WithDefaults() Config {
	if c.WindowWidth == 0 {
		c.WindowWidth = DefaultWindowWidth
	}
	if c.WindowHeight == 0 {
		c.WindowHeight = DefaultWindowHeight
	}
	return c
}

func (c Config) execOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(
		opts,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(c.WindowWidth, c.WindowHeight),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
	)
	if c.Headful {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	if c.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.UserAgent))
	}
	return opts
}

// Chrome is a pagination.Provider driving a single chrome tab.
type Chrome struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	tel         telemetry.API
}

var _ pagination.Provider = (*Chrome)(nil)

// New starts (or connects to) a browser and opens a tab. The browser lives
// until Close is called, cancelling ctx also tears it down.
func New(ctx context.Context, cfg Config, tel telemetry.API) (*Chrome, error) {
	cfg = cfg.WithDefaults()
	tel = telemetry.NewScopedAPI("browser", tel)

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, cfg.execOptions()...)
	}

	tabCtx, cancelTab := chromedp.NewContext(
		allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			tel.ReportDebug(report_cdp_error, fmt.Sprintf(format, args...))
		}),
	)

	var setup []chromedp.Action
	if cfg.RemoteURL != "" {
		setup = append(setup, emulation.SetDeviceMetricsOverride(
			int64(cfg.WindowWidth), int64(cfg.WindowHeight), 1, false,
		))
		if cfg.UserAgent != "" {
			setup = append(setup, emulation.SetUserAgentOverride(cfg.UserAgent))
		}
	}
	// the first Run allocates the browser and the tab
	err := chromedp.Run(tabCtx, setup...)
	if err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Chrome{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		tel:         tel,
	}, nil
}

// run executes actions on the tab, aborting when either ctx or the browser
// is done.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Chrome) Load(ctx context.Context, url string) error {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	err := c.run(ctx, 0, chromedp.Navigate(url))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to navigate")
		c.tel.ReportBroken(report_load, err, url)
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) WaitForSelector(ctx context.Context, sel string, timeout time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "WaitForSelector")
	defer span.End()
	span.SetAttributes(attribute.String("selector", sel))

	err := c.run(ctx, timeout, chromedp.WaitReady(sel, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		span.SetAttributes(attribute.Bool("timeout", true))
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to wait for selector")
		return false, err
	}
	return true, nil
}

func (c *Chrome) ScrollBy(ctx context.Context, dy int) error {
	return c.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d);", dy), nil))
}

func (c *Chrome) CurrentMarkup(ctx context.Context) (string, error) {
	var markup string
	err := c.run(ctx, 0, chromedp.Evaluate("document.documentElement.outerHTML", &markup))
	if err != nil {
		return "", fmt.Errorf("read markup: %w", err)
	}
	return markup, nil
}

const findAllScript = `Array.from(document.querySelectorAll(%s)).map(
	(el) => Object.fromEntries(Array.from(el.attributes).map((a) => [a.name, a.value]))
)`

func (c *Chrome) FindAll(ctx context.Context, sel string) ([]pagination.Element, error) {
	quoted, err := json.Marshal(sel)
	if err != nil {
		return nil, err
	}

	var found []map[string]string
	err = c.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf(findAllScript, quoted), &found))
	if err != nil {
		return nil, fmt.Errorf("find '%s': %w", sel, err)
	}

	elements := make([]pagination.Element, len(found))
	for i, attrs := range found {
		elements[i] = pagination.AttrElement(attrs)
	}
	return elements, nil
}

func (c *Chrome) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancelTab()
	c.cancelAlloc()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
