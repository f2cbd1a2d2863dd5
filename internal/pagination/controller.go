package pagination

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"cryptoscout/lib/chrono"
	"cryptoscout/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cryptoscout/internal/pagination")

const (
	report_stabilize = "stabilize"
	report_next_page = "next-page"
	report_rows      = "rows"
)

// ErrRenderTimeout is returned when the listing table does not appear
// within the render timeout.
var ErrRenderTimeout = errors.New("listing table did not render in time")

// PageBatch is the markup of one listing page once its rows stopped loading.
type PageBatch struct {
	Page   int
	Rows   int
	Markup string
}

type StopReason int

const (
	StopNone StopReason = iota
	// StopTargetReached means the cumulative row count reached the target.
	StopTargetReached
	// StopNoNextControl means the last page has no next page control.
	StopNoNextControl
	// StopEmptyNextHref means the next page control has no usable href.
	StopEmptyNextHref
)

func (r StopReason) String() string {
	switch r {
	case StopTargetReached:
		return "target reached"
	case StopNoNextControl:
		return "no next page"
	case StopEmptyNextHref:
		return "empty next page link"
	}
	return "none"
}

type Result struct {
	Batches []PageBatch
	Total   int
	Stop    StopReason
}

type state int

const (
	stateAwaitingTable state = iota
	stateScrollStabilizing
	statePageCaptured
	stateAdvancingPage
	stateDone
)

// Controller walks a paginated listing whose rows are loaded while
// scrolling, capturing each page once its row count stops changing.
type Controller struct {
	provider Provider
	clock    chrono.API
	tel      telemetry.API
	cfg      Config
}

func NewController(provider Provider, clock chrono.API, tel telemetry.API, cfg Config) Controller {
	return Controller{
		provider: provider,
		clock:    clock,
		tel:      telemetry.NewScopedAPI("pagination", tel),
		cfg:      cfg.WithDefaults(),
	}
}

type crawl struct {
	Controller
	result  Result
	page    int
	current *url.URL
	next    *url.URL
}

// Crawl loads startUrl and captures listing pages until the target row
// count is reached or there is no next page. On failure the pages captured
// so far are returned along with the error.
func (c Controller) Crawl(ctx context.Context, startUrl string) (Result, error) {
	ctx, span := tracer.Start(ctx, "Crawl")
	defer span.End()

	current, err := url.Parse(startUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid start url")
		return Result{}, fmt.Errorf("parse start url: %w", err)
	}
	err = c.provider.Load(ctx, startUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load start url")
		return Result{}, fmt.Errorf("load %s: %w", startUrl, err)
	}

	cr := &crawl{Controller: c, page: 1, current: current}
	err = cr.run(ctx)

	span.SetAttributes(
		attribute.Int("pages", len(cr.result.Batches)),
		attribute.Int("rows", cr.result.Total),
		attribute.String("stop", cr.result.Stop.String()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "crawl failed")
	}
	return cr.result, err
}

func (cr *crawl) run(ctx context.Context) error {
	s := stateAwaitingTable
	for s != stateDone {
		var err error
		switch s {
		case stateAwaitingTable:
			s, err = cr.awaitTable(ctx)
		case stateScrollStabilizing:
			s, err = cr.stabilize(ctx)
		case statePageCaptured:
			s, err = cr.capture(ctx)
		case stateAdvancingPage:
			s, err = cr.advance(ctx)
		}
		if err != nil {
			return fmt.Errorf("page %d: %w", cr.page, err)
		}
	}
	return nil
}

func (cr *crawl) awaitTable(ctx context.Context) (state, error) {
	found, err := cr.provider.WaitForSelector(ctx, cr.cfg.TableSelector, cr.cfg.RenderTimeout)
	if err != nil {
		return stateDone, err
	}
	if !found {
		return stateDone, ErrRenderTimeout
	}
	err = cr.clock.Sleep(ctx, cr.cfg.TableSettle)
	if err != nil {
		return stateDone, err
	}
	return stateScrollStabilizing, nil
}

func (cr *crawl) countRows(ctx context.Context) (int, error) {
	rows, err := cr.provider.FindAll(ctx, cr.cfg.RowSelector)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// stabilize scrolls down then slightly back up, which triggers the loading
// of further rows, until two consecutive counts are equal or the scroll
// budget runs out.
func (cr *crawl) stabilize(ctx context.Context) (state, error) {
	start := cr.clock.Now()
	lastRows := 0
	for {
		if cr.clock.Now().Sub(start) >= cr.cfg.ScrollBudget {
			cr.tel.ReportWarning(
				report_stabilize,
				fmt.Sprintf("row count still changing after %s", cr.cfg.ScrollBudget),
				"page", cr.page,
				"rows", lastRows,
			)
			return statePageCaptured, nil
		}

		err := cr.provider.ScrollBy(ctx, cr.cfg.ScrollForward)
		if err != nil {
			return stateDone, err
		}
		err = cr.clock.Sleep(ctx, cr.cfg.ScrollPause)
		if err != nil {
			return stateDone, err
		}
		err = cr.provider.ScrollBy(ctx, -cr.cfg.ScrollBack)
		if err != nil {
			return stateDone, err
		}
		err = cr.clock.Sleep(ctx, cr.cfg.ScrollPause)
		if err != nil {
			return stateDone, err
		}

		rows, err := cr.countRows(ctx)
		if err != nil {
			return stateDone, err
		}
		cr.tel.ReportDebug("rows detected", "page", cr.page, "rows", rows)
		if rows == lastRows {
			return statePageCaptured, nil
		}
		lastRows = rows
	}
}

func (cr *crawl) capture(ctx context.Context) (state, error) {
	err := cr.clock.Sleep(ctx, cr.cfg.CaptureSettle)
	if err != nil {
		return stateDone, err
	}
	markup, err := cr.provider.CurrentMarkup(ctx)
	if err != nil {
		return stateDone, err
	}
	rows, err := cr.countRows(ctx)
	if err != nil {
		return stateDone, err
	}

	cr.result.Batches = append(cr.result.Batches, PageBatch{
		Page:   cr.page,
		Rows:   rows,
		Markup: markup,
	})
	cr.result.Total += rows
	cr.tel.ReportDebug("page saved", "page", cr.page, "rows", rows, "total", cr.result.Total)
	cr.tel.ReportCount(report_rows, int64(cr.result.Total))

	return cr.decide(ctx)
}

func (cr *crawl) decide(ctx context.Context) (state, error) {
	if cr.cfg.TargetRows > 0 && cr.result.Total >= cr.cfg.TargetRows {
		cr.result.Stop = StopTargetReached
		return stateDone, nil
	}

	controls, err := cr.provider.FindAll(ctx, cr.cfg.NextSelector)
	if err != nil {
		return stateDone, err
	}
	if len(controls) == 0 {
		cr.tel.ReportDebug("no next page control", "page", cr.page)
		cr.result.Stop = StopNoNextControl
		return stateDone, nil
	}

	href, _ := controls[0].Attr("href")
	if href == "" {
		cr.tel.ReportWarning(report_next_page, "empty href", "page", cr.page)
		cr.result.Stop = StopEmptyNextHref
		return stateDone, nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		cr.tel.ReportWarning(report_next_page, fmt.Errorf("parse href '%s': %w", href, err), "page", cr.page)
		cr.result.Stop = StopEmptyNextHref
		return stateDone, nil
	}
	cr.next = cr.current.ResolveReference(ref)
	return stateAdvancingPage, nil
}

func (cr *crawl) advance(ctx context.Context) (state, error) {
	next := cr.next.String()
	cr.page++
	err := cr.provider.Load(ctx, next)
	if err != nil {
		return stateDone, fmt.Errorf("load %s: %w", next, err)
	}
	cr.current = cr.next
	err = cr.clock.Sleep(ctx, cr.cfg.NavigateSettle)
	if err != nil {
		return stateDone, err
	}
	return stateAwaitingTable, nil
}
