package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cryptoscout/internal/asset"
	"cryptoscout/internal/corpus"
	"cryptoscout/internal/extract"
	"cryptoscout/internal/fetch"
	"cryptoscout/internal/pagination"
	"cryptoscout/internal/store"
	"cryptoscout/lib/chrono"
	"cryptoscout/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cryptoscout/internal/pipeline")

const (
	report_fetch_detail = "fetch-detail"
	report_invalid_link = "invalid-link"
	report_store        = "store"
	report_notify       = "notify"
	report_listing_rows = "listing-rows"
	report_details      = "details"
	report_records      = "records"
	report_filtered     = "filtered"
	report_parse_detail = "parse-detail"
	report_close        = "provider-close"
)

// ErrCorpusMissing is returned when a stage's input file does not exist,
// usually because the previous stage has not been run.
var ErrCorpusMissing = errors.New("input file is missing")

// ProviderFactory acquires a fresh rendered view, the pipeline closes it
// when the crawl is over.
type ProviderFactory func(ctx context.Context) (pagination.Provider, error)

// Fetcher retrieves a detail page.
//
// note: fault injection point
type Fetcher interface {
	Get(ctx context.Context, url string) (fetch.Response, error)
}

type RecordStore interface {
	SaveRun(ctx context.Context, records []asset.Record) (store.Run, error)
	MarkFiltered(ctx context.Context, runID string, threshold float64) error
}

type Notifier interface {
	NotifyFiltered(ctx context.Context, threshold float64, records []asset.Record) error
}

type Options struct {
	Providers ProviderFactory
	Fetcher   Fetcher
	Clock     chrono.API
	Telemetry telemetry.API
	// Store is optional, extracted records are persisted as a run when set.
	Store RecordStore
	// Notifier is optional, filtered records are sent when set.
	Notifier Notifier
}

type Pipeline struct {
	config    Config
	providers ProviderFactory
	fetcher   Fetcher
	clock     chrono.API
	tel       telemetry.API
	store     RecordStore
	notifier  Notifier

	// lastRun is the run saved by the latest Extract, Filter marks it.
	lastRun string
}

func NewPipeline(cfg Config, opts Options) *Pipeline {
	if opts.Clock == nil {
		panic("pipeline requires a clock")
	}
	if opts.Telemetry == nil {
		panic("pipeline requires a telemetry api")
	}
	return &Pipeline{
		config:    cfg.WithDefaults(),
		providers: opts.Providers,
		fetcher:   opts.Fetcher,
		clock:     opts.Clock,
		tel:       telemetry.NewScopedAPI("pipeline", opts.Telemetry),
		store:     opts.Store,
		notifier:  opts.Notifier,
	}
}

func (p *Pipeline) Config() Config {
	return p.config
}

func missing(path string, err error) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrCorpusMissing, path)
	}
	return fmt.Errorf("read %s: %w", path, err)
}

// Crawl renders the listing until target rows were captured (0 uses the
// configured target) and writes the listing corpus. Pages captured before a
// failure are still written.
func (p *Pipeline) Crawl(ctx context.Context, target int) (pagination.Result, error) {
	ctx, span := tracer.Start(ctx, "Crawl")
	defer span.End()

	if p.providers == nil {
		return pagination.Result{}, fmt.Errorf("no browser provider configured")
	}
	cfg := p.config.Pagination
	if target > 0 {
		cfg.TargetRows = target
	} else {
		cfg.TargetRows = p.config.TargetRows
	}
	span.SetAttributes(attribute.Int("target", cfg.TargetRows))

	provider, err := p.providers(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire provider")
		return pagination.Result{}, fmt.Errorf("acquire browser: %w", err)
	}
	defer func() {
		err := provider.Close()
		if err != nil {
			p.tel.ReportWarning(report_close, err)
		}
	}()

	controller := pagination.NewController(provider, p.clock, p.tel, cfg)
	result, crawlErr := controller.Crawl(ctx, p.config.URL)

	if crawlErr == nil || len(result.Batches) > 0 {
		err = corpus.WriteFile(p.config.ListingPath(), corpus.RenderListing(result.Batches))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write listing")
			return result, errors.Join(crawlErr, fmt.Errorf("write listing: %w", err))
		}
		p.tel.ReportDebug(
			"listing saved",
			"path", p.config.ListingPath(),
			"pages", len(result.Batches),
			"rows", result.Total,
		)
	}
	if crawlErr != nil {
		span.RecordError(crawlErr)
		span.SetStatus(codes.Error, "crawl failed")
		return result, fmt.Errorf("crawl: %w", crawlErr)
	}

	span.SetAttributes(
		attribute.Int("pages", len(result.Batches)),
		attribute.Int("rows", result.Total),
		attribute.String("stop", result.Stop.String()),
	)
	return result, nil
}

// Detail fetches the detail page of the first max listing rows (0 uses the
// configured maximum) and writes the detail corpus.
func (p *Pipeline) Detail(ctx context.Context, max int) ([]corpus.Detail, error) {
	ctx, span := tracer.Start(ctx, "Detail")
	defer span.End()

	if p.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}
	if max <= 0 {
		max = p.config.MaxAssets
	}

	listing, err := corpus.ReadFile(p.config.ListingPath())
	if err != nil {
		err = missing(p.config.ListingPath(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read listing")
		return nil, err
	}

	rows, err := corpus.ListingRows(ctx, listing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse listing")
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	p.tel.ReportCount(report_listing_rows, int64(len(rows)))
	if len(rows) > max {
		rows = rows[:max]
	}

	details := []corpus.Detail{}
	for i, row := range rows {
		link, ok := corpus.RowLink(ctx, row)
		if !ok {
			p.tel.ReportDebug(report_invalid_link, "row", i+1)
			continue
		}
		url := link.URL(p.config.URL)

		res, err := p.fetcher.Get(ctx, url)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			p.tel.ReportWarning(report_fetch_detail, fmt.Errorf("%s: %w", url, err))
			continue
		}

		details = append(details, corpus.Detail{
			Slug:   link.Slug,
			URL:    url,
			Markup: string(res.Body),
		})
		p.tel.ReportDebug(
			"detail saved",
			"row", i+1,
			"href", link.Href,
			"chars", len(res.Body),
			"cached", res.Cached,
		)

		if res.Cached {
			continue
		}
		err = p.clock.Sleep(ctx, p.config.FetchInterval)
		if err != nil {
			return nil, err
		}
	}

	err = corpus.WriteFile(p.config.DetailPath(), corpus.RenderDetails(details))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write details")
		return details, fmt.Errorf("write details: %w", err)
	}
	p.tel.ReportCount(report_details, int64(len(details)))
	span.SetAttributes(
		attribute.Int("rows", len(rows)),
		attribute.Int("details", len(details)),
	)
	return details, nil
}

// Extract builds a record from every section of the detail corpus, writes
// the record set and saves it as a run when a store is configured.
func (p *Pipeline) Extract(ctx context.Context) ([]asset.Record, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	detail, err := corpus.ReadFile(p.config.DetailPath())
	if err != nil {
		err = missing(p.config.DetailPath(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read details")
		return nil, err
	}

	units := corpus.Split(detail, corpus.AssetAttr)
	records := make([]asset.Record, 0, len(units))
	for i, unit := range units {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(unit.Markup))
		if err != nil {
			p.tel.ReportWarning(report_parse_detail, fmt.Errorf("%s: %w", unit.Key, err))
			continue
		}
		record := extract.AssetInfo(doc.Selection)
		records = append(records, record)
		p.tel.ReportDebug("extracted", "index", i+1, "name", record.NameOr(unit.Key))
	}

	err = asset.WriteRecords(p.config.RecordsPath(), records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write records")
		return records, fmt.Errorf("write records: %w", err)
	}
	p.tel.ReportCount(report_records, int64(len(records)))
	span.SetAttributes(attribute.Int("records", len(records)))

	if p.store != nil {
		run, err := p.store.SaveRun(ctx, records)
		if err != nil {
			p.tel.ReportBroken(report_store, fmt.Errorf("save run: %w", err))
		} else {
			p.lastRun = run.ID
			span.SetAttributes(attribute.String("run", run.ID))
		}
	}

	return records, nil
}

// Filter keeps the records of the record set whose ratio is below threshold
// and writes them beside the record set.
func (p *Pipeline) Filter(ctx context.Context, threshold float64) ([]asset.Record, error) {
	ctx, span := tracer.Start(ctx, "Filter")
	defer span.End()

	span.SetAttributes(attribute.Float64("threshold", threshold))

	records, err := asset.ReadRecords(p.config.RecordsPath())
	if err != nil {
		err = missing(p.config.RecordsPath(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read records")
		return nil, err
	}

	filtered := asset.FilterByRatio(records, threshold)
	outPath := p.config.FilteredPath(threshold)
	err = asset.WriteRecords(outPath, filtered)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write filtered records")
		return filtered, fmt.Errorf("write filtered records: %w", err)
	}
	p.tel.ReportCount(report_filtered, int64(len(filtered)))
	p.tel.ReportDebug("filtered records saved", "path", outPath, "count", len(filtered))

	if p.store != nil {
		err = p.store.MarkFiltered(ctx, p.lastRun, threshold)
		if err != nil && !errors.Is(err, store.ErrNoRuns) {
			p.tel.ReportBroken(report_store, fmt.Errorf("mark filtered: %w", err))
		}
	}
	if p.notifier != nil {
		err = p.notifier.NotifyFiltered(ctx, threshold, filtered)
		if err != nil {
			p.tel.ReportBroken(report_notify, err)
		}
	}

	return filtered, nil
}

type Summary struct {
	Crawl    pagination.Result
	Details  int
	Records  int
	Filtered []asset.Record
}

// Run executes every stage in order with the configured parameters.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	var summary Summary
	var err error

	summary.Crawl, err = p.Crawl(ctx, p.config.TargetRows)
	if err != nil {
		return summary, err
	}
	details, err := p.Detail(ctx, p.config.MaxAssets)
	if err != nil {
		return summary, err
	}
	summary.Details = len(details)

	records, err := p.Extract(ctx)
	if err != nil {
		return summary, err
	}
	summary.Records = len(records)

	summary.Filtered, err = p.Filter(ctx, p.config.RatioThreshold())
	if err != nil {
		return summary, err
	}
	return summary, nil
}
