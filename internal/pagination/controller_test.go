package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cryptoscout/lib/chrono"
	"cryptoscout/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakePage struct {
	// rowCounts is the sequence of row counts seen by successive row
	// queries, the last count repeats once the sequence is exhausted.
	rowCounts  []int
	neverReady bool
	next       []AttrElement
}

type fakeProvider struct {
	pages   map[string]*fakePage
	current string
	loads   []string
	scrolls []int
	failOn  string
	closed  bool
}

func (p *fakeProvider) page() *fakePage {
	page, ok := p.pages[p.current]
	if !ok {
		panic(fmt.Sprintf("unexpected url %s", p.current))
	}
	return page
}

func (p *fakeProvider) Load(ctx context.Context, url string) error {
	if p.failOn == "load:"+url {
		return errors.New("navigation failed")
	}
	p.current = url
	p.loads = append(p.loads, url)
	return nil
}

func (p *fakeProvider) WaitForSelector(ctx context.Context, sel string, timeout time.Duration) (bool, error) {
	return !p.page().neverReady, nil
}

func (p *fakeProvider) ScrollBy(ctx context.Context, dy int) error {
	p.scrolls = append(p.scrolls, dy)
	return nil
}

func (p *fakeProvider) CurrentMarkup(ctx context.Context) (string, error) {
	return "<html>" + p.current + "</html>", nil
}

func (p *fakeProvider) FindAll(ctx context.Context, sel string) ([]Element, error) {
	if p.failOn == "find:"+sel {
		return nil, errors.New("session lost")
	}
	page := p.page()
	switch sel {
	case DefaultRowSelector:
		count := page.rowCounts[0]
		if len(page.rowCounts) > 1 {
			page.rowCounts = page.rowCounts[1:]
		}
		return make([]Element, count), nil
	case DefaultNextSelector:
		out := make([]Element, len(page.next))
		for i, e := range page.next {
			out[i] = e
		}
		return out, nil
	}
	return nil, nil
}

func (p *fakeProvider) Close() error {
	p.closed = true
	return nil
}

func newController(provider Provider, target int) (Controller, *chrono.FakeImpl, *telemetry.MemoryAPI) {
	clock := chrono.NewFakeImpl(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	mem := &telemetry.MemoryAPI{}
	return NewController(provider, clock, mem, Config{TargetRows: target}), clock, mem
}

const start = "https://coinmarketcap.com/"

func TestCrawlConvergesOnRepeatedCount(t *testing.T) {
	provider := &fakeProvider{pages: map[string]*fakePage{
		start: {rowCounts: []int{50, 80, 80}},
	}}
	controller, clock, _ := newController(provider, 80)

	result, err := controller.Crawl(context.Background(), start)
	require.NoError(t, err)

	expected := []PageBatch{{Page: 1, Rows: 80, Markup: "<html>" + start + "</html>"}}
	if diff := cmp.Diff(expected, result.Batches); diff != "" {
		t.Fatalf("unexpected batches (-want +got):\n%s", diff)
	}
	require.Equal(t, 80, result.Total)
	require.Equal(t, StopTargetReached, result.Stop)

	// three stabilization iterations, each scrolling forward then back
	require.Equal(t, []int{
		DefaultScrollForward, -DefaultScrollBack,
		DefaultScrollForward, -DefaultScrollBack,
		DefaultScrollForward, -DefaultScrollBack,
	}, provider.scrolls)
	require.Equal(t, DefaultTableSettle+6*DefaultScrollPause+DefaultCaptureSettle, clock.Slept())
}

func TestCrawlFollowsNextPage(t *testing.T) {
	provider := &fakeProvider{pages: map[string]*fakePage{
		start: {
			rowCounts: []int{100},
			next:      []AttrElement{{"href": "/?page=2"}},
		},
		"https://coinmarketcap.com/?page=2": {
			rowCounts: []int{40, 100},
		},
	}}
	controller, _, mem := newController(provider, 1000)

	result, err := controller.Crawl(context.Background(), start)
	require.NoError(t, err)
	require.Equal(t, []string{start, "https://coinmarketcap.com/?page=2"}, provider.loads)
	require.Len(t, result.Batches, 2)
	require.Equal(t, 1, result.Batches[0].Page)
	require.Equal(t, 2, result.Batches[1].Page)
	require.Equal(t, 100, result.Batches[1].Rows)
	require.Equal(t, 200, result.Total)
	require.Equal(t, StopNoNextControl, result.Stop)

	counts := mem.Reports(telemetry.REPORT_COUNT, report_rows)
	require.Len(t, counts, 2)
	require.Equal(t, int64(200), counts[1].Count)
}

func TestCrawlEmptyNextHref(t *testing.T) {
	provider := &fakeProvider{pages: map[string]*fakePage{
		start: {
			rowCounts: []int{100},
			next:      []AttrElement{{"href": ""}},
		},
	}}
	controller, _, mem := newController(provider, 1000)

	result, err := controller.Crawl(context.Background(), start)
	require.NoError(t, err)
	require.Equal(t, StopEmptyNextHref, result.Stop)
	require.Len(t, result.Batches, 1)
	require.Len(t, mem.Reports(telemetry.REPORT_WARNING, report_next_page), 1)
}

func TestCrawlRenderTimeoutKeepsCapturedPages(t *testing.T) {
	provider := &fakeProvider{pages: map[string]*fakePage{
		start: {
			rowCounts: []int{100},
			next:      []AttrElement{{"href": "https://coinmarketcap.com/?page=2"}},
		},
		"https://coinmarketcap.com/?page=2": {neverReady: true},
	}}
	controller, _, _ := newController(provider, 1000)

	result, err := controller.Crawl(context.Background(), start)
	require.ErrorIs(t, err, ErrRenderTimeout)
	require.Contains(t, err.Error(), "page 2")
	require.Len(t, result.Batches, 1)
	require.Equal(t, 100, result.Total)
}

func TestCrawlScrollBudgetExhausted(t *testing.T) {
	counts := []int{}
	for i := 1; i <= 40; i++ {
		counts = append(counts, i*10)
	}
	provider := &fakeProvider{pages: map[string]*fakePage{
		start: {rowCounts: counts},
	}}
	controller, _, mem := newController(provider, 1)

	result, err := controller.Crawl(context.Background(), start)
	require.NoError(t, err)
	require.Len(t, result.Batches, 1)
	require.Len(t, mem.Reports(telemetry.REPORT_WARNING, report_stabilize), 1)

	// each iteration costs two pauses, the budget allows 60s / 4s of them
	iterations := int(DefaultScrollBudget / (2 * DefaultScrollPause))
	require.Len(t, provider.scrolls, 2*iterations)
	// the capture takes one more count after the last iteration
	require.Equal(t, (iterations+1)*10, result.Batches[0].Rows)
}

func TestCrawlEmptyTableConvergesImmediately(t *testing.T) {
	provider := &fakeProvider{pages: map[string]*fakePage{
		start: {rowCounts: []int{0}},
	}}
	controller, _, _ := newController(provider, 100)

	result, err := controller.Crawl(context.Background(), start)
	require.NoError(t, err)
	require.Len(t, provider.scrolls, 2)
	require.Equal(t, 0, result.Total)
	require.Equal(t, StopNoNextControl, result.Stop)
}

func TestCrawlProviderErrors(t *testing.T) {
	provider := &fakeProvider{
		pages:  map[string]*fakePage{start: {rowCounts: []int{10}}},
		failOn: "find:" + DefaultRowSelector,
	}
	controller, _, _ := newController(provider, 100)
	_, err := controller.Crawl(context.Background(), start)
	require.ErrorContains(t, err, "session lost")

	provider = &fakeProvider{
		pages:  map[string]*fakePage{start: {rowCounts: []int{10}}},
		failOn: "load:" + start,
	}
	controller, _, _ = newController(provider, 100)
	result, err := controller.Crawl(context.Background(), start)
	require.ErrorContains(t, err, "navigation failed")
	require.Empty(t, result.Batches)

	_, err = controller.Crawl(context.Background(), "://not a url")
	require.Error(t, err)
}

func TestCrawlCancelled(t *testing.T) {
	provider := &fakeProvider{pages: map[string]*fakePage{
		start: {rowCounts: []int{10, 20}},
	}}
	controller, _, _ := newController(provider, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := controller.Crawl(ctx, start)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{ScrollPause: time.Second, TargetRows: 300}.WithDefaults()
	require.Equal(t, time.Second, cfg.ScrollPause)
	require.Equal(t, 300, cfg.TargetRows)
	require.Equal(t, DefaultScrollBudget, cfg.ScrollBudget)
	require.Equal(t, DefaultNextSelector, cfg.NextSelector)
}
