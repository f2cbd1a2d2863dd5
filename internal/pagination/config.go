package pagination

import "time"

const (
	DefaultTableSelector = "tbody"
	DefaultRowSelector   = "tbody tr"
	DefaultNextSelector  = "ul.pagination li.next a[href]"

	// DefaultScrollForward is far enough to reach the bottom of any listing,
	// browsers clamp the scroll position to the document.
	DefaultScrollForward = 1 << 20
	DefaultScrollBack    = 200

	DefaultRenderTimeout  = 15 * time.Second
	DefaultTableSettle    = 2 * time.Second
	DefaultScrollPause    = 2 * time.Second
	DefaultScrollBudget   = 60 * time.Second
	DefaultCaptureSettle  = 2 * time.Second
	DefaultNavigateSettle = 3 * time.Second
)

type Config struct {
	TableSelector string
	RowSelector   string
	NextSelector  string

	// TargetRows stops the crawl once at least this many rows were captured.
	TargetRows int

	ScrollForward int
	ScrollBack    int

	RenderTimeout  time.Duration
	TableSettle    time.Duration
	ScrollPause    time.Duration
	ScrollBudget   time.Duration
	CaptureSettle  time.Duration
	NavigateSettle time.Duration
}

// WithDefaults fills every zero field with its default.
func (c Config) WithDefaults() Config {
	if c.TableSelector == "" {
		c.TableSelector = DefaultTableSelector
	}
	if c.RowSelector == "" {
		c.RowSelector = DefaultRowSelector
	}
	if c.NextSelector == "" {
		c.NextSelector = DefaultNextSelector
	}
	if c.ScrollForward == 0 {
		c.ScrollForward = DefaultScrollForward
	}
	if c.ScrollBack == 0 {
		c.ScrollBack = DefaultScrollBack
	}
	if c.RenderTimeout == 0 {
		c.RenderTimeout = DefaultRenderTimeout
	}
	if c.TableSettle == 0 {
		c.TableSettle = DefaultTableSettle
	}
	if c.ScrollPause == 0 {
		c.ScrollPause = DefaultScrollPause
	}
	if c.ScrollBudget == 0 {
		c.ScrollBudget = DefaultScrollBudget
	}
	if c.CaptureSettle == 0 {
		c.CaptureSettle = DefaultCaptureSettle
	}
	if c.NavigateSettle == 0 {
		c.NavigateSettle = DefaultNavigateSettle
	}
	return c
}
