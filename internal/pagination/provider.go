package pagination

import (
	"context"
	"time"
)

// Element is a located node of a rendered document.
type Element interface {
	Attr(name string) (string, bool)
}

// Provider is a rendered (javascript executing) view of a web page.
//
// note: fault injection point
type Provider interface {
	Load(ctx context.Context, url string) error
	// WaitForSelector reports whether an element matching sel appeared
	// before timeout, a timeout is not an error.
	WaitForSelector(ctx context.Context, sel string, timeout time.Duration) (bool, error)
	ScrollBy(ctx context.Context, dy int) error
	CurrentMarkup(ctx context.Context) (string, error)
	FindAll(ctx context.Context, sel string) ([]Element, error)
	Close() error
}

// AttrElement is an Element backed by a plain attribute map.
type AttrElement map[string]string

func (e AttrElement) Attr(name string) (string, bool) {
	v, ok := e[name]
	return v, ok
}
