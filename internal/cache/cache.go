package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/url"
	"time"

	"cryptoscout/lib/chrono"
	"cryptoscout/lib/telemetry"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("cryptoscout/internal/cache")

// ErrMiss is returned when a page is not cached or its entry expired.
var ErrMiss = errors.New("page not cached")

// Webpage is a cached response body.
type Webpage struct {
	Status    int
	Contents  []byte
	ExpiresAt int64
}

// hotSize is the number of decoded pages kept in memory in front of badger.
const hotSize = 256

// Pages caches fetched pages in badger keyed by normalized url.
type Pages struct {
	db    *badger.DB
	hot   *expirable.LRU[string, Webpage]
	clock chrono.API
	ttl   time.Duration
}

func NewPages(db *badger.DB, clock chrono.API, ttl time.Duration) Pages {
	return Pages{
		db:    db,
		hot:   expirable.NewLRU[string, Webpage](hotSize, nil, ttl),
		clock: clock,
		ttl:   ttl,
	}
}

func (c Pages) expired(page Webpage) bool {
	return c.clock.Now().Unix() >= page.ExpiresAt
}

// Key normalizes rawUrl so that trivially different spellings of the same
// page (default port, fragment, query order, ...) share an entry.
func Key(rawUrl string) (string, error) {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return "page:" + normalized, nil
}

func (c Pages) Get(ctx context.Context, rawUrl string) (Webpage, error) {
	_, span := tracer.Start(ctx, "Get")
	defer span.End()

	key, err := Key(rawUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return Webpage{}, err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	if page, hit := c.hot.Get(key); hit {
		if !c.expired(page) {
			span.AddEvent("memory hit")
			return page, nil
		}
		c.hot.Remove(key)
	}

	var serialized []byte
	err = c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		serialized, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Webpage{}, ErrMiss
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return Webpage{}, err
	}

	var cached Webpage
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return Webpage{}, err
	}

	if c.expired(cached) {
		span.AddEvent("delete expired cache key", trace.WithAttributes(
			attribute.String("key", key),
		))
		err = c.db.Update(func(tx *badger.Txn) error {
			return tx.Delete([]byte(key))
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
		}
		return Webpage{}, ErrMiss
	}

	span.AddEvent("cache hit", trace.WithAttributes(
		attribute.Int("contentlength", len(cached.Contents)),
	))
	c.hot.Add(key, cached)
	return cached, nil
}

func (c Pages) Set(ctx context.Context, rawUrl string, status int, contents []byte) error {
	_, span := tracer.Start(ctx, "Set")
	defer span.End()

	key, err := Key(rawUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	page := Webpage{
		Status:    status,
		Contents:  contents,
		ExpiresAt: c.clock.Now().Add(c.ttl).Unix(),
	}
	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize webpage")
		return err
	}

	err = c.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), serialized.Bytes())
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	c.hot.Add(key, page)
	return nil
}

// Open opens the badger database backing the cache, an empty dir keeps the
// cache in memory.
func Open(dir string, tel telemetry.API) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{tel: telemetry.NewScopedAPI("badger", tel)})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return db, nil
}

type badgerLogger struct {
	tel telemetry.API
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.tel.ReportBroken("db", fmt.Errorf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.tel.ReportWarning("db", fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.tel.ReportDebug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.tel.ReportDebug(fmt.Sprintf(format, args...))
}
