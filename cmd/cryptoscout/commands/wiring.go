package commands

import (
	"context"
	"fmt"
	"log/slog"

	"cryptoscout/cmd/cryptoscout/globals"
	devenv "cryptoscout/dev/env"
	"cryptoscout/internal/browser"
	"cryptoscout/internal/cache"
	"cryptoscout/internal/fetch"
	"cryptoscout/internal/notify"
	"cryptoscout/internal/pagination"
	"cryptoscout/internal/pipeline"
	"cryptoscout/internal/store"
	"cryptoscout/lib/serviceutil"
)

const restyDumpDir = "<dev_state>/resty/fetch"

// resources collects the cleanup of everything a command opened.
type resources struct {
	closers []func()
}

func (r *resources) onClose(f func()) {
	r.closers = append(r.closers, f)
}

func (r *resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// openStore returns nil when no database is configured.
func openStore(ctx context.Context, v *globals.Value, r *resources) (*store.Store, error) {
	if !v.Config.Database.Enabled() {
		return nil, nil
	}
	database, err := v.Config.Database.OpenDB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	r.onClose(func() { database.Close() })

	s, err := store.New(ctx, database, v.Clock)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func openFetcher(v *globals.Value, r *resources) (*fetch.Client, error) {
	var pages *cache.Pages
	if v.Config.Cache.Dir != "" {
		dir, err := devenv.ResolvePath(v.Config.Cache.Dir)
		if err != nil {
			return nil, err
		}
		db, err := cache.Open(dir, v.Telemetry)
		if err != nil {
			return nil, err
		}
		r.onClose(func() { db.Close() })
		p := cache.NewPages(db, v.Clock, v.Config.Cache.TTL())
		pages = &p
	}

	cfg := v.Config.Fetch.Build()
	if v.Verbose {
		// dumps only make sense inside the workspace
		_, err := devenv.GetWorkspaceRoot()
		if err == nil {
			cfg.DumpDir = restyDumpDir
		}
	}
	return fetch.NewClient(cfg, pages, v.Telemetry)
}

func openPipeline(ctx context.Context, v *globals.Value, r *resources) (*pipeline.Pipeline, error) {
	fetcher, err := openFetcher(v, r)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Providers: func(ctx context.Context) (pagination.Provider, error) {
			chrome, err := browser.New(ctx, v.Config.Browser, v.Telemetry)
			if err != nil {
				return nil, err
			}
			return chrome, nil
		},
		Fetcher:   fetcher,
		Clock:     v.Clock,
		Telemetry: v.Telemetry,
	}

	s, err := openStore(ctx, v, r)
	if err != nil {
		return nil, err
	}
	if s != nil {
		opts.Store = s
	}
	if v.Config.Notify.Enabled() {
		opts.Notifier = notify.NewNotifier(v.Config.Notify)
	}

	return pipeline.NewPipeline(v.Config.Pipeline.Build(), opts), nil
}

// mustPipeline opens a pipeline or exits, the returned resources must be
// closed by the caller.
func mustPipeline(ctx context.Context) (*pipeline.Pipeline, *resources) {
	v := globals.Get(ctx)
	r := &resources{}
	p, err := openPipeline(ctx, v, r)
	if err != nil {
		r.Close()
		serviceutil.Fatal("failed to initialize pipeline", err)
	}
	slog.Debug("pipeline ready", "out_dir", p.Config().OutDir, "url", p.Config().URL)
	return p, r
}
