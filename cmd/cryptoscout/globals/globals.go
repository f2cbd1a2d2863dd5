package globals

import (
	"context"

	"cryptoscout/lib/chrono"
	"cryptoscout/lib/telemetry"
)

type key struct{}

type Value struct {
	Config    Config
	Verbose   bool
	Clock     chrono.API
	Telemetry telemetry.API
	otel      telemetry.Telemetry
}

func NewValue(cfg Config, verbose bool, otel telemetry.Telemetry) *Value {
	return &Value{
		Config:    cfg,
		Verbose:   verbose,
		Clock:     chrono.NewStandardImpl(),
		Telemetry: telemetry.SlogAPI{},
		otel:      otel,
	}
}

func (v *Value) Shutdown(ctx context.Context) error {
	return v.otel.Shutdown(ctx)
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}
