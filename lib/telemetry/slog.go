package telemetry

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/lmittmann/tint"
)

// InitSlog sets the default slog logger to a colored stderr handler.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

// SlogAPI implements API on top of the default slog logger, positional
// params are logged as a "params" group keyed by index.
type SlogAPI struct{}

func paramsAttr(params []any) slog.Attr {
	attrs := make([]any, 0, len(params))
	for i, p := range params {
		if err, ok := p.(error); ok {
			p = err.Error()
		}
		attrs = append(attrs, slog.Any(strconv.Itoa(i), p))
	}
	return slog.Group("params", attrs...)
}

func (SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error("broken", "id", id, paramsAttr(params))
}

func (SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn("warning", "id", id, paramsAttr(params))
}

func (SlogAPI) ReportDebug(message string, params ...any) {
	if len(params) == 0 {
		slog.Debug(message)
		return
	}
	slog.Debug(message, paramsAttr(params))
}

func (SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
}
