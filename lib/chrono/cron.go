package chrono

import (
	"context"
	"fmt"
	"time"

	"cryptoscout/lib/telemetry"

	"github.com/robfig/cron/v3"
)

// Schedule runs named jobs on standard cron specs (5 fields or @descriptors).
// A job that is still running when it is due again is skipped.
type Schedule struct {
	cron *cron.Cron
	ids  map[string]cron.EntryID
}

func NewSchedule(tel telemetry.API) *Schedule {
	logger := cronLogger{tel: telemetry.NewScopedAPI("cron", tel)}
	return &Schedule{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ids: map[string]cron.EntryID{},
	}
}

// Add registers job under name, it must be called before Run.
func (s *Schedule) Add(name, spec string, job func()) error {
	if _, exists := s.ids[name]; exists {
		return fmt.Errorf("job %q is already scheduled", name)
	}
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	s.ids[name] = id
	return nil
}

// Next is when the job will run next, it is zero before Run.
func (s *Schedule) Next(name string) (time.Time, bool) {
	id, ok := s.ids[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Run starts the scheduler and blocks until ctx is done and running jobs return.
func (s *Schedule) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) pairs(keysAndValues []any) []any {
	out := make([]any, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out = append(out, fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
	}
	return out
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(msg, l.pairs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(msg, append([]any{err}, l.pairs(keysAndValues)...)...)
}
