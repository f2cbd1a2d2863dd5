package telemetry

import (
	"fmt"
)

// API is where components report what happened to them, tests swap in a
// MemoryAPI to assert on the reports.
type API interface {
	// ReportBroken reports a component that failed in a way someone should
	// look at. id names the component, not the line that failed, ex.
	// "pipeline: fetch-detail". Details go in params.
	//
	// ids are lowercase, components are separated by ": " and methods use dashes.
	ReportBroken(id string, params ...any)
	// ReportWarning reports something unexpected that the component recovered from.
	ReportWarning(id string, params ...any)
	// ReportDebug is only shown with --verbose.
	ReportDebug(msg string, params ...any)
	// ReportCount reports a point-in-time count, counts are not summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id (or debug message) reported through it with a namespace.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scope(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scope(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scope(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scope(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scope(id), count)
}
