package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	REPORT_BROKEN ReportKind = iota
	REPORT_WARNING
	REPORT_DEBUG
	REPORT_COUNT
)

type Report struct {
	Kind   ReportKind
	ID     string
	Params []any
	Count  int64
}

// MemoryAPI implements API by keeping every report in memory, it is meant
// for asserting on reports in tests.
type MemoryAPI struct {
	lock    sync.Mutex
	reports []Report
}

func (m *MemoryAPI) add(r Report) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.reports = append(m.reports, r)
}

func (m *MemoryAPI) ReportBroken(id string, params ...any) {
	m.add(Report{Kind: REPORT_BROKEN, ID: id, Params: params})
}

func (m *MemoryAPI) ReportWarning(id string, params ...any) {
	m.add(Report{Kind: REPORT_WARNING, ID: id, Params: params})
}

func (m *MemoryAPI) ReportDebug(msg string, params ...any) {
	m.add(Report{Kind: REPORT_DEBUG, ID: msg, Params: params})
}

func (m *MemoryAPI) ReportCount(id string, count int64) {
	m.add(Report{Kind: REPORT_COUNT, ID: id, Count: count})
}

// Reports returns a copy of the reports of the given kind whose id ends with suffix.
func (m *MemoryAPI) Reports(kind ReportKind, suffix string) []Report {
	m.lock.Lock()
	defer m.lock.Unlock()

	var out []Report
	for _, r := range m.reports {
		if r.Kind == kind && strings.HasSuffix(r.ID, suffix) {
			out = append(out, r)
		}
	}
	return out
}
