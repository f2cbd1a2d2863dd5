package report

import (
	"fmt"

	"cryptoscout/internal/asset"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func FormatRatio(ratio *float64) string {
	if ratio == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *ratio)
}

// RecordsTable lists records one per row in their original order.
func RecordsTable(records []asset.Record) table.Writer {
	t := NewTable()
	t.AppendHeader(table.Row{"#", "Name", "Symbol", "Price", "Market cap", "FDV", "Volume (24h)", "Ratio"})
	for i, r := range records {
		t.AppendRow(table.Row{
			i + 1,
			orDash(r.Name),
			orDash(r.Symbol),
			orDash(r.Price),
			orDash(r.MarketCap),
			orDash(r.Stats.FDV),
			orDash(r.Stats.Volume),
			FormatRatio(r.Stats.Ratio),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", len(records)})
	return t
}
