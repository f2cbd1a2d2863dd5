package corpus

import (
	"context"
	"strings"

	"cryptoscout/internal/asset"
	"cryptoscout/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// tableRows returns the rows of the first table body in doc, its direct
// children when it has any, otherwise every nested row.
func tableRows(doc *goquery.Selection) []*goquery.Selection {
	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil
	}
	rows := tbody.ChildrenFiltered("tr")
	if rows.Length() == 0 {
		rows = tbody.Find("tr")
	}

	out := make([]*goquery.Selection, rows.Length())
	rows.Each(func(i int, tr *goquery.Selection) {
		out[i] = tr
	})
	return out
}

// ListingRows recovers the table rows of every page of a listing corpus in
// page order. A listing without page sections is read as a single page.
func ListingRows(ctx context.Context, listing string) ([]*goquery.Selection, error) {
	_, span := tracer.Start(ctx, "ListingRows")
	defer span.End()

	markups := []string{}
	for _, unit := range Split(listing, PageAttr) {
		markups = append(markups, unit.Markup)
	}
	if len(markups) == 0 {
		markups = append(markups, listing)
	}

	var rows []*goquery.Selection
	for _, markup := range markups {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse listing page")
			return nil, err
		}
		rows = append(rows, tableRows(doc.Selection)...)
	}

	span.SetAttributes(
		attribute.Int("pages", len(markups)),
		attribute.Int("rows", len(rows)),
	)
	return rows, nil
}

// RowLink returns the first canonical asset link of a table row.
func RowLink(ctx context.Context, row *goquery.Selection) (asset.Link, bool) {
	for _, a := range htmlutil.GetAnchors(ctx, row.Find("a[href]")) {
		link, ok := asset.ParseLink(a.Href)
		if ok {
			return link, true
		}
	}
	return asset.Link{}, false
}
