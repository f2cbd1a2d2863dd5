package extract

import (
	"regexp"

	"cryptoscout/lib/htmlutil"
	"cryptoscout/lib/money"

	"github.com/PuerkitoBio/goquery"
)

// StatBoxSelector matches the labeled key/value boxes of a detail page,
// the class carries a build hash suffix (StatsInfoBox_base__kP2xM) so only
// the stable prefix is matched.
const StatBoxSelector = "div[class*='StatsInfoBox_base']"

// StatField is the content of a stat box whose label matched.
type StatField struct {
	Label string
	// Text is the monetary display text, ex. "$1.23T", empty when the box
	// holds no monetary value.
	Text string
	// Percent is the change shown beside the value, ex. "-0.5%".
	Percent string
}

// Value parses Text into a number.
func (f StatField) Value() (float64, bool) {
	return money.Parse(f.Text)
}

// FindStatField returns the first stat box in document order whose label
// matches label or fallback (which may be nil).
func FindStatField(doc *goquery.Selection, label, fallback *regexp.Regexp) (StatField, bool) {
	return FindStatFieldIn(doc, StatBoxSelector, label, fallback)
}

func FindStatFieldIn(doc *goquery.Selection, boxSelector string, label, fallback *regexp.Regexp) (StatField, bool) {
	var result StatField
	found := false

	doc.Find(boxSelector).EachWithBreak(func(_ int, box *goquery.Selection) bool {
		dt := box.Find("dt").First()
		if dt.Length() == 0 {
			return true
		}
		labelText := htmlutil.SelectionText(dt, " ")
		if !label.MatchString(labelText) && (fallback == nil || !fallback.MatchString(labelText)) {
			return true
		}
		dd := box.Find("dd").First()
		if dd.Length() == 0 {
			return true
		}

		result = StatField{
			Label:   labelText,
			Text:    findMoney(dd),
			Percent: findPercent(dd),
		}
		found = true
		return false
	})

	return result, found
}

func findMoney(dd *goquery.Selection) string {
	if text := money.FindMoney(htmlutil.SelectionText(dd, " ")); text != "" {
		return text
	}
	var out string
	dd.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		out = money.FindMoney(htmlutil.OwnText(span.Get(0)))
		return out == ""
	})
	return out
}

func findPercent(dd *goquery.Selection) string {
	if text := money.FindPercent(htmlutil.SelectionText(dd, " ")); text != "" {
		return text
	}
	if marked := dd.Find("[data-role='percentage-value']").First(); marked.Length() > 0 {
		if text := money.FindPercent(htmlutil.SelectionText(marked, "")); text != "" {
			return text
		}
	}
	// a value split over sibling nodes ("1.2" "%") only matches once joined
	return money.FindPercent(htmlutil.SelectionText(dd, ""))
}
