package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"cryptoscout/internal/asset"
	"cryptoscout/lib/htmlutil"
	"cryptoscout/lib/money"

	"github.com/PuerkitoBio/goquery"
)

// candidate attempts to locate a field in a document, candidates are tried
// in order until one succeeds.
type candidate func(doc *goquery.Selection) (string, bool)

func firstOf(doc *goquery.Selection, candidates []candidate) string {
	for _, c := range candidates {
		value, ok := c(doc)
		if ok && value != "" {
			return value
		}
	}
	return ""
}

func textOf(sel *goquery.Selection) string {
	return htmlutil.CleanText(htmlutil.SelectionText(sel, " "))
}

var nameCandidates = []candidate{
	nameFromCoinName,
	nameFromLdJson,
	nameFromHeading,
	nameFromTitle,
}

func nameFromCoinName(doc *goquery.Selection) (string, bool) {
	span := doc.Find("span[data-role='coin-name']").First()
	if span.Length() == 0 {
		return "", false
	}
	if title, ok := span.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title), true
	}
	text := textOf(span)
	return text, text != ""
}

func ldJsonName(value any) (string, bool) {
	switch v := value.(type) {
	case map[string]any:
		name, ok := v["name"].(string)
		name = htmlutil.CleanText(name)
		return name, ok && name != ""
	case []any:
		for _, item := range v {
			if name, ok := ldJsonName(item); ok {
				return name, true
			}
		}
	}
	return "", false
}

func nameFromLdJson(doc *goquery.Selection) (string, bool) {
	var name string
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var value any
		err := json.Unmarshal([]byte(script.Text()), &value)
		if err != nil {
			return true
		}
		found, ok := ldJsonName(value)
		if ok {
			name = found
		}
		return !ok
	})
	return name, name != ""
}

var trailingPriceRegex = regexp.MustCompile(`(?i)\s*\bprice\s*$`)

func nameFromHeading(doc *goquery.Selection) (string, bool) {
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(trailingPriceRegex.ReplaceAllString(textOf(h1), ""))
	return text, text != ""
}

var titlePriceRegex = regexp.MustCompile(`(?i)\s+price\b`)

func nameFromTitle(doc *goquery.Selection) (string, bool) {
	title := doc.Find("title").First()
	if title.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(titlePriceRegex.Split(textOf(title), 2)[0])
	return text, text != ""
}

func symbolFromCoinSymbol(doc *goquery.Selection) (string, bool) {
	text := textOf(doc.Find("span[data-role='coin-symbol']").First())
	return text, text != ""
}

var priceClassRegex = regexp.MustCompile(`(?i)priceValue`)

var priceCandidates = []candidate{
	priceFrom(func(doc *goquery.Selection) *goquery.Selection {
		return doc.Find("span[data-test='text-cdp-price-display']")
	}),
	priceFrom(func(doc *goquery.Selection) *goquery.Selection {
		return doc.Find("[data-testid='price-value']")
	}),
	priceFrom(func(doc *goquery.Selection) *goquery.Selection {
		return doc.Find("div[class]").FilterFunction(func(_ int, div *goquery.Selection) bool {
			class, _ := div.Attr("class")
			return priceClassRegex.MatchString(class)
		})
	}),
}

// priceFrom reads the first element found by locate, preferring the
// monetary part of its text when there is one.
func priceFrom(locate func(doc *goquery.Selection) *goquery.Selection) candidate {
	return func(doc *goquery.Selection) (string, bool) {
		text := textOf(locate(doc).First())
		if text == "" {
			return "", false
		}
		if amount := money.FindMoney(text); amount != "" {
			return amount, true
		}
		return text, true
	}
}

var (
	marketCapLabel    = regexp.MustCompile(`(?i)Market\s*Cap`)
	marketCapFallback = regexp.MustCompile(`(?i)Market`)
	fdvLabel          = regexp.MustCompile(`(?i)\bFDV\b`)
	fdvFallback       = regexp.MustCompile(`(?i)Fully Diluted`)
	volumeLabel       = regexp.MustCompile(`(?i)Volume\s*\(24h\)`)
	volumeFallback    = regexp.MustCompile(`(?i)Volume`)
)

// AssetInfo extracts a record from a detail page. Every field is located
// independently, a field that cannot be found is left empty.
func AssetInfo(doc *goquery.Selection) asset.Record {
	fields := asset.Fields{
		Name:    firstOf(doc, nameCandidates),
		Symbol:  firstOf(doc, []candidate{symbolFromCoinSymbol}),
		Price:   firstOf(doc, priceCandidates),
		Changes: map[string]string{},
	}

	if f, ok := FindStatField(doc, marketCapLabel, marketCapFallback); ok {
		fields.MarketCap = f.Text
		fields.Changes["market_cap"] = f.Percent
	}
	if f, ok := FindStatField(doc, fdvLabel, fdvFallback); ok {
		fields.FDV = f.Text
		fields.Changes["fdv"] = f.Percent
	}
	if f, ok := FindStatField(doc, volumeLabel, volumeFallback); ok {
		fields.Volume = f.Text
		fields.Changes["volume"] = f.Percent
	}

	return asset.NewRecord(fields)
}
