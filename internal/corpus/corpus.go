package corpus

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"cryptoscout/internal/pagination"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("cryptoscout/internal/corpus")

const (
	PageAttr  = "data-page"
	AssetAttr = "data-crypto"
)

// Unit is one section of a corpus.
type Unit struct {
	// Key is the value of the section's marker attribute, the page number
	// for listings and the asset slug for details.
	Key     string
	Comment string
	Markup  string
}

func section(attr, key, comment, markup string) string {
	return fmt.Sprintf(
		"<section %s='%s'>\n<!-- %s -->\n%s\n</section>",
		attr, html.EscapeString(key), strings.ReplaceAll(comment, "-->", "--&gt;"), markup,
	)
}

// RenderListing wraps each captured page in a page section, in capture order.
func RenderListing(batches []pagination.PageBatch) string {
	parts := make([]string, len(batches))
	for i, b := range batches {
		parts[i] = section(
			PageAttr,
			strconv.Itoa(b.Page),
			fmt.Sprintf("Page %d | %d rows extracted", b.Page, b.Rows),
			b.Markup,
		)
	}
	return strings.Join(parts, "\n")
}

// Detail is a fetched detail page.
type Detail struct {
	Slug   string
	URL    string
	Markup string
}

func RenderDetails(details []Detail) string {
	parts := make([]string, len(details))
	for i, d := range details {
		parts[i] = section(AssetAttr, d.Slug, d.URL, d.Markup) + "\n"
	}
	return strings.Join(parts, "\n")
}

func newMarkerRegex(attr string) *regexp.Regexp {
	return regexp.MustCompile(
		`(?m)^<section ` + regexp.QuoteMeta(attr) + `='([^']*)'>\n(?:<!-- (.*?) -->\n)?`,
	)
}

var markerRegexes = map[string]*regexp.Regexp{
	PageAttr:  newMarkerRegex(PageAttr),
	AssetAttr: newMarkerRegex(AssetAttr),
}

func markerRegex(attr string) *regexp.Regexp {
	if re, ok := markerRegexes[attr]; ok {
		return re
	}
	return newMarkerRegex(attr)
}

// Split cuts a corpus into the sections marked with attr. Sections are
// located by their text markers instead of parsing the corpus as html, since
// every section holds a complete html document of its own. A corpus without
// any marker yields no units.
func Split(corpus, attr string) []Unit {
	matches := markerRegex(attr).FindAllStringSubmatchIndex(corpus, -1)

	units := make([]Unit, 0, len(matches))
	for i, m := range matches {
		end := len(corpus)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		body := strings.TrimRight(corpus[m[1]:end], "\n")
		body = strings.TrimSuffix(body, "</section>")
		body = strings.TrimSuffix(body, "\n")

		unit := Unit{
			Key:    html.UnescapeString(corpus[m[2]:m[3]]),
			Markup: body,
		}
		if m[4] >= 0 {
			unit.Comment = corpus[m[4]:m[5]]
		}
		units = append(units, unit)
	}
	return units
}

// ReadFile reads a corpus, the returned error satisfies os.IsNotExist when
// the file is missing.
func ReadFile(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(contents), nil
}

func WriteFile(path, corpus string) error {
	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(corpus), 0644)
}
