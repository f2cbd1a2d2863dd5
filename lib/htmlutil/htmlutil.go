package htmlutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("cryptoscout/lib/htmlutil")

// GetText concatenates every text node under node, with sep placed
// between the text of separate nodes. Text nodes that are blank are skipped.
func GetText(node *html.Node, sep string) string {
	var buffer bytes.Buffer
	getTextRecursive(node, sep, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, sep string, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		text := strings.TrimSpace(node.Data)
		if text == "" {
			return
		}
		if buffer.Len() > 0 {
			buffer.WriteString(sep)
		}
		buffer.WriteString(text)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, sep, buffer)
		child = child.NextSibling
	}
}

// SelectionText is GetText over every node of a selection, ex. the
// equivalent of get_text(" ", strip=True) for sep = " ".
func SelectionText(sel *goquery.Selection, sep string) string {
	parts := make([]string, 0, len(sel.Nodes))
	for _, n := range sel.Nodes {
		text := GetText(n, sep)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, sep)
}

// OwnText returns the text of the direct text children of a node only.
func OwnText(node *html.Node) string {
	if node == nil {
		return ""
	}
	var out strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			out.WriteString(child.Data)
		}
	}
	return strings.TrimSpace(out.String())
}

type Anchor struct {
	Name string
	Href string
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText collapses runs of whitespace into a single space and trims the ends.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// GetAnchors returns the raw href and cleaned text of every anchor in sel that
// has an href attribute, in document order.
func GetAnchors(ctx context.Context, sel *goquery.Selection) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href, ok := "", false
		for _, a := range n.Attr {
			if a.Key == "href" {
				href, ok = a.Val, true
				break
			}
		}
		if !ok {
			continue
		}

		name := CleanText(GetText(n, " "))
		anchors = append(anchors, Anchor{
			Name: name,
			Href: href,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("href", href),
		))
	}

	return anchors
}
