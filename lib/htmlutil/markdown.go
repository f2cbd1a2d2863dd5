package htmlutil

import (
	"net/url"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// ToMarkdown renders a page as commonmark with links resolved against pageUrl.
func ToMarkdown(pageUrl string, markup []byte) ([]byte, error) {
	base, err := url.Parse(pageUrl)
	if err != nil {
		return nil, err
	}
	converter := md.NewConverter(base.Host, true, &md.Options{
		GetAbsoluteURL: func(_ *goquery.Selection, rawURL, _ string) string {
			ref, err := url.Parse(rawURL)
			if err != nil || ref.Scheme == "data" {
				return rawURL
			}
			return base.ResolveReference(ref).String()
		},
	})
	converter.Remove("noscript", "svg")
	return converter.ConvertBytes(markup)
}
