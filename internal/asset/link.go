package asset

import (
	"regexp"
	"strings"
)

// slugs are limited to url-safe characters so they can be used verbatim in
// corpus markers and file names.
var linkRegex = regexp.MustCompile(`^/currencies/([A-Za-z0-9._~-]+)/?$`)

// Link is the relative path of an asset's detail page, ex. "/currencies/bitcoin/".
type Link struct {
	Href string
	Slug string
}

// ParseLink accepts only canonical detail paths, anything else (absolute
// urls, sub-pages like /currencies/bitcoin/markets/, query strings) is rejected.
func ParseLink(href string) (Link, bool) {
	match := linkRegex.FindStringSubmatch(href)
	if match == nil {
		return Link{}, false
	}
	return Link{Href: href, Slug: match[1]}, true
}

// URL joins the link onto base, ex. "https://coinmarketcap.com/" + "/currencies/bitcoin/".
func (l Link) URL(base string) string {
	return strings.TrimRight(base, "/") + l.Href
}
