// Package linkcheck verifies that internal links and asset references in a
// rendered output tree resolve to files that were actually written.
package linkcheck

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Ref is one link-bearing attribute extracted from a rendered document.
type Ref struct {
	URL       string
	Tag       string
	Attribute string
}

// refAttrs maps element names to the attribute that carries their reference.
var refAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"video":  "src",
	"audio":  "src",
	"source": "src",
}

// ExtractRefs parses a rendered HTML document and returns every reference it
// carries, in document order.
func ExtractRefs(r io.Reader) ([]Ref, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var refs []Ref
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attr, known := refAttrs[n.Data]
			if known {
				if v := getAttr(n, attr); v != "" {
					refs = append(refs, Ref{URL: v, Tag: n.Data, Attribute: attr})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// isInternal reports whether a reference points into the generated tree.
// Anything with a scheme or host (https://, mailto:, tel:, //cdn...) is
// external; pure fragments stay within the current document.
func isInternal(raw string) bool {
	if raw == "" || strings.HasPrefix(raw, "#") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		// Unparseable references are checked as paths rather than skipped.
		return true
	}
	return u.Scheme == "" && u.Host == ""
}
