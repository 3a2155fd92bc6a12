package coverart

import (
	"strings"

	"golang.org/x/net/html"
)

// CandidateURLs extracts cover image URLs from the HTML of Harmony's
// release page. Each <figure class="cover-image"> contributes its
// anchor href (usually the full-resolution image) and its img src as a
// fallback, deduplicated in document order.
//
// Design decision: golang.org/x/net/html over regex or in-page
// JavaScript because the snapshot is plain HTML by the time we have it,
// and a real parser survives attribute reordering and nesting changes.
func CandidateURLs(pageHTML string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var urls []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	var visit func(n *html.Node, inFigure bool)
	visit = func(n *html.Node, inFigure bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "figure":
				if hasClass(n, "cover-image") {
					inFigure = true
				}
			case "a":
				if inFigure {
					add(attr(n, "href"))
				}
			case "img":
				if inFigure {
					add(attr(n, "src"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, inFigure)
		}
	}
	visit(doc, false)

	return urls, nil
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the node's class attribute contains the
// given class name.
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
