package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Base provides the HTML plumbing shared by the site extractors.
type Base struct{}

// ParseHTML parses HTML string into a node tree.
func (b *Base) ParseHTML(htmlContent string) (*html.Node, error) {
	return html.Parse(strings.NewReader(htmlContent))
}

// Text extracts the text content of a node, whitespace-joined.
func (b *Base) Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(b.Text(c))
		buf.WriteString(" ")
	}
	return strings.TrimSpace(buf.String())
}

// HasClass checks if a node carries a specific CSS class.
func (b *Base) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(b.Attr(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// ClassContains checks if any class on the node contains the substring.
// Result listings on older sites vary class names around a common stem.
func (b *Base) ClassContains(n *html.Node, substr string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(b.Attr(n, "class")) {
		if strings.Contains(strings.ToLower(class), substr) {
			return true
		}
	}
	return false
}

// Attr gets an attribute value from a node.
func (b *Base) Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// IsElem reports whether the node is an element with the given tag.
func (b *Base) IsElem(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// FindAll finds all nodes matching a predicate, in document order.
func (b *Base) FindAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

// FindFirst finds the first node matching a predicate.
func (b *Base) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// FindAllClass finds elements with the given tag and exact class.
func (b *Base) FindAllClass(root *html.Node, tag, class string) []*html.Node {
	return b.FindAll(root, func(n *html.Node) bool {
		return b.IsElem(n, tag) && b.HasClass(n, class)
	})
}

// FirstLink returns the first anchor under root, or nil.
func (b *Base) FirstLink(root *html.Node) *html.Node {
	return b.FindFirst(root, func(n *html.Node) bool { return b.IsElem(n, "a") })
}

// AbsoluteURL resolves href against the site base when it is relative.
func (b *Base) AbsoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimSuffix(base, "/") + href
}
