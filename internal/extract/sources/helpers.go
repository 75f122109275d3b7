package sources

import (
	"strings"

	"golang.org/x/net/html"
)

// nodeLines collects the trimmed text nodes under n, one entry per node.
// Sites that convey structure through line breaks rather than markup get
// parsed line by line.
func nodeLines(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				out = append(out, t)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
