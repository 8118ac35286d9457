package source

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// textLines walks an HTML tree and returns the visible text as trimmed,
// non-empty lines. It is the fallback for pages with no usable table:
// block elements break lines, script/style/nav subtrees are skipped.
func textLines(input []byte) []string {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return nil
	}
	var b strings.Builder
	collectText(&b, node)
	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = collapseWhitespace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "nav", "footer", "iframe", "head":
			return
		case "br", "hr", "p", "div", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n")
		case "td", "th":
			b.WriteString(" ")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "div", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n")
		}
	}
}
