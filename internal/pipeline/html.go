package pipeline

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText extracts the rendered text of an HTML document, dropping
// script, style and head content. Block boundaries become newlines so
// the pattern extractor never sees prices glued to unrelated text.
func VisibleText(src string) (string, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			b.WriteByte('\n')
		}
	}
	walk(root)

	return strings.TrimSpace(b.String()), nil
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "tr", "br", "h1", "h2", "h3", "h4", "h5", "h6",
		"table", "ul", "ol", "section", "article", "blockquote", "pre":
		return true
	}
	return false
}
