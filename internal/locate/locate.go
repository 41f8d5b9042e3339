package locate

import (
	"errors"
	"iter"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ErrNotFound is returned when the page contains no record payload.
var ErrNotFound = errors.New("no canvas record found in page")

// recordPattern captures the shortest payload between the assignment and the
// following ",replayRecord". The payload may span lines.
var recordPattern = regexp.MustCompile(`(?s)const record=(.*?),replayRecord`)

// Locate returns the record payload embedded in page.
func Locate(page string) (string, error) {
	for script := range InlineScripts(page) {
		if payload, ok := match(script); ok {
			return payload, nil
		}
	}

	if payload, ok := match(page); ok {
		return payload, nil
	}

	return "", ErrNotFound
}

// match applies recordPattern to s.
func match(s string) (string, bool) {
	m := recordPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// InlineScripts returns the bodies of the page's inline <script> elements in
// document order. Scripts with a src attribute have no inline body and are
// skipped.
func InlineScripts(page string) iter.Seq[string] {
	return func(yield func(string) bool) {
		doc, err := html.Parse(strings.NewReader(page))
		if err != nil {
			return
		}

		stopped := false
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if stopped {
				return
			}
			if n.Type == html.ElementNode && n.Data == "script" && getAttr(n, "src") == "" {
				if !yield(scriptText(n)) {
					stopped = true
					return
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}

		walk(doc)
	}
}

// scriptText concatenates the text children of a script element.
func scriptText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
