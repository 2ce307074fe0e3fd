package highlight

import (
	"fmt"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// ClassName marks highlight elements.
const ClassName = "study-helper-highlight"

const (
	idAttr     = "data-highlight-id"
	spanTitle  = "Click to remove highlight"
	spanFormat = "background-color: %s; cursor: pointer;"
)

func newSpan(id, color string) *html.Node {
	span := dom.CreateElement("span")
	dom.SetAttribute(span, "class", ClassName)
	dom.SetAttribute(span, "style", fmt.Sprintf(spanFormat, color))
	dom.SetAttribute(span, idAttr, id)
	dom.SetAttribute(span, "title", spanTitle)
	return span
}

func isHighlight(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.Data != "span" {
		return false
	}
	for _, c := range strings.Fields(dom.ClassName(n)) {
		if c == ClassName {
			return true
		}
	}
	return false
}

// wrap surrounds every segment with its own span. In a multi-node
// selection, segments that are only white space are left alone.
func wrap(segs []segment, id, color string) []*html.Node {
	var spans []*html.Node
	for _, seg := range segs {
		if len(segs) > 1 && strings.TrimSpace(seg.node.Data[seg.from:seg.to]) == "" {
			continue
		}
		spans = append(spans, wrapSegment(seg, newSpan(id, color)))
	}
	return spans
}

func wrapSegment(seg segment, span *html.Node) *html.Node {
	n := seg.node
	parent := n.Parent
	data := n.Data

	if seg.to < len(data) {
		parent.InsertBefore(dom.CreateTextNode(data[seg.to:]), n.NextSibling)
	}
	if seg.from > 0 {
		parent.InsertBefore(dom.CreateTextNode(data[:seg.from]), n)
	}
	n.Data = data[seg.from:seg.to]

	parent.InsertBefore(span, n)
	parent.RemoveChild(n)
	span.AppendChild(n)
	return span
}

// unwrap replaces span with its children and merges the text nodes left
// next to each other.
func unwrap(span *html.Node) {
	parent := span.Parent
	if parent == nil {
		return
	}
	for span.FirstChild != nil {
		c := span.FirstChild
		span.RemoveChild(c)
		parent.InsertBefore(c, span)
	}
	parent.RemoveChild(span)
	normalize(parent)
}

// normalize merges adjacent text nodes and drops empty ones under n.
func normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type != html.TextNode {
			normalize(c)
			c = next
			continue
		}
		if c.Data == "" {
			n.RemoveChild(c)
			c = next
			continue
		}
		for next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			after := next.NextSibling
			n.RemoveChild(next)
			next = after
		}
		c = next
	}
}

func spans(root *html.Node) []*html.Node {
	return dom.GetElementsByClassName(root, ClassName)
}

func spansWithID(root *html.Node, id string) []*html.Node {
	var out []*html.Node
	for _, s := range spans(root) {
		if dom.GetAttribute(s, idAttr) == id {
			out = append(out, s)
		}
	}
	return out
}
