package highlight

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// Text under these elements is never part of a selection.
var skippedTags = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"textarea": true,
}

// Page UI injected next to highlights.
var skippedClasses = []string{"study-helper-tooltip", "study-helper-notes-panel"}

// Boundary is a position inside a text node. Offset counts bytes of
// Node.Data.
type Boundary struct {
	Node   *html.Node
	Offset int
}

// Range is a selection between two text positions in document order.
type Range struct {
	Start Boundary
	End   Boundary
}

// NewRange builds a range from two text positions.
func NewRange(start *html.Node, startOffset int, end *html.Node, endOffset int) Range {
	return Range{
		Start: Boundary{Node: start, Offset: startOffset},
		End:   Boundary{Node: end, Offset: endOffset},
	}
}

// Text returns the selected text, or "" for an invalid range.
func (r Range) Text() string {
	ix, start, end, ok := r.locate()
	if !ok {
		return ""
	}
	return ix.text[start:end]
}

// locate indexes the tree holding r and returns r as text positions.
func (r Range) locate() (*textIndex, int, int, bool) {
	if r.Start.Node == nil || r.End.Node == nil {
		return nil, 0, 0, false
	}
	ix := indexText(treeRoot(r.Start.Node))
	start, ok := ix.pos(r.Start)
	if !ok {
		return nil, 0, 0, false
	}
	end, ok := ix.pos(r.End)
	if !ok || end <= start {
		return nil, 0, 0, false
	}
	return ix, start, end, true
}

// Find returns the first occurrence of text among the text nodes under
// root. The match may span several nodes.
func Find(root *html.Node, text string) (Range, bool) {
	if root == nil || text == "" {
		return Range{}, false
	}
	return indexText(root).find(text)
}

func treeRoot(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// textIndex flattens the visible text nodes of a subtree into one string.
type textIndex struct {
	nodes  []*html.Node
	starts []int
	at     map[*html.Node]int
	text   string
}

func indexText(root *html.Node) *textIndex {
	ix := &textIndex{at: make(map[*html.Node]int)}
	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if n.Data == "" {
				return
			}
			ix.at[n] = len(ix.nodes)
			ix.nodes = append(ix.nodes, n)
			ix.starts = append(ix.starts, b.Len())
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipped(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	ix.text = b.String()
	return ix
}

func skipped(n *html.Node) bool {
	if skippedTags[n.Data] {
		return true
	}
	class := " " + dom.ClassName(n) + " "
	for _, c := range skippedClasses {
		if strings.Contains(class, " "+c+" ") {
			return true
		}
	}
	return false
}

func (ix *textIndex) pos(b Boundary) (int, bool) {
	i, ok := ix.at[b.Node]
	if !ok || b.Offset < 0 || b.Offset > len(b.Node.Data) {
		return 0, false
	}
	return ix.starts[i] + b.Offset, true
}

// boundary maps a text position back to a node. Start boundaries prefer
// the beginning of the next node, end boundaries the end of the previous.
func (ix *textIndex) boundary(pos int, end bool) (Boundary, bool) {
	for i, n := range ix.nodes {
		s, e := ix.starts[i], ix.starts[i]+len(n.Data)
		if (end && pos > s && pos <= e) || (!end && pos >= s && pos < e) {
			return Boundary{Node: n, Offset: pos - s}, true
		}
	}
	return Boundary{}, false
}

func (ix *textIndex) rangeOf(start, end int) (Range, bool) {
	if start >= end {
		return Range{}, false
	}
	s, ok := ix.boundary(start, false)
	if !ok {
		return Range{}, false
	}
	e, ok := ix.boundary(end, true)
	if !ok {
		return Range{}, false
	}
	return Range{Start: s, End: e}, true
}

func (ix *textIndex) find(text string) (Range, bool) {
	i := strings.Index(ix.text, text)
	if i < 0 {
		return Range{}, false
	}
	return ix.rangeOf(i, i+len(text))
}

// trim narrows [start, end) to exclude surrounding white space.
func (ix *textIndex) trim(start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(ix.text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(ix.text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}

// segment is the selected part [from, to) of one text node.
type segment struct {
	node     *html.Node
	from, to int
}

func (ix *textIndex) segments(start, end int) []segment {
	var out []segment
	for i, n := range ix.nodes {
		s, e := ix.starts[i], ix.starts[i]+len(n.Data)
		if e <= start || s >= end {
			continue
		}
		out = append(out, segment{
			node: n,
			from: max(start, s) - s,
			to:   min(end, e) - s,
		})
	}
	return out
}
