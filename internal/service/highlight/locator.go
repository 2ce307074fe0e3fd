package highlight

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// Anchor is a serializable position of a highlight: a structural path to
// the element that contained it and the highlighted text.
type Anchor struct {
	Path string
	Text string
}

// Locator converts between live ranges and anchors.
type Locator interface {
	Capture(r Range) (Anchor, error)
	Resolve(root *html.Node, a Anchor) (Range, bool)
}

var errNoContainer = errors.New("range has no element container")

// PathLocator anchors a range at its nearest element ancestor, written as
// //*[@id="x"] when the element has an id and as a /tag[n] path from the
// document element otherwise. Highlight spans are invisible to paths so
// that an anchor resolves the same on a page with no highlights applied.
type PathLocator struct{}

// Capture implements Locator.
func (PathLocator) Capture(r Range) (Anchor, error) {
	text := r.Text()
	if text == "" {
		return Anchor{}, errors.New("empty range")
	}
	el := container(r.Start.Node, r.End.Node)
	if el == nil {
		return Anchor{}, errNoContainer
	}
	return Anchor{Path: pathOf(el), Text: text}, nil
}

// Resolve implements Locator. The first occurrence of the anchor text
// under the element wins.
func (PathLocator) Resolve(root *html.Node, a Anchor) (Range, bool) {
	if a.Text == "" {
		return Range{}, false
	}
	el := evaluate(root, a.Path)
	if el == nil {
		return Range{}, false
	}
	return Find(el, a.Text)
}

// container returns the closest element holding both a and b.
func container(a, b *html.Node) *html.Node {
	ancestors := make(map[*html.Node]bool)
	for n := a; n != nil; n = n.Parent {
		ancestors[n] = true
	}
	var common *html.Node
	for n := b; n != nil; n = n.Parent {
		if ancestors[n] {
			common = n
			break
		}
	}
	for common != nil && (common.Type != html.ElementNode || isHighlight(common)) {
		common = common.Parent
	}
	return common
}

func pathOf(el *html.Node) string {
	if id := dom.ID(el); id != "" && !strings.ContainsAny(id, `"`) {
		return fmt.Sprintf(`//*[@id="%s"]`, id)
	}

	var parts []string
	for n := el; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if isHighlight(n) {
			continue
		}
		index := 0
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode && s.Data == n.Data && !isHighlight(s) {
				index++
			}
		}
		part := n.Data
		if index > 0 {
			part += "[" + strconv.Itoa(index+1) + "]"
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return ""
	}

	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	return b.String()
}

// evaluate supports the two path shapes pathOf produces.
func evaluate(root *html.Node, path string) *html.Node {
	const idPrefix, idSuffix = `//*[@id="`, `"]`
	if strings.HasPrefix(path, idPrefix) && strings.HasSuffix(path, idSuffix) {
		return dom.GetElementByID(root, path[len(idPrefix):len(path)-len(idSuffix)])
	}
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return nil
	}

	cur := root
	for _, part := range strings.Split(path[1:], "/") {
		tag, nth, ok := parseStep(part)
		if !ok {
			return nil
		}
		cur = nthChild(cur, tag, nth)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func parseStep(step string) (string, int, bool) {
	tag, rest, found := strings.Cut(step, "[")
	if tag == "" {
		return "", 0, false
	}
	if !found {
		return tag, 1, true
	}
	n, err := strconv.Atoi(strings.TrimSuffix(rest, "]"))
	if err != nil || n < 1 || !strings.HasSuffix(rest, "]") {
		return "", 0, false
	}
	return tag, n, true
}

// nthChild finds the nth element child of parent with the given tag,
// looking through highlight spans.
func nthChild(parent *html.Node, tag string, nth int) *html.Node {
	seen := 0
	var found *html.Node
	var visit func(p *html.Node)
	visit = func(p *html.Node) {
		for c := p.FirstChild; c != nil && found == nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if isHighlight(c) {
				visit(c)
				continue
			}
			if c.Data == tag {
				seen++
				if seen == nth {
					found = c
				}
			}
		}
	}
	visit(parent)
	return found
}
