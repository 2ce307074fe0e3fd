package page

import (
	"regexp"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"

	"github.com/heartmarshall/study-helper/internal/domain"
)

var (
	firstWordRe  = regexp.MustCompile(`\b[a-zA-Z]{2,}\b`)
	selectedWord = regexp.MustCompile(`^[a-zA-Z]{2,}$`)
	menuWordRe   = regexp.MustCompile(`^[a-zA-Z]+$`)
)

// wordAt expands offset in text to the surrounding run of ASCII letters.
// It returns "" when the run is shorter than two letters.
func wordAt(text string, offset int) string {
	if offset < 0 || offset > len(text) {
		return ""
	}
	start, end := offset, offset
	for start > 0 && domain.IsASCIILetter(text[start-1]) {
		start--
	}
	for end < len(text) && domain.IsASCIILetter(text[end]) {
		end++
	}
	if end-start < domain.MinWordLength {
		return ""
	}
	return text[start:end]
}

// firstWord returns the first word of two or more letters in text.
func firstWord(text string) string {
	return firstWordRe.FindString(text)
}

// doubleClickWord picks the word a double-click targets: the current
// selection when it is a single word, then the word under the caret, then
// the first word of the target element and of each ancestor.
func doubleClickWord(ev DoubleClick) string {
	if sel := strings.TrimSpace(ev.Selection); selectedWord.MatchString(sel) {
		return sel
	}
	if ev.Caret != nil && ev.Caret.Node != nil && ev.Caret.Node.Type == html.TextNode {
		if w := wordAt(ev.Caret.Node.Data, ev.Caret.Offset); w != "" {
			return w
		}
	}
	if ev.Target == nil {
		return ""
	}
	if w := firstWord(dom.TextContent(ev.Target)); w != "" {
		return w
	}
	for n := ev.Target.Parent; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if w := firstWord(dom.TextContent(n)); w != "" {
			return w
		}
	}
	return ""
}

// within reports whether n or one of its ancestors carries class.
func within(n *html.Node, class string) bool {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, c := range strings.Fields(dom.ClassName(n)) {
			if c == class {
				return true
			}
		}
	}
	return false
}
