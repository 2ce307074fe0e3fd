package tooltip

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"

	"github.com/heartmarshall/study-helper/internal/document"
	"github.com/heartmarshall/study-helper/internal/domain"
)

// ClassName marks the tooltip element in the page.
const ClassName = "study-helper-tooltip"

// Layout estimates used by Measure; there is no layout engine behind the
// tree, so sizes follow the stylesheet's fixed width and line height.
const (
	tooltipWidth = 300
	lineHeight   = 20
	charsPerLine = 40
	boxPadding   = 30

	shownSynonyms = 3
	closeGlyph    = "×"
	footerText    = "Double-click any word for definition"
	loadingText   = "Loading definition..."
)

// HTMLSurface renders the tooltip as a div appended to the page body.
type HTMLSurface struct {
	doc      *document.Document
	viewport Size
	node     *html.Node
}

// NewHTMLSurface creates a surface over doc with a fixed viewport.
func NewHTMLSurface(doc *document.Document, viewport Size) *HTMLSurface {
	return &HTMLSurface{doc: doc, viewport: viewport}
}

func (s *HTMLSurface) Viewport() Size { return s.viewport }

// Measure estimates the rendered size from the number of text lines.
func (s *HTMLSurface) Measure(v View) Size {
	width := float64(tooltipWidth)
	if limit := s.viewport.Width - 2*minimumEdge; limit > 0 && width > limit {
		width = limit
	}

	lines := 0
	for _, block := range blocks(v) {
		lines += max(1, (utf8.RuneCountInString(block.text)+charsPerLine-1)/charsPerLine)
	}
	return Size{Width: width, Height: float64(boxPadding + lines*lineHeight)}
}

// Render appends the tooltip element to the body.
func (s *HTMLSurface) Render(v View) error {
	el := dom.CreateElement("div")
	classes := []string{ClassName, v.Kind.String() + "-tooltip"}
	if v.Kind == domain.TooltipShown {
		classes[1] = "definition-tooltip"
	}
	if v.Placement == PlacementAbove {
		classes = append(classes, "top")
	}
	dom.SetAttribute(el, "class", strings.Join(classes, " "))
	dom.SetAttribute(el, "style", fmt.Sprintf("position: fixed; left: %.0fpx; top: %.0fpx;", v.Rect.Left, v.Rect.Top))

	if v.Kind != domain.TooltipLoading {
		appendBlock(el, "button", "tooltip-close", closeGlyph)
	}
	for _, b := range blocks(v) {
		appendBlock(el, "div", b.class, b.text)
	}

	return s.doc.Do(func(root *html.Node) error {
		dom.AppendChild(document.Body(root), el)
		s.node = el
		return nil
	})
}

// Clear removes the tooltip element if present.
func (s *HTMLSurface) Clear() {
	_ = s.doc.Do(func(*html.Node) error {
		if s.node != nil {
			dom.DetachChild(s.node)
			s.node = nil
		}
		return nil
	})
}

type block struct {
	class string
	text  string
}

func blocks(v View) []block {
	switch v.Kind {
	case domain.TooltipLoading:
		return []block{{"loading-text", loadingText}}
	case domain.TooltipError:
		return []block{{"tooltip-error", v.Message}}
	}

	d := v.Definition
	word := d.Word
	if word == "" {
		word = "Unknown"
	}
	out := []block{{"tooltip-word", word}}
	if d.Phonetic != "" {
		out = append(out, block{"tooltip-phonetic", d.Phonetic})
	}
	if d.PartOfSpeech != "" {
		out = append(out, block{"tooltip-pos", d.PartOfSpeech})
	}
	text := d.Definition
	if text == "" {
		text = "No definition available"
	}
	out = append(out, block{"tooltip-definition", text})
	if d.Example != "" {
		out = append(out, block{"tooltip-example", `"` + d.Example + `"`})
	}
	if len(d.Synonyms) > 0 {
		out = append(out, block{"tooltip-synonyms", "Synonyms: " + strings.Join(d.Synonyms[:min(len(d.Synonyms), shownSynonyms)], ", ")})
	}
	return append(out, block{"tooltip-footer", footerText})
}

func appendBlock(parent *html.Node, tag, class, text string) {
	el := dom.CreateElement(tag)
	dom.SetAttribute(el, "class", class)
	dom.AppendChild(el, dom.CreateTextNode(text))
	dom.AppendChild(parent, el)
}
