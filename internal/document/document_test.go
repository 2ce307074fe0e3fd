package document

import (
	"strings"
	"testing"

	"github.com/go-shiori/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestParseString_RoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<html><body><p id="a">Hello world</p></body></html>`)
	require.NoError(t, err)

	out := doc.String()
	assert.Contains(t, out, `<p id="a">Hello world</p>`)
}

func TestDocument_DoMutates(t *testing.T) {
	t.Parallel()

	doc, err := ParseString(`<p>x</p>`)
	require.NoError(t, err)

	err = doc.Do(func(root *html.Node) error {
		span := dom.CreateElement("span")
		dom.SetTextContent(span, "added")
		dom.AppendChild(Body(root), span)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(doc.String(), "<span>added</span>"))
}

func TestBody_Fallbacks(t *testing.T) {
	t.Parallel()

	frag := &html.Node{Type: html.ElementNode, Data: "div"}
	assert.Same(t, frag, Body(frag))

	doc, err := ParseString(`<p>x</p>`)
	require.NoError(t, err)
	_ = doc.Do(func(root *html.Node) error {
		assert.Equal(t, "body", Body(root).Data)
		return nil
	})
}

func TestParseDetect(t *testing.T) {
	t.Parallel()

	doc, err := ParseDetect(strings.NewReader(`<html><head><meta charset="utf-8"></head><body><p>plain ascii text</p></body></html>`))
	require.NoError(t, err)
	assert.Contains(t, doc.String(), "<p>plain ascii text</p>")
}
