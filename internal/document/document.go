// Package document holds the parsed page that the page-side services
// mutate. All access goes through Do so that highlight wrapping and
// tooltip rendering never interleave.
package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// Document is a lockable HTML tree.
type Document struct {
	mu   sync.Mutex
	root *html.Node
}

// New wraps an already parsed tree.
func New(root *html.Node) *Document {
	return &Document{root: root}
}

// Parse reads a UTF-8 HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("document: parse: %w", err)
	}
	return New(root), nil
}

// ParseDetect reads an HTML page of unknown encoding, converting it to
// UTF-8 first.
func ParseDetect(r io.Reader) (*Document, error) {
	root, err := dom.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("document: parse: %w", err)
	}
	return New(root), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Do runs fn with exclusive access to the tree.
func (d *Document) Do(fn func(root *html.Node) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.root)
}

// Render writes the whole tree as HTML.
func (d *Document) Render(w io.Writer) error {
	return d.Do(func(root *html.Node) error {
		return html.Render(w, root)
	})
}

// String renders the tree, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Body returns the body element of root, falling back to the document
// element and then to root itself. The caller must be inside Do.
func Body(root *html.Node) *html.Node {
	if body := dom.QuerySelector(root, "body"); body != nil {
		return body
	}
	if el := dom.DocumentElement(root); el != nil {
		return el
	}
	return root
}
