package highlight

import (
	"testing"

	"github.com/go-shiori/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/heartmarshall/study-helper/internal/document"
)

func parse(t *testing.T, page string) *html.Node {
	t.Helper()
	doc, err := document.ParseString(page)
	require.NoError(t, err)
	var root *html.Node
	_ = doc.Do(func(r *html.Node) error {
		root = r
		return nil
	})
	return root
}

func TestPathOf_SiblingIndex(t *testing.T) {
	t.Parallel()

	root := parse(t, `<html><body><ul><li>a</li><li>b</li><li>c</li></ul><p id="top">x</p></body></html>`)
	items := dom.GetElementsByTagName(root, "li")
	require.Len(t, items, 3)

	assert.Equal(t, "/html/body/ul/li", pathOf(items[0]))
	assert.Equal(t, "/html/body/ul/li[2]", pathOf(items[1]))
	assert.Equal(t, "/html/body/ul/li[3]", pathOf(items[2]))
	assert.Equal(t, `//*[@id="top"]`, pathOf(dom.GetElementByID(root, "top")))
}

func TestPathOf_EvaluateRoundTrip(t *testing.T) {
	t.Parallel()

	root := parse(t, `<html><head><title>t</title></head><body>
		<div><p>one</p><div><p>two</p><p>three</p></div><p>four</p></div>
		<section><div></div><div><span>deep</span></div></section>
	</body></html>`)

	for _, el := range dom.GetElementsByTagName(root, "*") {
		path := pathOf(el)
		assert.Same(t, el, evaluate(root, path), path)
	}
}

func TestPathOf_IgnoresHighlightSpans(t *testing.T) {
	t.Parallel()

	root := parse(t, `<html><body><p>plain <span class="study-helper-highlight" data-highlight-id="h">marked</span> <span>second</span></p></body></html>`)
	spans := dom.GetElementsByTagName(root, "span")
	require.Len(t, spans, 2)

	// The unrelated span is the first span once highlights are gone.
	assert.Equal(t, "/html/body/p/span", pathOf(spans[1]))
	assert.Same(t, spans[1], evaluate(root, "/html/body/p/span"))
}

func TestEvaluate_Invalid(t *testing.T) {
	t.Parallel()

	root := parse(t, `<html><body><p>x</p></body></html>`)
	for _, path := range []string{"", "html", "//p", "/html/body/p[0]", "/html/body/p[x]", "/html/body/p[2]", "/html//p", `//*[@id="none"]`} {
		assert.Nil(t, evaluate(root, path), path)
	}
}

func TestPathLocator_CaptureAndResolve(t *testing.T) {
	t.Parallel()

	root := parse(t, `<html><body><article><h1>Title</h1><p>The quick <em>brown</em> fox</p></article></body></html>`)
	r, ok := Find(root, "quick brown")
	require.True(t, ok)

	loc := PathLocator{}
	a, err := loc.Capture(r)
	require.NoError(t, err)
	assert.Equal(t, Anchor{Path: "/html/body/article/p", Text: "quick brown"}, a)

	resolved, ok := loc.Resolve(root, a)
	require.True(t, ok)
	assert.Equal(t, r, resolved)

	_, err = loc.Capture(Range{})
	assert.Error(t, err)

	_, ok = loc.Resolve(root, Anchor{Path: a.Path, Text: "slow"})
	assert.False(t, ok)
}

func TestFind(t *testing.T) {
	t.Parallel()

	root := parse(t, `<html><head><style>p { color: red }</style></head><body><p>red <b>fish</b></p><script>var fish = 1</script></body></html>`)

	r, ok := Find(root, "red fish")
	require.True(t, ok)
	assert.Equal(t, "red ", r.Start.Node.Data)
	assert.Equal(t, 0, r.Start.Offset)
	assert.Equal(t, "fish", r.End.Node.Data)
	assert.Equal(t, 4, r.End.Offset)
	assert.Equal(t, "red fish", r.Text())

	_, ok = Find(root, "var fish")
	assert.False(t, ok)
	_, ok = Find(root, "color")
	assert.False(t, ok)
	_, ok = Find(root, "")
	assert.False(t, ok)
}

func TestRange_TextInvalid(t *testing.T) {
	t.Parallel()

	root := parse(t, `<html><body><p>abc</p></body></html>`)
	r, ok := Find(root, "abc")
	require.True(t, ok)

	backwards := Range{Start: r.End, End: r.Start}
	assert.Empty(t, backwards.Text())

	outOfBounds := NewRange(r.Start.Node, 0, r.Start.Node, 10)
	assert.Empty(t, outOfBounds.Text())

	assert.Empty(t, Range{}.Text())
}
