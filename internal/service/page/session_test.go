package page

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-shiori/dom"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/heartmarshall/study-helper/internal/document"
	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/service/highlight"
	"github.com/heartmarshall/study-helper/internal/service/lookup"
	"github.com/heartmarshall/study-helper/internal/service/tooltip"
	"github.com/heartmarshall/study-helper/internal/transport/message"
)

const (
	pageURL  = "https://example.com/article"
	testPage = `<html><body>
<p id="intro">The quick brown fox jumps over the lazy dog.</p>
<p>Second paragraph with several words.</p>
</body></html>`
)

var testNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

// fakeBackend keeps what the page sends to the background context.
type fakeBackend struct {
	mu           sync.Mutex
	settings     domain.Settings
	data         message.PageDataResponse
	savedNotes   []domain.NoteRecord
	removedNotes []string
	savedHL      []domain.HighlightRecord
	removedHL    []string
	settingsSave []domain.Settings
	err          error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{settings: domain.DefaultSettings()}
}

func (b *fakeBackend) Settings(context.Context) (domain.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings, b.err
}

func (b *fakeBackend) SaveSettings(_ context.Context, s domain.Settings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settingsSave = append(b.settingsSave, s)
	return b.err
}

func (b *fakeBackend) PageData(context.Context) (message.PageDataResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.err
}

func (b *fakeBackend) SaveNote(_ context.Context, n domain.NoteRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.savedNotes = append(b.savedNotes, n)
	return b.err
}

func (b *fakeBackend) RemoveNote(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removedNotes = append(b.removedNotes, id)
	return b.err
}

func (b *fakeBackend) SaveHighlight(_ context.Context, rec domain.HighlightRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.savedHL = append(b.savedHL, rec)
	return b.err
}

func (b *fakeBackend) RemoveHighlight(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removedHL = append(b.removedHL, id)
	return b.err
}

func (b *fakeBackend) highlights() []domain.HighlightRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.HighlightRecord(nil), b.savedHL...)
}

// recordingNotifier remembers every notification.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(_ context.Context, level Level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, level.String()+": "+msg)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

type harness struct {
	session   *Session
	doc       *document.Document
	backend   *fakeBackend
	notifier  *recordingNotifier
	presenter *tooltip.Presenter
	clock     *clockwork.FakeClock

	mu      sync.Mutex
	fetched []string
}

func newHarness(t *testing.T, page string, backend *fakeBackend) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	doc, err := document.ParseString(page)
	require.NoError(t, err)

	h := &harness{doc: doc, backend: backend, notifier: &recordingNotifier{}, clock: clockwork.NewFakeClockAt(testNow)}

	viewport := tooltip.Size{Width: 1280, Height: 800}
	h.presenter = tooltip.NewPresenter(logger, tooltip.NewHTMLSurface(doc, viewport), h.clock, 0)
	cache, err := lookup.NewCache(100, 5*time.Minute, h.clock)
	require.NoError(t, err)
	fetcher := lookup.FetcherFunc(func(_ context.Context, word string) (domain.Definition, error) {
		h.mu.Lock()
		h.fetched = append(h.fetched, word)
		h.mu.Unlock()
		if word == "zzzxx" {
			return domain.Definition{}, domain.NewLookupError(word, domain.LookupNotFound, nil)
		}
		return domain.Definition{Word: word, Definition: "Meaning of " + word + ".", Synonyms: []string{}}, nil
	})
	orch := lookup.NewOrchestrator(logger, cache, fetcher, h.presenter, h.clock, time.Second)
	store := highlight.NewStore(logger, doc, nil, backend, h.clock)

	h.session = NewSession(logger, Deps{
		Doc:        doc,
		Backend:    backend,
		Lookup:     orch,
		Tooltip:    h.presenter,
		Highlights: store,
		Notifier:   h.notifier,
		Clock:      h.clock,
	}, Options{PageURL: pageURL, Viewport: viewport})
	t.Cleanup(h.session.Close)
	return h
}

func (h *harness) words() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.fetched...)
}

// selection returns a selection covering the first occurrence of text.
func (h *harness) selection(t *testing.T, text string) Selection {
	t.Helper()
	var r highlight.Range
	var ok bool
	_ = h.doc.Do(func(root *html.Node) error {
		r, ok = highlight.Find(root, text)
		return nil
	})
	require.True(t, ok, "text %q not found", text)
	return Selection{Range: r, Rect: tooltip.Rect{Left: 100, Top: 200, Width: 80, Height: 20}}
}

// query runs fn on the document.
func (h *harness) query(fn func(root *html.Node)) {
	_ = h.doc.Do(func(root *html.Node) error {
		fn(root)
		return nil
	})
}

func (h *harness) spans() []*html.Node {
	var out []*html.Node
	h.query(func(root *html.Node) { out = dom.GetElementsByClassName(root, highlight.ClassName) })
	return out
}

func (h *harness) spanText(n *html.Node) string {
	var text string
	h.query(func(*html.Node) { text = dom.TextContent(n) })
	return text
}

// textNode returns the text node containing substr and the byte offset of
// substr in it.
func (h *harness) textNode(t *testing.T, substr string) (*html.Node, int) {
	t.Helper()
	var node *html.Node
	var offset int
	h.query(func(root *html.Node) {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if node != nil {
				return
			}
			if n.Type == html.TextNode {
				if i := strings.Index(n.Data, substr); i >= 0 {
					node, offset = n, i
					return
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(root)
	})
	require.NotNil(t, node, "text %q not found", substr)
	return node, offset
}

// settle lets the debounce interval pass and waits for the highlight.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	h.clock.Advance(DefaultDebounce)
	h.session.Wait()
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_RestoresHighlightsAndShowsNotes(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.settings.HighlightColor = "#4caf50"
	backend.data = message.PageDataResponse{
		Highlights: []domain.HighlightRecord{
			{ID: "h1", Text: "brown fox", Color: "#4caf50", Timestamp: 1, Anchor: `//*[@id="intro"]`},
			{ID: "h2", Text: "not on this page", Color: "#4caf50", Timestamp: 2, Anchor: "/html/body/p[2]"},
		},
		Notes: []domain.NoteRecord{
			{ID: "n1", Text: "older", Timestamp: domain.Millis(testNow.Add(-time.Hour)), PageURL: pageURL},
			{ID: "n2", Text: "newer", Timestamp: domain.Millis(testNow), PageURL: pageURL},
		},
	}
	h := newHarness(t, testPage, backend)

	res := h.session.Load(context.Background())

	assert.Equal(t, 1, res.Restored)
	assert.Equal(t, 1, res.RestoreSkipped)
	assert.Equal(t, 2, res.Notes)
	assert.True(t, res.NotesPanelShown)
	assert.Equal(t, "#4caf50", h.session.Settings().HighlightColor)

	spans := h.spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "brown fox", h.spanText(spans[0]))
	assert.Equal(t, []string{"n2", "n1"}, h.session.NoteIDs())
}

func TestLoad_BackendFailureKeepsDefaults(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.err = errors.New("background unreachable")
	h := newHarness(t, testPage, backend)

	res := h.session.Load(context.Background())

	assert.Equal(t, domain.DefaultSettings(), res.Settings)
	assert.Zero(t, res.Restored)
	assert.True(t, h.session.NotesPanelOpen())
	assert.Empty(t, h.session.NoteIDs())

	var empty string
	h.query(func(root *html.Node) {
		if n := dom.QuerySelector(root, ".notes-empty"); n != nil {
			empty = dom.TextContent(n)
		}
	})
	assert.Equal(t, emptyNotesText, empty)
}

func TestLoad_NotesDisabled(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.settings.NotesEnabled = false
	h := newHarness(t, testPage, backend)

	res := h.session.Load(context.Background())

	assert.False(t, res.NotesPanelShown)
	assert.False(t, h.session.NotesPanelOpen())
}

// ---------------------------------------------------------------------------
// Double-click
// ---------------------------------------------------------------------------

func TestOnDoubleClick_WordUnderCaret(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPage, newFakeBackend())
	node, offset := h.textNode(t, "brown")

	res := h.session.OnDoubleClick(context.Background(), DoubleClick{
		Point:  tooltip.Point{X: 50, Y: 60},
		Target: node.Parent,
		Caret:  &Caret{Node: node, Offset: offset + 2},
	})

	assert.Equal(t, lookup.OutcomeFetched, res.Outcome)
	assert.Equal(t, "brown", res.Word)
	state := h.presenter.State()
	assert.Equal(t, domain.TooltipShown, state.Kind)
	assert.Equal(t, tooltip.Point{X: 50, Y: 60}, state.Anchor)
}

func TestOnDoubleClick_SelectionWins(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPage, newFakeBackend())
	node, offset := h.textNode(t, "brown")

	res := h.session.OnDoubleClick(context.Background(), DoubleClick{
		Target:    node.Parent,
		Caret:     &Caret{Node: node, Offset: offset},
		Selection: " Lazy ",
	})

	assert.Equal(t, "lazy", res.Word)
	assert.Equal(t, []string{"lazy"}, h.words())
}

func TestOnDoubleClick_DefinitionsDisabled(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPage, newFakeBackend())
	_, err := h.session.toggleDefinitions(context.Background(), message.ToggleRequest{Enabled: false})
	require.NoError(t, err)

	res := h.session.OnDoubleClick(context.Background(), DoubleClick{Selection: "fox"})

	assert.Equal(t, lookup.OutcomeIgnored, res.Outcome)
	assert.Empty(t, h.words())
}

func TestOnDoubleClick_ErrorTooltip(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPage, newFakeBackend())

	res := h.session.OnDoubleClick(context.Background(), DoubleClick{Selection: "zzzxx"})

	assert.Equal(t, lookup.OutcomeFailed, res.Outcome)
	state := h.presenter.State()
	assert.Equal(t, domain.TooltipError, state.Kind)
	assert.Equal(t, domain.NotFoundMessage("zzzxx"), state.Message)
}

// ---------------------------------------------------------------------------
// Selection highlighting
// ---------------------------------------------------------------------------

func TestOnSelect_HighlightsAfterDebounce(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	h := newHarness(t, testPage, backend)

	h.session.OnSelect(context.Background(), h.selection(t, "quick brown"))
	assert.Empty(t, h.spans())

	h.settle(t)

	spans := h.spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "quick brown", h.spanText(spans[0]))
	saved := backend.highlights()
	require.Len(t, saved, 1)
	assert.Equal(t, "quick brown", saved[0].Text)
	assert.Equal(t, domain.DefaultHighlightColor, saved[0].Color)
	assert.Equal(t, []string{"success: " + MsgHighlighted}, h.notifier.all())
}

func TestOnSelect_LatestSelectionWins(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPage, newFakeBackend())

	h.session.OnSelect(context.Background(), h.selection(t, "quick"))
	h.clock.Advance(100 * time.Millisecond)
	h.session.OnSelect(context.Background(), h.selection(t, "lazy dog"))
	h.clock.Advance(100 * time.Millisecond)
	assert.Empty(t, h.spans())

	h.settle(t)

	spans := h.spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "lazy dog", h.spanText(spans[0]))
}

func TestOnSelect_ClearedBeforeDebounce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPage, newFakeBackend())

	h.session.OnSelect(context.Background(), h.selection(t, "quick"))
	h.session.ClearSelection()
	h.settle(t)

	assert.Empty(t, h.spans())
	assert.Empty(t, h.notifier.all())
}

func TestOnSelect_Skipped(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 250)
	page := `<html><body><p>` + long + `</p><p>short text</p></body></html>`

	h := newHarness(t, page, newFakeBackend())

	h.session.OnSelect(context.Background(), h.selection(t, strings.TrimSpace(long)))
	h.settle(t)
	assert.Empty(t, h.spans(), "selection over the length limit")

	_, err := h.session.toggleHighlighting(context.Background(), message.ToggleRequest{Enabled: false})
	require.NoError(t, err)
	h.session.OnSelect(context.Background(), h.selection(t, "short"))
	h.settle(t)
	assert.Empty(t, h.spans(), "highlighting disabled")
}

// ---------------------------------------------------------------------------
// Click
// ---------------------------------------------------------------------------

func TestOnClick_RemovesHighlight(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	h := newHarness(t, testPage, backend)
	h.session.OnSelect(context.Background(), h.selection(t, "brown fox"))
	h.settle(t)
	spans := h.spans()
	require.Len(t, spans, 1)

	removed := h.session.OnClick(context.Background(), Click{Target: spans[0]})

	assert.True(t, removed)
	assert.Empty(t, h.spans())
	assert.Equal(t, []string{backend.highlights()[0].ID}, backend.removedHL)
	assert.Contains(t, h.notifier.all(), "success: "+MsgHighlightRemoved)
}

func TestOnClick_OutsideClosesTooltip(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPage, newFakeBackend())
	h.session.OnDoubleClick(context.Background(), DoubleClick{Point: tooltip.Point{X: 100, Y: 100}, Selection: "fox"})
	require.Equal(t, domain.TooltipShown, h.presenter.State().Kind)

	var tip *html.Node
	h.query(func(root *html.Node) { tip = dom.QuerySelector(root, "."+tooltip.ClassName) })
	require.NotNil(t, tip)

	assert.False(t, h.session.OnClick(context.Background(), Click{Point: tooltip.Point{X: 900, Y: 700}, Target: tip}))
	assert.Equal(t, domain.TooltipShown, h.presenter.State().Kind, "click inside the tooltip element")

	node, _ := h.textNode(t, "Second")
	h.session.OnClick(context.Background(), Click{Point: tooltip.Point{X: 900, Y: 700}, Target: node.Parent})
	assert.Equal(t, domain.TooltipHidden, h.presenter.State().Kind)
}

// ---------------------------------------------------------------------------
// Keyboard shortcut
// ---------------------------------------------------------------------------

func TestOnKeyDown_LooksUpSelectedWord(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPage, newFakeBackend())
	_, err := h.session.toggleHighlighting(context.Background(), message.ToggleRequest{Enabled: false})
	require.NoError(t, err)

	h.session.OnSelect(context.Background(), h.selection(t, "jumps"))

	res, handled := h.session.OnKeyDown(context.Background(), KeyDown{Key: "d", Ctrl: true})

	require.True(t, handled)
	assert.Equal(t, "jumps", res.Word)
	// Center of the selection box, 5px under its bottom edge.
	assert.Equal(t, tooltip.Point{X: 140, Y: 225}, h.presenter.State().Anchor)
}

func TestOnKeyDown_Ignored(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPage, newFakeBackend())
	_, err := h.session.toggleHighlighting(context.Background(), message.ToggleRequest{Enabled: false})
	require.NoError(t, err)

	_, handled := h.session.OnKeyDown(context.Background(), KeyDown{Key: "d", Meta: true})
	assert.False(t, handled, "no selection")

	h.session.OnSelect(context.Background(), h.selection(t, "quick brown"))
	_, handled = h.session.OnKeyDown(context.Background(), KeyDown{Key: "d", Ctrl: true})
	assert.False(t, handled, "more than one word")

	h.session.OnSelect(context.Background(), h.selection(t, "quick"))
	_, handled = h.session.OnKeyDown(context.Background(), KeyDown{Key: "d"})
	assert.False(t, handled, "no modifier")

	assert.Empty(t, h.words())
}
