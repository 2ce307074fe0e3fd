package page

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/service/highlight"
	"github.com/heartmarshall/study-helper/internal/service/lookup"
	"github.com/heartmarshall/study-helper/internal/service/tooltip"
)

// Caret is a position inside a text node, offset in bytes.
type Caret struct {
	Node   *html.Node
	Offset int
}

// DoubleClick is a double-click at Point on Target. Caret is the text
// position under the pointer when known; Selection is the text the
// browser selected.
type DoubleClick struct {
	Point     tooltip.Point
	Target    *html.Node
	Caret     *Caret
	Selection string
}

// Selection is the current text selection and its bounding box.
type Selection struct {
	Range highlight.Range
	Rect  tooltip.Rect
}

// Click is a single click at Point on Target.
type Click struct {
	Point  tooltip.Point
	Target *html.Node
}

// KeyDown is a key press. Key is the printed key, lower case.
type KeyDown struct {
	Key  string
	Ctrl bool
	Meta bool
}

// OnDoubleClick looks up the word under a double-click.
func (s *Session) OnDoubleClick(ctx context.Context, ev DoubleClick) lookup.Result {
	if !s.Settings().DefinitionsEnabled {
		return lookup.Result{Outcome: lookup.OutcomeIgnored}
	}

	var word string
	s.readDoc(func(*html.Node) { word = doubleClickWord(ev) })
	if word == "" {
		s.log.DebugContext(ctx, "no word under double-click")
		return lookup.Result{Outcome: lookup.OutcomeIgnored}
	}

	s.ClearSelection()
	return s.lookup.RequestDefinition(ctx, word, ev.Point)
}

// OnSelect records the selection and, when highlighting is enabled,
// highlights it once it has stayed the same for the debounce interval.
func (s *Session) OnSelect(ctx context.Context, sel Selection) {
	text := s.selectionText(sel)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = &sel
	if !s.settings.HighlightingEnabled || text == "" {
		return
	}
	if utf8.RuneCountInString(text) > domain.MaxHighlightTextLength {
		return
	}

	s.cancelPendingLocked()
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	s.pending = s.clock.AfterFunc(s.opts.Debounce, func() {
		defer s.wg.Done()
		s.highlightIfUnchanged(ctx, text)
	})
}

// ClearSelection drops the current selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selection = nil
	s.mu.Unlock()
}

func (s *Session) highlightIfUnchanged(ctx context.Context, text string) {
	s.mu.Lock()
	sel := s.selection
	s.mu.Unlock()

	if sel == nil || s.selectionText(*sel) != text {
		return
	}
	s.highlightSelection(ctx, *sel)
}

// HighlightSelection highlights the current selection now, cancelling a
// pending debounced highlight. It reports false when nothing is selected
// or the highlight failed.
func (s *Session) HighlightSelection(ctx context.Context) (domain.HighlightRecord, bool) {
	s.mu.Lock()
	s.cancelPendingLocked()
	sel := s.selection
	s.mu.Unlock()
	if sel == nil {
		return domain.HighlightRecord{}, false
	}
	return s.highlightSelection(ctx, *sel)
}

// highlightSelection wraps sel in the current color and clears the
// selection.
func (s *Session) highlightSelection(ctx context.Context, sel Selection) (domain.HighlightRecord, bool) {
	color := s.Settings().HighlightColor
	rec, err := s.highlights.Create(ctx, sel.Range, color)
	if err != nil {
		s.log.InfoContext(ctx, "highlight failed", slog.String("error", err.Error()))
		s.notifier.Notify(ctx, LevelError, MsgHighlightFailed)
		return domain.HighlightRecord{}, false
	}
	s.ClearSelection()
	s.notifier.Notify(ctx, LevelSuccess, MsgHighlighted)
	return rec, true
}

// OnClick dismisses the tooltip when the click falls outside it and
// removes a clicked highlight. Clicks inside the tooltip or the notes
// panel are left alone. It reports whether a highlight was removed.
func (s *Session) OnClick(ctx context.Context, ev Click) bool {
	var ownUI bool
	var id string
	var onHighlight bool
	s.readDoc(func(*html.Node) {
		ownUI = within(ev.Target, tooltip.ClassName) || within(ev.Target, NotesPanelClass)
		if !ownUI {
			id, onHighlight = highlight.IDAt(ev.Target)
		}
	})
	if ownUI {
		return false
	}

	s.tooltip.PointerDown(ev.Point)

	if !onHighlight {
		return false
	}
	if s.highlights.Remove(ctx, id) == 0 {
		return false
	}
	s.notifier.Notify(ctx, LevelSuccess, MsgHighlightRemoved)
	return true
}

// OnKeyDown handles the Ctrl+D / Cmd+D shortcut: a single selected word
// is looked up and the tooltip placed under the middle of the selection.
func (s *Session) OnKeyDown(ctx context.Context, ev KeyDown) (lookup.Result, bool) {
	if !(ev.Ctrl || ev.Meta) || ev.Key != "d" {
		return lookup.Result{}, false
	}

	s.mu.Lock()
	enabled := s.settings.DefinitionsEnabled
	sel := s.selection
	s.mu.Unlock()
	if !enabled || sel == nil {
		return lookup.Result{}, false
	}

	word := strings.TrimSpace(s.selectionText(*sel))
	if !selectedWord.MatchString(word) {
		return lookup.Result{}, false
	}

	anchor := tooltip.Point{
		X: sel.Rect.Left + sel.Rect.Width/2,
		Y: sel.Rect.Top + sel.Rect.Height + shortcutGap,
	}
	return s.lookup.RequestDefinition(ctx, word, anchor), true
}

// shortcutGap separates the selection from a shortcut tooltip anchor.
const shortcutGap = 5

func (s *Session) selectionText(sel Selection) string {
	var text string
	s.readDoc(func(*html.Node) { text = strings.TrimSpace(sel.Range.Text()) })
	return text
}
