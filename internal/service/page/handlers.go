package page

import (
	"context"
	"strings"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/service/lookup"
	"github.com/heartmarshall/study-helper/internal/service/tooltip"
	"github.com/heartmarshall/study-helper/internal/transport/message"
)

// Register adds the page message handlers to d.
func (s *Session) Register(d *message.Dispatcher) {
	d.Register(message.ActionToggleHighlighting, message.Typed(s.toggleHighlighting))
	d.Register(message.ActionToggleDefinitions, message.Typed(s.toggleDefinitions))
	d.Register(message.ActionToggleNotes, message.Typed(s.toggleNotes))
	d.Register(message.ActionChangeHighlightColor, message.Typed(s.changeHighlightColor))
	d.Register(message.ActionClearAllData, message.Typed(s.clearAllData))
	d.Register(message.ActionHighlightText, message.Typed(s.highlightText))
	d.Register(message.ActionGetDefinition, message.Typed(s.menuDefinition))
	d.Register(message.ActionAddNote, message.Typed(s.addNote))
}

func (s *Session) toggleHighlighting(_ context.Context, req message.ToggleRequest) (any, error) {
	s.mu.Lock()
	s.settings.HighlightingEnabled = req.Enabled
	if !req.Enabled {
		s.cancelPendingLocked()
	}
	s.mu.Unlock()
	return nil, nil
}

func (s *Session) toggleDefinitions(_ context.Context, req message.ToggleRequest) (any, error) {
	s.mu.Lock()
	s.settings.DefinitionsEnabled = req.Enabled
	s.mu.Unlock()
	if !req.Enabled {
		s.tooltip.Close()
	}
	return nil, nil
}

func (s *Session) toggleNotes(ctx context.Context, req message.ToggleRequest) (any, error) {
	s.mu.Lock()
	s.settings.NotesEnabled = req.Enabled
	s.mu.Unlock()
	if req.Enabled {
		s.OpenNotes(ctx)
	} else {
		s.CloseNotes()
	}
	return nil, nil
}

func (s *Session) changeHighlightColor(_ context.Context, req message.ColorRequest) (any, error) {
	if !domain.IsHexColor(req.Color) {
		return nil, domain.NewValidationError("color", "must be a hex color")
	}
	s.mu.Lock()
	s.settings.HighlightColor = req.Color
	s.mu.Unlock()
	return nil, nil
}

// clearAllData runs after the background has deleted the domain's data:
// it strips the highlights from the page and reloads the notes panel.
func (s *Session) clearAllData(ctx context.Context, _ struct{}) (any, error) {
	s.mu.Lock()
	s.cancelPendingLocked()
	s.selection = nil
	s.mu.Unlock()

	s.highlights.ClearAll()
	s.reloadNotes(ctx)
	s.notifier.Notify(ctx, LevelSuccess, MsgAllCleared)
	return nil, nil
}

// highlightText is the context-menu highlight: the current selection is
// highlighted immediately.
func (s *Session) highlightText(ctx context.Context, req message.SelectionRequest) (any, error) {
	if req.SelectionText == "" {
		return nil, nil
	}
	s.HighlightSelection(ctx)
	return nil, nil
}

// menuDefinition is the context-menu lookup. The page has no pointer
// position then, so the tooltip is anchored at the viewport center.
func (s *Session) menuDefinition(ctx context.Context, req message.SelectionRequest) (any, error) {
	word := strings.TrimSpace(req.SelectionText)
	if !menuWordRe.MatchString(word) {
		return nil, nil
	}
	anchor := tooltip.Point{X: s.opts.Viewport.Width / 2, Y: s.opts.Viewport.Height / 2}
	res := s.lookup.RequestDefinition(ctx, word, anchor)
	return lookupAck(res), nil
}

// addNote prefills the note input with the quoted selection, opening the
// panel first when notes are enabled.
func (s *Session) addNote(ctx context.Context, req message.SelectionRequest) (any, error) {
	if req.SelectionText == "" {
		return nil, nil
	}
	s.mu.Lock()
	open, enabled := s.panel != nil, s.settings.NotesEnabled
	s.mu.Unlock()

	switch {
	case open:
	case enabled:
		s.OpenNotes(ctx)
	default:
		return nil, nil
	}
	s.SetDraft(quoteSelection(req.SelectionText))
	return nil, nil
}

// LookupAck answers a page-side definition request.
type LookupAck struct {
	Outcome string `json:"outcome"`
	Word    string `json:"word,omitempty"`
}

func lookupAck(res lookup.Result) LookupAck {
	return LookupAck{Outcome: res.Outcome.String(), Word: res.Word}
}
