package page

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// openPanelLocked shows the notes panel with notes. Must hold s.mu.
func (s *Session) openPanelLocked(notes []domain.NoteRecord) {
	if s.panel != nil {
		return
	}
	s.readDoc(func(root *html.Node) { s.panel = newNotesPanel(root, notes) })
}

func (s *Session) closePanelLocked() {
	if s.panel == nil {
		return
	}
	s.readDoc(func(*html.Node) { s.panel.detach() })
	s.panel = nil
}

// NotesPanelOpen reports whether the notes panel is shown.
func (s *Session) NotesPanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel != nil
}

// OpenNotes shows the notes panel, loading the domain's notes.
func (s *Session) OpenNotes(ctx context.Context) {
	s.mu.Lock()
	open := s.panel != nil
	s.mu.Unlock()
	if open {
		return
	}

	notes := s.loadNotes(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.openPanelLocked(notes)
}

// CloseNotes hides the notes panel without changing settings.
func (s *Session) CloseNotes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closePanelLocked()
}

// DismissNotes is the panel's close control: it hides the panel and
// turns notes off in the stored settings.
func (s *Session) DismissNotes(ctx context.Context) error {
	s.mu.Lock()
	s.closePanelLocked()
	s.settings.NotesEnabled = false
	settings := s.settings
	s.mu.Unlock()

	if err := s.backend.SaveSettings(ctx, settings); err != nil {
		s.log.ErrorContext(ctx, "save settings failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// ToggleNotesMinimized folds or unfolds the panel and reports whether it
// is now minimized.
func (s *Session) ToggleNotesMinimized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel == nil {
		return false
	}
	var minimized bool
	s.readDoc(func(*html.Node) { minimized = s.panel.toggleMinimized() })
	return minimized
}

// Draft returns the text in the note input.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel == nil {
		return ""
	}
	var text string
	s.readDoc(func(*html.Node) { text = s.panel.draft() })
	return text
}

// SetDraft replaces the text in the note input. It does nothing while
// the panel is closed.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel == nil {
		return
	}
	s.readDoc(func(*html.Node) { s.panel.setDraft(text) })
}

// AddNote saves the draft as a note, shows it at the top of the list and
// clears the input. An empty draft is ignored.
func (s *Session) AddNote(ctx context.Context) (domain.NoteRecord, bool) {
	text := strings.TrimSpace(s.Draft())
	if text == "" {
		return domain.NoteRecord{}, false
	}

	id, err := uuid.NewV7()
	if err != nil {
		s.log.ErrorContext(ctx, "generate note id", slog.String("error", err.Error()))
		return domain.NoteRecord{}, false
	}
	note := domain.NoteRecord{
		ID:        id.String(),
		Text:      text,
		Timestamp: domain.Millis(s.clock.Now()),
		PageURL:   s.opts.PageURL,
	}

	if err := s.backend.SaveNote(ctx, note); err != nil {
		s.log.ErrorContext(ctx, "save note failed",
			slog.String("id", note.ID),
			slog.String("error", err.Error()),
		)
	}

	s.mu.Lock()
	if s.panel != nil {
		s.readDoc(func(*html.Node) {
			s.panel.prepend(note)
			s.panel.setDraft("")
		})
	}
	s.mu.Unlock()

	s.notifier.Notify(ctx, LevelSuccess, MsgNoteAdded)
	return note, true
}

// DeleteNote removes a note from storage and from the panel.
func (s *Session) DeleteNote(ctx context.Context, id string) bool {
	s.mu.Lock()
	var removed bool
	if s.panel != nil {
		s.readDoc(func(*html.Node) { removed = s.panel.remove(id) })
	}
	s.mu.Unlock()
	if !removed {
		return false
	}

	if err := s.backend.RemoveNote(ctx, id); err != nil {
		s.log.ErrorContext(ctx, "remove note failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
	s.notifier.Notify(ctx, LevelSuccess, MsgNoteDeleted)
	return true
}

// NoteIDs returns the ids shown in the panel, newest first.
func (s *Session) NoteIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel == nil {
		return nil
	}
	var ids []string
	s.readDoc(func(*html.Node) { ids = s.panel.ids() })
	return ids
}

// reloadNotes re-reads the notes into an open panel.
func (s *Session) reloadNotes(ctx context.Context) {
	s.mu.Lock()
	open := s.panel != nil
	s.mu.Unlock()
	if !open {
		return
	}

	notes := s.loadNotes(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel != nil {
		s.readDoc(func(*html.Node) { s.panel.render(notes) })
	}
}

func (s *Session) loadNotes(ctx context.Context) []domain.NoteRecord {
	data, err := s.backend.PageData(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "load notes failed", slog.String("error", err.Error()))
		return nil
	}
	return data.Notes
}

// quoteSelection is the draft a context-menu "add note" starts with.
func quoteSelection(text string) string {
	return `"` + text + "\"\n\n"
}
