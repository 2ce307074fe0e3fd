// Package highlight applies, restores and removes text highlights in a
// page document.
package highlight

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/go-shiori/dom"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/net/html"

	"github.com/heartmarshall/study-helper/internal/document"
	"github.com/heartmarshall/study-helper/internal/domain"
)

// RestoreResult is the outcome of re-applying a stored highlight.
type RestoreResult int

const (
	RestoreApplied RestoreResult = iota
	// RestoreAlreadyPresent means a highlight with the same id is in the
	// page already.
	RestoreAlreadyPresent
	// RestoreSkipped means the anchor or its text is gone. It is not an
	// error.
	RestoreSkipped
)

func (r RestoreResult) String() string {
	switch r {
	case RestoreApplied:
		return "applied"
	case RestoreAlreadyPresent:
		return "already_present"
	case RestoreSkipped:
		return "skipped"
	}
	return fmt.Sprintf("RestoreResult(%d)", int(r))
}

// recorder persists highlight records for the page's domain.
type recorder interface {
	SaveHighlight(ctx context.Context, rec domain.HighlightRecord) error
	RemoveHighlight(ctx context.Context, id string) error
}

// Store owns the highlights of one page document.
type Store struct {
	doc      *document.Document
	locator  Locator
	recorder recorder
	clock    clockwork.Clock
	log      *slog.Logger
}

// NewStore creates a highlight store over doc. A nil locator uses
// PathLocator; a nil clock the real one.
func NewStore(logger *slog.Logger, doc *document.Document, locator Locator, rec recorder, clock clockwork.Clock) *Store {
	if locator == nil {
		locator = PathLocator{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		doc:      doc,
		locator:  locator,
		recorder: rec,
		clock:    clock,
		log:      logger.With("service", "highlight"),
	}
}

// Create wraps the range in highlight spans and persists the record. The
// range is trimmed of surrounding white space first. A failure to persist
// is logged and leaves the highlight in the page.
func (s *Store) Create(ctx context.Context, r Range, color string) (domain.HighlightRecord, error) {
	if !domain.IsHexColor(color) {
		return domain.HighlightRecord{}, domain.NewValidationError("color", "must be a hex color")
	}

	var rec domain.HighlightRecord
	err := s.doc.Do(func(*html.Node) error {
		ix, start, end, ok := r.locate()
		if !ok {
			return domain.NewValidationError("range", "invalid selection")
		}
		start, end = ix.trim(start, end)
		if start == end {
			return domain.NewValidationError("text", "required")
		}
		if utf8.RuneCountInString(ix.text[start:end]) > domain.MaxHighlightTextLength {
			return domain.NewValidationError("text", "too long")
		}

		trimmed, ok := ix.rangeOf(start, end)
		if !ok {
			return domain.NewValidationError("range", "invalid selection")
		}
		anchor, err := s.locator.Capture(trimmed)
		if err != nil {
			return fmt.Errorf("capture anchor: %w", err)
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		rec = domain.HighlightRecord{
			ID:        id.String(),
			Text:      anchor.Text,
			Color:     color,
			Timestamp: domain.Millis(s.clock.Now()),
			Anchor:    anchor.Path,
		}
		wrap(ix.segments(start, end), rec.ID, color)
		return nil
	})
	if err != nil {
		return domain.HighlightRecord{}, err
	}

	if s.recorder != nil {
		if err := s.recorder.SaveHighlight(ctx, rec); err != nil {
			s.log.ErrorContext(ctx, "save highlight failed",
				slog.String("id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.log.DebugContext(ctx, "highlight created",
		slog.String("id", rec.ID),
		slog.String("anchor", rec.Anchor),
		slog.Int("length", len(rec.Text)),
	)
	return rec, nil
}

// Restore re-applies a stored highlight. It is idempotent and never
// fails loudly: an unresolvable anchor yields RestoreSkipped.
func (s *Store) Restore(rec domain.HighlightRecord) RestoreResult {
	var res RestoreResult
	_ = s.doc.Do(func(root *html.Node) error {
		res = s.restore(root, rec)
		return nil
	})
	return res
}

// RestoreAll re-applies records in order and counts the applied ones.
func (s *Store) RestoreAll(ctx context.Context, recs []domain.HighlightRecord) (applied, skipped int) {
	_ = s.doc.Do(func(root *html.Node) error {
		for _, rec := range recs {
			switch s.restore(root, rec) {
			case RestoreApplied:
				applied++
			case RestoreSkipped:
				skipped++
			}
		}
		return nil
	})

	if len(recs) > 0 {
		s.log.DebugContext(ctx, "highlights restored",
			slog.Int("applied", applied),
			slog.Int("skipped", skipped),
		)
	}
	return applied, skipped
}

func (s *Store) restore(root *html.Node, rec domain.HighlightRecord) RestoreResult {
	if rec.ID == "" || rec.Text == "" || rec.Anchor == "" {
		return RestoreSkipped
	}
	if len(spansWithID(root, rec.ID)) > 0 {
		return RestoreAlreadyPresent
	}

	r, ok := s.locator.Resolve(root, Anchor{Path: rec.Anchor, Text: rec.Text})
	if !ok {
		return RestoreSkipped
	}
	ix, start, end, ok := r.locate()
	if !ok {
		return RestoreSkipped
	}

	color := rec.Color
	if !domain.IsHexColor(color) {
		color = domain.DefaultHighlightColor
	}
	wrap(ix.segments(start, end), rec.ID, color)
	return RestoreApplied
}

// Remove unwraps every span of the highlight, persists the removal and
// returns the number of spans removed.
func (s *Store) Remove(ctx context.Context, id string) int {
	if id == "" {
		return 0
	}

	var n int
	_ = s.doc.Do(func(root *html.Node) error {
		for _, span := range spansWithID(root, id) {
			unwrap(span)
			n++
		}
		return nil
	})

	if s.recorder != nil {
		if err := s.recorder.RemoveHighlight(ctx, id); err != nil {
			s.log.ErrorContext(ctx, "remove highlight failed",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	return n
}

// ClearAll unwraps every highlight in the page without touching storage.
func (s *Store) ClearAll() int {
	var n int
	_ = s.doc.Do(func(root *html.Node) error {
		for _, span := range spans(root) {
			unwrap(span)
			n++
		}
		return nil
	})
	return n
}

// IDs returns the distinct highlight ids in the page in document order.
func (s *Store) IDs() []string {
	var ids []string
	_ = s.doc.Do(func(root *html.Node) error {
		seen := make(map[string]bool)
		for _, span := range spans(root) {
			id := dom.GetAttribute(span, idAttr)
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids
}

// IDAt returns the id of the innermost highlight containing n. The
// caller must hold the document, for example from inside Document.Do.
func IDAt(n *html.Node) (string, bool) {
	for ; n != nil; n = n.Parent {
		if isHighlight(n) {
			return dom.GetAttribute(n, idAttr), true
		}
	}
	return "", false
}
