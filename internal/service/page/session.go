// Package page runs the page side of study-helper over one parsed
// document: definition lookups on double-click and shortcut, selection
// highlighting, highlight removal, the notes panel, and the messages the
// popup and context menu send to the page.
package page

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/net/html"

	"github.com/heartmarshall/study-helper/internal/document"
	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/service/highlight"
	"github.com/heartmarshall/study-helper/internal/service/lookup"
	"github.com/heartmarshall/study-helper/internal/service/tooltip"
	"github.com/heartmarshall/study-helper/internal/transport/message"
)

// DefaultDebounce is how long a selection must stay unchanged before it
// is highlighted.
const DefaultDebounce = 200 * time.Millisecond

// backend is the background context as seen from the page.
type backend interface {
	Settings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, s domain.Settings) error
	PageData(ctx context.Context) (message.PageDataResponse, error)
	SaveNote(ctx context.Context, n domain.NoteRecord) error
	RemoveNote(ctx context.Context, id string) error
}

type definer interface {
	RequestDefinition(ctx context.Context, word string, anchor tooltip.Point) lookup.Result
}

type tooltipControl interface {
	Close()
	PointerDown(pt tooltip.Point) bool
}

type highlighter interface {
	Create(ctx context.Context, r highlight.Range, color string) (domain.HighlightRecord, error)
	Remove(ctx context.Context, id string) int
	RestoreAll(ctx context.Context, recs []domain.HighlightRecord) (applied, skipped int)
	ClearAll() int
}

// Deps are the collaborators of a Session.
type Deps struct {
	Doc        *document.Document
	Backend    backend
	Lookup     definer
	Tooltip    tooltipControl
	Highlights highlighter
	// Notifier defaults to a LogNotifier.
	Notifier Notifier
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Options tune a Session.
type Options struct {
	PageURL  string
	Viewport tooltip.Size
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
}

// LoadResult summarizes Load.
type LoadResult struct {
	Settings        domain.Settings
	Restored        int
	RestoreSkipped  int
	Notes           int
	NotesPanelShown bool
}

// Session is the page context of one document. Safe for concurrent use.
type Session struct {
	doc        *document.Document
	backend    backend
	lookup     definer
	tooltip    tooltipControl
	highlights highlighter
	notifier   Notifier
	clock      clockwork.Clock
	opts       Options
	log        *slog.Logger

	mu        sync.Mutex
	settings  domain.Settings
	selection *Selection
	pending   clockwork.Timer
	panel     *notesPanel

	wg sync.WaitGroup
}

// NewSession creates a session with default settings. Call Load to read
// the stored settings and restore the page's data.
func NewSession(logger *slog.Logger, deps Deps, opts Options) *Session {
	if deps.Notifier == nil {
		deps.Notifier = NewLogNotifier(logger)
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Session{
		doc:        deps.Doc,
		backend:    deps.Backend,
		lookup:     deps.Lookup,
		tooltip:    deps.Tooltip,
		highlights: deps.Highlights,
		notifier:   deps.Notifier,
		clock:      deps.Clock,
		opts:       opts,
		log:        logger.With("service", "page"),
		settings:   domain.DefaultSettings(),
	}
}

// Load reads the stored settings, restores the domain's highlights and
// opens the notes panel when notes are enabled. Storage failures are
// logged and leave the defaults in place.
func (s *Session) Load(ctx context.Context) LoadResult {
	settings, err := s.backend.Settings(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "load settings failed, using defaults", slog.String("error", err.Error()))
		settings = domain.DefaultSettings()
	}

	var res LoadResult
	data, err := s.backend.PageData(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "load page data failed", slog.String("error", err.Error()))
	} else {
		res.Restored, res.RestoreSkipped = s.highlights.RestoreAll(ctx, data.Highlights)
		res.Notes = len(data.Notes)
	}

	s.mu.Lock()
	s.settings = settings
	if settings.NotesEnabled {
		s.openPanelLocked(data.Notes)
		res.NotesPanelShown = true
	}
	s.mu.Unlock()

	res.Settings = settings
	s.log.InfoContext(ctx, "page loaded",
		slog.String("url", s.opts.PageURL),
		slog.Int("restored", res.Restored),
		slog.Int("skipped", res.RestoreSkipped),
		slog.Int("notes", res.Notes),
	)
	return res
}

// Settings returns the session's current settings.
func (s *Session) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Wait blocks until every scheduled highlight has run or been cancelled.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels a pending highlight and waits for running ones.
func (s *Session) Close() {
	s.mu.Lock()
	s.cancelPendingLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Session) cancelPendingLocked() {
	if s.pending != nil && s.pending.Stop() {
		s.wg.Done()
	}
	s.pending = nil
}

// readDoc runs fn inside the document lock.
func (s *Session) readDoc(fn func(root *html.Node)) {
	_ = s.doc.Do(func(root *html.Node) error {
		fn(root)
		return nil
	})
}
