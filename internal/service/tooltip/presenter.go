// Package tooltip renders the single definition tooltip of a page.
//
// The presenter is a small state machine (Hidden, Loading, Shown, Error).
// Entering a state always clears the previous rendering first, so at most
// one tooltip is live. Every entered state gets a new generation number;
// callers that resolve asynchronously pass the generation they started
// with and the presenter ignores them once it has moved on.
package tooltip

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// DefaultErrorDismiss is how long an Error tooltip stays up.
const DefaultErrorDismiss = 3 * time.Second

// View is what a Surface draws.
type View struct {
	Kind       domain.TooltipKind
	Definition domain.Definition
	Message    string
	Rect       Rect
	Placement  Placement
}

// Surface is the rendering target of the presenter.
type Surface interface {
	Viewport() Size
	Measure(v View) Size
	Render(v View) error
	Clear()
}

// State is a snapshot of the presenter.
type State struct {
	Kind       domain.TooltipKind
	Generation uint64
	Anchor     Point
	Definition domain.Definition
	Message    string
	Rect       Rect
	Placement  Placement
}

// Presenter owns the tooltip state. Safe for concurrent use.
type Presenter struct {
	log          *slog.Logger
	surface      Surface
	clock        clockwork.Clock
	errorDismiss time.Duration

	mu    sync.Mutex
	state State
	gen   uint64
	timer clockwork.Timer
}

// NewPresenter creates a hidden presenter. A non-positive errorDismiss
// falls back to DefaultErrorDismiss.
func NewPresenter(logger *slog.Logger, surface Surface, clock clockwork.Clock, errorDismiss time.Duration) *Presenter {
	if errorDismiss <= 0 {
		errorDismiss = DefaultErrorDismiss
	}
	return &Presenter{
		log:          logger.With("service", "tooltip"),
		surface:      surface,
		clock:        clock,
		errorDismiss: errorDismiss,
		state:        State{Kind: domain.TooltipHidden},
	}
}

// State returns the current state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Definition = s.Definition.Clone()
	return s
}

// ShowLoading enters Loading at anchor and returns its generation.
func (p *Presenter) ShowLoading(anchor Point) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enter(State{Kind: domain.TooltipLoading, Anchor: anchor})
}

// ShowDefinition enters Shown at anchor unconditionally.
func (p *Presenter) ShowDefinition(def domain.Definition, anchor Point) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enter(State{Kind: domain.TooltipShown, Anchor: anchor, Definition: def.Clone()})
}

// ShowError enters Error at anchor unconditionally.
func (p *Presenter) ShowError(message string, anchor Point) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enter(State{Kind: domain.TooltipError, Anchor: anchor, Message: message})
}

// Resolve moves the Loading state of generation gen to Shown at the same
// anchor. It reports false and changes nothing if gen is no longer current.
func (p *Presenter) Resolve(gen uint64, def domain.Definition) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loadingLocked(gen) {
		return false
	}
	p.enter(State{Kind: domain.TooltipShown, Anchor: p.state.Anchor, Definition: def.Clone()})
	return true
}

// Fail moves the Loading state of generation gen to Error.
func (p *Presenter) Fail(gen uint64, message string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loadingLocked(gen) {
		return false
	}
	p.enter(State{Kind: domain.TooltipError, Anchor: p.state.Anchor, Message: message})
	return true
}

// Close hides the tooltip (the close control).
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Kind == domain.TooltipHidden {
		return
	}
	p.enter(State{Kind: domain.TooltipHidden})
}

// PointerDown hides the tooltip when pt falls outside its bounds and
// reports whether it did.
func (p *Presenter) PointerDown(pt Point) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Kind == domain.TooltipHidden || p.state.Rect.Contains(pt) {
		return false
	}
	p.enter(State{Kind: domain.TooltipHidden})
	return true
}

func (p *Presenter) loadingLocked(gen uint64) bool {
	return p.gen == gen && p.state.Kind == domain.TooltipLoading
}

// enter tears down the current rendering and draws next. Must hold p.mu.
func (p *Presenter) enter(next State) uint64 {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.surface.Clear()

	p.gen++
	next.Generation = p.gen

	if next.Kind != domain.TooltipHidden {
		view := View{Kind: next.Kind, Definition: next.Definition, Message: next.Message}
		view.Rect, view.Placement = Place(next.Anchor, p.surface.Measure(view), p.surface.Viewport())
		next.Rect, next.Placement = view.Rect, view.Placement

		if err := p.surface.Render(view); err != nil {
			p.log.Warn("render tooltip", slog.String("kind", next.Kind.String()), slog.String("error", err.Error()))
		}
	}

	if next.Kind == domain.TooltipError {
		gen := p.gen
		p.timer = p.clock.AfterFunc(p.errorDismiss, func() { p.expire(gen) })
	}

	p.state = next
	p.log.Debug("tooltip state",
		slog.String("kind", next.Kind.String()),
		slog.Uint64("generation", next.Generation),
	)
	return next.Generation
}

func (p *Presenter) expire(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.state.Kind != domain.TooltipError {
		return
	}
	p.enter(State{Kind: domain.TooltipHidden})
}
