package message

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/pkg/ctxutil"
)

// Handler answers one message kind. The sender domain is available
// through ctxutil.DomainFromCtx.
type Handler func(ctx context.Context, env Envelope) (any, error)

// Typed adapts a handler of a decoded payload.
func Typed[T any](fn func(ctx context.Context, req T) (any, error)) Handler {
	return func(ctx context.Context, env Envelope) (any, error) {
		var req T
		if err := env.Payload(&req); err != nil {
			return nil, err
		}
		return fn(ctx, req)
	}
}

// Dispatcher routes envelopes to handlers by action.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Action]Handler
	log      *slog.Logger
}

// NewDispatcher creates an empty dispatch table.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Action]Handler),
		log:      logger.With("component", "dispatcher"),
	}
}

// Register binds h to action. Registering an action twice panics.
func (d *Dispatcher) Register(action Action, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.handlers[action]; dup {
		panic(fmt.Sprintf("message: duplicate handler for %q", action))
	}
	d.handlers[action] = h
}

// Handles reports whether action has a handler.
func (d *Dispatcher) Handles(action Action) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[action]
	return ok
}

// Actions returns the registered actions, sorted.
func (d *Dispatcher) Actions() []Action {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Action, 0, len(d.handlers))
	for a := range d.handlers {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// Dispatch runs the handler of env.Action. A nil response becomes Ack.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) (any, error) {
	d.mu.RLock()
	h, ok := d.handlers[env.Action]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("action %q: %w", env.Action, domain.ErrUnsupported)
	}

	if host := env.Sender.Domain(); host != "" {
		ctx = ctxutil.WithDomain(ctx, host)
	}

	resp, err := h(ctx, env)
	if err != nil {
		d.log.DebugContext(ctx, "message failed",
			slog.String("action", string(env.Action)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if resp == nil {
		resp = Ack{}
	}
	return resp, nil
}
