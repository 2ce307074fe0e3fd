// Package lookup coordinates definition requests on the page: the
// definition cache, the fetch bounded by its own timeout, and the tooltip
// transitions guarded by a monotonic request token.
package lookup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/service/tooltip"
)

// DefaultTimeout bounds a fetch independently of the dictionary client.
const DefaultTimeout = 10 * time.Second

// Fetcher resolves a normalized word. Failures with a user message are
// returned as *domain.LookupError.
type Fetcher interface {
	FetchDefinition(ctx context.Context, word string) (domain.Definition, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, word string) (domain.Definition, error)

func (f FetcherFunc) FetchDefinition(ctx context.Context, word string) (domain.Definition, error) {
	return f(ctx, word)
}

type presenter interface {
	ShowLoading(anchor tooltip.Point) uint64
	ShowDefinition(def domain.Definition, anchor tooltip.Point) uint64
	Resolve(gen uint64, def domain.Definition) bool
	Fail(gen uint64, message string) bool
}

// Outcome tells how a request ended.
type Outcome int

const (
	// OutcomeIgnored: the word was empty or too short; nothing changed.
	OutcomeIgnored Outcome = iota
	OutcomeCached
	OutcomeFetched
	OutcomeFailed
	// OutcomeSuperseded: a newer request or a dismissal won; the result
	// was not shown.
	OutcomeSuperseded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeCached:
		return "cached"
	case OutcomeFetched:
		return "fetched"
	case OutcomeFailed:
		return "failed"
	case OutcomeSuperseded:
		return "superseded"
	}
	return "unknown"
}

// Result describes one RequestDefinition call.
type Result struct {
	Outcome    Outcome
	Token      uint64
	Word       string
	Definition domain.Definition
	Message    string
	Err        error
}

// Orchestrator runs definition requests. Safe for concurrent use.
type Orchestrator struct {
	log       *slog.Logger
	cache     *Cache
	fetcher   Fetcher
	presenter presenter
	clock     clockwork.Clock
	timeout   time.Duration

	mu     sync.Mutex
	latest uint64
}

// NewOrchestrator creates an orchestrator. A non-positive timeout falls
// back to DefaultTimeout.
func NewOrchestrator(
	logger *slog.Logger,
	cache *Cache,
	fetcher Fetcher,
	presenter presenter,
	clock clockwork.Clock,
	timeout time.Duration,
) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		log:       logger.With("service", "lookup"),
		cache:     cache,
		fetcher:   fetcher,
		presenter: presenter,
		clock:     clock,
		timeout:   timeout,
	}
}

// RequestDefinition looks up word and drives the tooltip at anchor. It
// blocks until the request resolves. Only the latest request may change
// the tooltip once its fetch completes; earlier ones report
// OutcomeSuperseded.
func (o *Orchestrator) RequestDefinition(ctx context.Context, word string, anchor tooltip.Point) Result {
	word = domain.NormalizeWord(word)
	if len(word) < domain.MinWordLength {
		return Result{Outcome: OutcomeIgnored, Word: word}
	}

	token, gen, cached, hit := o.begin(word, anchor)
	if hit {
		o.log.DebugContext(ctx, "definition cache hit", slog.String("word", word), slog.Uint64("token", token))
		return Result{Outcome: OutcomeCached, Token: token, Word: word, Definition: cached}
	}

	def, err := o.fetch(ctx, word)
	if err == nil {
		// A late result is still worth caching.
		o.cache.Put(word, def)
	}

	if !o.isLatest(token) {
		o.log.DebugContext(ctx, "stale definition discarded", slog.String("word", word), slog.Uint64("token", token))
		return Result{Outcome: OutcomeSuperseded, Token: token, Word: word, Definition: def, Err: err}
	}

	if err != nil {
		msg := userMessage(err)
		if !o.presenter.Fail(gen, msg) {
			return Result{Outcome: OutcomeSuperseded, Token: token, Word: word, Message: msg, Err: err}
		}
		o.log.InfoContext(ctx, "definition lookup failed",
			slog.String("word", word),
			slog.String("error", err.Error()),
		)
		return Result{Outcome: OutcomeFailed, Token: token, Word: word, Message: msg, Err: err}
	}

	if !o.presenter.Resolve(gen, def) {
		return Result{Outcome: OutcomeSuperseded, Token: token, Word: word, Definition: def}
	}
	return Result{Outcome: OutcomeFetched, Token: token, Word: word, Definition: def}
}

// fetch calls the fetcher under the orchestrator timeout. A fetcher that
// ignores its context is abandoned when the timeout fires.
func (o *Orchestrator) fetch(ctx context.Context, word string) (domain.Definition, error) {
	ctx, cancel := clockwork.WithTimeout(ctx, o.clock, o.timeout)
	defer cancel()

	type result struct {
		def domain.Definition
		err error
	}
	done := make(chan result, 1)

	go func() {
		def, err := o.fetcher.FetchDefinition(ctx, word)
		done <- result{def, err}
	}()

	select {
	case r := <-done:
		return r.def, r.err
	case <-ctx.Done():
		return domain.Definition{}, ctx.Err()
	}
}

// begin takes the next token and makes the first tooltip transition in
// one step, so tokens and presenter generations are issued in the same
// order.
func (o *Orchestrator) begin(word string, anchor tooltip.Point) (token, gen uint64, cached domain.Definition, hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.latest++
	token = o.latest

	if e, ok := o.cache.Get(word); ok {
		o.presenter.ShowDefinition(e.Definition, anchor)
		return token, 0, e.Definition, true
	}
	return token, o.presenter.ShowLoading(anchor), domain.Definition{}, false
}

func (o *Orchestrator) isLatest(token uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latest == token
}

// userMessage keeps a lookup failure's own message; anything else, such as
// the orchestrator timeout or a broken channel to the background, gets
// the generic one.
func userMessage(err error) string {
	if lerr, ok := domain.AsLookupError(err); ok && lerr.Message != "" {
		return lerr.Message
	}
	return domain.MsgLoadFailed
}
