package lookup

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/service/tooltip"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// nullSurface satisfies tooltip.Surface without drawing anything.
type nullSurface struct{}

func (nullSurface) Viewport() tooltip.Size { return tooltip.Size{Width: 1280, Height: 800} }

func (nullSurface) Measure(tooltip.View) tooltip.Size { return tooltip.Size{Width: 300, Height: 100} }

func (nullSurface) Render(tooltip.View) error { return nil }

func (nullSurface) Clear() {}

type harness struct {
	orch      *Orchestrator
	presenter *tooltip.Presenter
	cache     *Cache
	clock     *clockwork.FakeClock
	calls     atomic.Int32
}

func newHarness(t *testing.T, fetch FetcherFunc) *harness {
	t.Helper()
	h := &harness{clock: clockwork.NewFakeClock()}

	cache, err := NewCache(DefaultCacheSize, DefaultCacheTTL, h.clock)
	require.NoError(t, err)
	h.cache = cache
	h.presenter = tooltip.NewPresenter(newTestLogger(), nullSurface{}, h.clock, 3*time.Second)

	counting := FetcherFunc(func(ctx context.Context, word string) (domain.Definition, error) {
		h.calls.Add(1)
		return fetch(ctx, word)
	})
	h.orch = NewOrchestrator(newTestLogger(), cache, counting, h.presenter, h.clock, DefaultTimeout)
	return h
}

var anchor = tooltip.Point{X: 100, Y: 100}

// ---------------------------------------------------------------------------
// Basic flows
// ---------------------------------------------------------------------------

func TestOrchestrator_ShortWordIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(context.Context, string) (domain.Definition, error) {
		t.Error("fetcher must not be called")
		return domain.Definition{}, nil
	})

	for _, w := range []string{"", "a", "  A ", "1", "é"} {
		res := h.orch.RequestDefinition(context.Background(), w, anchor)
		assert.Equal(t, OutcomeIgnored, res.Outcome, "word %q", w)
	}
	st := h.presenter.State()
	assert.Equal(t, domain.TooltipHidden, st.Kind)
	assert.Equal(t, uint64(0), st.Generation)
}

func TestOrchestrator_FetchThenCacheHit(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(_ context.Context, word string) (domain.Definition, error) {
		return domain.Definition{Word: word, Definition: "A bloom.", Synonyms: []string{}}, nil
	})

	res := h.orch.RequestDefinition(context.Background(), " Flower! ", anchor)
	require.Equal(t, OutcomeFetched, res.Outcome)
	assert.Equal(t, "flower", res.Word)

	st := h.presenter.State()
	assert.Equal(t, domain.TooltipShown, st.Kind)
	assert.Equal(t, "flower", st.Definition.Word)
	assert.Equal(t, "A bloom.", st.Definition.Definition)

	h.clock.Advance(4 * time.Minute)
	again := h.orch.RequestDefinition(context.Background(), "flower", anchor)
	assert.Equal(t, OutcomeCached, again.Outcome)
	assert.Equal(t, res.Definition, again.Definition)
	assert.Equal(t, int32(1), h.calls.Load())

	h.clock.Advance(2 * time.Minute)
	expired := h.orch.RequestDefinition(context.Background(), "flower", anchor)
	assert.Equal(t, OutcomeFetched, expired.Outcome)
	assert.Equal(t, int32(2), h.calls.Load())
}

func TestOrchestrator_NotFoundShowsError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(_ context.Context, word string) (domain.Definition, error) {
		return domain.Definition{}, domain.NewLookupError(word, domain.LookupNotFound, nil)
	})

	res := h.orch.RequestDefinition(context.Background(), "zzzxx", anchor)
	require.Equal(t, OutcomeFailed, res.Outcome)

	st := h.presenter.State()
	assert.Equal(t, domain.TooltipError, st.Kind)
	assert.Contains(t, st.Message, "No definition found")

	_, cached := h.cache.Get("zzzxx")
	assert.False(t, cached, "failures are not cached")

	h.clock.Advance(3 * time.Second)
	require.Eventually(t, func() bool {
		return h.presenter.State().Kind == domain.TooltipHidden
	}, time.Second, 5*time.Millisecond)
}

func TestOrchestrator_TransportErrorGenericMessage(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(context.Context, string) (domain.Definition, error) {
		return domain.Definition{}, io.ErrUnexpectedEOF
	})

	res := h.orch.RequestDefinition(context.Background(), "flower", anchor)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, domain.MsgLoadFailed, h.presenter.State().Message)
}

func TestOrchestrator_TimeoutAbandonsHungFetch(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	h := newHarness(t, func(context.Context, string) (domain.Definition, error) {
		close(started)
		<-release // ignores its context
		return domain.Definition{}, nil
	})

	done := make(chan Result, 1)
	go func() { done <- h.orch.RequestDefinition(context.Background(), "flower", anchor) }()

	<-started
	assert.Equal(t, domain.TooltipLoading, h.presenter.State().Kind)

	h.clock.Advance(DefaultTimeout)

	select {
	case res := <-done:
		assert.Equal(t, OutcomeFailed, res.Outcome)
		assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("request did not time out")
	}
	st := h.presenter.State()
	assert.Equal(t, domain.TooltipError, st.Kind)
	assert.Equal(t, domain.MsgLoadFailed, st.Message)
}

// ---------------------------------------------------------------------------
// Race rule
// ---------------------------------------------------------------------------

func TestOrchestrator_LaterRequestWins(t *testing.T) {
	t.Parallel()

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var n atomic.Int32

	h := newHarness(t, func(_ context.Context, word string) (domain.Definition, error) {
		if n.Add(1) == 1 {
			close(firstStarted)
			<-releaseFirst
			return domain.Definition{Word: word, Definition: "first response"}, nil
		}
		return domain.Definition{Word: word, Definition: "second response"}, nil
	})

	firstDone := make(chan Result, 1)
	go func() {
		firstDone <- h.orch.RequestDefinition(context.Background(), "cat", tooltip.Point{X: 1, Y: 1})
	}()
	<-firstStarted

	second := h.orch.RequestDefinition(context.Background(), "cat", tooltip.Point{X: 2, Y: 2})
	require.Equal(t, OutcomeFetched, second.Outcome)

	close(releaseFirst)
	first := <-firstDone
	assert.Equal(t, OutcomeSuperseded, first.Outcome)
	assert.Less(t, first.Token, second.Token)

	st := h.presenter.State()
	assert.Equal(t, domain.TooltipShown, st.Kind)
	assert.Equal(t, "second response", st.Definition.Definition)
	assert.Equal(t, tooltip.Point{X: 2, Y: 2}, st.Anchor)
}

func TestOrchestrator_DismissWhileLoadingSupersedes(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})

	h := newHarness(t, func(_ context.Context, word string) (domain.Definition, error) {
		close(started)
		<-release
		return domain.Definition{Word: word, Definition: "late"}, nil
	})

	done := make(chan Result, 1)
	go func() { done <- h.orch.RequestDefinition(context.Background(), "flower", anchor) }()

	<-started
	h.presenter.Close()
	close(release)

	res := <-done
	assert.Equal(t, OutcomeSuperseded, res.Outcome)
	assert.Equal(t, domain.TooltipHidden, h.presenter.State().Kind)

	_, cached := h.cache.Get("flower")
	assert.True(t, cached, "a discarded success is still cached")
}

func TestOrchestrator_ConcurrentRequestsSingleTooltip(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(_ context.Context, word string) (domain.Definition, error) {
		return domain.Definition{Word: word, Definition: word}, nil
	})

	var wg sync.WaitGroup
	for _, w := range []string{"alpha", "beta", "gamma", "delta"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.orch.RequestDefinition(context.Background(), w, anchor)
		}()
	}
	wg.Wait()

	assert.Equal(t, domain.TooltipShown, h.presenter.State().Kind, "the latest request always resolves")
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "superseded", OutcomeSuperseded.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
