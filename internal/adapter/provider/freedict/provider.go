// Package freedict is the dictionary client backed by the FreeDictionary API.
// Every lookup is a single bounded attempt whose failures are reported as
// *domain.LookupError values.
package freedict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/heartmarshall/study-helper/internal/config"
	"github.com/heartmarshall/study-helper/internal/domain"
)

const (
	defaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
	defaultTimeout = 8 * time.Second

	// maxBodyBytes bounds the response we are willing to decode.
	maxBodyBytes = 2 << 20
)

// Provider fetches definitions from the FreeDictionary API.
type Provider struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// Option customizes a Provider.
type Option func(*Provider)

// WithTimeout overrides the per-lookup bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithLimiter bounds the outbound request rate.
func WithLimiter(l *rate.Limiter) Option {
	return func(p *Provider) { p.limiter = l }
}

// NewProvider creates a Provider from DictionaryConfig.
func NewProvider(cfg config.DictionaryConfig, logger *slog.Logger, opts ...Option) *Provider {
	base := []Option{WithTimeout(cfg.Timeout)}
	if cfg.RatePerSecond > 0 {
		base = append(base, WithLimiter(rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(cfg.Burst, 1))))
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return NewProviderWithURL(baseURL, logger, append(base, opts...)...)
}

// NewProviderWithURL creates a Provider with a custom base URL (for testing).
// Without options it is unlimited and bounded by the default 8s timeout.
func NewProviderWithURL(baseURL string, logger *slog.Logger, opts ...Option) *Provider {
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    defaultTimeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		log:        logger.With("adapter", "freedict"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}
	return p
}

// Lookup fetches the definition of a normalized word. The whole call,
// including rate limiting, is bounded by the provider timeout. It makes a
// single attempt; every error is a *domain.LookupError.
func (p *Provider) Lookup(ctx context.Context, word string) (domain.Definition, error) {
	if !domain.IsLookupWord(word) {
		return domain.Definition{}, domain.NewLookupError(word, domain.LookupInvalidWord, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return domain.Definition{}, p.fail(ctx, word, domain.LookupTimeout, 0, fmt.Errorf("freedict: rate limit: %w", err))
	}

	reqURL := p.baseURL + "/" + url.PathEscape(word)

	p.log.DebugContext(ctx, "freedict request", slog.String("word", word))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Definition{}, p.fail(ctx, word, domain.LookupMalformed, 0, fmt.Errorf("freedict: create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.Definition{}, p.fail(ctx, word, transportKind(err), 0, fmt.Errorf("freedict: request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Definition{}, p.fail(ctx, word, domain.LookupNotFound, resp.StatusCode, nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Definition{}, p.fail(ctx, word, domain.LookupHTTPError, resp.StatusCode,
			fmt.Errorf("freedict: unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Definition{}, p.fail(ctx, word, transportKind(err), resp.StatusCode, fmt.Errorf("freedict: read body: %w", err))
	}

	var entries []apiEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return domain.Definition{}, p.fail(ctx, word, domain.LookupMalformed, resp.StatusCode, fmt.Errorf("freedict: decode json: %w", err))
	}

	def, kind, err := mapAPIResponse(word, entries)
	if err != nil {
		return domain.Definition{}, p.fail(ctx, word, kind, resp.StatusCode, err)
	}

	p.log.DebugContext(ctx, "freedict response",
		slog.String("word", word),
		slog.Int("status", resp.StatusCode),
		slog.Int("entries", len(entries)),
		slog.Int("synonyms", len(def.Synonyms)),
	)

	return def, nil
}

func (p *Provider) fail(ctx context.Context, word string, kind domain.LookupErrorKind, status int, cause error) error {
	lerr := domain.NewLookupError(word, kind, cause)
	lerr.Status = status

	level := slog.LevelWarn
	if kind == domain.LookupNotFound {
		level = slog.LevelDebug
	}
	p.log.Log(ctx, level, "freedict lookup failed",
		slog.String("word", word),
		slog.String("kind", string(kind)),
		slog.Int("status", status),
		slog.String("error", lerr.Error()),
	)
	return lerr
}

// transportKind classifies a transport error. Deadlines, cancellations and
// network timeouts surface as Timeout; anything else is an HTTP failure.
func transportKind(err error) domain.LookupErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.LookupTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.LookupTimeout
	}
	return domain.LookupHTTPError
}

// mapAPIResponse canonicalizes the first entry's first meaning's first
// definition.
func mapAPIResponse(word string, entries []apiEntry) (domain.Definition, domain.LookupErrorKind, error) {
	if len(entries) == 0 {
		return domain.Definition{}, domain.LookupNotFound, errors.New("freedict: empty entry list")
	}

	entry := entries[0]
	if len(entry.Meanings) == 0 {
		return domain.Definition{}, domain.LookupNotFound, errors.New("freedict: entry has no meanings")
	}

	meaning := entry.Meanings[0]
	if len(meaning.Definitions) == 0 || strings.TrimSpace(meaning.Definitions[0].Definition) == "" {
		return domain.Definition{}, domain.LookupNotFound, errors.New("freedict: meaning has no definition")
	}
	first := meaning.Definitions[0]

	result := domain.Definition{
		Word:         entry.Word,
		Phonetic:     phonetic(entry),
		PartOfSpeech: meaning.PartOfSpeech,
		Definition:   first.Definition,
		Example:      first.Example,
		Synonyms:     synonyms(meaning, first),
	}
	if result.Word == "" {
		result.Word = word
	}

	return result, "", nil
}

// phonetic prefers the entry-level transcription, then the first
// non-empty one from phonetics.
func phonetic(entry apiEntry) string {
	if entry.Phonetic != "" {
		return entry.Phonetic
	}
	for _, ph := range entry.Phonetics {
		if ph.Text != "" {
			return ph.Text
		}
	}
	return ""
}

func synonyms(meaning apiMeaning, def apiDefinition) []string {
	src := meaning.Synonyms
	if len(src) == 0 {
		src = def.Synonyms
	}

	out := make([]string, 0, min(len(src), domain.MaxSynonyms))
	for _, s := range src {
		if len(out) == domain.MaxSynonyms {
			break
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
