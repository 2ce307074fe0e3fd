package message

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Path is where the background context accepts messages over HTTP.
const Path = "/api/v1/messages"

const maxResponseBytes = 4 << 20

// Messenger delivers an envelope and returns the JSON response.
type Messenger interface {
	Send(ctx context.Context, env Envelope) (json.RawMessage, error)
}

// Local delivers envelopes to a dispatcher in the same process.
type Local struct {
	d *Dispatcher
}

// NewLocal creates an in-process messenger.
func NewLocal(d *Dispatcher) *Local {
	return &Local{d: d}
}

// Send implements Messenger.
func (l *Local) Send(ctx context.Context, env Envelope) (json.RawMessage, error) {
	resp, err := l.d.Dispatch(ctx, env)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode %s response: %w", env.Action, err)
	}
	return b, nil
}

// HTTPMessenger posts envelopes to a background server.
type HTTPMessenger struct {
	endpoint   string
	httpClient *http.Client
	requestID  func(ctx context.Context) string
}

// HTTPOption configures an HTTPMessenger.
type HTTPOption func(*HTTPMessenger)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(m *HTTPMessenger) { m.httpClient = c }
}

// WithRequestID sets a function whose result is sent as X-Request-Id.
func WithRequestID(fn func(ctx context.Context) string) HTTPOption {
	return func(m *HTTPMessenger) { m.requestID = fn }
}

// NewHTTPMessenger creates a messenger for the server at baseURL.
func NewHTTPMessenger(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPMessenger {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	m := &HTTPMessenger{
		endpoint:   strings.TrimRight(baseURL, "/") + Path,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send implements Messenger. Non-200 answers become *RemoteError.
func (m *HTTPMessenger) Send(ctx context.Context, env Envelope) (json.RawMessage, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if m.requestID != nil {
		if id := m.requestID(ctx); id != "" {
			req.Header.Set("X-Request-Id", id)
		}
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", env.Action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", env.Action, err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb ErrorBody
		if err := json.Unmarshal(data, &eb); err != nil || eb.Error == "" {
			eb = ErrorBody{Error: strings.TrimSpace(string(data)), Code: CodeInternal}
		}
		return nil, &RemoteError{Status: resp.StatusCode, Code: eb.Code, Message: eb.Error}
	}
	return data, nil
}
