package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// storeProbe is what the health checks need from the record store.
type storeProbe interface {
	Ping(ctx context.Context) error
	Usage(ctx context.Context) (domain.Usage, error)
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	store   storeProbe
	version string
	clock   clockwork.Clock
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store storeProbe, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version, clock: clockwork.NewRealClock()}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: h.clock.Now(),
	})
}

// Ready pings the store: 200 if it answers, 503 if not.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "down",
			Timestamp: h.clock.Now(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: h.clock.Now(),
	})
}

// Health is the full check: store latency, quota use and version.
// A store over its quota is reported as degraded but still answers 200.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	components := make(map[string]CompStatus)
	overall := "ok"

	start := h.clock.Now()
	err := h.store.Ping(ctx)
	latency := h.clock.Since(start)

	if err != nil {
		components["storage"] = CompStatus{Status: "down"}
		overall = "down"
	} else {
		comp := CompStatus{Status: "ok", Latency: latency.String()}
		if u, err := h.store.Usage(ctx); err == nil {
			comp.Detail = strconv.FormatFloat(u.PercentUsed(), 'f', 1, 64) + "% of quota"
			if u.OverQuota() {
				comp.Status = "degraded"
				overall = "degraded"
			}
		}
		components["storage"] = comp
	}

	status := http.StatusOK
	if overall == "down" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:     overall,
		Version:    h.version,
		Components: components,
		Timestamp:  h.clock.Now(),
	})
}
