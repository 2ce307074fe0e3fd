package rest

import (
	"net/http"

	"github.com/heartmarshall/study-helper/internal/transport/message"
	"github.com/heartmarshall/study-helper/internal/transport/middleware"
)

// Handlers groups the endpoints served by NewRouter. Admin may be nil.
type Handlers struct {
	Messages *MessageHandler
	Health   *HealthHandler
	Admin    *AdminHandler
}

// NewRouter mounts every endpoint. limit wraps the message endpoint only;
// nil means no limit.
func NewRouter(h Handlers, limit middleware.Middleware) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST "+message.Path, middleware.Chain(limit)(h.Messages))

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	if h.Admin != nil {
		mux.HandleFunc("GET /admin/storage", h.Admin.StorageStats)
		mux.HandleFunc("POST /admin/cleanup", h.Admin.Cleanup)
	}
	return mux
}
