package rest

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/service/gateway"
	"github.com/heartmarshall/study-helper/internal/transport/message"
)

type maintenanceService interface {
	Usage(ctx context.Context) (domain.Usage, error)
	Sweep(ctx context.Context, maxAgeDays int) (gateway.SweepResult, error)
}

// AdminHandler serves maintenance endpoints. They answer loopback
// clients only.
type AdminHandler struct {
	store       maintenanceService
	defaultDays int
	log         *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(store maintenanceService, defaultDays int, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		store:       store,
		defaultDays: defaultDays,
		log:         logger.With("handler", "admin"),
	}
}

// StorageStats reports storage use.
// GET /admin/storage
func (h *AdminHandler) StorageStats(w http.ResponseWriter, r *http.Request) {
	if !h.requireLocal(w, r) {
		return
	}

	u, err := h.store.Usage(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "storage usage", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, message.CodeStorage, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, message.NewStorageStats(u))
}

// Cleanup sweeps records older than the given age.
// POST /admin/cleanup?days=30
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if !h.requireLocal(w, r) {
		return
	}

	days := h.defaultDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, message.CodeValidation, "days must be a positive integer")
			return
		}
		days = n
	}

	res, err := h.store.Sweep(r.Context(), days)
	if err != nil {
		h.log.ErrorContext(r.Context(), "cleanup", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, message.CodeStorage, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, message.CleanupResponse{
		Success:     true,
		Removed:     res.Removed,
		KeysDeleted: res.KeysDeleted,
		KeysFailed:  res.KeysFailed,
	})
}

func (h *AdminHandler) requireLocal(w http.ResponseWriter, r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		writeError(w, http.StatusForbidden, "forbidden", "admin access is limited to loopback clients")
		return false
	}
	return true
}
