package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/study-helper/internal/transport/message"
)

// dispatcher routes decoded envelopes to their handlers.
type dispatcher interface {
	Dispatch(ctx context.Context, env message.Envelope) (any, error)
}

// MessageHandler serves the message endpoint of the background context.
type MessageHandler struct {
	d            dispatcher
	maxBodyBytes int64
	log          *slog.Logger
}

// NewMessageHandler creates a MessageHandler. maxBodyBytes <= 0 means 1 MiB.
func NewMessageHandler(d dispatcher, maxBodyBytes int64, logger *slog.Logger) *MessageHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &MessageHandler{d: d, maxBodyBytes: maxBodyBytes, log: logger.With("handler", "messages")}
}

// ServeHTTP handles POST /api/v1/messages.
func (h *MessageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, message.CodeUnsupported, "message too large")
			return
		}
		writeError(w, http.StatusBadRequest, message.CodeUnsupported, "invalid request body")
		return
	}

	env, err := message.Decode(body)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp, err := h.d.Dispatch(r.Context(), env)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw) //nolint:errcheck
}

func (h *MessageHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := message.Classify(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "message failed", slog.String("error", err.Error()))
		msg := "internal server error"
		if code == message.CodeStorage {
			msg = "storage unavailable"
		}
		writeError(w, status, code, msg)
		return
	}
	writeError(w, status, code, err.Error())
}
