package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-canteen-orders/internal/notify"
)

type NotifyHandler struct {
	Service *notify.Service
	Log     *zap.Logger
}

func (h *NotifyHandler) Register(r chi.Router) {
	r.Post("/notify/send", h.send)
	r.Get("/notify/{user}", h.history)
}

func (h *NotifyHandler) send(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	msg := r.URL.Query().Get("message")
	key := r.URL.Query().Get("key")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Service.Send(ctx, user, msg, key); err != nil {
		if errors.Is(err, notify.ErrDuplicate) {
			writeJSON(w, http.StatusOK, notify.SendResult{Status: "DUPLICATE"})
			return
		}
		if errors.Is(err, notify.ErrInvalidEntry) {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		h.Log.Error("notify send", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, notify.SendResult{Status: "SENT"})
}

func (h *NotifyHandler) history(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	entries, err := h.Service.History(ctx, chi.URLParam(r, "user"))
	if err != nil {
		h.Log.Error("notify history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
