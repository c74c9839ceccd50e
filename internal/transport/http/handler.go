// Package http exposes the notification engine as a small local JSON
// API so a browser front end can render the feed without owning state.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nhle/carereminder/internal/engine"
	"github.com/nhle/carereminder/internal/model"
	"github.com/nhle/carereminder/internal/validate"
)

// Feed is the part of the engine the handlers drive.
type Feed interface {
	Snapshot() engine.Snapshot
	Refresh(ctx context.Context)
	MarkAsRead(ctx context.Context, id string) error
	Dismiss(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) error
	AddCustom(ctx context.Context, in engine.CustomInput) (model.Notification, error)
}

// Handler serves the notification endpoints.
type Handler struct {
	feed   Feed
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(feed Feed, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{feed: feed, logger: logger}
}

type addCustomRequest struct {
	Title    string `json:"title" validate:"required_without=Message,max=200"`
	Message  string `json:"message" validate:"required_without=Title,max=1000"`
	Priority string `json:"priority" validate:"omitempty,oneof=high medium normal"`
}

// List handles GET /notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.feed.Snapshot()))
}

// Add handles POST /notifications.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req addCustomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.feed.AddCustom(r.Context(), engine.CustomInput{
		Title:    req.Title,
		Message:  req.Message,
		Priority: model.Priority(req.Priority),
	})
	if err != nil {
		h.actionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// MarkRead handles POST /notifications/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.feed.MarkAsRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.actionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.feed.Snapshot()))
}

// MarkAllRead handles POST /notifications/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.feed.MarkAllAsRead(r.Context()); err != nil {
		h.actionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.feed.Snapshot()))
}

// Dismiss handles DELETE /notifications/{id}.
func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	if err := h.feed.Dismiss(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.actionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /refresh. It blocks until the refresh completes.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.feed.Refresh(r.Context())
	writeJSON(w, http.StatusOK, toSnapshotResponse(h.feed.Snapshot()))
}

func (h *Handler) actionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "notification not found")
	case errors.Is(err, engine.ErrEmptyNotification), errors.Is(err, engine.ErrInvalidPriority):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("notification action failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
