// Package channel serves public channel profiles, owner profile edits and
// subscriptions between channels.
package channel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vidshare/vidshare/internal/auth"
	"github.com/vidshare/vidshare/internal/httputil"
	"github.com/vidshare/vidshare/internal/models"
	"github.com/vidshare/vidshare/internal/validate"
)

type Store interface {
	FindChannel(ctx context.Context, id string) (models.Channel, error)
	UpdateChannel(ctx context.Context, id string, patch models.ChannelPatch) (models.Channel, error)
	Subscribe(ctx context.Context, subscriberID, targetID string) error
	Unsubscribe(ctx context.Context, subscriberID, targetID string) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type updateRequest struct {
	Name    *string `json:"name"`
	Profile *string `json:"profile"`
	Banner  *string `json:"banner"`
}

func writeError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "channel not found")
	case errors.Is(err, models.ErrConflict):
		httputil.WriteError(w, http.StatusConflict, "channel name already in use")
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrForbidden):
		auth.WriteAuthError(w, err)
	default:
		slog.Error(msg, append(attrs, "error", err)...)
		httputil.WriteError(w, http.StatusInternalServerError, msg)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.store.FindChannel(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to load channel", "channel_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patch := models.ChannelPatch{Name: req.Name, Profile: req.Profile, Banner: req.Banner}
	if patch.Empty() {
		httputil.WriteError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if msg := validate.ChannelName(name); msg != "" {
			httputil.WriteError(w, http.StatusBadRequest, msg)
			return
		}
		patch.Name = &name
	}
	for _, u := range []*string{patch.Profile, patch.Banner} {
		if u == nil {
			continue
		}
		if msg := validate.URL(*u); msg != "" {
			httputil.WriteError(w, http.StatusBadRequest, msg)
			return
		}
	}

	// Channels are their own owners; existence is checked first so a missing
	// channel reads as 404 rather than 403.
	if _, err := h.store.FindChannel(r.Context(), id); err != nil {
		writeError(w, err, "failed to update channel", "channel_id", id)
		return
	}
	if err := auth.RequireOwner(r.Context(), id); err != nil {
		writeError(w, err, "failed to update channel", "channel_id", id)
		return
	}

	c, err := h.store.UpdateChannel(r.Context(), id, patch)
	if err != nil {
		writeError(w, err, "failed to update channel", "channel_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.subscription(w, r, h.store.Subscribe, "failed to subscribe")
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.subscription(w, r, h.store.Unsubscribe, "failed to unsubscribe")
}

func (h *Handler) subscription(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, subscriberID, targetID string) error, msg string) {
	subscriberID := auth.ChannelIDFromContext(r.Context())
	if subscriberID == "" {
		auth.WriteAuthError(w, auth.ErrUnauthenticated)
		return
	}
	targetID := chi.URLParam(r, "id")
	if targetID == subscriberID {
		httputil.WriteError(w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}
	if err := apply(r.Context(), subscriberID, targetID); err != nil {
		writeError(w, err, msg, "channel_id", subscriberID, "target_id", targetID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
