package video

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vidshare/vidshare/internal/auth"
	"github.com/vidshare/vidshare/internal/httputil"
	"github.com/vidshare/vidshare/internal/models"
	"github.com/vidshare/vidshare/internal/validate"
)

type createRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	VideoURL    string   `json:"videoUrl"`
	Tags        []string `json:"tags"`
}

type updateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"imageUrl"`
	VideoURL    *string   `json:"videoUrl"`
	Tags        *[]string `json:"tags"`
}

func validateFields(title, description, imageURL, videoURL string, tags []string) string {
	for _, msg := range []string{
		validate.Title(title),
		validate.Description(description),
		validate.URL(imageURL),
		validate.URL(videoURL),
		validate.Tags(tags),
	} {
		if msg != "" {
			return msg
		}
	}
	return ""
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	channelID, ok := actingChannel(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		httputil.WriteError(w, http.StatusBadRequest, "title is required")
		return
	}
	if msg := validateFields(req.Title, req.Description, req.ImageURL, req.VideoURL, req.Tags); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := h.store.CreateVideo(r.Context(), models.Video{
		ChannelID:   channelID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		VideoURL:    req.VideoURL,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, err, "failed to create video", "channel_id", channelID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// loadOwned reports NotFound before Forbidden so a missing video is never
// mistaken for someone else's.
func (h *Handler) loadOwned(ctx context.Context, id string) (models.Video, error) {
	v, err := h.store.FindVideo(ctx, id)
	if err != nil {
		return models.Video{}, err
	}
	if err := auth.RequireOwner(ctx, v.ChannelID); err != nil {
		return models.Video{}, err
	}
	return v, nil
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patch := models.VideoPatch{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		VideoURL:    req.VideoURL,
		Tags:        req.Tags,
	}
	if patch.Empty() {
		httputil.WriteError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			httputil.WriteError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		patch.Title = &trimmed
	}
	if msg := validateFields(deref(patch.Title), deref(patch.Description), deref(patch.ImageURL), deref(patch.VideoURL), derefSlice(patch.Tags)); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.loadOwned(r.Context(), id); err != nil {
		writeError(w, err, "failed to update video", "video_id", id)
		return
	}

	updated, err := h.store.UpdateVideo(r.Context(), id, patch)
	if err != nil {
		writeError(w, err, "failed to update video", "video_id", id)
		return
	}
	joined, err := h.joiner.JoinOne(r.Context(), updated)
	if err != nil {
		writeError(w, err, "failed to update video", "video_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, joined)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v, err := h.loadOwned(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to delete video", "video_id", id)
		return
	}
	if err := h.store.DeleteVideo(r.Context(), id, v.ChannelID); err != nil {
		writeError(w, err, "failed to delete video", "video_id", id)
		return
	}
	h.removeAssets(r.Context(), v)
	w.WriteHeader(http.StatusNoContent)
}

// removeAssets runs after the record is gone; an orphaned object is logged
// and left for manual cleanup.
func (h *Handler) removeAssets(ctx context.Context, v models.Video) {
	if h.assets == nil {
		return
	}
	for _, url := range []string{v.ImageURL, v.VideoURL} {
		if url == "" {
			continue
		}
		if err := h.assets.RemoveAsset(ctx, url); err != nil {
			slog.Warn("remove video asset", "video_id", v.ID, "url", url, "error", err)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefSlice(s *[]string) []string {
	if s == nil {
		return nil
	}
	return *s
}
