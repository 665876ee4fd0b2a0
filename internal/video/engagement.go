package video

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Like and Dislike are open to any authenticated channel, including the owner.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.store.Like, "failed to like video")
}

func (h *Handler) Dislike(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.store.Dislike, "failed to dislike video")
}

func (h *Handler) react(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, videoID, channelID string) error, msg string) {
	channelID, ok := actingChannel(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := apply(r.Context(), id, channelID); err != nil {
		writeError(w, err, msg, "video_id", id, "channel_id", channelID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
