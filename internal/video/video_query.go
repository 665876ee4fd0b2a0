package video

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vidshare/vidshare/internal/httputil"
	"github.com/vidshare/vidshare/internal/models"
)

// parsePage reads the limit and offset query parameters; absent values are 0
// and the store applies its defaults.
func parsePage(r *http.Request) (limit, offset int, ok bool) {
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(r)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "limit and offset must be non-negative integers")
		return
	}
	h.writeVideos(w, r, models.VideoFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	})
}

func (h *Handler) ByChannel(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(r)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "limit and offset must be non-negative integers")
		return
	}
	h.writeVideos(w, r, models.VideoFilter{
		ChannelID: chi.URLParam(r, "id"),
		Limit:     limit,
		Offset:    offset,
	})
}

func (h *Handler) writeVideos(w http.ResponseWriter, r *http.Request, filter models.VideoFilter) {
	videos, err := h.store.FindVideos(r.Context(), filter)
	if err != nil {
		writeError(w, err, "failed to list videos", "search", filter.Search, "channel_id", filter.ChannelID)
		return
	}
	joined, err := h.joiner.Join(r.Context(), videos)
	if err != nil {
		writeError(w, err, "failed to list videos", "channel_id", filter.ChannelID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, joined)
}

// Get counts every read, including anonymous ones.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := h.store.IncrementViews(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to load video", "video_id", id)
		return
	}

	h.recordView(r, v.ID)

	joined, err := h.joiner.JoinOne(r.Context(), v)
	if err != nil {
		writeError(w, err, "failed to load video", "video_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, joined)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	channelID, ok := actingChannel(w, r)
	if !ok {
		return
	}
	limit, offset, ok := parsePage(r)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "limit and offset must be non-negative integers")
		return
	}

	videos, err := h.store.WatchHistory(r.Context(), channelID, limit, offset)
	if err != nil {
		writeError(w, err, "failed to load watch history", "channel_id", channelID)
		return
	}
	joined, err := h.joiner.Join(r.Context(), videos)
	if err != nil {
		writeError(w, err, "failed to load watch history", "channel_id", channelID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, joined)
}
