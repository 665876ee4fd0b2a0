package video

import (
	"log/slog"
	"net/http"

	"github.com/mssola/useragent"
	"github.com/vidshare/vidshare/internal/auth"
	"github.com/vidshare/vidshare/internal/httputil"
	"github.com/vidshare/vidshare/internal/models"
)

func classifyDevice(ua *useragent.UserAgent) string {
	switch {
	case ua.Bot():
		return "bot"
	case ua.Mobile():
		return "mobile"
	default:
		return "desktop"
	}
}

func (h *Handler) buildView(r *http.Request, videoID string) models.View {
	ua := useragent.New(r.UserAgent())
	browser, _ := ua.Browser()
	view := models.View{
		VideoID:         videoID,
		ViewerChannelID: auth.ChannelIDFromContext(r.Context()),
		Browser:         browser,
		Device:          classifyDevice(ua),
	}
	if h.locator != nil {
		loc := h.locator.Locate(httputil.ClientIP(r))
		view.Country, view.City = loc.Country, loc.City
	}
	return view
}

// recordView is best effort: the read has already been counted and must not
// fail because analytics could not be written.
func (h *Handler) recordView(r *http.Request, videoID string) {
	if err := h.store.RecordView(r.Context(), h.buildView(r, videoID)); err != nil {
		slog.Error("record video view", "video_id", videoID, "error", err)
	}
}
