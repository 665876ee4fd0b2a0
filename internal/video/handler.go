// Package video serves the video resource endpoints: listing and search,
// single reads with view counting, owner-only mutation and engagement.
package video

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vidshare/vidshare/internal/auth"
	"github.com/vidshare/vidshare/internal/geoip"
	"github.com/vidshare/vidshare/internal/httputil"
	"github.com/vidshare/vidshare/internal/models"
)

type Store interface {
	FindVideo(ctx context.Context, id string) (models.Video, error)
	FindVideos(ctx context.Context, filter models.VideoFilter) ([]models.Video, error)
	IncrementViews(ctx context.Context, id string) (models.Video, error)
	CreateVideo(ctx context.Context, v models.Video) (models.Video, error)
	UpdateVideo(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error)
	DeleteVideo(ctx context.Context, id, channelID string) error
	Like(ctx context.Context, videoID, channelID string) error
	Dislike(ctx context.Context, videoID, channelID string) error
	RecordView(ctx context.Context, view models.View) error
	WatchHistory(ctx context.Context, channelID string, limit, offset int) ([]models.Video, error)
}

// Locator resolves a client address for view analytics.
type Locator interface {
	Locate(addr string) geoip.Location
}

// AssetRemover deletes uploaded media by the URL stored on a video. URLs it
// does not manage are ignored.
type AssetRemover interface {
	RemoveAsset(ctx context.Context, url string) error
}

type Handler struct {
	store   Store
	joiner  *Joiner
	locator Locator
	assets  AssetRemover
}

func NewHandler(store Store, channels ChannelLookup) *Handler {
	return &Handler{store: store, joiner: NewJoiner(channels)}
}

func (h *Handler) SetLocator(l Locator) {
	h.locator = l
}

func (h *Handler) SetAssetRemover(a AssetRemover) {
	h.assets = a
}

// writeError translates store, join and ownership failures. Anything outside
// the known taxonomy is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "video not found")
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrForbidden):
		auth.WriteAuthError(w, err)
	case errors.Is(err, models.ErrDanglingReference):
		slog.Error(msg, append(attrs, "error", err)...)
		httputil.WriteError(w, http.StatusInternalServerError, "video references a missing channel")
	default:
		slog.Error(msg, append(attrs, "error", err)...)
		httputil.WriteError(w, http.StatusInternalServerError, msg)
	}
}

// actingChannel returns the verified channel id, answering 401 when the
// request carries no identity.
func actingChannel(w http.ResponseWriter, r *http.Request) (string, bool) {
	channelID := auth.ChannelIDFromContext(r.Context())
	if channelID == "" {
		auth.WriteAuthError(w, auth.ErrUnauthenticated)
		return "", false
	}
	return channelID, true
}
