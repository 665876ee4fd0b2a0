// Package upload accepts multipart media uploads and stores them through the
// asset store, returning a public reference the client attaches to a video or
// channel.
package upload

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vidshare/vidshare/internal/auth"
	"github.com/vidshare/vidshare/internal/httputil"
	"github.com/vidshare/vidshare/internal/storage"
)

const (
	DefaultMaxUploadBytes = 500 * 1024 * 1024
	fileField             = "file"
	sniffLen              = 512
)

type AssetStore interface {
	Save(ctx context.Context, category storage.Category, filename, contentType string, body io.Reader) (storage.Asset, error)
}

type Handler struct {
	assets   AssetStore
	maxBytes int64
}

func NewHandler(assets AssetStore, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Handler{assets: assets, maxBytes: maxBytes}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	channelID := auth.ChannelIDFromContext(r.Context())
	if channelID == "" {
		auth.WriteAuthError(w, auth.ErrUnauthenticated)
		return
	}

	category, err := storage.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "unknown upload category")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			httputil.WriteError(w, http.StatusBadRequest, "file is required")
			return
		}
		if err != nil {
			writeReadError(w, err)
			return
		}
		if part.FormName() != fileField {
			_ = part.Close()
			continue
		}

		body := bufio.NewReaderSize(part, sniffLen)
		contentType := part.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			head, _ := body.Peek(sniffLen)
			contentType = http.DetectContentType(head)
		}

		asset, err := h.assets.Save(r.Context(), category, part.FileName(), contentType, body)
		_ = part.Close()
		if err != nil {
			h.writeSaveError(w, err, channelID, category)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, asset)
		return
	}
}

func writeReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	httputil.WriteError(w, http.StatusBadRequest, "invalid multipart body")
}

func (h *Handler) writeSaveError(w http.ResponseWriter, err error, channelID string, category storage.Category) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, storage.ErrUnsupportedMedia):
		httputil.WriteError(w, http.StatusUnsupportedMediaType, "unsupported file type for "+string(category))
	case errors.As(err, &tooLarge):
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
	default:
		slog.Error("failed to upload file", "channel_id", channelID, "category", category, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to upload file")
	}
}
