package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/img2tg/img2tg/internal/consts"
	"github.com/img2tg/img2tg/internal/logger"
	"github.com/img2tg/img2tg/internal/platform"
	"github.com/img2tg/img2tg/internal/storage"
)

type fileRequest struct {
	FileID            string `json:"fileId"`
	APIKey            string `json:"apiKey"`
	MongoURI          string `json:"mongoUri"`
	PlaceholderFileID string `json:"placeholderFileId"`
	UserID            string `json:"userId"`
	ChatID            string `json:"chatId"`
}

type fileURLResponse struct {
	FileID             string  `json:"fileId"`
	FileURL            *string `json:"fileUrl"`
	PlaceholderFileID  string  `json:"placeholderFileId"`
	PlaceholderFileURL *string `json:"placeholderFileUrl"`
}

// handleResolveFile turns a stored file handle (and optionally its
// placeholder) into short-lived download URLs. When no placeholder handle is
// supplied it falls back to a gallery lookup. Read-only.
func (h *Handler) handleResolveFile(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgFileIDRequired})
		return
	}
	if req.FileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgFileIDRequired})
		return
	}
	if req.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgAPIKeyRequired})
		return
	}
	if req.MongoURI == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgMongoURIRequired})
		return
	}

	api, err := h.platformFor(req.APIKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": consts.MsgFileURLFailed, "error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	message := consts.MsgResolveSuccess

	fileURL := h.resolveURL(ctx, api, req.FileID)
	if fileURL == nil {
		message = consts.MsgFileFetchError
	}

	placeholderID := req.PlaceholderFileID
	var placeholderURL *string

	switch {
	case placeholderID != "":
		placeholderURL = h.resolveURL(ctx, api, placeholderID)
		if placeholderURL == nil {
			message = consts.MsgPlaceholderMissing
		}

	case req.UserID != "" && req.ChatID != "":
		placeholderID, placeholderURL, message = h.lookupPlaceholder(ctx, api, req, message)

	default:
		message = consts.MsgNoPlaceholderHints
	}

	c.JSON(http.StatusOK, gin.H{
		"file": fileURLResponse{
			FileID:             req.FileID,
			FileURL:            fileURL,
			PlaceholderFileID:  placeholderID,
			PlaceholderFileURL: placeholderURL,
		},
		"success": fileURL != nil || placeholderURL != nil,
		"message": message,
	})
}

// lookupPlaceholder searches storage for the placeholder handle recorded
// next to the requested file and resolves it when found.
func (h *Handler) lookupPlaceholder(ctx context.Context, api platform.API, req fileRequest, message string) (string, *string, string) {
	st, err := h.store(ctx, req.APIKey, req.MongoURI)
	if err != nil {
		logger.Error("Failed to connect for placeholder lookup", map[string]interface{}{
			"error": err.Error(),
		})
		return "", nil, consts.MsgPlaceholderDBError
	}

	placeholderID, err := st.Gallery(h.cfg.MongoDefaultCollection).Placeholder(ctx, req.UserID, req.ChatID, req.FileID)
	switch {
	case errors.Is(err, storage.ErrNoGallery):
		return "", nil, consts.MsgNoGallery
	case errors.Is(err, storage.ErrNoPlaceholder):
		return "", nil, consts.MsgNoPlaceholder
	case err != nil:
		logger.Error("Placeholder lookup failed", map[string]interface{}{
			"error":   err.Error(),
			"user_id": req.UserID,
			"chat_id": req.ChatID,
		})
		return "", nil, consts.MsgPlaceholderDBError
	}

	placeholderURL := h.resolveURL(ctx, api, placeholderID)
	if placeholderURL == nil {
		return placeholderID, nil, consts.MsgPlaceholderMissing
	}
	return placeholderID, placeholderURL, message
}

// resolveURL maps a handle to its download URL, degrading to nil on any
// resolution failure.
func (h *Handler) resolveURL(ctx context.Context, api platform.API, fileID string) *string {
	url, err := api.FileURL(ctx, fileID)
	if err != nil {
		logger.Debug("File handle did not resolve", map[string]interface{}{
			"error":   err.Error(),
			"file_id": fileID,
		})
		h.metrics.ObserveResolution(false)
		return nil
	}
	h.metrics.ObserveResolution(true)
	return &url
}
