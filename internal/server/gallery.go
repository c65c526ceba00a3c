package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/img2tg/img2tg/internal/consts"
	"github.com/img2tg/img2tg/internal/logger"
	"github.com/img2tg/img2tg/internal/storage"
)

type galleryRequest struct {
	APIKey         string `json:"apiKey"`
	UserID         string `json:"userId"`
	ChatID         string `json:"chatId"`
	MongoURI       string `json:"mongouri"`
	CollectionName string `json:"collectionName"`
}

type enrichedItem struct {
	MessageID          int       `json:"messageId"`
	Timestamp          time.Time `json:"timestamp"`
	Caption            string    `json:"caption"`
	FileURL            *string   `json:"fileUrl"`
	UploadedAt         time.Time `json:"uploadedAt"`
	PlaceholderFileID  string    `json:"placeholderFileId,omitempty"`
	PlaceholderFileURL *string   `json:"placeholderFileUrl,omitempty"`
}

// handleGallery returns a user's stored records, scoped to one destination
// when chatId is given, sorted most recent first and enriched with freshly
// resolved download URLs. Per-item resolution failures degrade that item to
// a null URL; the rest of the batch is unaffected.
func (h *Handler) handleGallery(c *gin.Context) {
	var req galleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgMissingFields})
		return
	}

	mongoURI := req.MongoURI
	if mongoURI == "" {
		mongoURI = h.cfg.MongoDefaultURI
	}
	collection := req.CollectionName
	if collection == "" {
		collection = h.cfg.MongoDefaultCollection
	}
	if mongoURI == "" || collection == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgMongoCfgRequired})
		return
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgUserIDRequired})
		return
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = h.cfg.BotToken
	}
	api, err := h.platformFor(apiKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgAPIKeyRequired})
		return
	}

	ctx := c.Request.Context()
	st, err := h.store(ctx, apiKey, mongoURI)
	if err != nil {
		logger.Error("Failed to connect for gallery read", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"message": consts.MsgGalleryFailed})
		return
	}

	galleries, err := st.Gallery(collection).UserGalleries(ctx, req.UserID, req.ChatID)
	if err != nil {
		logger.Error("Gallery query failed", map[string]interface{}{
			"error":   err.Error(),
			"user_id": req.UserID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"message": consts.MsgGalleryFailed})
		return
	}
	if len(galleries) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message":     consts.MsgNoImages,
			"galleryData": gin.H{},
		})
		return
	}

	galleryData := make(map[string][]enrichedItem, len(galleries))
	totalImages := 0
	for chatID, items := range galleries {
		storage.SortByRecency(items)

		enriched := make([]enrichedItem, 0, len(items))
		for _, item := range items {
			e := enrichedItem{
				MessageID:  item.MessageID,
				Timestamp:  item.Timestamp,
				Caption:    item.Caption,
				FileURL:    h.resolveURL(ctx, api, item.FileID),
				UploadedAt: item.UploadedAt,
			}
			if item.Placeholder != "" {
				e.PlaceholderFileID = item.Placeholder
				e.PlaceholderFileURL = h.resolveURL(ctx, api, item.Placeholder)
			}
			enriched = append(enriched, e)
		}
		galleryData[chatID] = enriched
		totalImages += len(enriched)
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":      req.UserID,
		"galleryData": galleryData,
		"totalChats":  len(galleryData),
		"totalImages": totalImages,
	})
}
