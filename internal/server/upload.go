package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/img2tg/img2tg/internal/consts"
	"github.com/img2tg/img2tg/internal/logger"
	"github.com/img2tg/img2tg/internal/platform"
	"github.com/img2tg/img2tg/internal/preview"
	"github.com/img2tg/img2tg/internal/retry"
	"github.com/img2tg/img2tg/internal/storage"
)

type uploadedFile struct {
	FileID        string `json:"fileId"`
	PlaceholderID string `json:"placeholderId,omitempty"`
}

// handleUpload accepts a multipart batch of images, delivers each to the
// destination chat sequentially and records the whole batch with a single
// upsert. Files already delivered when a later one fails stay delivered;
// there is no rollback.
func (h *Handler) handleUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgMissingFields})
		return
	}

	files := form.File[consts.FieldImage]
	chatID := c.PostForm(consts.FieldChatID)
	apiKey := c.PostForm(consts.FieldKey)
	caption := c.PostForm(consts.FieldCaption)
	compress := c.PostForm(consts.FieldCompress) == "true"

	// Identity is a separate field; it falls back to the credential for
	// callers that still conflate the two.
	userID := c.PostForm(consts.FieldUserID)
	if userID == "" {
		userID = apiKey
	}

	mongoURI := c.PostForm(consts.FieldMongoURI)
	if mongoURI == "" {
		mongoURI = h.cfg.MongoDefaultURI
	}
	collection := c.PostForm(consts.FieldCollection)
	if collection == "" {
		collection = h.cfg.MongoDefaultCollection
	}

	// All validation happens before any network call
	if len(files) == 0 || chatID == "" || apiKey == "" || mongoURI == "" || collection == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgMissingFields})
		return
	}
	for _, fh := range files {
		if !preview.AllowedType(fh.Header.Get("Content-Type")) {
			c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgBadImageType})
			return
		}
	}
	chat, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "chatId must be a numeric chat identifier"})
		return
	}

	api, err := h.platformFor(apiKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": consts.MsgAPIKeyRequired})
		return
	}

	ctx := c.Request.Context()
	st, err := h.store(ctx, apiKey, mongoURI)
	if err != nil {
		logger.Error("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"message": consts.MsgUploadFailed, "error": "database connection error"})
		return
	}

	timestamp := h.now().UTC()
	items := make([]storage.GalleryItem, 0, len(files))
	results := make([]uploadedFile, 0, len(files))

	for i, fh := range files {
		// Pace deliveries to stay under per-chat throughput limits; this
		// is additive to any retry backoff.
		if i > 0 && h.cfg.UploadDelay > 0 {
			if err := h.sleep(ctx, h.cfg.UploadDelay); err != nil {
				h.metrics.ObserveUpload("failure", 1)
				c.JSON(http.StatusInternalServerError, gin.H{"message": consts.MsgUploadFailed, "error": err.Error()})
				return
			}
		}

		data, err := readMultipartFile(fh)
		if err != nil {
			h.metrics.ObserveUpload("failure", 1)
			c.JSON(http.StatusInternalServerError, gin.H{"message": consts.MsgUploadFailed, "error": "failed to read uploaded file"})
			return
		}

		fileCaption := ""
		if len(files) == 1 {
			fileCaption = caption
		}

		up, err := retry.Do(ctx, func() (platform.Upload, error) {
			return api.SendDocument(ctx, chat, data, fh.Filename, fileCaption)
		}, h.retryOpts())
		if err != nil {
			h.metrics.ObserveUpload("failure", 1)
			respondUploadError(c, err)
			return
		}
		if up.FileID == "" {
			// No handle means the record would be unreadable forever; abort
			h.metrics.ObserveUpload("failure", 1)
			c.JSON(http.StatusInternalServerError, gin.H{"message": consts.MsgUploadFailed, "error": "failed to retrieve fileId from telegram"})
			return
		}
		h.metrics.AddUploadBytes(len(data))

		placeholder := ""
		if compress {
			placeholder = h.uploadPlaceholder(c, api, chat, fh.Filename, data)
		}

		item := storage.GalleryItem{
			MessageID:   up.MessageID,
			FileID:      up.FileID,
			Timestamp:   timestamp,
			UploadedAt:  timestamp,
			Caption:     fileCaption,
			Placeholder: placeholder,
		}
		items = append(items, item)
		results = append(results, uploadedFile{FileID: up.FileID, PlaceholderID: placeholder})
	}

	if err := st.Gallery(collection).AppendItems(ctx, userID, chatID, items, timestamp); err != nil {
		logger.Error("Failed to record gallery items", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
			"chat_id": chatID,
			"items":   len(items),
		})
		h.metrics.ObserveUpload("failure", len(items))
		c.JSON(http.StatusInternalServerError, gin.H{"message": consts.MsgUploadFailed, "error": "database error"})
		return
	}

	h.metrics.ObserveUpload("success", len(items))
	logger.Info("Upload batch recorded", map[string]interface{}{
		"chat_id": chatID,
		"files":   len(items),
	})
	c.JSON(http.StatusOK, gin.H{"message": consts.MsgUploadSuccess, "fileIds": results})
}

// uploadPlaceholder generates and delivers the compressed variant. Failures
// degrade the record instead of aborting the batch.
func (h *Handler) uploadPlaceholder(c *gin.Context, api platform.API, chat int64, filename string, data []byte) string {
	compressed, err := preview.Placeholder(data)
	if err != nil {
		logger.Warn("Failed to generate placeholder", map[string]interface{}{
			"error":    err.Error(),
			"filename": filename,
		})
		return ""
	}

	up, err := retry.Do(c.Request.Context(), func() (platform.Upload, error) {
		return api.SendPhoto(c.Request.Context(), chat, compressed, filename)
	}, h.retryOpts())
	if err != nil {
		logger.Warn("Failed to upload placeholder", map[string]interface{}{
			"error":    err.Error(),
			"filename": filename,
		})
		return ""
	}
	return up.FileID
}

func respondUploadError(c *gin.Context, err error) {
	if errors.Is(err, retry.ErrMaxRetries) {
		c.JSON(http.StatusTooManyRequests, gin.H{"message": consts.MsgRateLimited, "error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": consts.MsgUploadFailed, "error": err.Error()})
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
