package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/korsetof/chatmod/internal/adapters/storage"
)

// 10 MiB upload cap, matching the web client's limit.
const maxUploadSize = 10 << 20

// MediaHandler serves media uploads for image/audio/video messages.
type MediaHandler struct {
	storage *storage.MediaStorage
	logger  *slog.Logger
}

func NewMediaHandler(storage *storage.MediaStorage, logger *slog.Logger) *MediaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaHandler{storage: storage, logger: logger}
}

// Upload handles POST /media with a multipart "file" field. The response URL
// goes into the mediaUrl field of a subsequent message.
func (h *MediaHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file field is required")
		return
	}
	if header.Size > maxUploadSize {
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds 10 MiB")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("failed to open upload", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to read upload")
		return
	}
	defer file.Close()

	url, err := h.storage.Upload(c.Request.Context(), header.Filename, header.Size, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Error("failed to store upload", "filename", header.Filename, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to store upload")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
