package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/services"
)

type UploadHandler struct {
	log           *logger.Logger
	uploadService services.UploadService
}

func NewUploadHandler(log *logger.Logger, uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{
		log:           log.With("handler", "UploadHandler"),
		uploadService: uploadService,
	}
}

func (h *UploadHandler) UploadVideo(c *gin.Context) {
	h.upload(c, services.UploadCategoryVideo)
}

func (h *UploadHandler) UploadDocument(c *gin.Context) {
	h.upload(c, services.UploadCategoryDocument)
}

// upload reads the single multipart field named after the category.
func (h *UploadHandler) upload(c *gin.Context, category string) {
	header, err := c.FormFile(category)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", errors.New("No file uploaded"))
		return
	}
	url, err := h.uploadService.Save(c.Request.Context(), category, header)
	if err != nil {
		if !services.IsValidation(err) {
			h.log.Error("Upload failed", "category", category, "error", err)
		}
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}
