package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/holohaven-api/internal/service"
)

type UploadHandler struct {
	images *service.ImageService
}

func NewUploadHandler(images *service.ImageService) *UploadHandler {
	return &UploadHandler{images: images}
}

// Upload hosts a single image. A host failure is a 502 here.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, ok := formImage(c, "image", "file")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	asset, err := h.images.Upload(c.Request.Context(), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// formImage opens the first multipart file found under one of fields.
func formImage(c *gin.Context, fields ...string) (multipart.File, bool) {
	for _, field := range fields {
		header, err := c.FormFile(field)
		if err != nil {
			continue
		}
		f, err := header.Open()
		if err != nil {
			return nil, false
		}
		return f, true
	}
	return nil, false
}
