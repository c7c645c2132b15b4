package handlers

import (
	"fmt"
	"io"
	"net/http"

	"schoolpay_backend/internal/middleware"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// FileHandler streams stored file contents (receipts, proof of payment).
type FileHandler struct {
	*BaseHandler
	uploadService services.UploadService
}

func NewFileHandler(base *BaseHandler, uploadService services.UploadService) *FileHandler {
	return &FileHandler{
		BaseHandler:   base,
		uploadService: uploadService,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup) {
	files := r.Group("/files")
	files.Use(middleware.AuthMiddleware())
	{
		files.GET("/:uploadId", h.Download)
	}
}

func (h *FileHandler) Download(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	role, _ := c.Get("role")
	requesterRole, _ := role.(models.UserRole)

	reader, upload, err := h.uploadService.OpenFile(c.Request.Context(), c.Param("uploadId"), userID, requesterRole)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", upload.OriginalName))
	c.Header("Content-Type", upload.MimeType)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, reader)
}
