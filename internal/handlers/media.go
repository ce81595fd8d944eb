package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/requestdata"
	"github.com/coursevault/coursevault-backend/internal/services"
)

type MediaHandler struct {
	log   *logger.Logger
	media services.MediaService
}

func NewMediaHandler(log *logger.Logger, media services.MediaService) *MediaHandler {
	return &MediaHandler{
		log:   log.With("handler", "MediaHandler"),
		media: media,
	}
}

// UploadVideoSource accepts a multipart upload under the "file" field and
// responds with the storage key to reference from a draft version.
func (h *MediaHandler) UploadVideoSource(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	if userID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	defer file.Close()

	key, err := h.media.UploadVideoSource(c.Request.Context(), userID, courseID, header.Filename, file)
	if err != nil {
		h.log.Error("UploadVideoSource failed", "error", err, "course_id", courseID)
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"storage_key": key})
}

func (h *MediaHandler) DeleteVideoSource(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	if userID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	key := c.Query("key")
	if key == "" {
		RespondError(c, http.StatusBadRequest, "missing_key", nil)
		return
	}

	if err := h.media.DeleteVideoSource(c.Request.Context(), userID, courseID, key); err != nil {
		h.log.Error("DeleteVideoSource failed", "error", err, "course_id", courseID, "storage_key", key)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": key})
}
