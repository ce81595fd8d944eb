package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/requestdata"
	"github.com/coursevault/coursevault-backend/internal/services"
)

type ContentHandler struct {
	log           *logger.Logger
	accessService services.AccessService
	courseService services.CourseService
}

func NewContentHandler(log *logger.Logger, accessService services.AccessService, courseService services.CourseService) *ContentHandler {
	return &ContentHandler{
		log:           log.With("handler", "ContentHandler"),
		accessService: accessService,
		courseService: courseService,
	}
}

// GetCourseContent returns the full video listing of a course version with a
// per-video access decision and, for accessible videos, a short-lived
// delegated URL. `?version=N` pins a specific version; the default is the
// latest published one.
func (h *ContentHandler) GetCourseContent(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	sel := services.SelectLatest()
	if raw := c.Query("version"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondError(c, http.StatusBadRequest, "invalid_version", err)
			return
		}
		sel = services.SelectNumber(n)
	}

	// Course authors may inspect their own drafts.
	privileged := false
	if rd.IsAuthor {
		isAuthor, err := h.courseService.IsAuthor(c.Request.Context(), rd.UserID, courseID)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		privileged = isAuthor
	}

	result, err := h.accessService.GetAccessibleContent(c.Request.Context(), rd.UserID, courseID, sel, privileged)
	if err != nil {
		h.log.Error("GetCourseContent failed", "error", err, "course_id", courseID, "user_id", rd.UserID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
