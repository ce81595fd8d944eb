package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/requestdata"
	"github.com/coursevault/coursevault-backend/internal/services"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
	}
}

type createCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if !rd.IsAuthor {
		RespondError(c, http.StatusForbidden, "not_an_author", nil)
		return
	}
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.courseService.CreateCourse(c.Request.Context(), rd.UserID, req.Title, req.Description)
	if err != nil {
		h.log.Error("CreateCourse failed", "error", err, "user_id", rd.UserID)
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

func (h *CourseHandler) ListMyCourses(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courses, err := h.courseService.ListByAuthor(c.Request.Context(), rd.UserID)
	if err != nil {
		h.log.Error("ListMyCourses failed", "error", err, "user_id", rd.UserID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"courses": courses})
}

func (h *CourseHandler) ListVersions(c *gin.Context) {
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
	versions, err := h.courseService.ListVersions(c.Request.Context(), rd.UserID, courseID)
	if err != nil {
		h.log.Error("ListVersions failed", "error", err, "course_id", courseID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": versions})
}

type createVersionRequest struct {
	Changelog string                   `json:"changelog"`
	Videos    []services.NewVideoInput `json:"videos" binding:"required"`
}

func (h *CourseHandler) CreateDraftVersion(c *gin.Context) {
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
	var req createVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	version, err := h.courseService.CreateDraftVersion(c.Request.Context(), rd.UserID, courseID, req.Changelog, req.Videos)
	if err != nil {
		h.log.Error("CreateDraftVersion failed", "error", err, "course_id", courseID)
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"version": version})
}

func (h *CourseHandler) PublishVersion(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	versionID, err := uuid.Parse(c.Param("versionId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_version_id", err)
		return
	}
	version, err := h.courseService.PublishVersion(c.Request.Context(), rd.UserID, versionID)
	if err != nil {
		h.log.Error("PublishVersion failed", "error", err, "version_id", versionID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"version": version})
}
