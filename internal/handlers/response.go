package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursevault/coursevault-backend/internal/platform/apierr"
	"github.com/coursevault/coursevault-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps service sentinels onto HTTP statuses so handlers
// don't each carry their own switch. Unknown errors become a 500.
func RespondServiceError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, err)
		return
	}
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		RespondError(c, http.StatusNotFound, "course_not_found", err)
	case errors.Is(err, services.ErrVersionNotFound):
		RespondError(c, http.StatusNotFound, "version_not_found", err)
	case errors.Is(err, services.ErrCertificateNotFound):
		RespondError(c, http.StatusNotFound, "certificate_not_found", err)
	case errors.Is(err, services.ErrVersionNotPublished):
		RespondError(c, http.StatusForbidden, "version_not_published", err)
	case errors.Is(err, services.ErrVersionNotDraft):
		RespondError(c, http.StatusConflict, "version_not_draft", err)
	case errors.Is(err, services.ErrNotCourseAuthor):
		RespondError(c, http.StatusForbidden, "not_course_author", err)
	case errors.Is(err, services.ErrNotEntitled):
		RespondError(c, http.StatusForbidden, "not_entitled", err)
	case errors.Is(err, services.ErrEmailTaken):
		RespondError(c, http.StatusConflict, "email_taken", err)
	case errors.Is(err, services.ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
	case errors.Is(err, services.ErrLedgerUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "ledger_unavailable", err)
	case errors.Is(err, services.ErrStorageUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "storage_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
