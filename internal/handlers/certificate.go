package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/requestdata"
	"github.com/coursevault/coursevault-backend/internal/services"
)

type CertificateHandler struct {
	log          *logger.Logger
	certificates services.CertificateService
}

func NewCertificateHandler(log *logger.Logger, certificates services.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		log:          log.With("handler", "CertificateHandler"),
		certificates: certificates,
	}
}

func (h *CertificateHandler) IssueCertificate(c *gin.Context) {
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
	cert, err := h.certificates.IssueCertificate(c.Request.Context(), rd.UserID, courseID)
	if err != nil {
		h.log.Error("IssueCertificate failed", "error", err, "course_id", courseID, "user_id", rd.UserID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"certificate": cert})
}

// VerifyCertificate is public: anyone holding a serial (an employer, say) can
// check that the certificate on record still matches what was issued.
func (h *CertificateHandler) VerifyCertificate(c *gin.Context) {
	serial := c.Param("serial")
	if serial == "" {
		RespondError(c, http.StatusBadRequest, "missing_serial", nil)
		return
	}
	valid, cert, err := h.certificates.VerifyCertificate(c.Request.Context(), serial)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"valid": valid, "certificate": cert})
}
