package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/requestdata"
	"github.com/coursevault/coursevault-backend/internal/services"
)

type PurchaseHandler struct {
	log           *logger.Logger
	entitlements  services.EntitlementService
	webhookSecret string
}

func NewPurchaseHandler(log *logger.Logger, entitlements services.EntitlementService, webhookSecret string) *PurchaseHandler {
	return &PurchaseHandler{
		log:           log.With("handler", "PurchaseHandler"),
		entitlements:  entitlements,
		webhookSecret: webhookSecret,
	}
}

type paymentWebhookRequest struct {
	EventID             string `json:"event_id" binding:"required"`
	UserID              string `json:"user_id" binding:"required"`
	CourseID            string `json:"course_id" binding:"required"`
	VersionNumber       *int   `json:"version_number"`
	AllowVersionUpgrade bool   `json:"allow_version_upgrade"`
}

// PaymentWebhook takes the gateway's purchase confirmation and records the
// entitlement. The gateway retries on non-2xx, so a replayed event must come
// back 200 as well.
func (h *PurchaseHandler) PaymentWebhook(c *gin.Context) {
	secret := c.GetHeader("X-Webhook-Secret")
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
		RespondError(c, http.StatusUnauthorized, "invalid_webhook_secret", nil)
		return
	}

	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	ent, created, err := h.entitlements.ConfirmPurchase(c.Request.Context(), services.PurchaseConfirmation{
		EventID:             req.EventID,
		UserID:              userID,
		CourseID:            courseID,
		VersionNumber:       req.VersionNumber,
		AllowVersionUpgrade: req.AllowVersionUpgrade,
		ConfirmedAt:         time.Now().UTC(),
	})
	if err != nil {
		h.log.Error("PaymentWebhook failed", "error", err, "event_id", req.EventID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"entitlement": ent, "created": created})
}

func (h *PurchaseHandler) ListMyEntitlements(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	ents, err := h.entitlements.ListForUser(c.Request.Context(), rd.UserID)
	if err != nil {
		h.log.Error("ListMyEntitlements failed", "error", err, "user_id", rd.UserID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"entitlements": ents})
}
