package app

import (
	"github.com/coursevault/coursevault-backend/internal/handlers"
	"github.com/coursevault/coursevault-backend/internal/platform/logger"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Course      *handlers.CourseHandler
	Media       *handlers.MediaHandler
	Content     *handlers.ContentHandler
	Purchase    *handlers.PurchaseHandler
	Certificate *handlers.CertificateHandler
}

func wireHandlers(log *logger.Logger, cfg Config, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:        handlers.NewAuthHandler(log, s.Auth),
		Course:      handlers.NewCourseHandler(log, s.Course),
		Media:       handlers.NewMediaHandler(log, s.Media),
		Content:     handlers.NewContentHandler(log, s.Access, s.Course),
		Purchase:    handlers.NewPurchaseHandler(log, s.Entitlement, cfg.PaymentWebhookSecret),
		Certificate: handlers.NewCertificateHandler(log, s.Certificate),
	}
}
