package app

import (
	"github.com/gin-gonic/gin"

	"github.com/coursevault/coursevault-backend/internal/server"
)

func wireRouter(cfg Config, h Handlers, m Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowOrigins:       cfg.AllowOrigins,
		AuthMiddleware:     m.Auth,
		AuthHandler:        h.Auth,
		CourseHandler:      h.Course,
		MediaHandler:       h.Media,
		ContentHandler:     h.Content,
		PurchaseHandler:    h.Purchase,
		CertificateHandler: h.Certificate,
	})
}
