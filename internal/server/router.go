package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/coursevault/coursevault-backend/internal/handlers"
	"github.com/coursevault/coursevault-backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins       []string
	AuthMiddleware     *middleware.AuthMiddleware
	AuthHandler        *handlers.AuthHandler
	CourseHandler      *handlers.CourseHandler
	MediaHandler       *handlers.MediaHandler
	ContentHandler     *handlers.ContentHandler
	PurchaseHandler    *handlers.PurchaseHandler
	CertificateHandler *handlers.CertificateHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("coursevault-backend"))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.GET("/verify/:serial", cfg.CertificateHandler.VerifyCertificate)
	// Gateway-facing; authenticated by shared secret, not a user token.
	router.POST("/webhooks/payment", cfg.PurchaseHandler.PaymentWebhook)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Content
	api.GET("/courses/:id/content", cfg.ContentHandler.GetCourseContent)
	// Authoring
	api.GET("/courses", cfg.CourseHandler.ListMyCourses)
	api.POST("/courses", cfg.CourseHandler.CreateCourse)
	api.GET("/courses/:id/versions", cfg.CourseHandler.ListVersions)
	api.POST("/courses/:id/versions", cfg.CourseHandler.CreateDraftVersion)
	api.POST("/versions/:versionId/publish", cfg.CourseHandler.PublishVersion)
	api.POST("/courses/:id/videos/source", cfg.MediaHandler.UploadVideoSource)
	api.DELETE("/courses/:id/videos/source", cfg.MediaHandler.DeleteVideoSource)
	// Purchases
	api.GET("/entitlements", cfg.PurchaseHandler.ListMyEntitlements)
	// Certificates
	api.POST("/courses/:id/certificate", cfg.CertificateHandler.IssueCertificate)

	return router
}
