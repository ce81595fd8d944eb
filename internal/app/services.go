package app

import (
	"gorm.io/gorm"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Course      services.CourseService
	Media       services.MediaService
	Version     services.VersionService
	Entitlement services.EntitlementService
	URLSigner   services.URLSignerService
	Access      services.AccessService
	Certificate services.CertificateService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("Wiring services...")

	authService := services.NewAuthService(db, log, r.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	courseService := services.NewCourseService(db, log, r.Course, r.CourseVersion, r.Video)
	mediaService := services.NewMediaService(log, r.Course, c.MediaBucket)
	versionService := services.NewVersionService(db, log, r.Course, r.CourseVersion, r.Video, c.VersionCache)
	entitlementService := services.NewEntitlementService(db, log, r.Entitlement, 0)
	urlSigner := services.NewURLSignerService(log, c.MediaBucket, cfg.SignedURLTTL)
	accessService := services.NewAccessService(log, versionService, entitlementService, urlSigner)
	certificateService := services.NewCertificateService(db, log, r.Certificate, r.User, r.Course, r.CourseVersion, r.Video, entitlementService, cfg.PlatformName)

	return Services{
		Auth:        authService,
		Course:      courseService,
		Media:       mediaService,
		Version:     versionService,
		Entitlement: entitlementService,
		URLSigner:   urlSigner,
		Access:      accessService,
		Certificate: certificateService,
	}
}
