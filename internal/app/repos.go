package app

import (
	"gorm.io/gorm"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/repos"
)

type Repos struct {
	User          repos.UserRepo
	Course        repos.CourseRepo
	CourseVersion repos.CourseVersionRepo
	Video         repos.VideoRepo
	Entitlement   repos.EntitlementRepo
	Certificate   repos.CertificateRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		Course:        repos.NewCourseRepo(db, log),
		CourseVersion: repos.NewCourseVersionRepo(db, log),
		Video:         repos.NewVideoRepo(db, log),
		Entitlement:   repos.NewEntitlementRepo(db, log),
		Certificate:   repos.NewCertificateRepo(db, log),
	}
}
